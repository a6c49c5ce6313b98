package echoapi

import (
	"net/http"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plataforma-apa/apa/core/perfil"
	"github.com/plataforma-apa/apa/tests"
)

func TestServer_health(t *testing.T) {
	app := setup(t)
	app.run(t, []httpTest{
		{name: "no auth required", path: "/api/health", wantData: []byte(`{"status":"ok","build":"test"}`)},
	})
}

func Test_authApi_login(t *testing.T) {
	app := setup(t)

	vol := testutil.CreatePerfil(t, app.perfilRepo, "Vol", "vol@apa.test", perfil.RoleVoluntario, true)
	app.auth.Register(vol.ID, vol.Email, "s3cret-P@ss")
	naughty := testutil.CreatePerfil(t, app.perfilRepo, "N Dog", "ndog@apa.test", perfil.RoleVoluntario, false) // 😂
	app.auth.Register(naughty.ID, naughty.Email, "s3cret-P@ss")
	ghost := "ghost@apa.test" // auth user without perfil
	app.auth.Register("b0e2a4a7-7c1b-4c07-9a4c-1b9c8e0ad111", ghost, "s3cret-P@ss")

	login := func(email, pwd string) []byte {
		return marshalObj(t, LoginRequest{Email: email, Password: pwd})
	}
	authFailed := marshalObj(t, httpErr{Error: "authentication failed"})

	app.run(t, []httpTest{
		{name: "empty body", method: http.MethodPost, path: "/api/auth/login", body: []byte(`{}`), wantCode: http.StatusBadRequest},
		{name: "invalid email", method: http.MethodPost, path: "/api/auth/login", body: login("lol", "x"), wantCode: http.StatusBadRequest},
		{
			name: "wrong password", method: http.MethodPost, path: "/api/auth/login", body: login(vol.Email, "nope"),
			wantCode: http.StatusBadRequest, wantData: authFailed,
		},
		{
			name: "auth user without perfil", method: http.MethodPost, path: "/api/auth/login", body: login(ghost, "s3cret-P@ss"),
			wantCode: http.StatusBadRequest, wantData: authFailed,
		},
		{
			name: "inactive perfil", method: http.MethodPost, path: "/api/auth/login", body: login(naughty.Email, "s3cret-P@ss"),
			wantCode: http.StatusForbidden, wantData: marshalObj(t, httpErr{Error: "account deactivated"}),
		},
	})

	t.Run("success (case insensitive email)", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/api/auth/login", "", login("VOL@apa.test", "s3cret-P@ss"))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var res LoginResponse
		unmarshal(t, rec, &res)
		assert.Equal(t, "access-"+vol.ID, res.AccessToken)
		assert.Equal(t, "refresh-"+vol.ID, res.RefreshToken)
		assert.Equal(t, 3600, res.ExpiresIn)
		assert.Equal(t, vol.ID, res.Perfil.ID)
	})

	t.Run("refresh", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/api/auth/refresh", "", marshalObj(t, RefreshRequest{RefreshToken: "refresh-" + vol.ID}))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var res LoginResponse
		unmarshal(t, rec, &res)
		assert.Equal(t, vol.ID, res.Perfil.ID)

		rec = app.do(t, http.MethodPost, "/api/auth/refresh", "", marshalObj(t, RefreshRequest{RefreshToken: "lol"}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func Test_authApi_resetPassword(t *testing.T) {
	app := setup(t)

	vol := testutil.CreatePerfil(t, app.perfilRepo, "Vol", "vol@apa.test", perfil.RoleVoluntario, true)
	naughty := testutil.CreatePerfil(t, app.perfilRepo, "N Dog", "ndog@apa.test", perfil.RoleVoluntario, false)

	for _, email := range []string{"unknown@apa.test", naughty.Email, vol.Email} {
		rec := app.do(t, http.MethodPost, "/api/auth/password-reset", "", marshalObj(t, PasswordResetRequest{Email: email}))
		assert.Equal(t, http.StatusOK, rec.Code, email)
	}
	assert.Equal(t, []string{vol.Email}, app.auth.Recovered())
}

func Test_authApi_me(t *testing.T) {
	app := setup(t)

	vol := testutil.CreatePerfil(t, app.perfilRepo, "Vol", "vol@apa.test", perfil.RoleVoluntario, true)
	naughty := testutil.CreatePerfil(t, app.perfilRepo, "N Dog", "ndog@apa.test", perfil.RoleVoluntario, false)
	stranger := perfil.Perfil{ID: "3f1c7a3e-0c8e-4a53-8a9a-5f9f1d2b7c10", Email: "stranger@apa.test"}

	now := time.Now()
	expired := signToken(t, &Claims{StandardClaims: jwt.StandardClaims{
		Subject: vol.ID, Audience: testAudience, ExpiresAt: now.Add(-time.Minute).Unix(),
	}}, testJWTSecret)
	wrongSecret := signToken(t, &Claims{StandardClaims: jwt.StandardClaims{
		Subject: vol.ID, Audience: testAudience, ExpiresAt: now.Add(time.Hour).Unix(),
	}}, "another-secret")
	wrongAudience := signToken(t, &Claims{StandardClaims: jwt.StandardClaims{
		Subject: vol.ID, Audience: "anon", ExpiresAt: now.Add(time.Hour).Unix(),
	}}, testJWTSecret)
	invalidJWT := marshalObj(t, httpErr{Error: "invalid or expired jwt"})

	app.run(t, []httpTest{
		{name: "auth required", path: "/api/auth/me", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{name: "expired token", path: "/api/auth/me", token: expired, wantCode: http.StatusUnauthorized, wantData: invalidJWT},
		{name: "wrong secret", path: "/api/auth/me", token: wrongSecret, wantCode: http.StatusUnauthorized, wantData: invalidJWT},
		{name: "wrong audience", path: "/api/auth/me", token: wrongAudience, wantCode: http.StatusUnauthorized, wantData: invalidJWT},
		{
			name: "perfil not found", path: "/api/auth/me", token: getToken(t, stranger),
			wantCode: http.StatusForbidden, wantData: marshalObj(t, httpErr{Error: "perfil not found"}),
		},
		{
			name: "inactive perfil", path: "/api/auth/me", token: getToken(t, naughty),
			wantCode: http.StatusForbidden, wantData: marshalObj(t, httpErr{Error: "account deactivated"}),
		},
		{name: "success", path: "/api/auth/me", token: getToken(t, vol), wantData: marshalObj(t, vol)},
	})
}
