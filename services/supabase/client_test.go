package supabase

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plataforma-apa/apa/core"
	"github.com/plataforma-apa/apa/core/perfil"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	APIKey string
	Body   map[string]interface{}
}

func newTestClient(t *testing.T, status int, body string) (*Client, *recordedRequest) {
	t.Helper()
	rec := new(recordedRequest)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.Method = r.Method
		rec.Path = r.URL.Path
		rec.Query = r.URL.RawQuery
		rec.APIKey = r.Header.Get("apikey")
		if data, _ := io.ReadAll(r.Body); len(data) > 0 {
			_ = json.Unmarshal(data, &rec.Body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	conf := core.SupabaseConfig{URL: srv.URL, AnonKey: "anon", ServiceRoleKey: "service"}
	return NewClient(conf, srv.Client()), rec
}

func TestClient_SignIn(t *testing.T) {
	client, rec := newTestClient(t, http.StatusOK, `{
		"access_token": "at", "refresh_token": "rt", "expires_in": 3600, "token_type": "bearer",
		"user": {"id": "u-1", "email": "ana@apa.org"}
	}`)

	sess, err := client.SignIn(context.Background(), "ana@apa.org", "S3cret!pwd")
	require.NoError(t, err)
	assert.Equal(t, perfil.Session{AccessToken: "at", RefreshToken: "rt", ExpiresIn: 3600, TokenType: "bearer", UserID: "u-1"}, sess)

	assert.Equal(t, http.MethodPost, rec.Method)
	assert.Equal(t, "/auth/v1/token", rec.Path)
	assert.Equal(t, "grant_type=password", rec.Query)
	assert.Equal(t, "anon", rec.APIKey)
	assert.Equal(t, "ana@apa.org", rec.Body["email"])
}

func TestClient_SignIn_InvalidCredentials(t *testing.T) {
	client, _ := newTestClient(t, http.StatusBadRequest, `{"error":"invalid_grant","error_description":"Invalid login credentials"}`)

	_, err := client.SignIn(context.Background(), "ana@apa.org", "wrong")
	assert.Equal(t, perfil.ErrInvalidCredentials, err)
}

func TestClient_SignIn_ContextCanceled(t *testing.T) {
	client, rec := newTestClient(t, http.StatusOK, `{}`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.SignIn(ctx, "ana@apa.org", "S3cret!pwd")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled), err)
	assert.Empty(t, rec.Path, "the request must not reach the server")
}

func TestClient_Refresh(t *testing.T) {
	client, rec := newTestClient(t, http.StatusOK, `{"access_token":"at2","refresh_token":"rt2","user":{"id":"u-1"}}`)

	sess, err := client.Refresh(context.Background(), "rt")
	require.NoError(t, err)
	assert.Equal(t, "at2", sess.AccessToken)
	assert.Equal(t, "grant_type=refresh_token", rec.Query)
	assert.Equal(t, "rt", rec.Body["refresh_token"])
}

func TestClient_CreateUser(t *testing.T) {
	client, rec := newTestClient(t, http.StatusOK, `{"id":"u-2","email":"beto@apa.org"}`)

	id, err := client.CreateUser(context.Background(), "beto@apa.org", "S3cret!pwd", map[string]interface{}{"rol": "voluntario"})
	require.NoError(t, err)
	assert.Equal(t, "u-2", id)
	assert.Equal(t, "/auth/v1/admin/users", rec.Path)
	assert.Equal(t, "service", rec.APIKey)
	assert.Equal(t, true, rec.Body["email_confirm"])
}

func TestClient_CreateUser_EmailExists(t *testing.T) {
	client, _ := newTestClient(t, http.StatusUnprocessableEntity, `{"code":422,"error_code":"email_exists","msg":"A user with this email address has already been registered"}`)

	_, err := client.CreateUser(context.Background(), "beto@apa.org", "S3cret!pwd", nil)
	assert.Equal(t, perfil.ErrEmailExists, err)
}

func TestClient_UpdateUser_Ban(t *testing.T) {
	client, rec := newTestClient(t, http.StatusOK, `{"id":"u-2"}`)

	banned := true
	require.NoError(t, client.UpdateUser(context.Background(), "u-2", perfil.AuthUserUpdate{Banned: &banned}))
	assert.Equal(t, http.MethodPut, rec.Method)
	assert.Equal(t, "/auth/v1/admin/users/u-2", rec.Path)
	assert.Equal(t, banForever, rec.Body["ban_duration"])
	assert.NotContains(t, rec.Body, "password")
}

func TestClient_DeleteUser_Error(t *testing.T) {
	client, _ := newTestClient(t, http.StatusInternalServerError, `{"msg":"database error"}`)

	err := client.DeleteUser(context.Background(), "u-2")
	require.Error(t, err)
	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "database error", apiErr.Message)
}

func TestClient_RecoverPassword(t *testing.T) {
	client, rec := newTestClient(t, http.StatusOK, `{}`)

	require.NoError(t, client.RecoverPassword(context.Background(), "ana@apa.org", "https://apa.org/reset-password"))
	assert.Equal(t, "/auth/v1/recover", rec.Path)
	assert.Contains(t, rec.Query, "redirect_to=")
}
