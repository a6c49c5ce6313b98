package echoapi

import (
	"net/http"

	"github.com/dgrijalva/jwt-go"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/plataforma-apa/apa/core"
	"github.com/plataforma-apa/apa/core/perfil"
)

var (
	contextTokenKey  = "token"
	contextPerfilKey = "perfil"
)

// Claims are the claims of a Supabase access token.
type Claims struct {
	jwt.StandardClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"` // postgres role, eg: "authenticated"
}

// newJWTConfig verifies Supabase access tokens: HS256 signed with the project JWT secret.
func newJWTConfig(conf core.SupabaseConfig) middleware.JWTConfig {
	key := []byte(conf.JWTSecret)
	return middleware.JWTConfig{
		ContextKey: contextTokenKey,
		ParseTokenFunc: func(auth string, _ echo.Context) (interface{}, error) {
			token, err := jwt.ParseWithClaims(auth, new(Claims), func(t *jwt.Token) (interface{}, error) {
				if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
					return nil, errors.Errorf("unexpected jwt signing method=%v", t.Header["alg"])
				}
				return key, nil
			})
			if err != nil {
				return nil, err
			}
			claims, ok := token.Claims.(*Claims)
			if !ok || !token.Valid || claims.Subject == "" {
				return nil, errors.New("invalid token")
			}
			if conf.JWTAudience != "" && !claims.VerifyAudience(conf.JWTAudience, true) {
				return nil, errors.New("invalid token audience")
			}
			return token, nil
		},
	}
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// getContextPerfil returns the authenticated Perfil, loaded by perfilMiddleware.
func getContextPerfil(ctx echo.Context) (perfil.Perfil, error) {
	if p, ok := ctx.Get(contextPerfilKey).(perfil.Perfil); ok {
		return p, nil
	}
	return perfil.Perfil{}, errUnauthorized
}

type authApi struct {
	svc      *perfil.Service
	validate *validator.Validate
}

func registerAuthAPI(public, authed *echo.Group, svc *perfil.Service, validate *validator.Validate) {
	api := authApi{svc: svc, validate: validate}

	// un-authed endpoints
	pg := public.Group("/auth")
	pg.POST("/login", api.login)
	pg.POST("/refresh", api.refresh)
	pg.POST("/password-reset", api.resetPassword)

	// authed endpoints
	ag := authed.Group("/auth")
	ag.GET("/me", api.me)
}

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := bindJSON(ctx, &data); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sess, p, err := api.svc.SignIn(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		return authError(err)
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Session: sess, Perfil: p})
}

func (api *authApi) refresh(ctx echo.Context) error {
	var data RefreshRequest
	if err := bindJSON(ctx, &data); err != nil {
		return err
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	sess, p, err := api.svc.Refresh(ctx.Request().Context(), data.RefreshToken)
	if err != nil {
		return authError(err)
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Session: sess, Perfil: p})
}

func (api *authApi) resetPassword(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := bindJSON(ctx, &data); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	err := api.svc.RequestPasswordReset(ctx.Request().Context(), data.Email)
	if !(err == nil || core.IsNotFound(err) || errors.Cause(err) == perfil.ErrAccountDeactivated) {
		// do not return errors to attackers
		ctx.Logger().Errorf("%+v", errors.Wrap(err, "requesting password reset"))
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})
}

func (api *authApi) me(ctx echo.Context) error {
	p, err := getContextPerfil(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}

func authError(err error) error {
	switch errors.Cause(err) {
	case perfil.ErrInvalidCredentials:
		return errAuthenticationFailed
	case perfil.ErrAccountDeactivated:
		return errAccountDeactivated
	}
	return errors.Wrap(err, "authenticating")
}

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	RefreshRequest struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}

	LoginResponse struct {
		perfil.Session
		Perfil perfil.Perfil `json:"perfil"`
	}

	PasswordResetRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}

func (pr *PasswordResetRequest) Validate(validate *validator.Validate) error {
	pr.Email = core.CleanString(pr.Email, true /* lower */)
	return validate.Struct(pr)
}
