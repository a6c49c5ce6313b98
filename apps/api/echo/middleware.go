package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/plataforma-apa/apa/core"
	"github.com/plataforma-apa/apa/core/perfil"
)

// perfilMiddleware loads the active Perfil of the token subject into the context.
func perfilMiddleware(svc *perfil.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			p, err := svc.GetByID(ctx.Request().Context(), claims.Subject)
			if err != nil {
				if core.IsNotFound(err) {
					return errPerfilNotFound
				}
				return errors.Wrap(err, "finding context perfil")
			}
			if !p.Activo {
				return errAccountDeactivated
			}
			ctx.Set(contextPerfilKey, p)
			return next(ctx)
		}
	}
}

// roleMiddleware only lets through perfiles having one of `roles`.
func roleMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			p, err := getContextPerfil(ctx)
			if err != nil {
				return err
			}
			if !p.HasAnyRole(roles...) {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}

var (
	adminOnly = roleMiddleware(perfil.AdminRoles...)
	staffOnly = roleMiddleware(perfil.StaffRoles...)
	volOnly   = roleMiddleware(perfil.RoleVoluntario)
)
