package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/plataforma-apa/apa/core"
	"github.com/plataforma-apa/apa/core/perfil"
)

var errPerfilNotFoundInCtx = errors.New("perfil object not found in echo.Context")

type perfilApi struct {
	svc      *perfil.Service
	validate *validator.Validate
}

func registerPerfilAPI(g *echo.Group, svc *perfil.Service, validate *validator.Validate) {
	api := perfilApi{svc: svc, validate: validate}

	pg := g.Group("/perfiles")
	pg.GET("", api.query, roleMiddleware(append([]string{perfil.RoleCoordinador}, perfil.AdminRoles...)...))
	pg.POST("", api.create, adminOnly)
	pg.GET("/roles", api.queryRoles)

	// detail endpoints
	dg := pg.Group("/:id", selfOrStaffMiddleware(api.svc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy, adminOnly)
}

// Handlers

func (api *perfilApi) create(ctx echo.Context) error {
	var data perfil.NewPerfil
	if err := bindJSON(ctx, &data); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	// ctxPerfil cannot grant a role above their own
	ctxPerfil, err := getContextPerfil(ctx)
	if err != nil {
		return err
	}
	if perfil.RolePriority(data.Rol) > perfil.RolePriority(ctxPerfil.Rol) {
		return core.NewValidationError(nil, core.FieldError{Field: "rol", Error: perfil.ErrRoleTooHigh.Error()})
	}

	p, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating perfil")
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *perfilApi) query(ctx echo.Context) error {
	filter := new(perfil.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []perfil.Perfil{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	ctxPerfil, err := getContextPerfil(ctx)
	if err != nil {
		return err
	}
	if !ctxPerfil.IsAdmin() { // coordinadores only see voluntarios
		filter.Roles = []string{perfil.RoleVoluntario}
	}

	perfiles, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying perfiles")
	}
	if perfiles == nil {
		perfiles = []perfil.Perfil{}
	}
	return ctx.JSON(http.StatusOK, perfiles)
}

func (api *perfilApi) retrieve(ctx echo.Context) error {
	p, ok := ctx.Get("object").(perfil.Perfil)
	if !ok {
		return errors.Wrap(errPerfilNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *perfilApi) update(ctx echo.Context) error {
	p, ok := ctx.Get("object").(perfil.Perfil)
	if !ok {
		return errors.Wrap(errPerfilNotFoundInCtx, "retrieving object from context")
	}

	var data perfil.UpdatePerfil
	if err := bindJSON(ctx, &data); err != nil {
		return err
	}

	ctxPerfil, err := getContextPerfil(ctx)
	if err != nil {
		return err
	}
	if !ctxPerfil.IsAdmin() {
		// only admins may edit others, or change `rol`, `zona_id` & `activo`
		if p.ID != ctxPerfil.ID || data.IsPrivileged() {
			return errHttpForbidden
		}
	}

	if err := data.Validate(p, api.validate); err != nil {
		return err
	}

	// ctxPerfil cannot grant a role above their own
	if data.Rol != "" && perfil.RolePriority(data.Rol) > perfil.RolePriority(ctxPerfil.Rol) {
		return core.NewValidationError(nil, core.FieldError{Field: "rol", Error: perfil.ErrRoleTooHigh.Error()})
	}
	// Say No to Suicide! ctxPerfil cannot deactivate themselves
	if p.ID == ctxPerfil.ID && data.Activo != nil && !*data.Activo {
		return errHttpForbidden
	}

	p, err = api.svc.Update(ctx.Request().Context(), p, data)
	if err != nil {
		return errors.Wrap(err, "updating perfil")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *perfilApi) destroy(ctx echo.Context) error {
	p, ok := ctx.Get("object").(perfil.Perfil)
	if !ok {
		return errors.Wrap(errPerfilNotFoundInCtx, "retrieving object from context")
	}

	// Say No to Suicide! ctxPerfil cannot deactivate themselves
	ctxPerfil, err := getContextPerfil(ctx)
	if err != nil {
		return err
	}
	if p.ID == ctxPerfil.ID {
		return errHttpForbidden
	}
	if perfil.RolePriority(p.Rol) > perfil.RolePriority(ctxPerfil.Rol) {
		return errHttpForbidden
	}

	if _, err := api.svc.Deactivate(ctx.Request().Context(), p); err != nil {
		return errors.Wrap(err, "deactivating perfil")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *perfilApi) queryRoles(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, perfil.Roles)
}

// selfOrStaffMiddleware loads the Perfil `:id` as "object" when it is the context perfil, or when the latter is staff.
func selfOrStaffMiddleware(svc *perfil.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			ctxPerfil, err := getContextPerfil(ctx)
			if err != nil {
				return err
			}

			if ctx.Param("id") == ctxPerfil.ID || ctxPerfil.IsStaff() {
				if p, err := svc.GetByID(ctx.Request().Context(), ctx.Param("id")); err == nil {
					ctx.Set("object", p)
					return next(ctx)
				} else if !core.IsNotFound(err) {
					return errors.Wrap(err, "finding perfil by ID")
				}
			}
			return errHttpNotFound
		}
	}
}
