package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/plataforma-apa/apa/core/sesion"
)

type sesionApi struct {
	svc      *sesion.Service
	validate *validator.Validate
}

func registerSesionAPI(g *echo.Group, svc *sesion.Service, validate *validator.Validate) {
	api := sesionApi{svc: svc, validate: validate}

	sg := g.Group("/sesiones")
	sg.GET("", api.query)
	sg.POST("", api.create)
	sg.POST("/sync", api.sync)
	sg.GET("/:id", api.retrieve)
}

func (api *sesionApi) create(ctx echo.Context) error {
	var data sesion.SesionInput
	if err := bindJSON(ctx, &data); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	ctxPerfil, err := getContextPerfil(ctx)
	if err != nil {
		return err
	}

	s, created, err := api.svc.Create(ctx.Request().Context(), data, ctxPerfil)
	if err != nil {
		return err
	}
	if !created { // replayed by the offline queue
		return ctx.JSON(http.StatusOK, s)
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *sesionApi) sync(ctx echo.Context) error {
	var data sesion.SyncRequest
	if err := bindJSON(ctx, &data); err != nil {
		return err
	}
	ctxPerfil, err := getContextPerfil(ctx)
	if err != nil {
		return err
	}

	results, err := api.svc.Sync(ctx.Request().Context(), data.Sesiones, ctxPerfil, api.validate)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"resultados": results})
}

func (api *sesionApi) query(ctx echo.Context) error {
	filter := new(sesion.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []sesion.Sesion{})
	}
	filter.Clean()

	var err error
	if filter.Desde, err = queryDate(ctx, "desde"); err != nil {
		return err
	}
	if filter.Hasta, err = queryDate(ctx, "hasta"); err != nil {
		return err
	}
	if filter.Limit, err = queryInt(ctx, "limite"); err != nil {
		return err
	}

	ctxPerfil, err := getContextPerfil(ctx)
	if err != nil {
		return err
	}
	if !ctxPerfil.IsStaff() {
		if filter.VoluntarioID != "" && filter.VoluntarioID != ctxPerfil.ID {
			return errHttpForbidden
		}
		filter.VoluntarioID = ctxPerfil.ID
	}

	sesiones, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying sesiones")
	}
	if sesiones == nil {
		sesiones = []sesion.Sesion{}
	}
	return ctx.JSON(http.StatusOK, sesiones)
}

func (api *sesionApi) retrieve(ctx echo.Context) error {
	s, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	ctxPerfil, err := getContextPerfil(ctx)
	if err != nil {
		return err
	}
	if !ctxPerfil.IsStaff() && s.VoluntarioID != ctxPerfil.ID {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, s)
}
