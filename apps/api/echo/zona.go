package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/plataforma-apa/apa/core/zona"
)

type zonaApi struct {
	svc      *zona.Service
	validate *validator.Validate
}

func registerZonaAPI(g *echo.Group, svc *zona.Service, validate *validator.Validate) {
	api := zonaApi{svc: svc, validate: validate}

	zg := g.Group("/zonas")
	zg.GET("", api.query)
	zg.POST("", api.create, adminOnly)
	zg.GET("/:id", api.retrieve)
	zg.PUT("/:id", api.update, adminOnly)
	zg.DELETE("/:id", api.destroy, adminOnly)
}

func (api *zonaApi) query(ctx echo.Context) error {
	zonas, err := api.svc.Query(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying zonas")
	}
	if zonas == nil {
		zonas = []zona.Zona{}
	}
	return ctx.JSON(http.StatusOK, zonas)
}

func (api *zonaApi) create(ctx echo.Context) error {
	var data zona.ZonaInput
	if err := bindJSON(ctx, &data); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	z, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, z)
}

func (api *zonaApi) retrieve(ctx echo.Context) error {
	z, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, z)
}

func (api *zonaApi) update(ctx echo.Context) error {
	z, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	var data zona.ZonaInput
	if err := bindJSON(ctx, &data); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	z, err = api.svc.Update(ctx.Request().Context(), z, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, z)
}

func (api *zonaApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
