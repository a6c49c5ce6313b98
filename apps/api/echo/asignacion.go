package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/plataforma-apa/apa/core/asignacion"
)

type asignacionApi struct {
	svc      *asignacion.Service
	validate *validator.Validate
}

func registerAsignacionAPI(g *echo.Group, svc *asignacion.Service, validate *validator.Validate) {
	api := asignacionApi{svc: svc, validate: validate}

	ag := g.Group("/asignaciones")
	ag.GET("", api.query)
	ag.POST("", api.create, staffOnly)
	ag.POST("/:id/finalizar", api.finalize, staffOnly)
}

func (api *asignacionApi) query(ctx echo.Context) error {
	filter := new(asignacion.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []asignacion.Asignacion{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

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

	asignaciones, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying asignaciones")
	}
	if asignaciones == nil {
		asignaciones = []asignacion.Asignacion{}
	}
	return ctx.JSON(http.StatusOK, asignaciones)
}

func (api *asignacionApi) create(ctx echo.Context) error {
	var data asignacion.NewAsignacion
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

	a, err := api.svc.Create(ctx.Request().Context(), data, ctxPerfil.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *asignacionApi) finalize(ctx echo.Context) error {
	a, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	a, err = api.svc.Finalize(ctx.Request().Context(), a)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, a)
}
