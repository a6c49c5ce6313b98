package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/plataforma-apa/apa/core/capacitacion"
)

type capacitacionApi struct {
	svc      *capacitacion.Service
	validate *validator.Validate
}

func registerCapacitacionAPI(g *echo.Group, svc *capacitacion.Service, validate *validator.Validate) {
	api := capacitacionApi{svc: svc, validate: validate}

	cg := g.Group("/capacitaciones")
	cg.GET("", api.query)
	cg.POST("", api.create, staffOnly)
	cg.GET("/mias", api.mias, volOnly)
	cg.GET("/:id", api.retrieve)
	cg.PUT("/:id", api.update, staffOnly)
	cg.DELETE("/:id", api.destroy, staffOnly)
	cg.POST("/:id/iniciar", api.iniciar, volOnly)
	cg.POST("/:id/completar", api.completar, volOnly)
	cg.GET("/:id/progreso", api.progreso, staffOnly)
}

func (api *capacitacionApi) query(ctx echo.Context) error {
	filter := new(capacitacion.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []capacitacion.Capacitacion{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	ctxPerfil, err := getContextPerfil(ctx)
	if err != nil {
		return err
	}
	if !ctxPerfil.IsStaff() {
		activa := true
		filter.Activa = &activa
	}

	caps, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying capacitaciones")
	}
	if caps == nil {
		caps = []capacitacion.Capacitacion{}
	}
	return ctx.JSON(http.StatusOK, caps)
}

func (api *capacitacionApi) create(ctx echo.Context) error {
	var data capacitacion.CapacitacionInput
	if err := bindJSON(ctx, &data); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	c, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, c)
}

// get returns the Capacitacion `:id`; inactive ones are hidden from voluntarios.
func (api *capacitacionApi) get(ctx echo.Context) (capacitacion.Capacitacion, error) {
	c, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return capacitacion.Capacitacion{}, err
	}
	ctxPerfil, err := getContextPerfil(ctx)
	if err != nil {
		return capacitacion.Capacitacion{}, err
	}
	if !c.Activa && !ctxPerfil.IsStaff() {
		return capacitacion.Capacitacion{}, capacitacion.ErrNotFound
	}
	return c, nil
}

func (api *capacitacionApi) retrieve(ctx echo.Context) error {
	c, err := api.get(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *capacitacionApi) update(ctx echo.Context) error {
	c, err := api.get(ctx)
	if err != nil {
		return err
	}
	var data capacitacion.CapacitacionInput
	if err := bindJSON(ctx, &data); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	c, err = api.svc.Update(ctx.Request().Context(), c, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *capacitacionApi) destroy(ctx echo.Context) error {
	c, err := api.get(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Deactivate(ctx.Request().Context(), c); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *capacitacionApi) iniciar(ctx echo.Context) error {
	c, err := api.get(ctx)
	if err != nil {
		return err
	}
	ctxPerfil, err := getContextPerfil(ctx)
	if err != nil {
		return err
	}
	vc, err := api.svc.Iniciar(ctx.Request().Context(), c, ctxPerfil.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, vc)
}

func (api *capacitacionApi) completar(ctx echo.Context) error {
	c, err := api.get(ctx)
	if err != nil {
		return err
	}
	var data capacitacion.Completar
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
	vc, err := api.svc.Completar(ctx.Request().Context(), c, ctxPerfil.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, vc)
}

func (api *capacitacionApi) mias(ctx echo.Context) error {
	ctxPerfil, err := getContextPerfil(ctx)
	if err != nil {
		return err
	}
	mias, err := api.svc.Mias(ctx.Request().Context(), ctxPerfil.ID)
	if err != nil {
		return errors.Wrap(err, "querying capacitaciones")
	}
	return ctx.JSON(http.StatusOK, mias)
}

func (api *capacitacionApi) progreso(ctx echo.Context) error {
	c, err := api.get(ctx)
	if err != nil {
		return err
	}
	progresos, err := api.svc.Progreso(ctx.Request().Context(), c)
	if err != nil {
		return errors.Wrap(err, "querying progresos")
	}
	if progresos == nil {
		progresos = []capacitacion.VoluntarioCapacitacion{}
	}
	return ctx.JSON(http.StatusOK, progresos)
}
