package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/plataforma-apa/apa/core/autoevaluacion"
)

type autoevaluacionApi struct {
	svc      *autoevaluacion.Service
	validate *validator.Validate
}

func registerAutoevaluacionAPI(g *echo.Group, svc *autoevaluacion.Service, validate *validator.Validate) {
	api := autoevaluacionApi{svc: svc, validate: validate}

	ag := g.Group("/autoevaluaciones")
	ag.GET("/plantillas", api.queryPlantillas)
	ag.POST("/plantillas", api.createPlantilla, staffOnly)
	ag.GET("/plantillas/:id", api.retrievePlantilla)
	ag.PUT("/plantillas/:id", api.updatePlantilla, staffOnly)
	ag.DELETE("/plantillas/:id", api.destroyPlantilla, staffOnly)
	ag.POST("/plantillas/:id/respuestas", api.responder, volOnly)
	ag.GET("/respuestas", api.queryRespuestas)
}

func (api *autoevaluacionApi) queryPlantillas(ctx echo.Context) error {
	filter := new(autoevaluacion.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []autoevaluacion.Plantilla{})
	}
	ctxPerfil, err := getContextPerfil(ctx)
	if err != nil {
		return err
	}
	if !ctxPerfil.IsStaff() {
		activa := true
		filter.Activa = &activa
	}

	plantillas, err := api.svc.QueryPlantillas(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying plantillas")
	}
	if plantillas == nil {
		plantillas = []autoevaluacion.Plantilla{}
	}
	return ctx.JSON(http.StatusOK, plantillas)
}

func (api *autoevaluacionApi) createPlantilla(ctx echo.Context) error {
	var data autoevaluacion.PlantillaInput
	if err := bindJSON(ctx, &data); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	p, err := api.svc.CreatePlantilla(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, p)
}

// getPlantilla returns the Plantilla `:id`; inactive ones are hidden from voluntarios.
func (api *autoevaluacionApi) getPlantilla(ctx echo.Context) (autoevaluacion.Plantilla, error) {
	p, err := api.svc.GetPlantilla(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return autoevaluacion.Plantilla{}, err
	}
	ctxPerfil, err := getContextPerfil(ctx)
	if err != nil {
		return autoevaluacion.Plantilla{}, err
	}
	if !p.Activa && !ctxPerfil.IsStaff() {
		return autoevaluacion.Plantilla{}, autoevaluacion.ErrNotFound
	}
	return p, nil
}

func (api *autoevaluacionApi) retrievePlantilla(ctx echo.Context) error {
	p, err := api.getPlantilla(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *autoevaluacionApi) updatePlantilla(ctx echo.Context) error {
	p, err := api.getPlantilla(ctx)
	if err != nil {
		return err
	}
	var data autoevaluacion.PlantillaInput
	if err := bindJSON(ctx, &data); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	p, err = api.svc.UpdatePlantilla(ctx.Request().Context(), p, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *autoevaluacionApi) destroyPlantilla(ctx echo.Context) error {
	p, err := api.getPlantilla(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.DeactivatePlantilla(ctx.Request().Context(), p); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *autoevaluacionApi) responder(ctx echo.Context) error {
	p, err := api.getPlantilla(ctx)
	if err != nil {
		return err
	}
	var data autoevaluacion.RespuestaInput
	if err := bindJSON(ctx, &data); err != nil {
		return err
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}
	ctxPerfil, err := getContextPerfil(ctx)
	if err != nil {
		return err
	}

	r, err := api.svc.Responder(ctx.Request().Context(), p, ctxPerfil.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, r)
}

func (api *autoevaluacionApi) queryRespuestas(ctx echo.Context) error {
	filter := new(autoevaluacion.RespuestaFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []autoevaluacion.Respuesta{})
	}
	filter.Clean()

	ctxPerfil, err := getContextPerfil(ctx)
	if err != nil {
		return err
	}
	if !ctxPerfil.IsStaff() {
		filter.VoluntarioID = ctxPerfil.ID
	}

	respuestas, err := api.svc.QueryRespuestas(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying respuestas")
	}
	if respuestas == nil {
		respuestas = []autoevaluacion.Respuesta{}
	}
	return ctx.JSON(http.StatusOK, respuestas)
}
