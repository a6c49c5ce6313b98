package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/plataforma-apa/apa/core/informe"
)

type informeApi struct {
	svc      *informe.Service
	validate *validator.Validate
}

func registerInformeAPI(g *echo.Group, svc *informe.Service, validate *validator.Validate) {
	api := informeApi{svc: svc, validate: validate}

	ig := g.Group("/informes", staffOnly)
	ig.POST("/ninos/:id", api.generar)
}

func (api *informeApi) generar(ctx echo.Context) error {
	var data informe.Solicitud
	if err := bindJSON(ctx, &data); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	inf, err := api.svc.Generar(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, inf)
}
