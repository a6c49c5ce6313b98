package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/plataforma-apa/apa/core/dashboard"
)

func registerDashboardAPI(g *echo.Group, svc *dashboard.Service) {
	g.GET("/dashboard/resumen", func(ctx echo.Context) error {
		res, err := svc.Resumen(ctx.Request().Context())
		if err != nil {
			return errors.Wrap(err, "computing resumen")
		}
		return ctx.JSON(http.StatusOK, res)
	}, staffOnly)
}
