package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/plataforma-apa/apa/core/matching"
)

type matchingApi struct {
	svc *matching.Service
}

func registerMatchingAPI(g *echo.Group, svc *matching.Service) {
	api := matchingApi{svc: svc}

	mg := g.Group("/matching", staffOnly)
	mg.GET("/ninos/:id/sugerencias", api.sugerencias)
}

func (api *matchingApi) sugerencias(ctx echo.Context) error {
	limite, err := queryInt(ctx, "limite")
	if err != nil {
		return err
	}
	sugs, err := api.svc.Sugerencias(ctx.Request().Context(), ctx.Param("id"), limite)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sugs)
}
