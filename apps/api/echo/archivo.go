package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/plataforma-apa/apa/core"
)

// registerArchivoAPI serves the files of the local file store.
func registerArchivoAPI(g *echo.Group, files LocalFiles) {
	g.GET("/archivos/:id", func(ctx echo.Context) error {
		fp, err := files.Path(ctx.Param("id"))
		if err != nil {
			if core.IsNotFound(err) {
				return errHttpNotFound
			}
			return err
		}
		return ctx.File(fp)
	})
}
