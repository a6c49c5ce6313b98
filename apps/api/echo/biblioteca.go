package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/plataforma-apa/apa/core/biblioteca"
)

type bibliotecaApi struct {
	svc           *biblioteca.Service
	validate      *validator.Validate
	maxUploadSize int64
}

func registerBibliotecaAPI(g *echo.Group, svc *biblioteca.Service, validate *validator.Validate, maxUploadSize int64) {
	api := bibliotecaApi{svc: svc, validate: validate, maxUploadSize: maxUploadSize}

	bg := g.Group("/biblioteca")
	bg.POST("/preguntar", api.preguntar)

	dg := bg.Group("/documentos", staffOnly)
	dg.GET("", api.query)
	dg.POST("", api.upload)
	dg.GET("/:id", api.retrieve)
	dg.DELETE("/:id", api.destroy)
}

func (api *bibliotecaApi) upload(ctx echo.Context) error {
	data := biblioteca.DocumentoInput{
		Titulo:      ctx.FormValue("titulo"),
		Descripcion: ctx.FormValue("descripcion"),
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	file, closeFile, err := formFile(ctx, "file", api.maxUploadSize)
	if err != nil {
		return err
	}
	defer closeFile()

	ctxPerfil, err := getContextPerfil(ctx)
	if err != nil {
		return err
	}
	d, err := api.svc.Upload(ctx.Request().Context(), data, file, ctxPerfil.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, d.View())
}

func (api *bibliotecaApi) query(ctx echo.Context) error {
	docs, err := api.svc.Query(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying documentos")
	}
	views := make([]biblioteca.DocumentoView, 0, len(docs))
	for _, d := range docs {
		views = append(views, d.View())
	}
	return ctx.JSON(http.StatusOK, views)
}

func (api *bibliotecaApi) retrieve(ctx echo.Context) error {
	d, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, d.View())
}

func (api *bibliotecaApi) destroy(ctx echo.Context) error {
	d, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), d); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *bibliotecaApi) preguntar(ctx echo.Context) error {
	var data biblioteca.Pregunta
	if err := bindJSON(ctx, &data); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	res, err := api.svc.Preguntar(ctx.Request().Context(), data.Pregunta)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}
