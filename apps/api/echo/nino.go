package echoapi

import (
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/plataforma-apa/apa/core"
	"github.com/plataforma-apa/apa/core/nino"
)

var errNinoNotFoundInCtx = errors.New("nino object not found in echo.Context")

type ninoApi struct {
	svc           *nino.Service
	validate      *validator.Validate
	maxUploadSize int64
}

func registerNinoAPI(g *echo.Group, svc *nino.Service, validate *validator.Validate, maxUploadSize int64) {
	api := ninoApi{svc: svc, validate: validate, maxUploadSize: maxUploadSize}

	ng := g.Group("/ninos")
	ng.GET("", api.query)
	ng.POST("", api.create, staffOnly)

	dg := ng.Group("/:id", visibleNinoMiddleware(svc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, staffOnly)
	dg.DELETE("", api.destroy, adminOnly)
	dg.POST("/foto", api.uploadFoto, staffOnly)
}

func (api *ninoApi) query(ctx echo.Context) error {
	filter := new(nino.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []nino.Nino{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	ctxPerfil, err := getContextPerfil(ctx)
	if err != nil {
		return err
	}
	if !ctxPerfil.IsStaff() {
		filter.VoluntarioID = ctxPerfil.ID
	}

	ninos, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying ninos")
	}
	if ninos == nil {
		ninos = []nino.Nino{}
	}
	return ctx.JSON(http.StatusOK, ninos)
}

func (api *ninoApi) create(ctx echo.Context) error {
	var data nino.NinoInput
	if err := bindJSON(ctx, &data); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	n, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, n)
}

func (api *ninoApi) retrieve(ctx echo.Context) error {
	n, err := getContextNino(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, n)
}

func (api *ninoApi) update(ctx echo.Context) error {
	n, err := getContextNino(ctx)
	if err != nil {
		return err
	}
	var data nino.NinoInput
	if err := bindJSON(ctx, &data); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	n, err = api.svc.Update(ctx.Request().Context(), n, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, n)
}

func (api *ninoApi) destroy(ctx echo.Context) error {
	n, err := getContextNino(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Deactivate(ctx.Request().Context(), n); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *ninoApi) uploadFoto(ctx echo.Context) error {
	n, err := getContextNino(ctx)
	if err != nil {
		return err
	}
	file, closeFile, err := formFile(ctx, "file", api.maxUploadSize)
	if err != nil {
		return err
	}
	defer closeFile()

	if !strings.HasPrefix(file.MimeType, "image/") {
		return core.NewValidationError(nil, core.FieldError{Field: "file", Error: "file must be an image"})
	}

	n, err = api.svc.SetFoto(ctx.Request().Context(), n, file)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, n)
}

// visibleNinoMiddleware loads the Nino `:id` as "object" when the context perfil may see it.
// Voluntarios only see children actively assigned to them; others get a 404.
func visibleNinoMiddleware(svc *nino.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			ctxPerfil, err := getContextPerfil(ctx)
			if err != nil {
				return err
			}

			var n nino.Nino
			if ctxPerfil.IsStaff() {
				n, err = svc.Get(ctx.Request().Context(), ctx.Param("id"))
			} else {
				n, err = svc.GetVisible(ctx.Request().Context(), ctx.Param("id"), ctxPerfil.ID)
			}
			if err != nil {
				if core.IsNotFound(err) {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding nino by ID")
			}
			ctx.Set("object", n)
			return next(ctx)
		}
	}
}

func getContextNino(ctx echo.Context) (nino.Nino, error) {
	n, ok := ctx.Get("object").(nino.Nino)
	if !ok {
		return nino.Nino{}, errors.Wrap(errNinoNotFoundInCtx, "retrieving object from context")
	}
	return n, nil
}
