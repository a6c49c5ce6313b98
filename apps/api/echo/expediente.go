package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/plataforma-apa/apa/core/expediente"
	"github.com/plataforma-apa/apa/core/nino"
	"github.com/plataforma-apa/apa/core/perfil"
)

// expedienteApi serves one kind of record of a child's file.
type expedienteApi[T expediente.Record] struct {
	svc      *expediente.Service[T]
	ninos    *nino.Service
	validate *validator.Validate
	newInput func() expediente.Input[T]

	// volReadable lets voluntarios read the records of the children assigned to them.
	volReadable bool
}

func registerExpedienteAPI(
	g *echo.Group,
	ninos *nino.Service,
	evaluaciones *expediente.Service[expediente.EvaluacionInicial],
	planes *expediente.Service[expediente.PlanIntervencion],
	entrevistas *expediente.Service[expediente.EntrevistaFamiliar],
	validate *validator.Validate,
) {
	registerExpedienteKind(g, "evaluaciones-iniciales", &expedienteApi[expediente.EvaluacionInicial]{
		svc:      evaluaciones,
		ninos:    ninos,
		validate: validate,
		newInput: func() expediente.Input[expediente.EvaluacionInicial] { return new(expediente.EvaluacionInicialInput) },
	})
	registerExpedienteKind(g, "planes-intervencion", &expedienteApi[expediente.PlanIntervencion]{
		svc:         planes,
		ninos:       ninos,
		validate:    validate,
		newInput:    func() expediente.Input[expediente.PlanIntervencion] { return new(expediente.PlanIntervencionInput) },
		volReadable: true,
	})
	registerExpedienteKind(g, "entrevistas-familiares", &expedienteApi[expediente.EntrevistaFamiliar]{
		svc:      entrevistas,
		ninos:    ninos,
		validate: validate,
		newInput: func() expediente.Input[expediente.EntrevistaFamiliar] { return new(expediente.EntrevistaFamiliarInput) },
	})
}

func registerExpedienteKind[T expediente.Record](g *echo.Group, kind string, api *expedienteApi[T]) {
	readers := staffOnly
	if api.volReadable {
		readers = roleMiddleware(append([]string{perfil.RoleVoluntario}, perfil.StaffRoles...)...)
	}

	g.GET("/ninos/:id/"+kind, api.query, readers)
	g.POST("/ninos/:id/"+kind, api.create, staffOnly)

	kg := g.Group("/" + kind)
	kg.GET("/:id", api.retrieve, readers)
	kg.PUT("/:id", api.update, staffOnly)
	kg.DELETE("/:id", api.destroy, staffOnly)
}

// checkVisible returns a 404 when a voluntario asks for a child not assigned to them.
func (api *expedienteApi[T]) checkVisible(ctx echo.Context, ninoID string) error {
	ctxPerfil, err := getContextPerfil(ctx)
	if err != nil {
		return err
	}
	if ctxPerfil.IsStaff() {
		return nil
	}
	ok, err := api.ninos.IsAssignedTo(ctx.Request().Context(), ninoID, ctxPerfil.ID)
	if err != nil {
		return err
	}
	if !ok {
		return errHttpNotFound
	}
	return nil
}

func (api *expedienteApi[T]) query(ctx echo.Context) error {
	ninoID := ctx.Param("id")
	if err := api.checkVisible(ctx, ninoID); err != nil {
		return err
	}
	recs, err := api.svc.QueryByNino(ctx.Request().Context(), ninoID)
	if err != nil {
		return errors.Wrap(err, "querying records")
	}
	if recs == nil {
		recs = []T{}
	}
	return ctx.JSON(http.StatusOK, recs)
}

func (api *expedienteApi[T]) create(ctx echo.Context) error {
	data := api.newInput()
	if err := bindJSON(ctx, data); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	ctxPerfil, err := getContextPerfil(ctx)
	if err != nil {
		return err
	}

	rec, err := api.svc.Create(ctx.Request().Context(), ctx.Param("id"), ctxPerfil.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, rec)
}

func (api *expedienteApi[T]) retrieve(ctx echo.Context) error {
	rec, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	if err := api.checkVisible(ctx, rec.Meta().NinoID); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *expedienteApi[T]) update(ctx echo.Context) error {
	rec, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	data := api.newInput()
	if err := bindJSON(ctx, data); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	rec, err = api.svc.Update(ctx.Request().Context(), rec, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *expedienteApi[T]) destroy(ctx echo.Context) error {
	rec, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), rec); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
