// Package matching suggests volunteers for a child.
// The scoring lives in the `sugerir_voluntarios_para_nino` stored procedure.
package matching

import (
	"context"

	"github.com/kat-co/vala"
	"github.com/volatiletech/null/v8"

	"github.com/plataforma-apa/apa/core/nino"
)

type Sugerencia struct {
	VoluntarioID              string      `json:"voluntario_id" boil:"voluntario_id"`
	Nombre                    string      `json:"nombre" boil:"nombre"`
	Email                     string      `json:"email" boil:"email"`
	ZonaID                    null.String `json:"zona_id" boil:"zona_id"`
	MismaZona                 bool        `json:"misma_zona" boil:"misma_zona"`
	AsignacionesActivas       int         `json:"asignaciones_activas" boil:"asignaciones_activas"`
	CapacitacionesCompletadas int         `json:"capacitaciones_completadas" boil:"capacitaciones_completadas"`
	Puntaje                   int         `json:"puntaje" boil:"puntaje"`
}

type (
	Repository interface {
		// SugerirVoluntarios returns the procedure's rows as-is.
		SugerirVoluntarios(ctx context.Context, ninoID string) ([]Sugerencia, error)
	}

	NinoFinder interface {
		Get(ctx context.Context, id string) (nino.Nino, error)
	}

	Service struct {
		repo  Repository
		ninos NinoFinder
	}
)

func NewService(repo Repository, ninos NinoFinder) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(ninos, "ninos"),
	).CheckAndPanic()
	return &Service{repo: repo, ninos: ninos}
}

// Sugerencias returns the ranked volunteers for the child, truncated to `limite` when positive.
func (svc *Service) Sugerencias(ctx context.Context, ninoID string, limite int) ([]Sugerencia, error) {
	if _, err := svc.ninos.Get(ctx, ninoID); err != nil {
		return nil, err
	}
	sugs, err := svc.repo.SugerirVoluntarios(ctx, ninoID)
	if err != nil {
		return nil, err
	}
	if sugs == nil {
		sugs = []Sugerencia{}
	}
	if limite > 0 && len(sugs) > limite {
		sugs = sugs[:limite]
	}
	return sugs, nil
}
