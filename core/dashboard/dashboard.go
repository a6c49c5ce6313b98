package dashboard

import (
	"context"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/plataforma-apa/apa/core"
)

// sesionesWindow is how far back recent sessions are counted.
const sesionesWindow = 30 * 24 * time.Hour

type Resumen struct {
	NinosActivos        int `json:"ninos_activos" db:"ninos_activos"`
	VoluntariosActivos  int `json:"voluntarios_activos" db:"voluntarios_activos"`
	AsignacionesActivas int `json:"asignaciones_activas" db:"asignaciones_activas"`
	NinosSinAsignacion  int `json:"ninos_sin_asignacion" db:"ninos_sin_asignacion"`
	SesionesRecientes   int `json:"sesiones_ultimos_30_dias" db:"sesiones_recientes"`
}

type (
	Repository interface {
		// Resumen counts the active records, and the sessions held since `since`.
		Resumen(ctx context.Context, since time.Time) (Resumen, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	vala.BeginValidation().Validate(vala.IsNotNil(repo, "repo")).CheckAndPanic()
	return &Service{repo: repo}
}

func (svc *Service) Resumen(ctx context.Context) (Resumen, error) {
	res, err := svc.repo.Resumen(ctx, core.NowFunc().Add(-sesionesWindow))
	return res, errors.Wrap(err, "computing resumen")
}
