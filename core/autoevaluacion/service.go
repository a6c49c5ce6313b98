package autoevaluacion

import (
	"context"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/plataforma-apa/apa/core"
)

var (
	ErrNotFound          = core.NewNotFoundError("plantilla not found")
	ErrPlantillaInactive = errors.New("plantilla is not active")
)

type Repository interface {
	CreatePlantilla(ctx context.Context, p Plantilla) (Plantilla, error)
	QueryPlantillas(ctx context.Context, filter *QueryFilter) ([]Plantilla, error)
	GetPlantilla(ctx context.Context, id string) (Plantilla, error)
	UpdatePlantilla(ctx context.Context, p Plantilla) (Plantilla, error)

	CreateRespuesta(ctx context.Context, r Respuesta) (Respuesta, error)
	// QueryRespuestas returns the newest first.
	QueryRespuestas(ctx context.Context, filter *RespuestaFilter) ([]Respuesta, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	vala.BeginValidation().Validate(vala.IsNotNil(repo, "repo")).CheckAndPanic()
	return &Service{repo: repo}
}

func (svc *Service) CreatePlantilla(ctx context.Context, in PlantillaInput) (Plantilla, error) {
	p := in.apply(Plantilla{Activa: true, CreatedAt: core.NowFunc()})
	p, err := svc.repo.CreatePlantilla(ctx, p)
	return p, errors.Wrap(err, "creating plantilla")
}

func (svc *Service) QueryPlantillas(ctx context.Context, filter *QueryFilter) ([]Plantilla, error) {
	return svc.repo.QueryPlantillas(ctx, filter)
}

func (svc *Service) GetPlantilla(ctx context.Context, id string) (Plantilla, error) {
	return svc.repo.GetPlantilla(ctx, id)
}

func (svc *Service) UpdatePlantilla(ctx context.Context, p Plantilla, in PlantillaInput) (Plantilla, error) {
	p, err := svc.repo.UpdatePlantilla(ctx, in.apply(p))
	return p, errors.Wrap(err, "updating plantilla")
}

// DeactivatePlantilla soft-deletes the Plantilla; its answers are kept.
func (svc *Service) DeactivatePlantilla(ctx context.Context, p Plantilla) error {
	p.Activa = false
	_, err := svc.repo.UpdatePlantilla(ctx, p)
	return errors.Wrap(err, "deactivating plantilla")
}

// Responder records the volunteer's answers to an active Plantilla.
func (svc *Service) Responder(ctx context.Context, p Plantilla, voluntarioID string, in RespuestaInput) (Respuesta, error) {
	if !p.Activa {
		return Respuesta{}, core.NewValidationError(ErrPlantillaInactive)
	}
	if err := ValidateRespuestas(p, in.Respuestas); err != nil {
		return Respuesta{}, err
	}
	r := Respuesta{
		PlantillaID:  p.ID,
		VoluntarioID: voluntarioID,
		Respuestas:   in.Respuestas,
		CreatedAt:    core.NowFunc(),
	}
	r, err := svc.repo.CreateRespuesta(ctx, r)
	return r, errors.Wrap(err, "saving respuesta")
}

func (svc *Service) QueryRespuestas(ctx context.Context, filter *RespuestaFilter) ([]Respuesta, error) {
	return svc.repo.QueryRespuestas(ctx, filter)
}
