// Package zona manages the territorial zones children and volunteers belong to.
package zona

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/plataforma-apa/apa/core"
)

var (
	ErrNotFound   = core.NewNotFoundError("zona not found")
	ErrNameExists = errors.New("a zona with this name already exists")
	ErrInUse      = errors.New("zona is referenced by children or profiles")
)

type Zona struct {
	ID          string      `json:"id" db:"id"`
	Nombre      string      `json:"nombre" db:"nombre"`
	Descripcion null.String `json:"descripcion" db:"descripcion"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
}

type ZonaInput struct {
	Nombre      string `json:"nombre" validate:"required,notblank,max=120"`
	Descripcion string `json:"descripcion" validate:"max=2000"`
}

func (zi *ZonaInput) Validate(validate *validator.Validate) error {
	zi.Nombre = core.CleanString(zi.Nombre)
	zi.Descripcion = core.CleanString(zi.Descripcion)
	return validate.Struct(zi)
}

type Repository interface {
	CheckNameUniqueness(ctx context.Context, nombre string, excludedIDs ...string) error
	CreateZona(ctx context.Context, z Zona) (Zona, error)
	QueryZonas(ctx context.Context) ([]Zona, error)
	GetZona(ctx context.Context, id string) (Zona, error)
	UpdateZona(ctx context.Context, z Zona) (Zona, error)
	// DeleteZona fails with ErrInUse when children or perfiles still reference the zona.
	DeleteZona(ctx context.Context, id string) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	vala.BeginValidation().Validate(vala.IsNotNil(repo, "repo")).CheckAndPanic()
	return &Service{repo: repo}
}

func (svc *Service) checkUniqueness(ctx context.Context, nombre string, excludedIDs ...string) error {
	if err := svc.repo.CheckNameUniqueness(ctx, nombre, excludedIDs...); err != nil {
		if errors.Cause(err) == ErrNameExists {
			return core.NewValidationError(err, core.FieldError{Field: "nombre", Error: err.Error()})
		}
		return errors.Wrap(err, "checking zona uniqueness")
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, in ZonaInput) (Zona, error) {
	if err := svc.checkUniqueness(ctx, in.Nombre); err != nil {
		return Zona{}, err
	}
	return svc.repo.CreateZona(ctx, Zona{
		Nombre:      in.Nombre,
		Descripcion: null.NewString(in.Descripcion, in.Descripcion != ""),
		CreatedAt:   core.NowFunc(),
	})
}

func (svc *Service) Query(ctx context.Context) ([]Zona, error) {
	return svc.repo.QueryZonas(ctx)
}

func (svc *Service) Get(ctx context.Context, id string) (Zona, error) {
	return svc.repo.GetZona(ctx, id)
}

func (svc *Service) Update(ctx context.Context, z Zona, in ZonaInput) (Zona, error) {
	if err := svc.checkUniqueness(ctx, in.Nombre, z.ID); err != nil {
		return Zona{}, err
	}
	z.Nombre = in.Nombre
	z.Descripcion = null.NewString(in.Descripcion, in.Descripcion != "")
	return svc.repo.UpdateZona(ctx, z)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	if err := svc.repo.DeleteZona(ctx, id); err != nil {
		if errors.Cause(err) == ErrInUse {
			return core.NewValidationError(err)
		}
		return err
	}
	return nil
}
