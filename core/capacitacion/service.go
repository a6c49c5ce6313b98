package capacitacion

import (
	"context"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/plataforma-apa/apa/core"
)

var (
	ErrNotFound         = core.NewNotFoundError("capacitación not found")
	ErrProgressNotFound = core.NewNotFoundError("progreso not found")
	ErrInactive         = errors.New("capacitación is not active")
)

type Repository interface {
	CreateCapacitacion(ctx context.Context, c Capacitacion) (Capacitacion, error)
	// QueryCapacitaciones returns the matching rows ordered by `orden` when no ordering is given.
	QueryCapacitaciones(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Capacitacion, error)
	GetCapacitacion(ctx context.Context, id string) (Capacitacion, error)
	UpdateCapacitacion(ctx context.Context, c Capacitacion) (Capacitacion, error)

	GetProgreso(ctx context.Context, voluntarioID, capacitacionID string) (VoluntarioCapacitacion, error)
	// UpsertProgreso inserts or replaces the (voluntario, capacitacion) progress row.
	UpsertProgreso(ctx context.Context, vc VoluntarioCapacitacion) (VoluntarioCapacitacion, error)
	QueryProgresos(ctx context.Context, voluntarioID, capacitacionID string) ([]VoluntarioCapacitacion, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	vala.BeginValidation().Validate(vala.IsNotNil(repo, "repo")).CheckAndPanic()
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, in CapacitacionInput) (Capacitacion, error) {
	now := core.NowFunc()
	c := in.apply(Capacitacion{Activa: true, CreatedAt: now, UpdatedAt: now})
	c, err := svc.repo.CreateCapacitacion(ctx, c)
	return c, errors.Wrap(err, "creating capacitación")
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Capacitacion, error) {
	return svc.repo.QueryCapacitaciones(ctx, filter, ordering)
}

func (svc *Service) Get(ctx context.Context, id string) (Capacitacion, error) {
	return svc.repo.GetCapacitacion(ctx, id)
}

func (svc *Service) Update(ctx context.Context, c Capacitacion, in CapacitacionInput) (Capacitacion, error) {
	c = in.apply(c)
	c.UpdatedAt = core.NowFunc()
	c, err := svc.repo.UpdateCapacitacion(ctx, c)
	return c, errors.Wrap(err, "updating capacitación")
}

// Deactivate soft-deletes the Capacitacion.
func (svc *Service) Deactivate(ctx context.Context, c Capacitacion) error {
	c.Activa = false
	c.UpdatedAt = core.NowFunc()
	_, err := svc.repo.UpdateCapacitacion(ctx, c)
	return errors.Wrap(err, "deactivating capacitación")
}

// Iniciar marks the Capacitacion as started by the volunteer.
// Calling it again (or after completion) leaves the progress untouched.
func (svc *Service) Iniciar(ctx context.Context, c Capacitacion, voluntarioID string) (VoluntarioCapacitacion, error) {
	if !c.Activa {
		return VoluntarioCapacitacion{}, core.NewValidationError(ErrInactive)
	}
	vc, err := svc.repo.GetProgreso(ctx, voluntarioID, c.ID)
	switch {
	case err == nil:
		if vc.Estado != EstadoPendiente {
			return vc, nil
		}
	case core.IsNotFound(err):
		vc = VoluntarioCapacitacion{VoluntarioID: voluntarioID, CapacitacionID: c.ID}
	default:
		return VoluntarioCapacitacion{}, err
	}

	vc.Estado = EstadoEnProgreso
	vc.IniciadaAt = null.TimeFrom(core.NowFunc())
	vc, err = svc.repo.UpsertProgreso(ctx, vc)
	return vc, errors.Wrap(err, "starting capacitación")
}

// Completar records the volunteer's score. Completing again overwrites the score.
func (svc *Service) Completar(ctx context.Context, c Capacitacion, voluntarioID string, in Completar) (VoluntarioCapacitacion, error) {
	if !c.Activa {
		return VoluntarioCapacitacion{}, core.NewValidationError(ErrInactive)
	}
	now := core.NowFunc()
	vc, err := svc.repo.GetProgreso(ctx, voluntarioID, c.ID)
	if err != nil {
		if !core.IsNotFound(err) {
			return VoluntarioCapacitacion{}, err
		}
		vc = VoluntarioCapacitacion{VoluntarioID: voluntarioID, CapacitacionID: c.ID}
	}
	if !vc.IniciadaAt.Valid {
		vc.IniciadaAt = null.TimeFrom(now)
	}
	vc.Estado = EstadoCompletada
	vc.Puntaje = null.IntFromPtr(in.Puntaje)
	vc.CompletadaAt = null.TimeFrom(now)
	vc, err = svc.repo.UpsertProgreso(ctx, vc)
	return vc, errors.Wrap(err, "completing capacitación")
}

// Mias lists the active capacitaciones with the volunteer's progress on each.
func (svc *Service) Mias(ctx context.Context, voluntarioID string) ([]MiCapacitacion, error) {
	activa := true
	caps, err := svc.repo.QueryCapacitaciones(ctx, &QueryFilter{Activa: &activa}, nil)
	if err != nil {
		return nil, err
	}
	progresos, err := svc.repo.QueryProgresos(ctx, voluntarioID, "")
	if err != nil {
		return nil, err
	}
	byCap := make(map[string]VoluntarioCapacitacion, len(progresos))
	for _, p := range progresos {
		byCap[p.CapacitacionID] = p
	}

	mias := make([]MiCapacitacion, 0, len(caps))
	for _, c := range caps {
		mc := MiCapacitacion{Capacitacion: c}
		if p, ok := byCap[c.ID]; ok {
			p := p
			mc.Progreso = &p
		}
		mias = append(mias, mc)
	}
	return mias, nil
}

// Progreso lists every volunteer's progress on the Capacitacion.
func (svc *Service) Progreso(ctx context.Context, c Capacitacion) ([]VoluntarioCapacitacion, error) {
	return svc.repo.QueryProgresos(ctx, "", c.ID)
}
