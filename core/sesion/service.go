package sesion

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/plataforma-apa/apa/core"
	"github.com/plataforma-apa/apa/core/nino"
	"github.com/plataforma-apa/apa/core/perfil"
)

var (
	ErrNotFound          = core.NewNotFoundError("sesión not found")
	ErrNotAssigned       = errors.New("niño is not assigned to this voluntario")
	ErrVoluntarioMissing = errors.New("voluntario_id is required")
	ErrOtherVoluntario   = errors.New("cannot record sessions for another voluntario")
	ErrTooManyItems      = errors.Errorf("at most %d sesiones per sync", MaxSyncItems)
	ErrIDTaken           = errors.New("id already belongs to another sesión")
)

type (
	Repository interface {
		// CreateSesion inserts `s` unless a sesion with the same ID exists;
		// `created` is false in that case.
		CreateSesion(ctx context.Context, s Sesion) (saved Sesion, created bool, err error)
		// QuerySesiones returns the newest `fecha` first.
		QuerySesiones(ctx context.Context, filter *QueryFilter) ([]Sesion, error)
		GetSesion(ctx context.Context, id string) (Sesion, error)
	}

	NinoFinder interface {
		Get(ctx context.Context, id string) (nino.Nino, error)
		IsAssignedTo(ctx context.Context, ninoID, voluntarioID string) (bool, error)
	}

	Service struct {
		repo   Repository
		ninos  NinoFinder
		logger core.Logger
	}
)

func NewService(repo Repository, ninos NinoFinder, logger core.Logger) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(ninos, "ninos"),
		vala.IsNotNil(logger, "logger"),
	).CheckAndPanic()
	return &Service{repo: repo, ninos: ninos, logger: logger}
}

// Create records a validated session on behalf of `actor`.
// Voluntarios may only record their own sessions with children assigned to them.
func (svc *Service) Create(ctx context.Context, in SesionInput, actor perfil.Perfil) (Sesion, bool, error) {
	volID := in.VoluntarioID
	if actor.IsVoluntario() {
		if volID != "" && volID != actor.ID {
			return Sesion{}, false, core.NewValidationError(ErrOtherVoluntario, core.FieldError{Field: "voluntario_id", Error: ErrOtherVoluntario.Error()})
		}
		volID = actor.ID
		ok, err := svc.ninos.IsAssignedTo(ctx, in.NinoID, volID)
		if err != nil {
			return Sesion{}, false, errors.Wrap(err, "checking assignment")
		}
		if !ok {
			return Sesion{}, false, core.NewValidationError(ErrNotAssigned, core.FieldError{Field: "nino_id", Error: ErrNotAssigned.Error()})
		}
	} else {
		if volID == "" {
			return Sesion{}, false, core.NewValidationError(ErrVoluntarioMissing, core.FieldError{Field: "voluntario_id", Error: ErrVoluntarioMissing.Error()})
		}
		if _, err := svc.ninos.Get(ctx, in.NinoID); err != nil {
			if core.IsNotFound(err) {
				return Sesion{}, false, core.NewValidationError(err, core.FieldError{Field: "nino_id", Error: err.Error()})
			}
			return Sesion{}, false, err
		}
	}

	id := in.ID
	if id == "" {
		id = uuid.NewString()
	}
	now := core.NowFunc()
	s := Sesion{
		ID:              id,
		NinoID:          in.NinoID,
		VoluntarioID:    volID,
		Fecha:           in.Fecha.UTC(),
		DuracionMinutos: in.DuracionMinutos,
		Actividades:     in.Actividades,
		Observaciones:   null.NewString(in.Observaciones, in.Observaciones != ""),
		EstadoAnimo:     null.NewString(in.EstadoAnimo, in.EstadoAnimo != ""),
		CreatedAt:       now,
		SincronizadaAt:  now,
	}
	saved, created, err := svc.repo.CreateSesion(ctx, s)
	if err != nil {
		return Sesion{}, false, errors.Wrap(err, "creating sesión")
	}
	// a replay must come from the same voluntario for the same child
	if !created && (saved.VoluntarioID != s.VoluntarioID || saved.NinoID != s.NinoID) {
		return Sesion{}, false, core.NewValidationError(ErrIDTaken, core.FieldError{Field: "id", Error: ErrIDTaken.Error()})
	}
	return saved, created, nil
}

// Sync drains an offline queue: each item is validated and created independently.
// Items already stored (same id, voluntario and child) are reported as duplicated.
func (svc *Service) Sync(ctx context.Context, items []SesionInput, actor perfil.Perfil, validate *validator.Validate) ([]SyncResult, error) {
	if len(items) > MaxSyncItems {
		return nil, core.NewValidationError(ErrTooManyItems, core.FieldError{Field: "sesiones", Error: ErrTooManyItems.Error()})
	}

	results := make([]SyncResult, 0, len(items))
	for i := range items {
		in := items[i]
		res := SyncResult{ID: core.CleanString(in.ID, true /* lower */)}
		if res.ID == "" {
			res.Estado = EstadoError
			res.Error = "id is required"
			results = append(results, res)
			continue
		}
		if err := in.Validate(validate); err != nil {
			res.Estado = EstadoError
			res.Error = itemError(err)
			results = append(results, res)
			continue
		}

		_, created, err := svc.Create(ctx, in, actor)
		switch {
		case err != nil:
			res.Estado = EstadoError
			res.Error = itemError(err)
			if _, ok := errors.Cause(err).(*core.ValidationError); !ok {
				svc.logger.Error(fmt.Sprintf("syncing sesión %s: %v", res.ID, err), err, actor)
			}
		case created:
			res.Estado = EstadoCreada
		default:
			res.Estado = EstadoDuplicada
		}
		results = append(results, res)
	}
	return results, nil
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter) ([]Sesion, error) {
	return svc.repo.QuerySesiones(ctx, filter)
}

func (svc *Service) Get(ctx context.Context, id string) (Sesion, error) {
	return svc.repo.GetSesion(ctx, id)
}

// itemError turns err into a message safe to return to the client.
func itemError(err error) string {
	switch e := errors.Cause(err).(type) {
	case validator.ValidationErrors:
		msgs := make([]string, 0, len(e))
		for _, fe := range e {
			msgs = append(msgs, fe.Field()+": "+fe.Tag())
		}
		return "invalid " + strings.Join(msgs, ", ")
	case *core.ValidationError:
		return e.Error()
	}
	return "internal error"
}
