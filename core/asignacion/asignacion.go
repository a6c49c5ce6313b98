package asignacion

import (
	"context"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/plataforma-apa/apa/core"
	"github.com/plataforma-apa/apa/core/nino"
	"github.com/plataforma-apa/apa/core/perfil"
)

var (
	ErrNotFound        = core.NewNotFoundError("asignación not found")
	ErrAlreadyFinished = errors.New("asignación already finished")
	ErrNinoInactive    = errors.New("niño is not active")
	ErrNotVoluntario   = errors.New("perfil is not an active voluntario")
)

type Asignacion struct {
	ID           string      `json:"id" db:"id"`
	NinoID       string      `json:"nino_id" db:"nino_id"`
	VoluntarioID string      `json:"voluntario_id" db:"voluntario_id"`
	AsignadoPor  null.String `json:"asignado_por" db:"asignado_por"`
	FechaInicio  time.Time   `json:"fecha_inicio" db:"fecha_inicio"`
	FechaFin     null.Time   `json:"fecha_fin" db:"fecha_fin"`
	Activa       bool        `json:"activa" db:"activa"`
	Notas        null.String `json:"notas" db:"notas"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
}

type NewAsignacion struct {
	NinoID       string     `json:"nino_id" validate:"required,uuid"`
	VoluntarioID string     `json:"voluntario_id" validate:"required,uuid"`
	FechaInicio  *time.Time `json:"fecha_inicio"`
	Notas        string     `json:"notas" validate:"max=2000"`
}

func (na *NewAsignacion) Validate(validate *validator.Validate) error {
	na.NinoID = core.CleanString(na.NinoID)
	na.VoluntarioID = core.CleanString(na.VoluntarioID)
	na.Notas = core.CleanString(na.Notas)
	return validate.Struct(na)
}

type QueryFilter struct {
	NinoID       string `query:"nino_id"`
	VoluntarioID string `query:"voluntario_id"`
	Activa       *bool  `query:"activa"`
}

func (qf *QueryFilter) Clean() {
	qf.NinoID = core.CleanString(qf.NinoID)
	qf.VoluntarioID = core.CleanString(qf.VoluntarioID)
}

type (
	Repository interface {
		// Reassign atomically finishes the child's active assignments (at `a.FechaInicio`)
		// and inserts `a` as the only active one.
		Reassign(ctx context.Context, a Asignacion) (Asignacion, error)
		QueryAsignaciones(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Asignacion, error)
		GetAsignacion(ctx context.Context, id string) (Asignacion, error)
		UpdateAsignacion(ctx context.Context, a Asignacion) (Asignacion, error)
	}

	NinoFinder interface {
		Get(ctx context.Context, id string) (nino.Nino, error)
	}

	PerfilFinder interface {
		GetByID(ctx context.Context, id string) (perfil.Perfil, error)
	}

	Service struct {
		repo        Repository
		ninos       NinoFinder
		perfiles    PerfilFinder
		mailSvc     core.EmailService
		frontendURL string
	}
)

func NewService(repo Repository, ninos NinoFinder, perfiles PerfilFinder, mailSvc core.EmailService, frontendURL string) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(ninos, "ninos"),
		vala.IsNotNil(perfiles, "perfiles"),
		vala.IsNotNil(mailSvc, "mailSvc"),
	).CheckAndPanic()
	return &Service{repo: repo, ninos: ninos, perfiles: perfiles, mailSvc: mailSvc, frontendURL: frontendURL}
}

// Create assigns the volunteer to the child, replacing any active assignment of the child,
// then notifies the volunteer.
func (svc *Service) Create(ctx context.Context, na NewAsignacion, asignadoPor string) (Asignacion, error) {
	n, err := svc.ninos.Get(ctx, na.NinoID)
	if err != nil {
		if core.IsNotFound(err) {
			return Asignacion{}, core.NewValidationError(err, core.FieldError{Field: "nino_id", Error: err.Error()})
		}
		return Asignacion{}, err
	}
	if !n.Activo {
		return Asignacion{}, core.NewValidationError(ErrNinoInactive, core.FieldError{Field: "nino_id", Error: ErrNinoInactive.Error()})
	}

	vol, err := svc.perfiles.GetByID(ctx, na.VoluntarioID)
	if err != nil && !core.IsNotFound(err) {
		return Asignacion{}, err
	}
	if err != nil || !vol.Activo || !vol.IsVoluntario() {
		return Asignacion{}, core.NewValidationError(ErrNotVoluntario, core.FieldError{Field: "voluntario_id", Error: ErrNotVoluntario.Error()})
	}

	now := core.NowFunc()
	a := Asignacion{
		NinoID:       n.ID,
		VoluntarioID: vol.ID,
		AsignadoPor:  null.NewString(asignadoPor, asignadoPor != ""),
		FechaInicio:  now,
		Activa:       true,
		Notas:        null.NewString(na.Notas, na.Notas != ""),
		CreatedAt:    now,
	}
	if na.FechaInicio != nil && !na.FechaInicio.IsZero() {
		a.FechaInicio = na.FechaInicio.UTC()
	}

	a, err = svc.repo.Reassign(ctx, a)
	if err != nil {
		return Asignacion{}, errors.Wrap(err, "reassigning niño")
	}

	svc.notify(a, n, vol)
	return a, nil
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Asignacion, error) {
	return svc.repo.QueryAsignaciones(ctx, filter, ordering)
}

func (svc *Service) Get(ctx context.Context, id string) (Asignacion, error) {
	return svc.repo.GetAsignacion(ctx, id)
}

func (svc *Service) Finalize(ctx context.Context, a Asignacion) (Asignacion, error) {
	if !a.Activa {
		return Asignacion{}, core.NewValidationError(ErrAlreadyFinished)
	}
	a.Activa = false
	a.FechaFin = null.TimeFrom(core.NowFunc())
	a, err := svc.repo.UpdateAsignacion(ctx, a)
	return a, errors.Wrap(err, "finalizing asignación")
}

func (svc *Service) notify(a Asignacion, n nino.Nino, vol perfil.Perfil) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:              []mail.Address{{Name: vol.Nombre, Address: vol.Email}},
		Subject:         "Nueva asignación: " + n.NombreCompleto(),
		TemplateName:    "asignacion_nueva",
		FrontendBaseURL: svc.frontendURL,
		TemplateData: map[string]string{
			"Voluntario":  vol.Nombre,
			"Nino":        n.NombreCompleto(),
			"NinoID":      n.ID,
			"FechaInicio": a.FechaInicio.Format("02/01/2006"),
			"Notas":       a.Notas.String,
		},
	})
}
