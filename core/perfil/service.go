package perfil

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/plataforma-apa/apa/core"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("perfil not found")
	ErrEmailExists        = errors.New("a user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDeactivated = errors.New("account deactivated")
	ErrRoleTooHigh        = errors.New("not enough rights to set this role")
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excludedIDs ...string) error
		CreatePerfil(ctx context.Context, p Perfil) (Perfil, error)
		// QueryPerfiles applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of Perfil.Nombre or Perfil.Email.
		QueryPerfiles(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Perfil, error)
		GetPerfil(ctx context.Context, id string) (Perfil, error)
		GetPerfilByEmail(ctx context.Context, email string) (Perfil, error)
		UpdatePerfil(ctx context.Context, p Perfil) (Perfil, error)
	}

	// AuthUserUpdate holds the auth attributes to change; zero values are left untouched.
	AuthUserUpdate struct {
		Password string
		Banned   *bool
	}

	// AuthProvider is the identity provider (Supabase Auth) owning the credentials.
	AuthProvider interface {
		SignIn(ctx context.Context, email, password string) (Session, error)
		Refresh(ctx context.Context, refreshToken string) (Session, error)
		RecoverPassword(ctx context.Context, email, redirectTo string) error
		CreateUser(ctx context.Context, email, password string, metadata map[string]interface{}) (string, error)
		UpdateUser(ctx context.Context, id string, upd AuthUserUpdate) error
		DeleteUser(ctx context.Context, id string) error
	}

	Service struct {
		repo        Repository
		auth        AuthProvider
		mailSvc     core.EmailService
		logger      core.Logger
		frontendURL string
	}
)

func NewService(repo Repository, auth AuthProvider, mailSvc core.EmailService, logger core.Logger, frontendURL string) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(auth, "auth"),
		vala.IsNotNil(mailSvc, "mailSvc"),
		vala.IsNotNil(logger, "logger"),
	).CheckAndPanic()

	return &Service{
		repo:        repo,
		auth:        auth,
		mailSvc:     mailSvc,
		logger:      logger,
		frontendURL: frontendURL,
	}
}

func (svc *Service) CheckUniqueness(ctx context.Context, email string, excludedIDs ...string) error {
	if err := svc.repo.CheckEmailUniqueness(ctx, email, excludedIDs...); err != nil {
		if errors.Cause(err) == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return errors.Wrap(err, "checking email uniqueness")
	}
	return nil
}

// Create creates the Supabase auth user then its Perfil.
// The auth user is removed again when the Perfil cannot be saved.
func (svc *Service) Create(ctx context.Context, np NewPerfil) (Perfil, error) {
	if err := svc.CheckUniqueness(ctx, np.Email); err != nil {
		return Perfil{}, err
	}

	id, err := svc.auth.CreateUser(ctx, np.Email, np.Password, map[string]interface{}{
		"nombre": np.Nombre,
		"rol":    np.Rol,
	})
	if err != nil {
		return Perfil{}, errors.Wrap(err, "creating auth user")
	}

	now := core.NowFunc()
	p := Perfil{
		ID:             id,
		Nombre:         np.Nombre,
		Email:          np.Email,
		Telefono:       null.NewString(np.Telefono, np.Telefono != ""),
		Rol:            np.Rol,
		ZonaID:         null.NewString(np.ZonaID, np.ZonaID != ""),
		Activo:         true,
		Disponibilidad: null.NewString(np.Disponibilidad, np.Disponibilidad != ""),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	p, err = svc.repo.CreatePerfil(ctx, p)
	if err != nil {
		if delErr := svc.auth.DeleteUser(ctx, id); delErr != nil {
			svc.logger.Error(fmt.Sprintf("removing orphan auth user %s: %v", id, delErr), delErr)
		}
		return Perfil{}, errors.Wrap(err, "creating perfil")
	}

	svc.sendWelcomeMail(p)
	return p, nil
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Perfil, error) {
	return svc.repo.QueryPerfiles(ctx, filter, ordering)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Perfil, error) {
	return svc.repo.GetPerfil(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (Perfil, error) {
	return svc.repo.GetPerfilByEmail(ctx, core.CleanString(email, true /* lower */))
}

// Update applies a validated UpdatePerfil to `p`.
func (svc *Service) Update(ctx context.Context, p Perfil, up UpdatePerfil) (Perfil, error) {
	wasActive := p.Activo

	p.Nombre = up.Nombre
	if up.Telefono != nil {
		p.Telefono = null.NewString(core.CleanString(*up.Telefono), core.CleanString(*up.Telefono) != "")
	}
	if up.Disponibilidad != nil {
		p.Disponibilidad = null.NewString(core.CleanString(*up.Disponibilidad), core.CleanString(*up.Disponibilidad) != "")
	}
	if up.Rol != "" {
		p.Rol = up.Rol
	}
	if up.ZonaID != nil {
		p.ZonaID = null.NewString(*up.ZonaID, *up.ZonaID != "")
	}
	if up.Activo != nil {
		p.Activo = *up.Activo
	}
	p.UpdatedAt = core.NowFunc()

	var authUpd AuthUserUpdate
	if up.Password != "" {
		authUpd.Password = up.Password
	}
	if wasActive != p.Activo {
		banned := !p.Activo
		authUpd.Banned = &banned
	}
	if authUpd.Password != "" || authUpd.Banned != nil {
		if err := svc.auth.UpdateUser(ctx, p.ID, authUpd); err != nil {
			return Perfil{}, errors.Wrap(err, "updating auth user")
		}
	}

	p, err := svc.repo.UpdatePerfil(ctx, p)
	if err != nil {
		return Perfil{}, errors.Wrap(err, "updating perfil")
	}
	return p, nil
}

// Deactivate soft-deletes a Perfil and bans its auth user.
func (svc *Service) Deactivate(ctx context.Context, p Perfil) (Perfil, error) {
	inactive := false
	return svc.Update(ctx, p, UpdatePerfil{Nombre: p.Nombre, Activo: &inactive})
}

// SignIn authenticates against the identity provider and returns the session with its active Perfil.
func (svc *Service) SignIn(ctx context.Context, email, pwd string) (Session, Perfil, error) {
	sess, err := svc.auth.SignIn(ctx, core.CleanString(email, true /* lower */), pwd)
	if err != nil {
		return Session{}, Perfil{}, err
	}
	return svc.sessionPerfil(ctx, sess)
}

func (svc *Service) Refresh(ctx context.Context, refreshToken string) (Session, Perfil, error) {
	sess, err := svc.auth.Refresh(ctx, refreshToken)
	if err != nil {
		return Session{}, Perfil{}, err
	}
	return svc.sessionPerfil(ctx, sess)
}

func (svc *Service) sessionPerfil(ctx context.Context, sess Session) (Session, Perfil, error) {
	p, err := svc.repo.GetPerfil(ctx, sess.UserID)
	if err != nil {
		if core.IsNotFound(err) {
			return Session{}, Perfil{}, ErrInvalidCredentials
		}
		return Session{}, Perfil{}, errors.Wrap(err, "finding session perfil")
	}
	if !p.Activo {
		return Session{}, Perfil{}, ErrAccountDeactivated
	}
	return sess, p, nil
}

// RequestPasswordReset asks the identity provider to mail a recovery link.
func (svc *Service) RequestPasswordReset(ctx context.Context, email string) error {
	p, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !p.Activo {
		return ErrAccountDeactivated
	}
	return svc.auth.RecoverPassword(ctx, p.Email, svc.frontendURL+"/reset-password")
}

func (svc *Service) sendWelcomeMail(p Perfil) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:              []mail.Address{{Name: p.Nombre, Address: p.Email}},
		Subject:         "Bienvenida a Plataforma APA",
		TemplateName:    "bienvenida",
		FrontendBaseURL: svc.frontendURL,
		TemplateData: map[string]string{
			"Nombre": p.Nombre,
			"Email":  p.Email,
			"Rol":    p.Rol,
		},
	})
}
