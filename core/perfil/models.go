package perfil

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/plataforma-apa/apa/core"
)

// Roles
const (
	// Admin group
	RoleDirector = "director"
	RoleAdmin    = "admin"

	// Professional team
	RoleCoordinador      = "coordinador"
	RolePsicopedagogia   = "psicopedagogia"
	RoleTrabajadorSocial = "trabajador_social"

	// Volunteers
	RoleVoluntario = "voluntario"
)

var (
	AdminRoles       = []string{RoleDirector, RoleAdmin}
	ProfesionalRoles = []string{RoleCoordinador, RolePsicopedagogia, RoleTrabajadorSocial}
	StaffRoles       = append(append([]string{}, AdminRoles...), ProfesionalRoles...)
	AllRoles         = append(append([]string{}, StaffRoles...), RoleVoluntario)

	rolePriorities = map[string]int{
		// Admins: 30 - 21
		RoleDirector: 30,
		RoleAdmin:    29,

		// Professionals: 20 - 11
		RoleCoordinador:      20,
		RolePsicopedagogia:   15,
		RoleTrabajadorSocial: 15,

		// Volunteers: 10 - 1
		RoleVoluntario: 1,
	}

	Roles = []Role{
		{Name: "Voluntario", Value: RoleVoluntario},
		{Name: "Trabajador social", Value: RoleTrabajadorSocial},
		{Name: "Psicopedagogía", Value: RolePsicopedagogia},
		{Name: "Coordinador", Value: RoleCoordinador},
		{Name: "Admin", Value: RoleAdmin},
		{Name: "Director", Value: RoleDirector},
	}
)

func RolePriority(role string) int {
	return rolePriorities[role]
}

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Perfil is the application profile of a Supabase auth user; the ID is the auth user's ID.
type Perfil struct {
	ID             string      `json:"id" db:"id"`
	Nombre         string      `json:"nombre" db:"nombre"`
	Email          string      `json:"email" db:"email"`
	Telefono       null.String `json:"telefono" db:"telefono"`
	Rol            string      `json:"rol" db:"rol"`
	ZonaID         null.String `json:"zona_id" db:"zona_id"`
	Activo         bool        `json:"activo" db:"activo"`
	Disponibilidad null.String `json:"disponibilidad" db:"disponibilidad"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"` // UTC
	UpdatedAt      time.Time   `json:"updated_at" db:"updated_at"` // UTC
}

func (p Perfil) IsAdmin() bool       { return core.Contains(AdminRoles, p.Rol) }
func (p Perfil) IsProfesional() bool { return core.Contains(ProfesionalRoles, p.Rol) }
func (p Perfil) IsStaff() bool       { return core.Contains(StaffRoles, p.Rol) }
func (p Perfil) IsVoluntario() bool  { return p.Rol == RoleVoluntario }

// HasAnyRole returns true when no roles are given or when the Perfil's role is one of them.
func (p Perfil) HasAnyRole(roles ...string) bool {
	return len(roles) == 0 || core.Contains(roles, p.Rol)
}

// NewPerfil contains information needed to create a new account.
type NewPerfil struct {
	Nombre          string `json:"nombre" validate:"required,notblank"`
	Email           string `json:"email" validate:"required,email"`
	Telefono        string `json:"telefono" validate:"omitempty,max=30"`
	Rol             string `json:"rol" validate:"required,allroles"`
	ZonaID          string `json:"zona_id" validate:"omitempty,uuid"`
	Disponibilidad  string `json:"disponibilidad"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (np *NewPerfil) Validate(validate *validator.Validate) error {
	np.Nombre = core.CleanString(np.Nombre)
	np.Email = core.CleanString(np.Email, true /* lower */)
	np.Telefono = core.CleanString(np.Telefono)
	np.Rol = core.CleanString(np.Rol, true /* lower */)
	np.ZonaID = core.CleanString(np.ZonaID)
	return validate.Struct(np)
}

// UpdatePerfil defines what information may be provided to modify an existing Perfil.
type UpdatePerfil struct {
	Nombre          string  `json:"nombre"`
	Telefono        *string `json:"telefono" validate:"omitempty,max=30"`
	Disponibilidad  *string `json:"disponibilidad"`
	Rol             string  `json:"rol" validate:"omitempty,allroles"`
	ZonaID          *string `json:"zona_id" validate:"omitempty,uuid"`
	Activo          *bool   `json:"activo"`
	Password        string  `json:"password" validate:"omitempty"`
	PasswordConfirm string  `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`

	// set by Validate; used by the password policy
	email string
}

// IsPrivileged reports whether the update touches fields only admins may change.
func (up *UpdatePerfil) IsPrivileged() bool {
	return up.Rol != "" || up.ZonaID != nil || up.Activo != nil
}

func (up *UpdatePerfil) Validate(orig Perfil, validate *validator.Validate) error {
	if name := core.CleanString(up.Nombre); name != "" {
		up.Nombre = name
	} else {
		up.Nombre = orig.Nombre
	}
	up.Rol = core.CleanString(up.Rol, true /* lower */)
	up.email = orig.Email
	return validate.Struct(up)
}

type QueryFilter struct {
	Search string   `query:"search"`
	Roles  []string `query:"rol"`
	Activo *bool    `query:"activo"`
	ZonaID string   `query:"zona_id"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.ZonaID = core.CleanString(qf.ZonaID)
}

// Session is an authenticated Supabase session.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
	UserID       string `json:"-"`
}
