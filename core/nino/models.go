package nino

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/plataforma-apa/apa/core"
)

type Nino struct {
	ID               string      `json:"id" db:"id"`
	Nombre           string      `json:"nombre" db:"nombre"`
	Apellido         string      `json:"apellido" db:"apellido"`
	FechaNacimiento  core.Date   `json:"fecha_nacimiento" db:"fecha_nacimiento"`
	Edad             *int        `json:"edad" db:"-"`
	Genero           null.String `json:"genero" db:"genero"`
	Escuela          null.String `json:"escuela" db:"escuela"`
	Grado            null.String `json:"grado" db:"grado"`
	ZonaID           null.String `json:"zona_id" db:"zona_id"`
	Direccion        null.String `json:"direccion" db:"direccion"`
	ContactoFamiliar null.String `json:"contacto_familiar" db:"contacto_familiar"`
	TelefonoContacto null.String `json:"telefono_contacto" db:"telefono_contacto"`
	Observaciones    null.String `json:"observaciones" db:"observaciones"`
	FotoURL          null.String `json:"foto_url" db:"foto_url"`
	FotoArchivoID    null.String `json:"-" db:"foto_archivo_id"`
	Activo           bool        `json:"activo" db:"activo"`
	CreatedAt        time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at" db:"updated_at"`
}

func (n Nino) NombreCompleto() string {
	return n.Nombre + " " + n.Apellido
}

// withEdad fills the derived age.
func (n Nino) withEdad(now time.Time) Nino {
	if n.FechaNacimiento.Valid {
		edad := n.FechaNacimiento.YearsUntil(now)
		n.Edad = &edad
	} else {
		n.Edad = nil
	}
	return n
}

// NinoInput is used both to create and to fully update a Nino.
type NinoInput struct {
	Nombre           string    `json:"nombre" validate:"required,notblank,max=120"`
	Apellido         string    `json:"apellido" validate:"required,notblank,max=120"`
	FechaNacimiento  core.Date `json:"fecha_nacimiento"`
	Genero           string    `json:"genero" validate:"omitempty,oneof=femenino masculino otro"`
	Escuela          string    `json:"escuela" validate:"max=200"`
	Grado            string    `json:"grado" validate:"max=50"`
	ZonaID           string    `json:"zona_id" validate:"omitempty,uuid"`
	Direccion        string    `json:"direccion" validate:"max=300"`
	ContactoFamiliar string    `json:"contacto_familiar" validate:"max=200"`
	TelefonoContacto string    `json:"telefono_contacto" validate:"max=30"`
	Observaciones    string    `json:"observaciones" validate:"max=5000"`
	Activo           *bool     `json:"activo"`
}

func (in *NinoInput) Validate(validate *validator.Validate) error {
	in.Nombre = core.CleanString(in.Nombre)
	in.Apellido = core.CleanString(in.Apellido)
	in.Genero = core.CleanString(in.Genero, true /* lower */)
	in.Escuela = core.CleanString(in.Escuela)
	in.Grado = core.CleanString(in.Grado)
	in.ZonaID = core.CleanString(in.ZonaID)
	in.Direccion = core.CleanString(in.Direccion)
	in.ContactoFamiliar = core.CleanString(in.ContactoFamiliar)
	in.TelefonoContacto = core.CleanString(in.TelefonoContacto)
	in.Observaciones = core.CleanString(in.Observaciones)

	if err := validate.Struct(in); err != nil {
		return err
	}
	if in.FechaNacimiento.Valid && in.FechaNacimiento.Time.After(core.NowFunc()) {
		return core.NewValidationError(nil, core.FieldError{Field: "fecha_nacimiento", Error: "date cannot be in the future"})
	}
	return nil
}

func (in NinoInput) apply(n Nino) Nino {
	str := func(s string) null.String { return null.NewString(s, s != "") }

	n.Nombre = in.Nombre
	n.Apellido = in.Apellido
	n.FechaNacimiento = in.FechaNacimiento
	n.Genero = str(in.Genero)
	n.Escuela = str(in.Escuela)
	n.Grado = str(in.Grado)
	n.ZonaID = str(in.ZonaID)
	n.Direccion = str(in.Direccion)
	n.ContactoFamiliar = str(in.ContactoFamiliar)
	n.TelefonoContacto = str(in.TelefonoContacto)
	n.Observaciones = str(in.Observaciones)
	if in.Activo != nil {
		n.Activo = *in.Activo
	}
	return n
}

type QueryFilter struct {
	Search string `query:"search"`
	ZonaID string `query:"zona_id"`
	Activo *bool  `query:"activo"`

	// VoluntarioID restricts the results to children actively assigned to this volunteer.
	VoluntarioID string `query:"-"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.ZonaID = core.CleanString(qf.ZonaID)
}
