package capacitacion

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/plataforma-apa/apa/core"
)

// Progress states
const (
	EstadoPendiente  = "pendiente"
	EstadoEnProgreso = "en_progreso"
	EstadoCompletada = "completada"
)

type Capacitacion struct {
	ID              string      `json:"id" db:"id"`
	Titulo          string      `json:"titulo" db:"titulo"`
	Descripcion     null.String `json:"descripcion" db:"descripcion"`
	ContenidoURL    null.String `json:"contenido_url" db:"contenido_url"`
	DuracionMinutos null.Int    `json:"duracion_minutos" db:"duracion_minutos"`
	Obligatoria     bool        `json:"obligatoria" db:"obligatoria"`
	Activa          bool        `json:"activa" db:"activa"`
	Orden           int         `json:"orden" db:"orden"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at" db:"updated_at"`
}

type VoluntarioCapacitacion struct {
	ID             string    `json:"id" db:"id"`
	VoluntarioID   string    `json:"voluntario_id" db:"voluntario_id"`
	CapacitacionID string    `json:"capacitacion_id" db:"capacitacion_id"`
	Estado         string    `json:"estado" db:"estado"`
	Puntaje        null.Int  `json:"puntaje" db:"puntaje"`
	IniciadaAt     null.Time `json:"iniciada_at" db:"iniciada_at"`
	CompletadaAt   null.Time `json:"completada_at" db:"completada_at"`
}

// MiCapacitacion is a Capacitacion along with the volunteer's progress on it.
type MiCapacitacion struct {
	Capacitacion
	Progreso *VoluntarioCapacitacion `json:"progreso"`
}

type CapacitacionInput struct {
	Titulo          string `json:"titulo" validate:"required,notblank,max=200"`
	Descripcion     string `json:"descripcion" validate:"max=5000"`
	ContenidoURL    string `json:"contenido_url" validate:"omitempty,url"`
	DuracionMinutos *int   `json:"duracion_minutos" validate:"omitempty,min=1"`
	Obligatoria     bool   `json:"obligatoria"`
	Activa          *bool  `json:"activa"`
	Orden           int    `json:"orden" validate:"min=0"`
}

func (in *CapacitacionInput) Validate(validate *validator.Validate) error {
	in.Titulo = core.CleanString(in.Titulo)
	in.Descripcion = core.CleanString(in.Descripcion)
	in.ContenidoURL = core.CleanString(in.ContenidoURL)
	return validate.Struct(in)
}

func (in CapacitacionInput) apply(c Capacitacion) Capacitacion {
	c.Titulo = in.Titulo
	c.Descripcion = null.NewString(in.Descripcion, in.Descripcion != "")
	c.ContenidoURL = null.NewString(in.ContenidoURL, in.ContenidoURL != "")
	c.DuracionMinutos = null.IntFromPtr(in.DuracionMinutos)
	c.Obligatoria = in.Obligatoria
	if in.Activa != nil {
		c.Activa = *in.Activa
	}
	c.Orden = in.Orden
	return c
}

type Completar struct {
	Puntaje *int `json:"puntaje" validate:"required,min=0,max=100"`
}

func (in *Completar) Validate(validate *validator.Validate) error {
	return validate.Struct(in)
}

type QueryFilter struct {
	Search string `query:"search"`
	Activa *bool  `query:"activa"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
