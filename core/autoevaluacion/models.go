package autoevaluacion

import (
	"database/sql/driver"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/plataforma-apa/apa/core"
)

// Question types
const (
	TipoEscala = "escala" // integer 1..5
	TipoTexto  = "texto"
	TipoOpcion = "opcion" // one of Pregunta.Opciones
)

type Pregunta struct {
	ID        string   `json:"id"`
	Texto     string   `json:"texto"`
	Tipo      string   `json:"tipo"`
	Opciones  []string `json:"opciones,omitempty"`
	Requerida bool     `json:"requerida"`
}

// Preguntas is stored as a jsonb array.
type Preguntas []Pregunta

func (p *Preguntas) Scan(value interface{}) error {
	return scanJSON(value, p)
}

func (p Preguntas) Value() (driver.Value, error) {
	if p == nil {
		p = Preguntas{}
	}
	return jsonValue(p)
}

// Respuestas maps Pregunta.ID to the answer; stored as a jsonb object.
type Respuestas map[string]interface{}

func (r *Respuestas) Scan(value interface{}) error {
	return scanJSON(value, r)
}

func (r Respuestas) Value() (driver.Value, error) {
	if r == nil {
		r = Respuestas{}
	}
	return jsonValue(r)
}

// jsonValue encodes v as a string: lib/pq would send a []byte as bytea.
func jsonValue(v interface{}) (driver.Value, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func scanJSON(value interface{}, dest interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.Errorf("cannot scan %T as json", value)
	}
	return json.Unmarshal(data, dest)
}

type Plantilla struct {
	ID          string      `json:"id" db:"id"`
	Titulo      string      `json:"titulo" db:"titulo"`
	Descripcion null.String `json:"descripcion" db:"descripcion"`
	Preguntas   Preguntas   `json:"preguntas" db:"preguntas"`
	Activa      bool        `json:"activa" db:"activa"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
}

type Respuesta struct {
	ID           string     `json:"id" db:"id"`
	PlantillaID  string     `json:"plantilla_id" db:"plantilla_id"`
	VoluntarioID string     `json:"voluntario_id" db:"voluntario_id"`
	Respuestas   Respuestas `json:"respuestas" db:"respuestas"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

type PlantillaInput struct {
	Titulo      string    `json:"titulo" validate:"required,notblank,max=200"`
	Descripcion string    `json:"descripcion" validate:"max=5000"`
	Preguntas   Preguntas `json:"preguntas" validate:"required"`
	Activa      *bool     `json:"activa"`
}

func (in *PlantillaInput) Validate(validate *validator.Validate) error {
	in.Titulo = core.CleanString(in.Titulo)
	in.Descripcion = core.CleanString(in.Descripcion)
	for i := range in.Preguntas {
		in.Preguntas[i].ID = core.CleanString(in.Preguntas[i].ID)
		in.Preguntas[i].Texto = core.CleanString(in.Preguntas[i].Texto)
		in.Preguntas[i].Tipo = core.CleanString(in.Preguntas[i].Tipo, true /* lower */)
	}
	if err := validate.Struct(in); err != nil {
		return err
	}
	return ValidatePreguntas(in.Preguntas)
}

func (in PlantillaInput) apply(p Plantilla) Plantilla {
	p.Titulo = in.Titulo
	p.Descripcion = null.NewString(in.Descripcion, in.Descripcion != "")
	p.Preguntas = in.Preguntas
	if in.Activa != nil {
		p.Activa = *in.Activa
	}
	return p
}

type RespuestaInput struct {
	Respuestas Respuestas `json:"respuestas" validate:"required"`
}

type QueryFilter struct {
	Activa *bool `query:"activa"`
}

type RespuestaFilter struct {
	PlantillaID  string `query:"plantilla_id"`
	VoluntarioID string `query:"voluntario_id"`
}

func (qf *RespuestaFilter) Clean() {
	qf.PlantillaID = core.CleanString(qf.PlantillaID)
	qf.VoluntarioID = core.CleanString(qf.VoluntarioID)
}
