package expediente

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"github.com/volatiletech/null/v8"

	"github.com/plataforma-apa/apa/core"
)

// Plan states
const (
	EstadoBorrador   = "borrador"
	EstadoActivo     = "activo"
	EstadoFinalizado = "finalizado"
)

var (
	ErrEvaluacionNotFound = core.NewNotFoundError("evaluación inicial not found")
	ErrPlanNotFound       = core.NewNotFoundError("plan de intervención not found")
	ErrEntrevistaNotFound = core.NewNotFoundError("entrevista familiar not found")
)

// Base holds the columns shared by every record of a child's file.
type Base struct {
	ID        string      `json:"id" db:"id"`
	NinoID    string      `json:"nino_id" db:"nino_id"`
	AutorID   null.String `json:"autor_id" db:"autor_id"`
	Fecha     core.Date   `json:"fecha" db:"fecha"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt time.Time   `json:"updated_at" db:"updated_at"`
}

func (b Base) Meta() Base { return b }

type EvaluacionInicial struct {
	Base
	AreaCognitiva   null.String `json:"area_cognitiva" db:"area_cognitiva"`
	AreaEmocional   null.String `json:"area_emocional" db:"area_emocional"`
	AreaSocial      null.String `json:"area_social" db:"area_social"`
	LecturaNivel    null.String `json:"lectura_nivel" db:"lectura_nivel"`
	EscrituraNivel  null.String `json:"escritura_nivel" db:"escritura_nivel"`
	MatematicaNivel null.String `json:"matematica_nivel" db:"matematica_nivel"`
	Observaciones   null.String `json:"observaciones" db:"observaciones"`
}

type PlanIntervencion struct {
	Base
	Objetivos   pq.StringArray `json:"objetivos" db:"objetivos"`
	Estrategias pq.StringArray `json:"estrategias" db:"estrategias"`
	FechaInicio core.Date      `json:"fecha_inicio" db:"fecha_inicio"`
	FechaFin    core.Date      `json:"fecha_fin" db:"fecha_fin"`
	Estado      string         `json:"estado" db:"estado"`
}

type EntrevistaFamiliar struct {
	Base
	Entrevistado       string      `json:"entrevistado" db:"entrevistado"`
	Parentesco         null.String `json:"parentesco" db:"parentesco"`
	SituacionFamiliar  null.String `json:"situacion_familiar" db:"situacion_familiar"`
	SituacionEconomica null.String `json:"situacion_economica" db:"situacion_economica"`
	Observaciones      null.String `json:"observaciones" db:"observaciones"`
}

// Record is any kind of record of a child's file.
type Record interface {
	EvaluacionInicial | PlanIntervencion | EntrevistaFamiliar
	Meta() Base
}

// Input is the payload used to create or update a Record of type T.
type Input[T Record] interface {
	Validate(validate *validator.Validate) error
	// Build returns `prev` updated with the input, on top of `base`.
	Build(base Base, prev T) T
}

func nullStr(s string) null.String {
	s = core.CleanString(s)
	return null.NewString(s, s != "")
}

// pickFecha keeps the previous date when none is given, defaulting to today.
func pickFecha(d, prev core.Date) core.Date {
	switch {
	case d.Valid:
		return d
	case prev.Valid:
		return prev
	}
	return core.DateFrom(core.NowFunc())
}

func futureDateError(field string) error {
	return core.NewValidationError(nil, core.FieldError{Field: field, Error: "date cannot be in the future"})
}

type EvaluacionInicialInput struct {
	Fecha           core.Date `json:"fecha"`
	AreaCognitiva   string    `json:"area_cognitiva" validate:"max=5000"`
	AreaEmocional   string    `json:"area_emocional" validate:"max=5000"`
	AreaSocial      string    `json:"area_social" validate:"max=5000"`
	LecturaNivel    string    `json:"lectura_nivel" validate:"max=100"`
	EscrituraNivel  string    `json:"escritura_nivel" validate:"max=100"`
	MatematicaNivel string    `json:"matematica_nivel" validate:"max=100"`
	Observaciones   string    `json:"observaciones" validate:"max=10000"`
}

func (in *EvaluacionInicialInput) Validate(validate *validator.Validate) error {
	if err := validate.Struct(in); err != nil {
		return err
	}
	if in.Fecha.Valid && in.Fecha.Time.After(core.NowFunc()) {
		return futureDateError("fecha")
	}
	return nil
}

func (in *EvaluacionInicialInput) Build(base Base, prev EvaluacionInicial) EvaluacionInicial {
	prev.Base = base
	prev.Fecha = pickFecha(in.Fecha, base.Fecha)
	prev.AreaCognitiva = nullStr(in.AreaCognitiva)
	prev.AreaEmocional = nullStr(in.AreaEmocional)
	prev.AreaSocial = nullStr(in.AreaSocial)
	prev.LecturaNivel = nullStr(in.LecturaNivel)
	prev.EscrituraNivel = nullStr(in.EscrituraNivel)
	prev.MatematicaNivel = nullStr(in.MatematicaNivel)
	prev.Observaciones = nullStr(in.Observaciones)
	return prev
}

type PlanIntervencionInput struct {
	Fecha       core.Date `json:"fecha"`
	Objetivos   []string  `json:"objetivos" validate:"required,min=1,dive,notblank"`
	Estrategias []string  `json:"estrategias" validate:"dive,notblank"`
	FechaInicio core.Date `json:"fecha_inicio"`
	FechaFin    core.Date `json:"fecha_fin"`
	Estado      string    `json:"estado" validate:"omitempty,oneof=borrador activo finalizado"`
}

func (in *PlanIntervencionInput) Validate(validate *validator.Validate) error {
	in.Estado = core.CleanString(in.Estado, true /* lower */)
	if in.Estado == "" {
		in.Estado = EstadoBorrador
	}
	if err := validate.Struct(in); err != nil {
		return err
	}
	if !in.FechaInicio.Valid {
		return core.NewValidationError(nil, core.FieldError{Field: "fecha_inicio", Error: "this field is required"})
	}
	if in.FechaFin.Before(in.FechaInicio) {
		return core.NewValidationError(nil, core.FieldError{Field: "fecha_fin", Error: "must not be before fecha_inicio"})
	}
	return nil
}

func (in *PlanIntervencionInput) Build(base Base, prev PlanIntervencion) PlanIntervencion {
	clean := func(items []string) pq.StringArray {
		out := make(pq.StringArray, 0, len(items))
		for _, item := range items {
			if item = core.CleanString(item); item != "" {
				out = append(out, item)
			}
		}
		return out
	}

	prev.Base = base
	prev.Fecha = pickFecha(in.Fecha, base.Fecha)
	prev.Objetivos = clean(in.Objetivos)
	prev.Estrategias = clean(in.Estrategias)
	prev.FechaInicio = in.FechaInicio
	prev.FechaFin = in.FechaFin
	prev.Estado = in.Estado
	return prev
}

type EntrevistaFamiliarInput struct {
	Fecha              core.Date `json:"fecha"`
	Entrevistado       string    `json:"entrevistado" validate:"required,notblank,max=200"`
	Parentesco         string    `json:"parentesco" validate:"max=100"`
	SituacionFamiliar  string    `json:"situacion_familiar" validate:"max=10000"`
	SituacionEconomica string    `json:"situacion_economica" validate:"max=10000"`
	Observaciones      string    `json:"observaciones" validate:"max=10000"`
}

func (in *EntrevistaFamiliarInput) Validate(validate *validator.Validate) error {
	in.Entrevistado = core.CleanString(in.Entrevistado)
	if err := validate.Struct(in); err != nil {
		return err
	}
	if in.Fecha.Valid && in.Fecha.Time.After(core.NowFunc()) {
		return futureDateError("fecha")
	}
	return nil
}

func (in *EntrevistaFamiliarInput) Build(base Base, prev EntrevistaFamiliar) EntrevistaFamiliar {
	prev.Base = base
	prev.Fecha = pickFecha(in.Fecha, base.Fecha)
	prev.Entrevistado = in.Entrevistado
	prev.Parentesco = nullStr(in.Parentesco)
	prev.SituacionFamiliar = nullStr(in.SituacionFamiliar)
	prev.SituacionEconomica = nullStr(in.SituacionEconomica)
	prev.Observaciones = nullStr(in.Observaciones)
	return prev
}
