package sesion

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/plataforma-apa/apa/core"
)

// MaxSyncItems bounds a single offline-queue drain.
const MaxSyncItems = 100

// Sync item results
const (
	EstadoCreada    = "creada"
	EstadoDuplicada = "duplicada"
	EstadoError     = "error"
)

type Sesion struct {
	ID              string      `json:"id" db:"id"`
	NinoID          string      `json:"nino_id" db:"nino_id"`
	VoluntarioID    string      `json:"voluntario_id" db:"voluntario_id"`
	Fecha           time.Time   `json:"fecha" db:"fecha"`
	DuracionMinutos int         `json:"duracion_minutos" db:"duracion_minutos"`
	Actividades     string      `json:"actividades" db:"actividades"`
	Observaciones   null.String `json:"observaciones" db:"observaciones"`
	EstadoAnimo     null.String `json:"estado_animo" db:"estado_animo"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
	SincronizadaAt  time.Time   `json:"sincronizada_at" db:"sincronizada_at"`
}

// SesionInput records a session. ID may be generated by the client (offline queue).
type SesionInput struct {
	ID              string    `json:"id" validate:"omitempty,uuid"`
	NinoID          string    `json:"nino_id" validate:"required,uuid"`
	VoluntarioID    string    `json:"voluntario_id" validate:"omitempty,uuid"`
	Fecha           time.Time `json:"fecha" validate:"required"`
	DuracionMinutos int       `json:"duracion_minutos" validate:"required,min=1,max=1440"`
	Actividades     string    `json:"actividades" validate:"required,notblank,max=10000"`
	Observaciones   string    `json:"observaciones" validate:"max=10000"`
	EstadoAnimo     string    `json:"estado_animo" validate:"max=50"`
}

func (in *SesionInput) Validate(validate *validator.Validate) error {
	in.ID = core.CleanString(in.ID, true /* lower */)
	in.NinoID = core.CleanString(in.NinoID)
	in.VoluntarioID = core.CleanString(in.VoluntarioID)
	in.Actividades = core.CleanString(in.Actividades)
	in.Observaciones = core.CleanString(in.Observaciones)
	in.EstadoAnimo = core.CleanString(in.EstadoAnimo, true /* lower */)
	return validate.Struct(in)
}

type SyncRequest struct {
	Sesiones []SesionInput `json:"sesiones"`
}

type SyncResult struct {
	ID     string `json:"id"`
	Estado string `json:"estado"`
	Error  string `json:"error,omitempty"`
}

type QueryFilter struct {
	NinoID       string    `query:"nino_id"`
	VoluntarioID string    `query:"voluntario_id"`
	Desde        core.Date `query:"-"`
	Hasta        core.Date `query:"-"`
	Limit        int       `query:"-"`
}

func (qf *QueryFilter) Clean() {
	qf.NinoID = core.CleanString(qf.NinoID)
	qf.VoluntarioID = core.CleanString(qf.VoluntarioID)
}
