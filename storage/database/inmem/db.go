// Package inmemdb implements the repositories in memory. Used by tests.
package inmemdb

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/plataforma-apa/apa/core/asignacion"
	"github.com/plataforma-apa/apa/core/autoevaluacion"
	"github.com/plataforma-apa/apa/core/biblioteca"
	"github.com/plataforma-apa/apa/core/capacitacion"
	"github.com/plataforma-apa/apa/core/expediente"
	"github.com/plataforma-apa/apa/core/nino"
	"github.com/plataforma-apa/apa/core/perfil"
	"github.com/plataforma-apa/apa/core/sesion"
	"github.com/plataforma-apa/apa/core/zona"
)

// DB holds every table behind a single lock, so that cross-table operations are atomic.
type DB struct {
	mutex sync.RWMutex

	perfiles       map[string]*perfil.Perfil
	zonas          map[string]*zona.Zona
	ninos          map[string]*nino.Nino
	asignaciones   map[string]*asignacion.Asignacion
	capacitaciones map[string]*capacitacion.Capacitacion
	progresos      map[string]*capacitacion.VoluntarioCapacitacion
	plantillas     map[string]*autoevaluacion.Plantilla
	respuestas     map[string]*autoevaluacion.Respuesta
	evaluaciones   map[string]*expediente.EvaluacionInicial
	planes         map[string]*expediente.PlanIntervencion
	entrevistas    map[string]*expediente.EntrevistaFamiliar
	sesiones       map[string]*sesion.Sesion
	documentos     map[string]*biblioteca.Documento
	chunks         map[string][]biblioteca.Chunk // by documento ID
}

func Open() *DB {
	return &DB{
		perfiles:       make(map[string]*perfil.Perfil),
		zonas:          make(map[string]*zona.Zona),
		ninos:          make(map[string]*nino.Nino),
		asignaciones:   make(map[string]*asignacion.Asignacion),
		capacitaciones: make(map[string]*capacitacion.Capacitacion),
		progresos:      make(map[string]*capacitacion.VoluntarioCapacitacion),
		plantillas:     make(map[string]*autoevaluacion.Plantilla),
		respuestas:     make(map[string]*autoevaluacion.Respuesta),
		evaluaciones:   make(map[string]*expediente.EvaluacionInicial),
		planes:         make(map[string]*expediente.PlanIntervencion),
		entrevistas:    make(map[string]*expediente.EntrevistaFamiliar),
		sesiones:       make(map[string]*sesion.Sesion),
		documentos:     make(map[string]*biblioteca.Documento),
		chunks:         make(map[string][]biblioteca.Chunk),
	}
}

func newID() string {
	return uuid.NewString()
}

// values returns a copy of every row of the table.
func values[T any](table map[string]*T) []T {
	rows := make([]T, 0, len(table))
	for _, row := range table {
		rows = append(rows, *row)
	}
	return rows
}

// containsFold is a case-insensitive strings.Contains.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
