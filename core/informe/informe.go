package informe

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/plataforma-apa/apa/core"
	"github.com/plataforma-apa/apa/core/expediente"
	"github.com/plataforma-apa/apa/core/nino"
	"github.com/plataforma-apa/apa/core/sesion"
)

// Report kinds
const (
	TipoProgreso = "progreso"
	TipoInicial  = "inicial"
)

// maxSesiones bounds how many recent sessions are given to the model.
const maxSesiones = 20

type Contenido struct {
	Resumen            string   `json:"resumen"`
	Fortalezas         []string `json:"fortalezas"`
	AreasDeMejora      []string `json:"areas_de_mejora"`
	Recomendaciones    []string `json:"recomendaciones"`
	ObjetivosSugeridos []string `json:"objetivos_sugeridos"`
}

type Informe struct {
	NinoID       string    `json:"nino_id"`
	Tipo         string    `json:"tipo"`
	Contenido    Contenido `json:"contenido"`
	Estructurado bool      `json:"estructurado"`
	GeneradoAt   time.Time `json:"generado_at"`
}

type Solicitud struct {
	Tipo          string `json:"tipo" validate:"required,oneof=progreso inicial"`
	Instrucciones string `json:"instrucciones" validate:"max=2000"`
}

func (s *Solicitud) Validate(validate *validator.Validate) error {
	s.Tipo = core.CleanString(s.Tipo, true /* lower */)
	s.Instrucciones = core.CleanString(s.Instrucciones)
	return validate.Struct(s)
}

type (
	NinoFinder interface {
		Get(ctx context.Context, id string) (nino.Nino, error)
	}

	SesionFinder interface {
		Query(ctx context.Context, filter *sesion.QueryFilter) ([]sesion.Sesion, error)
	}

	Service struct {
		ninos       NinoFinder
		evaluations *expediente.Service[expediente.EvaluacionInicial]
		planes      *expediente.Service[expediente.PlanIntervencion]
		entrevistas *expediente.Service[expediente.EntrevistaFamiliar]
		sesiones    SesionFinder
		generator   core.TextGenerator
	}
)

func NewService(
	ninos NinoFinder,
	evaluations *expediente.Service[expediente.EvaluacionInicial],
	planes *expediente.Service[expediente.PlanIntervencion],
	entrevistas *expediente.Service[expediente.EntrevistaFamiliar],
	sesiones SesionFinder,
	generator core.TextGenerator,
) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(ninos, "ninos"),
		vala.IsNotNil(evaluations, "evaluations"),
		vala.IsNotNil(planes, "planes"),
		vala.IsNotNil(entrevistas, "entrevistas"),
		vala.IsNotNil(sesiones, "sesiones"),
		vala.IsNotNil(generator, "generator"),
	).CheckAndPanic()
	return &Service{
		ninos:       ninos,
		evaluations: evaluations,
		planes:      planes,
		entrevistas: entrevistas,
		sesiones:    sesiones,
		generator:   generator,
	}
}

// Generar gathers the child's file and asks the model for a report.
func (svc *Service) Generar(ctx context.Context, ninoID string, sol Solicitud) (Informe, error) {
	n, err := svc.ninos.Get(ctx, ninoID)
	if err != nil {
		return Informe{}, err
	}
	data := datosNino{Nino: n}

	if data.Evaluacion, data.HasEvaluacion, err = svc.evaluations.Latest(ctx, n.ID, nil); err != nil {
		return Informe{}, errors.Wrap(err, "loading evaluación inicial")
	}
	activo := func(p expediente.PlanIntervencion) bool { return p.Estado == expediente.EstadoActivo }
	if data.Plan, data.HasPlan, err = svc.planes.Latest(ctx, n.ID, activo); err != nil {
		return Informe{}, errors.Wrap(err, "loading plan de intervención")
	}
	if data.Entrevista, data.HasEntrevista, err = svc.entrevistas.Latest(ctx, n.ID, nil); err != nil {
		return Informe{}, errors.Wrap(err, "loading entrevista familiar")
	}
	if data.Sesiones, err = svc.sesiones.Query(ctx, &sesion.QueryFilter{NinoID: n.ID, Limit: maxSesiones}); err != nil {
		return Informe{}, errors.Wrap(err, "loading sesiones")
	}
	if len(data.Sesiones) > maxSesiones {
		data.Sesiones = data.Sesiones[:maxSesiones]
	}

	raw, err := svc.generator.Generate(ctx, buildPrompt(data, sol))
	if err != nil {
		return Informe{}, errors.Wrap(err, "generating informe")
	}
	contenido, ok := ParseContenido(raw)
	return Informe{
		NinoID:       n.ID,
		Tipo:         sol.Tipo,
		Contenido:    contenido,
		Estructurado: ok,
		GeneradoAt:   core.NowFunc(),
	}, nil
}

type datosNino struct {
	Nino          nino.Nino
	Evaluacion    expediente.EvaluacionInicial
	HasEvaluacion bool
	Plan          expediente.PlanIntervencion
	HasPlan       bool
	Entrevista    expediente.EntrevistaFamiliar
	HasEntrevista bool
	Sesiones      []sesion.Sesion
}

func buildPrompt(d datosNino, sol Solicitud) string {
	var b strings.Builder
	line := func(label, value string) {
		if value = strings.TrimSpace(value); value != "" {
			fmt.Fprintf(&b, "- %s: %s\n", label, value)
		}
	}

	b.WriteString("Sos un profesional de psicopedagogía de la Plataforma APA, una organización que acompaña ")
	b.WriteString("la alfabetización de niños y niñas.\n")
	if sol.Tipo == TipoInicial {
		b.WriteString("Redactá un informe inicial del niño/a a partir de la información disponible.\n\n")
	} else {
		b.WriteString("Redactá un informe de progreso del niño/a a partir de la información disponible.\n\n")
	}

	n := d.Nino
	b.WriteString("## Datos del niño/a\n")
	line("Nombre", n.NombreCompleto())
	if n.Edad != nil {
		line("Edad", fmt.Sprintf("%d años", *n.Edad))
	}
	line("Escuela", n.Escuela.String)
	line("Grado", n.Grado.String)
	line("Observaciones", n.Observaciones.String)

	if d.HasEvaluacion {
		e := d.Evaluacion
		fmt.Fprintf(&b, "\n## Evaluación inicial (%s)\n", e.Fecha)
		line("Área cognitiva", e.AreaCognitiva.String)
		line("Área emocional", e.AreaEmocional.String)
		line("Área social", e.AreaSocial.String)
		line("Nivel de lectura", e.LecturaNivel.String)
		line("Nivel de escritura", e.EscrituraNivel.String)
		line("Nivel de matemática", e.MatematicaNivel.String)
		line("Observaciones", e.Observaciones.String)
	}

	if d.HasPlan {
		p := d.Plan
		fmt.Fprintf(&b, "\n## Plan de intervención activo (desde %s)\n", p.FechaInicio)
		line("Objetivos", strings.Join(p.Objetivos, "; "))
		line("Estrategias", strings.Join(p.Estrategias, "; "))
	}

	if d.HasEntrevista {
		e := d.Entrevista
		fmt.Fprintf(&b, "\n## Entrevista familiar (%s)\n", e.Fecha)
		line("Entrevistado/a", strings.TrimSpace(e.Entrevistado+" "+parens(e.Parentesco.String)))
		line("Situación familiar", e.SituacionFamiliar.String)
		line("Situación económica", e.SituacionEconomica.String)
		line("Observaciones", e.Observaciones.String)
	}

	fmt.Fprintf(&b, "\n## Últimas sesiones (%d)\n", len(d.Sesiones))
	if len(d.Sesiones) == 0 {
		b.WriteString("Sin sesiones registradas.\n")
	}
	for _, s := range d.Sesiones {
		fmt.Fprintf(&b, "- %s, %d min: %s", s.Fecha.Format(core.DateLayout), s.DuracionMinutos, s.Actividades)
		if s.EstadoAnimo.Valid {
			fmt.Fprintf(&b, " | ánimo: %s", s.EstadoAnimo.String)
		}
		if s.Observaciones.Valid {
			fmt.Fprintf(&b, " | %s", s.Observaciones.String)
		}
		b.WriteString("\n")
	}

	if sol.Instrucciones != "" {
		b.WriteString("\n## Indicaciones adicionales\n")
		b.WriteString(sol.Instrucciones)
		b.WriteString("\n")
	}

	b.WriteString("\nRespondé únicamente con un objeto JSON válido, sin texto adicional, con esta forma:\n")
	b.WriteString(`{"resumen": "string", "fortalezas": ["string"], "areas_de_mejora": ["string"], `)
	b.WriteString(`"recomendaciones": ["string"], "objetivos_sugeridos": ["string"]}`)
	b.WriteString("\n")
	return b.String()
}

func parens(s string) string {
	if s == "" {
		return ""
	}
	return "(" + s + ")"
}
