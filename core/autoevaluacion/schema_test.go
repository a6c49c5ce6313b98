package autoevaluacion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plataforma-apa/apa/core"
)

func fieldErr(t *testing.T, err error) core.FieldError {
	t.Helper()
	verr, ok := err.(*core.ValidationError)
	require.True(t, ok, "want *core.ValidationError, got %T", err)
	require.Len(t, verr.Fields, 1)
	return verr.Fields[0]
}

func TestValidatePreguntas(t *testing.T) {
	tests := []struct {
		name      string
		preguntas Preguntas
		wantErr   bool
		wantMsg   string
	}{
		{
			name: "valid",
			preguntas: Preguntas{
				{ID: "animo", Texto: "¿Cómo te sentiste?", Tipo: TipoEscala, Requerida: true},
				{ID: "momento", Texto: "Momento", Tipo: TipoOpcion, Opciones: []string{"mañana", "tarde"}},
				{ID: "notas", Texto: "Notas", Tipo: TipoTexto},
			},
		},
		{name: "empty", preguntas: Preguntas{}, wantErr: true},
		{name: "unknown tipo", preguntas: Preguntas{{ID: "a", Texto: "A", Tipo: "lol"}}, wantErr: true},
		{name: "blank texto", preguntas: Preguntas{{ID: "a", Tipo: TipoTexto}}, wantErr: true},
		{
			name:      "duplicate id",
			preguntas: Preguntas{{ID: "a", Texto: "A", Tipo: TipoTexto}, {ID: "a", Texto: "B", Tipo: TipoEscala}},
			wantErr:   true,
			wantMsg:   "duplicate question id a",
		},
		{
			name:      "opcion without opciones",
			preguntas: Preguntas{{ID: "a", Texto: "A", Tipo: TipoOpcion}},
			wantErr:   true,
			wantMsg:   "question a requires opciones",
		},
		{
			name:      "duplicate opciones",
			preguntas: Preguntas{{ID: "a", Texto: "A", Tipo: TipoOpcion, Opciones: []string{"x", "x"}}},
			wantErr:   true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePreguntas(tt.preguntas)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			fe := fieldErr(t, err)
			assert.Equal(t, "preguntas", fe.Field)
			assert.NotEmpty(t, fe.Error)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, fe.Error)
			}
		})
	}
}

func TestValidateRespuestas(t *testing.T) {
	p := Plantilla{Preguntas: Preguntas{
		{ID: "animo", Texto: "¿Cómo te sentiste?", Tipo: TipoEscala, Requerida: true},
		{ID: "momento", Texto: "Momento", Tipo: TipoOpcion, Opciones: []string{"mañana", "tarde"}},
		{ID: "notas", Texto: "Notas", Tipo: TipoTexto},
	}}

	tests := []struct {
		name       string
		respuestas Respuestas
		wantErr    bool
	}{
		{name: "all answered", respuestas: Respuestas{"animo": 5, "momento": "tarde", "notas": "bien"}},
		{name: "only required", respuestas: Respuestas{"animo": 1}},
		{name: "missing required", respuestas: Respuestas{"notas": "bien"}, wantErr: true},
		{name: "nil", wantErr: true},
		{name: "escala too low", respuestas: Respuestas{"animo": 0}, wantErr: true},
		{name: "escala too high", respuestas: Respuestas{"animo": 6}, wantErr: true},
		{name: "escala not an integer", respuestas: Respuestas{"animo": 2.5}, wantErr: true},
		{name: "escala as text", respuestas: Respuestas{"animo": "3"}, wantErr: true},
		{name: "unknown opcion", respuestas: Respuestas{"animo": 3, "momento": "noche"}, wantErr: true},
		{name: "texto not a string", respuestas: Respuestas{"animo": 3, "notas": 12}, wantErr: true},
		{name: "unknown question", respuestas: Respuestas{"animo": 3, "lol": "x"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRespuestas(p, tt.respuestas)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, "respuestas", fieldErr(t, err).Field)
		})
	}

	t.Run("nothing required", func(t *testing.T) {
		assert.NoError(t, ValidateRespuestas(Plantilla{Preguntas: Preguntas{{ID: "a", Texto: "A", Tipo: TipoTexto}}}, nil))
	})
}
