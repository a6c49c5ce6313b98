package autoevaluacion

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"

	"github.com/plataforma-apa/apa/core"
)

const preguntasSchema = `{
  "type": "array",
  "minItems": 1,
  "items": {
    "type": "object",
    "required": ["id", "texto", "tipo"],
    "additionalProperties": false,
    "properties": {
      "id": {"type": "string", "minLength": 1, "maxLength": 64},
      "texto": {"type": "string", "minLength": 1},
      "tipo": {"enum": ["escala", "texto", "opcion"]},
      "opciones": {"type": "array", "items": {"type": "string", "minLength": 1}, "uniqueItems": true},
      "requerida": {"type": "boolean"}
    }
  }
}`

var preguntasSchemaLoader = gojsonschema.NewStringLoader(preguntasSchema)

// ValidatePreguntas checks the questions against the questions JSON schema, then the rules
// the schema cannot express: unique ids & options for `opcion` questions.
func ValidatePreguntas(preguntas Preguntas) error {
	res, err := gojsonschema.Validate(preguntasSchemaLoader, gojsonschema.NewGoLoader(preguntas))
	if err != nil {
		return errors.Wrap(err, "validating preguntas")
	}
	if !res.Valid() {
		return schemaError("preguntas", res)
	}

	seen := make(map[string]bool, len(preguntas))
	for _, p := range preguntas {
		if seen[p.ID] {
			return core.NewValidationError(nil, core.FieldError{Field: "preguntas", Error: "duplicate question id " + p.ID})
		}
		seen[p.ID] = true
		if p.Tipo == TipoOpcion && len(p.Opciones) == 0 {
			return core.NewValidationError(nil, core.FieldError{Field: "preguntas", Error: "question " + p.ID + " requires opciones"})
		}
	}
	return nil
}

// respuestasSchema builds the JSON schema the answers to `preguntas` must satisfy.
func respuestasSchema(preguntas Preguntas) map[string]interface{} {
	props := make(map[string]interface{}, len(preguntas))
	required := make([]string, 0, len(preguntas))
	for _, p := range preguntas {
		switch p.Tipo {
		case TipoEscala:
			props[p.ID] = map[string]interface{}{"type": "integer", "minimum": 1, "maximum": 5}
		case TipoOpcion:
			opts := make([]interface{}, len(p.Opciones))
			for i, o := range p.Opciones {
				opts[i] = o
			}
			props[p.ID] = map[string]interface{}{"type": "string", "enum": opts}
		default:
			props[p.ID] = map[string]interface{}{"type": "string"}
		}
		if p.Requerida {
			required = append(required, p.ID)
		}
	}

	schema := map[string]interface{}{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// ValidateRespuestas checks the answers against the Plantilla's questions.
func ValidateRespuestas(p Plantilla, respuestas Respuestas) error {
	if respuestas == nil {
		respuestas = Respuestas{}
	}
	res, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(respuestasSchema(p.Preguntas)),
		gojsonschema.NewGoLoader(respuestas),
	)
	if err != nil {
		return errors.Wrap(err, "validating respuestas")
	}
	if !res.Valid() {
		return schemaError("respuestas", res)
	}
	return nil
}

func schemaError(field string, res *gojsonschema.Result) error {
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	sort.Strings(msgs)
	return core.NewValidationError(nil, core.FieldError{Field: field, Error: strings.Join(msgs, "; ")})
}
