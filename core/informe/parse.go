package informe

import (
	"regexp"
	"strings"

	"github.com/goccy/go-json"
	"github.com/xeipuuv/gojsonschema"
)

const contenidoSchema = `{
  "type": "object",
  "required": ["resumen", "fortalezas", "areas_de_mejora", "recomendaciones", "objetivos_sugeridos"],
  "properties": {
    "resumen": {"type": "string", "minLength": 1},
    "fortalezas": {"type": "array", "items": {"type": "string"}},
    "areas_de_mejora": {"type": "array", "items": {"type": "string"}},
    "recomendaciones": {"type": "array", "items": {"type": "string"}},
    "objetivos_sugeridos": {"type": "array", "items": {"type": "string"}}
  }
}`

var (
	contenidoSchemaLoader = gojsonschema.NewStringLoader(contenidoSchema)
	fencedJSON            = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
)

// ParseContenido extracts the structured report from the model's answer.
// Candidates are tried in order: the whole text, the first fenced code block,
// then the text between the first `{` and the last `}`.
// When none satisfies the report schema, the raw text becomes the summary and `ok` is false.
func ParseContenido(raw string) (c Contenido, ok bool) {
	text := strings.TrimSpace(raw)
	for _, candidate := range jsonCandidates(text) {
		if c, ok := decodeContenido(candidate); ok {
			return c, true
		}
	}
	return Contenido{
		Resumen:            text,
		Fortalezas:         []string{},
		AreasDeMejora:      []string{},
		Recomendaciones:    []string{},
		ObjetivosSugeridos: []string{},
	}, false
}

func jsonCandidates(text string) []string {
	candidates := []string{text}
	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}
	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
		candidates = append(candidates, text[start:end+1])
	}
	return candidates
}

func decodeContenido(candidate string) (Contenido, bool) {
	if candidate == "" || !json.Valid([]byte(candidate)) {
		return Contenido{}, false
	}
	res, err := gojsonschema.Validate(contenidoSchemaLoader, gojsonschema.NewStringLoader(candidate))
	if err != nil || !res.Valid() {
		return Contenido{}, false
	}
	var c Contenido
	if err := json.Unmarshal([]byte(candidate), &c); err != nil {
		return Contenido{}, false
	}
	return c, true
}
