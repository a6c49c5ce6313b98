package biblioteca

import (
	"mime"
	"path"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/plataforma-apa/apa/core"
)

// Documento states
const (
	EstadoSubido     = "subido"
	EstadoProcesando = "procesando"
	EstadoListo      = "listo"
	EstadoError      = "error"
)

// NoInfoAnswer is returned when no fragment of the library is relevant to the question.
const NoInfoAnswer = "No encontré información sobre este tema en los documentos de la biblioteca."

type Documento struct {
	ID            string      `json:"id" db:"id"`
	Titulo        string      `json:"titulo" db:"titulo"`
	Descripcion   null.String `json:"descripcion" db:"descripcion"`
	NombreArchivo string      `json:"nombre_archivo" db:"nombre_archivo"`
	MimeType      string      `json:"mime_type" db:"mime_type"`
	Tamano        int64       `json:"tamano" db:"tamano"`
	ArchivoID     string      `json:"-" db:"archivo_id"`
	URL           string      `json:"url" db:"url"`
	Estado        string      `json:"estado" db:"estado"`
	Error         null.String `json:"error" db:"error"`
	Chunks        int         `json:"chunks" db:"chunks"`
	SubidoPor     null.String `json:"subido_por" db:"subido_por"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
}

// TamanoHumano is the human readable size, eg: "1.2 MB".
func (d Documento) TamanoHumano() string {
	return humanize.Bytes(uint64(d.Tamano))
}

// DocumentoView is the API representation of a Documento.
type DocumentoView struct {
	Documento
	TamanoHumano string `json:"tamano_humano"`
}

func (d Documento) View() DocumentoView {
	return DocumentoView{Documento: d, TamanoHumano: d.TamanoHumano()}
}

type Chunk struct {
	ID          string    `json:"id"`
	DocumentoID string    `json:"documento_id"`
	Indice      int       `json:"indice"`
	Contenido   string    `json:"contenido"`
	Embedding   []float32 `json:"-"`
}

// Fragmento is a chunk retrieved by similarity, as returned by `buscar_fragmentos_documento`.
type Fragmento struct {
	ChunkID     string  `json:"chunk_id" boil:"chunk_id"`
	DocumentoID string  `json:"documento_id" boil:"documento_id"`
	Titulo      string  `json:"titulo" boil:"titulo"`
	Indice      int     `json:"indice" boil:"indice"`
	Contenido   string  `json:"contenido" boil:"contenido"`
	Similitud   float64 `json:"similitud" boil:"similitud"`
}

type Fuente struct {
	DocumentoID string  `json:"documento_id"`
	Titulo      string  `json:"titulo"`
	Indice      int     `json:"indice"`
	Similitud   float64 `json:"similitud"`
}

type Respuesta struct {
	Respuesta string   `json:"respuesta"`
	Fuentes   []Fuente `json:"fuentes"`
}

type DocumentoInput struct {
	Titulo      string `form:"titulo" json:"titulo" validate:"required,notblank,max=200"`
	Descripcion string `form:"descripcion" json:"descripcion" validate:"max=2000"`
}

func (in *DocumentoInput) Validate(validate *validator.Validate) error {
	in.Titulo = core.CleanString(in.Titulo)
	in.Descripcion = core.CleanString(in.Descripcion)
	return validate.Struct(in)
}

type Pregunta struct {
	Pregunta string `json:"pregunta" validate:"required,notblank,max=2000"`
}

func (in *Pregunta) Validate(validate *validator.Validate) error {
	in.Pregunta = core.CleanString(in.Pregunta)
	return validate.Struct(in)
}

var textExtensions = []string{".txt", ".md", ".markdown", ".csv", ".json"}

// IsText reports whether the file content can be chunked as plain text.
func IsText(mimeType, filename string) bool {
	mt, _, err := mime.ParseMediaType(mimeType)
	if err == nil {
		if strings.HasPrefix(mt, "text/") || mt == "application/json" {
			return true
		}
	}
	return core.Contains(textExtensions, strings.ToLower(path.Ext(filename)))
}
