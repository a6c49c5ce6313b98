package biblioteca

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/plataforma-apa/apa/core"
)

var (
	ErrNotFound   = core.NewNotFoundError("documento not found")
	ErrEmptyFile  = errors.New("file is empty")
	ErrDimensions = errors.New("unexpected embedding dimensions")
)

type (
	Repository interface {
		CreateDocumento(ctx context.Context, d Documento) (Documento, error)
		// QueryDocumentos returns the newest first.
		QueryDocumentos(ctx context.Context) ([]Documento, error)
		GetDocumento(ctx context.Context, id string) (Documento, error)
		UpdateDocumento(ctx context.Context, d Documento) (Documento, error)
		// DeleteDocumento deletes the documento along with its chunks.
		DeleteDocumento(ctx context.Context, id string) error

		// ReplaceChunks atomically replaces every chunk of the documento.
		ReplaceChunks(ctx context.Context, documentoID string, chunks []Chunk) error
		// BuscarFragmentos returns the `limit` chunks closest to `embedding`, most similar first.
		BuscarFragmentos(ctx context.Context, embedding []float32, limit int) ([]Fragmento, error)
	}

	Options struct {
		ChunkSize     int
		ChunkOverlap  int
		MatchCount    int
		MinSimilarity float64
		EmbeddingDims int
	}

	Service struct {
		repo      Repository
		files     core.FileStore
		embedder  core.Embedder
		generator core.TextGenerator
		logger    core.Logger
		opts      Options
	}
)

func NewService(repo Repository, files core.FileStore, embedder core.Embedder, generator core.TextGenerator, logger core.Logger, opts Options) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(files, "files"),
		vala.IsNotNil(embedder, "embedder"),
		vala.IsNotNil(generator, "generator"),
		vala.IsNotNil(logger, "logger"),
		vala.GreaterThan(opts.ChunkSize, 0, "opts.ChunkSize"),
		vala.GreaterThan(opts.MatchCount, 0, "opts.MatchCount"),
	).CheckAndPanic()
	return &Service{
		repo:      repo,
		files:     files,
		embedder:  embedder,
		generator: generator,
		logger:    logger,
		opts:      opts,
	}
}

// Upload stores the file then indexes its content when it is text.
// Indexing failures leave the documento in the `error` state, the file is kept.
func (svc *Service) Upload(ctx context.Context, in DocumentoInput, file core.FileUpload, subidoPor string) (Documento, error) {
	if file.Content == nil {
		return Documento{}, core.NewValidationError(ErrEmptyFile, core.FieldError{Field: "file", Error: ErrEmptyFile.Error()})
	}
	var content bytes.Buffer
	if _, err := content.ReadFrom(file.Content); err != nil {
		return Documento{}, errors.Wrap(err, "reading file")
	}
	if content.Len() == 0 {
		return Documento{}, core.NewValidationError(ErrEmptyFile, core.FieldError{Field: "file", Error: ErrEmptyFile.Error()})
	}

	data := content.Bytes()
	file.Folder = "biblioteca"
	file.Size = int64(len(data))
	file.Content = bytes.NewReader(data)
	stored, err := svc.files.Upload(ctx, file)
	if err != nil {
		return Documento{}, errors.Wrap(err, "storing file")
	}

	d := Documento{
		Titulo:        in.Titulo,
		Descripcion:   null.NewString(in.Descripcion, in.Descripcion != ""),
		NombreArchivo: file.Name,
		MimeType:      file.MimeType,
		Tamano:        file.Size,
		ArchivoID:     stored.ID,
		URL:           stored.URL,
		Estado:        EstadoSubido,
		SubidoPor:     null.NewString(subidoPor, subidoPor != ""),
		CreatedAt:     core.NowFunc(),
	}
	d, err = svc.repo.CreateDocumento(ctx, d)
	if err != nil {
		if delErr := svc.files.Delete(ctx, stored.ID); delErr != nil {
			svc.logger.Warn(fmt.Sprintf("removing orphan file %s: %v", stored.ID, delErr), delErr)
		}
		return Documento{}, errors.Wrap(err, "creating documento")
	}

	if !IsText(file.MimeType, file.Name) {
		d.Estado = EstadoListo
		d, err = svc.repo.UpdateDocumento(ctx, d)
		return d, errors.Wrap(err, "updating documento")
	}
	return svc.Process(ctx, d, data)
}

// Process chunks & embeds the text content of the documento.
func (svc *Service) Process(ctx context.Context, d Documento, data []byte) (Documento, error) {
	d.Estado = EstadoProcesando
	d.Error = null.String{}
	d, err := svc.repo.UpdateDocumento(ctx, d)
	if err != nil {
		return Documento{}, errors.Wrap(err, "updating documento")
	}

	count, procErr := svc.index(ctx, d.ID, data)
	if procErr != nil {
		svc.logger.Warn(fmt.Sprintf("processing documento %s: %v", d.ID, procErr), procErr)
		d.Estado = EstadoError
		d.Error = null.StringFrom(procErr.Error())
	} else {
		d.Estado = EstadoListo
		d.Chunks = count
	}
	d, err = svc.repo.UpdateDocumento(ctx, d)
	return d, errors.Wrap(err, "updating documento")
}

func (svc *Service) index(ctx context.Context, documentoID string, data []byte) (int, error) {
	text := string(data)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "")
	}

	parts := SplitText(text, svc.opts.ChunkSize, svc.opts.ChunkOverlap)
	if len(parts) == 0 {
		return 0, svc.repo.ReplaceChunks(ctx, documentoID, nil)
	}

	vectors, err := svc.embedder.Embed(ctx, parts, core.EmbeddingTaskDocument)
	if err != nil {
		return 0, errors.Wrap(err, "embedding chunks")
	}
	if len(vectors) != len(parts) {
		return 0, errors.Errorf("got %d embeddings for %d chunks", len(vectors), len(parts))
	}

	chunks := make([]Chunk, len(parts))
	for i, part := range parts {
		if svc.opts.EmbeddingDims > 0 && len(vectors[i]) != svc.opts.EmbeddingDims {
			return 0, errors.Wrapf(ErrDimensions, "got %d, want %d", len(vectors[i]), svc.opts.EmbeddingDims)
		}
		chunks[i] = Chunk{DocumentoID: documentoID, Indice: i, Contenido: part, Embedding: vectors[i]}
	}
	if err := svc.repo.ReplaceChunks(ctx, documentoID, chunks); err != nil {
		return 0, errors.Wrap(err, "saving chunks")
	}
	return len(chunks), nil
}

func (svc *Service) Query(ctx context.Context) ([]Documento, error) {
	return svc.repo.QueryDocumentos(ctx)
}

func (svc *Service) Get(ctx context.Context, id string) (Documento, error) {
	return svc.repo.GetDocumento(ctx, id)
}

// Delete removes the documento & its chunks, then its stored file (best-effort).
func (svc *Service) Delete(ctx context.Context, d Documento) error {
	if err := svc.repo.DeleteDocumento(ctx, d.ID); err != nil {
		return errors.Wrap(err, "deleting documento")
	}
	if err := svc.files.Delete(ctx, d.ArchivoID); err != nil {
		svc.logger.Warn(fmt.Sprintf("removing file %s: %v", d.ArchivoID, err), err)
	}
	return nil
}

// Preguntar answers the question from the most relevant fragments of the library.
func (svc *Service) Preguntar(ctx context.Context, pregunta string) (Respuesta, error) {
	vectors, err := svc.embedder.Embed(ctx, []string{pregunta}, core.EmbeddingTaskQuery)
	if err != nil {
		return Respuesta{}, errors.Wrap(err, "embedding pregunta")
	}
	if len(vectors) != 1 {
		return Respuesta{}, errors.Errorf("got %d embeddings for 1 pregunta", len(vectors))
	}

	frags, err := svc.repo.BuscarFragmentos(ctx, vectors[0], svc.opts.MatchCount)
	if err != nil {
		return Respuesta{}, errors.Wrap(err, "searching fragmentos")
	}
	relevant := make([]Fragmento, 0, len(frags))
	for _, f := range frags {
		if f.Similitud >= svc.opts.MinSimilarity {
			relevant = append(relevant, f)
		}
	}
	if len(relevant) == 0 {
		return Respuesta{Respuesta: NoInfoAnswer, Fuentes: []Fuente{}}, nil
	}

	answer, err := svc.generator.Generate(ctx, buildPrompt(pregunta, relevant))
	if err != nil {
		return Respuesta{}, errors.Wrap(err, "generating respuesta")
	}

	fuentes := make([]Fuente, len(relevant))
	for i, f := range relevant {
		fuentes[i] = Fuente{DocumentoID: f.DocumentoID, Titulo: f.Titulo, Indice: f.Indice, Similitud: f.Similitud}
	}
	return Respuesta{Respuesta: strings.TrimSpace(answer), Fuentes: fuentes}, nil
}

func buildPrompt(pregunta string, frags []Fragmento) string {
	var b strings.Builder
	b.WriteString("Sos un asistente de la Plataforma APA, una organización educativa que acompaña a niños y niñas.\n")
	b.WriteString("Respondé la pregunta usando únicamente la información de los fragmentos de documentos de la biblioteca que siguen.\n")
	b.WriteString("Si los fragmentos no alcanzan para responder, decilo claramente. Respondé en español, de forma clara y breve.\n\n")
	for i, f := range frags {
		fmt.Fprintf(&b, "[Fragmento %d] (%s, parte %d)\n%s\n\n", i+1, f.Titulo, f.Indice+1, f.Contenido)
	}
	b.WriteString("Pregunta: ")
	b.WriteString(pregunta)
	b.WriteString("\nRespuesta:")
	return b.String()
}
