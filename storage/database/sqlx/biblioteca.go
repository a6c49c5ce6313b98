package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"
	"github.com/volatiletech/sqlboiler/v4/queries"
	"github.com/volatiletech/strmangle"

	"github.com/plataforma-apa/apa/core"
	"github.com/plataforma-apa/apa/core/biblioteca"
)

var (
	documentoColumns = []string{
		"titulo", "descripcion", "nombre_archivo", "mime_type", "tamano", "archivo_id", "url", "estado",
		"error", "chunks", "subido_por", "created_at",
	}
	chunkColumns = []string{"documento_id", "indice", "contenido", "embedding"}
)

// chunksPerInsert bounds the bind vars of a single insert.
const chunksPerInsert = 500

type bibliotecaRepository struct {
	db core.DB
}

var _ biblioteca.Repository = (*bibliotecaRepository)(nil) // interface compliance check

func NewBibliotecaRepository(db core.DB) *bibliotecaRepository {
	return &bibliotecaRepository{db: db}
}

func documentoArgs(d biblioteca.Documento) []interface{} {
	return []interface{}{
		d.Titulo, d.Descripcion, d.NombreArchivo, d.MimeType, d.Tamano, d.ArchivoID, d.URL, d.Estado,
		d.Error, d.Chunks, d.SubidoPor, d.CreatedAt.UTC(),
	}
}

func (repo bibliotecaRepository) CreateDocumento(ctx context.Context, d biblioteca.Documento) (biblioteca.Documento, error) {
	var saved biblioteca.Documento
	if err := sqlx.GetContext(ctx, repo.db, &saved, insertQuery("documentos", documentoColumns), documentoArgs(d)...); err != nil {
		return biblioteca.Documento{}, errors.Wrap(err, "inserting documento")
	}
	return saved, nil
}

func (repo bibliotecaRepository) QueryDocumentos(ctx context.Context) ([]biblioteca.Documento, error) {
	docs := []biblioteca.Documento{}
	if err := sqlx.SelectContext(ctx, repo.db, &docs, "SELECT * FROM documentos ORDER BY created_at DESC"); err != nil {
		return nil, errors.Wrap(err, "querying documentos")
	}
	return docs, nil
}

func (repo bibliotecaRepository) GetDocumento(ctx context.Context, id string) (biblioteca.Documento, error) {
	if !validID(id) {
		return biblioteca.Documento{}, biblioteca.ErrNotFound
	}
	var d biblioteca.Documento
	if err := sqlx.GetContext(ctx, repo.db, &d, "SELECT * FROM documentos WHERE id = $1", id); err != nil {
		return biblioteca.Documento{}, trapNoRowsErr(err, biblioteca.ErrNotFound, "finding documento")
	}
	return d, nil
}

func (repo bibliotecaRepository) UpdateDocumento(ctx context.Context, d biblioteca.Documento) (biblioteca.Documento, error) {
	var saved biblioteca.Documento
	args := append(documentoArgs(d), d.ID)
	if err := sqlx.GetContext(ctx, repo.db, &saved, updateQuery("documentos", documentoColumns), args...); err != nil {
		return biblioteca.Documento{}, trapNoRowsErr(err, biblioteca.ErrNotFound, "updating documento")
	}
	return saved, nil
}

func (repo bibliotecaRepository) DeleteDocumento(ctx context.Context, id string) error {
	if !validID(id) {
		return biblioteca.ErrNotFound
	}
	// chunks are removed on cascade
	res, err := repo.db.ExecContext(ctx, "DELETE FROM documentos WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting documento")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return biblioteca.ErrNotFound
	}
	return nil
}

func (repo bibliotecaRepository) ReplaceChunks(ctx context.Context, documentoID string, chunks []biblioteca.Chunk) error {
	return core.WithTx(ctx, repo.db, func(tx core.DBExecutor) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM document_chunks WHERE documento_id = $1", documentoID); err != nil {
			return errors.Wrap(err, "deleting chunks")
		}

		for start := 0; start < len(chunks); start += chunksPerInsert {
			end := start + chunksPerInsert
			if end > len(chunks) {
				end = len(chunks)
			}
			batch := chunks[start:end]

			args := make([]interface{}, 0, len(batch)*len(chunkColumns))
			for _, c := range batch {
				args = append(args, documentoID, c.Indice, c.Contenido, pgvector.NewVector(c.Embedding))
			}
			q := "INSERT INTO document_chunks (" + quoted(chunkColumns) + ") VALUES " +
				strmangle.Placeholders(true, len(args), 1, len(chunkColumns))
			if _, err := tx.ExecContext(ctx, q, args...); err != nil {
				return errors.Wrap(err, "inserting chunks")
			}
		}
		return nil
	})
}

func (repo bibliotecaRepository) BuscarFragmentos(ctx context.Context, embedding []float32, limit int) ([]biblioteca.Fragmento, error) {
	frags := []biblioteca.Fragmento{}
	q := "SELECT * FROM buscar_fragmentos_documento($1, $2)"
	if err := queries.Raw(q, pgvector.NewVector(embedding), limit).Bind(ctx, repo.db, &frags); err != nil {
		return nil, errors.Wrap(err, "calling buscar_fragmentos_documento")
	}
	return frags, nil
}
