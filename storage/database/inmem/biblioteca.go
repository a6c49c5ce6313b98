package inmemdb

import (
	"context"
	"math"
	"sort"

	"github.com/plataforma-apa/apa/core/biblioteca"
)

type bibliotecaRepository struct {
	db *DB
}

var _ biblioteca.Repository = (*bibliotecaRepository)(nil) // interface compliance check

func NewBibliotecaRepository(db *DB) *bibliotecaRepository {
	return &bibliotecaRepository{db: db}
}

func (repo *bibliotecaRepository) CreateDocumento(_ context.Context, d biblioteca.Documento) (biblioteca.Documento, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	d.ID = newID()
	repo.db.documentos[d.ID] = &d
	return d, nil
}

func (repo *bibliotecaRepository) QueryDocumentos(_ context.Context) ([]biblioteca.Documento, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	docs := values(repo.db.documentos)
	sort.Slice(docs, func(i, j int) bool { return docs[i].CreatedAt.After(docs[j].CreatedAt) })
	return docs, nil
}

func (repo *bibliotecaRepository) GetDocumento(_ context.Context, id string) (biblioteca.Documento, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if d, ok := repo.db.documentos[id]; ok {
		return *d, nil
	}
	return biblioteca.Documento{}, biblioteca.ErrNotFound
}

func (repo *bibliotecaRepository) UpdateDocumento(_ context.Context, d biblioteca.Documento) (biblioteca.Documento, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.documentos[d.ID]; !ok {
		return biblioteca.Documento{}, biblioteca.ErrNotFound
	}
	repo.db.documentos[d.ID] = &d
	return d, nil
}

func (repo *bibliotecaRepository) DeleteDocumento(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.documentos[id]; !ok {
		return biblioteca.ErrNotFound
	}
	delete(repo.db.documentos, id)
	delete(repo.db.chunks, id)
	return nil
}

func (repo *bibliotecaRepository) ReplaceChunks(_ context.Context, documentoID string, chunks []biblioteca.Chunk) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	saved := make([]biblioteca.Chunk, len(chunks))
	for i, c := range chunks {
		c.ID = newID()
		c.DocumentoID = documentoID
		saved[i] = c
	}
	repo.db.chunks[documentoID] = saved
	return nil
}

func (repo *bibliotecaRepository) BuscarFragmentos(_ context.Context, embedding []float32, limit int) ([]biblioteca.Fragmento, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	frags := make([]biblioteca.Fragmento, 0)
	for docID, chunks := range repo.db.chunks {
		doc, ok := repo.db.documentos[docID]
		if !ok || doc.Estado != biblioteca.EstadoListo {
			continue
		}
		for _, c := range chunks {
			frags = append(frags, biblioteca.Fragmento{
				ChunkID:     c.ID,
				DocumentoID: docID,
				Titulo:      doc.Titulo,
				Indice:      c.Indice,
				Contenido:   c.Contenido,
				Similitud:   cosineSimilarity(embedding, c.Embedding),
			})
		}
	}
	sort.SliceStable(frags, func(i, j int) bool { return frags[i].Similitud > frags[j].Similitud })
	if limit > 0 && len(frags) > limit {
		frags = frags[:limit]
	}
	return frags, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
