package inmemdb

import (
	"context"
	"sort"

	"github.com/plataforma-apa/apa/core/expediente"
)

// expedienteRepository stores one kind of record of a child's file.
type expedienteRepository[T expediente.Record] struct {
	db       *DB
	table    func() map[string]*T
	setID    func(rec *T, id string)
	notFound error
}

var (
	_ expediente.Repository[expediente.EvaluacionInicial]  = (*expedienteRepository[expediente.EvaluacionInicial])(nil)  // interface compliance check
	_ expediente.Repository[expediente.PlanIntervencion]   = (*expedienteRepository[expediente.PlanIntervencion])(nil)   // interface compliance check
	_ expediente.Repository[expediente.EntrevistaFamiliar] = (*expedienteRepository[expediente.EntrevistaFamiliar])(nil) // interface compliance check
)

func NewEvaluacionInicialRepository(db *DB) *expedienteRepository[expediente.EvaluacionInicial] {
	return &expedienteRepository[expediente.EvaluacionInicial]{
		db:       db,
		table:    func() map[string]*expediente.EvaluacionInicial { return db.evaluaciones },
		setID:    func(rec *expediente.EvaluacionInicial, id string) { rec.ID = id },
		notFound: expediente.ErrEvaluacionNotFound,
	}
}

func NewPlanIntervencionRepository(db *DB) *expedienteRepository[expediente.PlanIntervencion] {
	return &expedienteRepository[expediente.PlanIntervencion]{
		db:       db,
		table:    func() map[string]*expediente.PlanIntervencion { return db.planes },
		setID:    func(rec *expediente.PlanIntervencion, id string) { rec.ID = id },
		notFound: expediente.ErrPlanNotFound,
	}
}

func NewEntrevistaFamiliarRepository(db *DB) *expedienteRepository[expediente.EntrevistaFamiliar] {
	return &expedienteRepository[expediente.EntrevistaFamiliar]{
		db:       db,
		table:    func() map[string]*expediente.EntrevistaFamiliar { return db.entrevistas },
		setID:    func(rec *expediente.EntrevistaFamiliar, id string) { rec.ID = id },
		notFound: expediente.ErrEntrevistaNotFound,
	}
}

func (repo *expedienteRepository[T]) Create(_ context.Context, rec T) (T, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.setID(&rec, newID())
	repo.table()[rec.Meta().ID] = &rec
	return rec, nil
}

func (repo *expedienteRepository[T]) QueryByNino(_ context.Context, ninoID string) ([]T, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	recs := make([]T, 0)
	for _, rec := range values(repo.table()) {
		if rec.Meta().NinoID == ninoID {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		bi, bj := recs[i].Meta(), recs[j].Meta()
		if !bi.Fecha.Time.Equal(bj.Fecha.Time) {
			return bi.Fecha.Time.After(bj.Fecha.Time)
		}
		return bi.CreatedAt.After(bj.CreatedAt)
	})
	return recs, nil
}

func (repo *expedienteRepository[T]) Get(_ context.Context, id string) (T, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if rec, ok := repo.table()[id]; ok {
		return *rec, nil
	}
	var zero T
	return zero, repo.notFound
}

func (repo *expedienteRepository[T]) Update(_ context.Context, rec T) (T, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	id := rec.Meta().ID
	if _, ok := repo.table()[id]; !ok {
		var zero T
		return zero, repo.notFound
	}
	repo.table()[id] = &rec
	return rec, nil
}

func (repo *expedienteRepository[T]) Delete(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.table()[id]; !ok {
		return repo.notFound
	}
	delete(repo.table(), id)
	return nil
}
