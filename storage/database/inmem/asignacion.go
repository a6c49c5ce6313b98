package inmemdb

import (
	"context"
	"sort"

	"github.com/volatiletech/null/v8"

	"github.com/plataforma-apa/apa/core"
	"github.com/plataforma-apa/apa/core/asignacion"
)

type asignacionRepository struct {
	db *DB
}

var _ asignacion.Repository = (*asignacionRepository)(nil) // interface compliance check

func NewAsignacionRepository(db *DB) *asignacionRepository {
	return &asignacionRepository{db: db}
}

func (repo *asignacionRepository) Reassign(_ context.Context, a asignacion.Asignacion) (asignacion.Asignacion, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, prev := range repo.db.asignaciones {
		if prev.NinoID == a.NinoID && prev.Activa {
			prev.Activa = false
			prev.FechaFin = null.TimeFrom(a.FechaInicio)
		}
	}
	a.ID = newID()
	repo.db.asignaciones[a.ID] = &a
	return a, nil
}

func (repo *asignacionRepository) QueryAsignaciones(_ context.Context, filter *asignacion.QueryFilter, _ []core.DBOrdering) ([]asignacion.Asignacion, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	asignaciones := make([]asignacion.Asignacion, 0, len(repo.db.asignaciones))
	for _, a := range values(repo.db.asignaciones) {
		if filter != nil {
			if filter.NinoID != "" && a.NinoID != filter.NinoID {
				continue
			}
			if filter.VoluntarioID != "" && a.VoluntarioID != filter.VoluntarioID {
				continue
			}
			if filter.Activa != nil && a.Activa != *filter.Activa {
				continue
			}
		}
		asignaciones = append(asignaciones, a)
	}
	sort.Slice(asignaciones, func(i, j int) bool {
		return asignaciones[i].FechaInicio.After(asignaciones[j].FechaInicio)
	})
	return asignaciones, nil
}

func (repo *asignacionRepository) GetAsignacion(_ context.Context, id string) (asignacion.Asignacion, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if a, ok := repo.db.asignaciones[id]; ok {
		return *a, nil
	}
	return asignacion.Asignacion{}, asignacion.ErrNotFound
}

func (repo *asignacionRepository) UpdateAsignacion(_ context.Context, a asignacion.Asignacion) (asignacion.Asignacion, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.asignaciones[a.ID]; !ok {
		return asignacion.Asignacion{}, asignacion.ErrNotFound
	}
	repo.db.asignaciones[a.ID] = &a
	return a, nil
}
