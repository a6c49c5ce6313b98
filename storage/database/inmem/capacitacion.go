package inmemdb

import (
	"context"
	"sort"

	"github.com/plataforma-apa/apa/core"
	"github.com/plataforma-apa/apa/core/capacitacion"
)

type capacitacionRepository struct {
	db *DB
}

var _ capacitacion.Repository = (*capacitacionRepository)(nil) // interface compliance check

func NewCapacitacionRepository(db *DB) *capacitacionRepository {
	return &capacitacionRepository{db: db}
}

func (repo *capacitacionRepository) CreateCapacitacion(_ context.Context, c capacitacion.Capacitacion) (capacitacion.Capacitacion, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	c.ID = newID()
	repo.db.capacitaciones[c.ID] = &c
	return c, nil
}

func (repo *capacitacionRepository) QueryCapacitaciones(_ context.Context, filter *capacitacion.QueryFilter, _ []core.DBOrdering) ([]capacitacion.Capacitacion, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	caps := make([]capacitacion.Capacitacion, 0, len(repo.db.capacitaciones))
	for _, c := range values(repo.db.capacitaciones) {
		if filter != nil {
			if filter.Search != "" && !containsFold(c.Titulo, filter.Search) {
				continue
			}
			if filter.Activa != nil && c.Activa != *filter.Activa {
				continue
			}
		}
		caps = append(caps, c)
	}
	sort.Slice(caps, func(i, j int) bool {
		if caps[i].Orden != caps[j].Orden {
			return caps[i].Orden < caps[j].Orden
		}
		return caps[i].Titulo < caps[j].Titulo
	})
	return caps, nil
}

func (repo *capacitacionRepository) GetCapacitacion(_ context.Context, id string) (capacitacion.Capacitacion, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if c, ok := repo.db.capacitaciones[id]; ok {
		return *c, nil
	}
	return capacitacion.Capacitacion{}, capacitacion.ErrNotFound
}

func (repo *capacitacionRepository) UpdateCapacitacion(_ context.Context, c capacitacion.Capacitacion) (capacitacion.Capacitacion, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.capacitaciones[c.ID]; !ok {
		return capacitacion.Capacitacion{}, capacitacion.ErrNotFound
	}
	repo.db.capacitaciones[c.ID] = &c
	return c, nil
}

func (repo *capacitacionRepository) GetProgreso(_ context.Context, voluntarioID, capacitacionID string) (capacitacion.VoluntarioCapacitacion, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, vc := range repo.db.progresos {
		if vc.VoluntarioID == voluntarioID && vc.CapacitacionID == capacitacionID {
			return *vc, nil
		}
	}
	return capacitacion.VoluntarioCapacitacion{}, capacitacion.ErrProgressNotFound
}

func (repo *capacitacionRepository) UpsertProgreso(_ context.Context, vc capacitacion.VoluntarioCapacitacion) (capacitacion.VoluntarioCapacitacion, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for id, prev := range repo.db.progresos {
		if prev.VoluntarioID == vc.VoluntarioID && prev.CapacitacionID == vc.CapacitacionID {
			vc.ID = id
			repo.db.progresos[id] = &vc
			return vc, nil
		}
	}
	vc.ID = newID()
	repo.db.progresos[vc.ID] = &vc
	return vc, nil
}

func (repo *capacitacionRepository) QueryProgresos(_ context.Context, voluntarioID, capacitacionID string) ([]capacitacion.VoluntarioCapacitacion, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	progresos := make([]capacitacion.VoluntarioCapacitacion, 0)
	for _, vc := range values(repo.db.progresos) {
		if voluntarioID != "" && vc.VoluntarioID != voluntarioID {
			continue
		}
		if capacitacionID != "" && vc.CapacitacionID != capacitacionID {
			continue
		}
		progresos = append(progresos, vc)
	}
	sort.Slice(progresos, func(i, j int) bool { return progresos[i].ID < progresos[j].ID })
	return progresos, nil
}
