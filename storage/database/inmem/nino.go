package inmemdb

import (
	"context"
	"sort"

	"github.com/plataforma-apa/apa/core"
	"github.com/plataforma-apa/apa/core/nino"
)

type ninoRepository struct {
	db *DB
}

var _ nino.Repository = (*ninoRepository)(nil) // interface compliance check

func NewNinoRepository(db *DB) *ninoRepository {
	return &ninoRepository{db: db}
}

func (repo *ninoRepository) CreateNino(_ context.Context, n nino.Nino) (nino.Nino, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	n.ID = newID()
	n.Edad = nil
	repo.db.ninos[n.ID] = &n
	return n, nil
}

func (repo *ninoRepository) QueryNinos(_ context.Context, filter *nino.QueryFilter, _ []core.DBOrdering) ([]nino.Nino, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	ninos := make([]nino.Nino, 0, len(repo.db.ninos))
	for _, n := range values(repo.db.ninos) {
		if filter != nil {
			if filter.Search != "" && !containsFold(n.Nombre, filter.Search) && !containsFold(n.Apellido, filter.Search) {
				continue
			}
			if filter.ZonaID != "" && n.ZonaID.String != filter.ZonaID {
				continue
			}
			if filter.Activo != nil && n.Activo != *filter.Activo {
				continue
			}
			if filter.VoluntarioID != "" && !repo.db.isAssigned(n.ID, filter.VoluntarioID) {
				continue
			}
		}
		ninos = append(ninos, n)
	}
	sort.Slice(ninos, func(i, j int) bool {
		if ninos[i].Apellido != ninos[j].Apellido {
			return ninos[i].Apellido < ninos[j].Apellido
		}
		return ninos[i].Nombre < ninos[j].Nombre
	})
	return ninos, nil
}

func (repo *ninoRepository) GetNino(_ context.Context, id string) (nino.Nino, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if n, ok := repo.db.ninos[id]; ok {
		return *n, nil
	}
	return nino.Nino{}, nino.ErrNotFound
}

func (repo *ninoRepository) UpdateNino(_ context.Context, n nino.Nino) (nino.Nino, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.ninos[n.ID]; !ok {
		return nino.Nino{}, nino.ErrNotFound
	}
	n.Edad = nil
	repo.db.ninos[n.ID] = &n
	return n, nil
}

func (repo *ninoRepository) IsAssignedTo(_ context.Context, ninoID, voluntarioID string) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.db.isAssigned(ninoID, voluntarioID), nil
}

// isAssigned must be called with the lock held.
func (db *DB) isAssigned(ninoID, voluntarioID string) bool {
	for _, a := range db.asignaciones {
		if a.Activa && a.NinoID == ninoID && a.VoluntarioID == voluntarioID {
			return true
		}
	}
	return false
}
