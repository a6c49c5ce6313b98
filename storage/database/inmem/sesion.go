package inmemdb

import (
	"context"
	"sort"

	"github.com/plataforma-apa/apa/core/sesion"
)

type sesionRepository struct {
	db *DB
}

var _ sesion.Repository = (*sesionRepository)(nil) // interface compliance check

func NewSesionRepository(db *DB) *sesionRepository {
	return &sesionRepository{db: db}
}

func (repo *sesionRepository) CreateSesion(_ context.Context, s sesion.Sesion) (sesion.Sesion, bool, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if s.ID == "" {
		s.ID = newID()
	}
	if existing, ok := repo.db.sesiones[s.ID]; ok {
		return *existing, false, nil
	}
	repo.db.sesiones[s.ID] = &s
	return s, true, nil
}

func (repo *sesionRepository) QuerySesiones(_ context.Context, filter *sesion.QueryFilter) ([]sesion.Sesion, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	sesiones := make([]sesion.Sesion, 0)
	for _, s := range values(repo.db.sesiones) {
		if filter != nil {
			if filter.NinoID != "" && s.NinoID != filter.NinoID {
				continue
			}
			if filter.VoluntarioID != "" && s.VoluntarioID != filter.VoluntarioID {
				continue
			}
			if filter.Desde.Valid && s.Fecha.Before(filter.Desde.Time) {
				continue
			}
			if filter.Hasta.Valid && !s.Fecha.Before(filter.Hasta.Time.AddDate(0, 0, 1)) {
				continue
			}
		}
		sesiones = append(sesiones, s)
	}
	sort.Slice(sesiones, func(i, j int) bool {
		if !sesiones[i].Fecha.Equal(sesiones[j].Fecha) {
			return sesiones[i].Fecha.After(sesiones[j].Fecha)
		}
		return sesiones[i].CreatedAt.After(sesiones[j].CreatedAt)
	})
	if filter != nil && filter.Limit > 0 && len(sesiones) > filter.Limit {
		sesiones = sesiones[:filter.Limit]
	}
	return sesiones, nil
}

func (repo *sesionRepository) GetSesion(_ context.Context, id string) (sesion.Sesion, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if s, ok := repo.db.sesiones[id]; ok {
		return *s, nil
	}
	return sesion.Sesion{}, sesion.ErrNotFound
}
