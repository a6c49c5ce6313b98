package inmemdb

import (
	"context"
	"sort"

	"github.com/plataforma-apa/apa/core/autoevaluacion"
)

type autoevaluacionRepository struct {
	db *DB
}

var _ autoevaluacion.Repository = (*autoevaluacionRepository)(nil) // interface compliance check

func NewAutoevaluacionRepository(db *DB) *autoevaluacionRepository {
	return &autoevaluacionRepository{db: db}
}

func (repo *autoevaluacionRepository) CreatePlantilla(_ context.Context, p autoevaluacion.Plantilla) (autoevaluacion.Plantilla, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	p.ID = newID()
	repo.db.plantillas[p.ID] = &p
	return p, nil
}

func (repo *autoevaluacionRepository) QueryPlantillas(_ context.Context, filter *autoevaluacion.QueryFilter) ([]autoevaluacion.Plantilla, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	plantillas := make([]autoevaluacion.Plantilla, 0, len(repo.db.plantillas))
	for _, p := range values(repo.db.plantillas) {
		if filter != nil && filter.Activa != nil && p.Activa != *filter.Activa {
			continue
		}
		plantillas = append(plantillas, p)
	}
	sort.Slice(plantillas, func(i, j int) bool { return plantillas[i].CreatedAt.After(plantillas[j].CreatedAt) })
	return plantillas, nil
}

func (repo *autoevaluacionRepository) GetPlantilla(_ context.Context, id string) (autoevaluacion.Plantilla, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if p, ok := repo.db.plantillas[id]; ok {
		return *p, nil
	}
	return autoevaluacion.Plantilla{}, autoevaluacion.ErrNotFound
}

func (repo *autoevaluacionRepository) UpdatePlantilla(_ context.Context, p autoevaluacion.Plantilla) (autoevaluacion.Plantilla, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.plantillas[p.ID]; !ok {
		return autoevaluacion.Plantilla{}, autoevaluacion.ErrNotFound
	}
	repo.db.plantillas[p.ID] = &p
	return p, nil
}

func (repo *autoevaluacionRepository) CreateRespuesta(_ context.Context, r autoevaluacion.Respuesta) (autoevaluacion.Respuesta, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	r.ID = newID()
	repo.db.respuestas[r.ID] = &r
	return r, nil
}

func (repo *autoevaluacionRepository) QueryRespuestas(_ context.Context, filter *autoevaluacion.RespuestaFilter) ([]autoevaluacion.Respuesta, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	respuestas := make([]autoevaluacion.Respuesta, 0)
	for _, r := range values(repo.db.respuestas) {
		if filter != nil {
			if filter.PlantillaID != "" && r.PlantillaID != filter.PlantillaID {
				continue
			}
			if filter.VoluntarioID != "" && r.VoluntarioID != filter.VoluntarioID {
				continue
			}
		}
		respuestas = append(respuestas, r)
	}
	sort.Slice(respuestas, func(i, j int) bool { return respuestas[i].CreatedAt.After(respuestas[j].CreatedAt) })
	return respuestas, nil
}
