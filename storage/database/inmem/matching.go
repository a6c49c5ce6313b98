package inmemdb

import (
	"context"
	"sort"

	"github.com/plataforma-apa/apa/core/capacitacion"
	"github.com/plataforma-apa/apa/core/matching"
	"github.com/plataforma-apa/apa/core/perfil"
)

type matchingRepository struct {
	db *DB
}

var _ matching.Repository = (*matchingRepository)(nil) // interface compliance check

func NewMatchingRepository(db *DB) *matchingRepository {
	return &matchingRepository{db: db}
}

// SugerirVoluntarios scores volunteers the same way `sugerir_voluntarios_para_nino` does.
func (repo *matchingRepository) SugerirVoluntarios(_ context.Context, ninoID string) ([]matching.Sugerencia, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	n, ok := repo.db.ninos[ninoID]
	if !ok {
		return []matching.Sugerencia{}, nil
	}

	activas := make(map[string]int)
	current := make(map[string]bool)
	for _, a := range repo.db.asignaciones {
		if !a.Activa {
			continue
		}
		activas[a.VoluntarioID]++
		if a.NinoID == ninoID {
			current[a.VoluntarioID] = true
		}
	}
	completadas := make(map[string]int)
	for _, vc := range repo.db.progresos {
		if vc.Estado == capacitacion.EstadoCompletada {
			completadas[vc.VoluntarioID]++
		}
	}

	sugs := make([]matching.Sugerencia, 0)
	for _, p := range repo.db.perfiles {
		if !p.Activo || p.Rol != perfil.RoleVoluntario || current[p.ID] {
			continue
		}
		s := matching.Sugerencia{
			VoluntarioID:              p.ID,
			Nombre:                    p.Nombre,
			Email:                     p.Email,
			ZonaID:                    p.ZonaID,
			MismaZona:                 n.ZonaID.Valid && p.ZonaID.Valid && n.ZonaID.String == p.ZonaID.String,
			AsignacionesActivas:       activas[p.ID],
			CapacitacionesCompletadas: completadas[p.ID],
		}
		if s.MismaZona {
			s.Puntaje += 50
		}
		if free := 3 - s.AsignacionesActivas; free > 0 {
			s.Puntaje += 10 * free
		}
		s.Puntaje += 5 * s.CapacitacionesCompletadas
		sugs = append(sugs, s)
	}
	sort.Slice(sugs, func(i, j int) bool {
		if sugs[i].Puntaje != sugs[j].Puntaje {
			return sugs[i].Puntaje > sugs[j].Puntaje
		}
		return sugs[i].Nombre < sugs[j].Nombre
	})
	return sugs, nil
}
