package inmemdb

import (
	"context"
	"time"

	"github.com/plataforma-apa/apa/core/dashboard"
	"github.com/plataforma-apa/apa/core/perfil"
)

type dashboardRepository struct {
	db *DB
}

var _ dashboard.Repository = (*dashboardRepository)(nil) // interface compliance check

func NewDashboardRepository(db *DB) *dashboardRepository {
	return &dashboardRepository{db: db}
}

func (repo *dashboardRepository) Resumen(_ context.Context, since time.Time) (dashboard.Resumen, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var res dashboard.Resumen
	asignados := make(map[string]bool)
	for _, a := range repo.db.asignaciones {
		if a.Activa {
			res.AsignacionesActivas++
			asignados[a.NinoID] = true
		}
	}
	for _, n := range repo.db.ninos {
		if !n.Activo {
			continue
		}
		res.NinosActivos++
		if !asignados[n.ID] {
			res.NinosSinAsignacion++
		}
	}
	for _, p := range repo.db.perfiles {
		if p.Activo && p.Rol == perfil.RoleVoluntario {
			res.VoluntariosActivos++
		}
	}
	for _, s := range repo.db.sesiones {
		if !s.Fecha.Before(since) {
			res.SesionesRecientes++
		}
	}
	return res, nil
}
