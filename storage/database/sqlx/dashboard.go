package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/plataforma-apa/apa/core"
	"github.com/plataforma-apa/apa/core/dashboard"
)

const resumenQuery = `
SELECT
    (SELECT count(*) FROM ninos WHERE activo) AS ninos_activos,
    (SELECT count(*) FROM perfiles WHERE activo AND rol = 'voluntario') AS voluntarios_activos,
    (SELECT count(*) FROM asignaciones WHERE activa) AS asignaciones_activas,
    (SELECT count(*) FROM ninos n WHERE n.activo
        AND NOT EXISTS (SELECT 1 FROM asignaciones a WHERE a.nino_id = n.id AND a.activa)) AS ninos_sin_asignacion,
    (SELECT count(*) FROM sesiones WHERE fecha >= $1) AS sesiones_recientes`

type dashboardRepository struct {
	db core.DB
}

var _ dashboard.Repository = (*dashboardRepository)(nil) // interface compliance check

func NewDashboardRepository(db core.DB) *dashboardRepository {
	return &dashboardRepository{db: db}
}

func (repo dashboardRepository) Resumen(ctx context.Context, since time.Time) (dashboard.Resumen, error) {
	var res dashboard.Resumen
	if err := sqlx.GetContext(ctx, repo.db, &res, resumenQuery, since.UTC()); err != nil {
		return dashboard.Resumen{}, errors.Wrap(err, "computing resumen")
	}
	return res, nil
}
