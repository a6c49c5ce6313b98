package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/plataforma-apa/apa/core"
	"github.com/plataforma-apa/apa/core/asignacion"
)

var asignacionColumns = []string{
	"nino_id", "voluntario_id", "asignado_por", "fecha_inicio", "fecha_fin", "activa", "notas", "created_at",
}

type asignacionRepository struct {
	db core.DB
}

var _ asignacion.Repository = (*asignacionRepository)(nil) // interface compliance check

func NewAsignacionRepository(db core.DB) *asignacionRepository {
	return &asignacionRepository{db: db}
}

func asignacionArgs(a asignacion.Asignacion) []interface{} {
	return []interface{}{
		a.NinoID, a.VoluntarioID, a.AsignadoPor, a.FechaInicio.UTC(), a.FechaFin, a.Activa, a.Notas, a.CreatedAt.UTC(),
	}
}

func (repo asignacionRepository) Reassign(ctx context.Context, a asignacion.Asignacion) (asignacion.Asignacion, error) {
	var saved asignacion.Asignacion
	err := core.WithTx(ctx, repo.db, func(tx core.DBExecutor) error {
		// lock the child's row so concurrent reassignments are serialized
		if _, err := tx.ExecContext(ctx, "SELECT 1 FROM ninos WHERE id = $1 FOR UPDATE", a.NinoID); err != nil {
			return errors.Wrap(err, "locking niño")
		}
		_, err := tx.ExecContext(ctx,
			"UPDATE asignaciones SET activa = false, fecha_fin = $2 WHERE nino_id = $1 AND activa",
			a.NinoID, a.FechaInicio.UTC(),
		)
		if err != nil {
			return errors.Wrap(err, "finishing previous asignaciones")
		}
		return errors.Wrap(
			sqlx.GetContext(ctx, tx, &saved, insertQuery("asignaciones", asignacionColumns), asignacionArgs(a)...),
			"inserting asignación",
		)
	})
	if err != nil {
		return asignacion.Asignacion{}, err
	}
	return saved, nil
}

func (repo asignacionRepository) QueryAsignaciones(ctx context.Context, filter *asignacion.QueryFilter, ordering []core.DBOrdering) ([]asignacion.Asignacion, error) {
	var where whereClause
	if filter != nil {
		if filter.NinoID != "" {
			where.add("nino_id::text = ?", filter.NinoID)
		}
		if filter.VoluntarioID != "" {
			where.add("voluntario_id::text = ?", filter.VoluntarioID)
		}
		if filter.Activa != nil {
			where.add("activa = ?", *filter.Activa)
		}
	}
	orderBy := orderByClause(ordering, "fecha_inicio DESC", "fecha_inicio", "fecha_fin", "created_at")

	asignaciones := []asignacion.Asignacion{}
	q := selectQuery("SELECT * FROM asignaciones", &where, orderBy, 0)
	if err := sqlx.SelectContext(ctx, repo.db, &asignaciones, q, where.args...); err != nil {
		return nil, errors.Wrap(err, "querying asignaciones")
	}
	return asignaciones, nil
}

func (repo asignacionRepository) GetAsignacion(ctx context.Context, id string) (asignacion.Asignacion, error) {
	if !validID(id) {
		return asignacion.Asignacion{}, asignacion.ErrNotFound
	}
	var a asignacion.Asignacion
	if err := sqlx.GetContext(ctx, repo.db, &a, "SELECT * FROM asignaciones WHERE id = $1", id); err != nil {
		return asignacion.Asignacion{}, trapNoRowsErr(err, asignacion.ErrNotFound, "finding asignación")
	}
	return a, nil
}

func (repo asignacionRepository) UpdateAsignacion(ctx context.Context, a asignacion.Asignacion) (asignacion.Asignacion, error) {
	var saved asignacion.Asignacion
	args := append(asignacionArgs(a), a.ID)
	if err := sqlx.GetContext(ctx, repo.db, &saved, updateQuery("asignaciones", asignacionColumns), args...); err != nil {
		return asignacion.Asignacion{}, trapNoRowsErr(err, asignacion.ErrNotFound, "updating asignación")
	}
	return saved, nil
}
