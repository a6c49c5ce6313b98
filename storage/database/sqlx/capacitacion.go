package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/plataforma-apa/apa/core"
	"github.com/plataforma-apa/apa/core/capacitacion"
)

var capacitacionColumns = []string{
	"titulo", "descripcion", "contenido_url", "duracion_minutos", "obligatoria", "activa", "orden", "created_at", "updated_at",
}

type capacitacionRepository struct {
	db core.DB
}

var _ capacitacion.Repository = (*capacitacionRepository)(nil) // interface compliance check

func NewCapacitacionRepository(db core.DB) *capacitacionRepository {
	return &capacitacionRepository{db: db}
}

func capacitacionArgs(c capacitacion.Capacitacion) []interface{} {
	return []interface{}{
		c.Titulo, c.Descripcion, c.ContenidoURL, c.DuracionMinutos, c.Obligatoria, c.Activa, c.Orden, c.CreatedAt.UTC(), c.UpdatedAt.UTC(),
	}
}

func (repo capacitacionRepository) CreateCapacitacion(ctx context.Context, c capacitacion.Capacitacion) (capacitacion.Capacitacion, error) {
	var saved capacitacion.Capacitacion
	q := insertQuery("capacitaciones", capacitacionColumns)
	if err := sqlx.GetContext(ctx, repo.db, &saved, q, capacitacionArgs(c)...); err != nil {
		return capacitacion.Capacitacion{}, errors.Wrap(err, "inserting capacitación")
	}
	return saved, nil
}

func (repo capacitacionRepository) QueryCapacitaciones(ctx context.Context, filter *capacitacion.QueryFilter, ordering []core.DBOrdering) ([]capacitacion.Capacitacion, error) {
	var where whereClause
	if filter != nil {
		if filter.Search != "" {
			where.add("titulo ILIKE ?", likeArg(filter.Search))
		}
		if filter.Activa != nil {
			where.add("activa = ?", *filter.Activa)
		}
	}
	orderBy := orderByClause(ordering, "orden ASC, titulo ASC", "orden", "titulo", "created_at")

	caps := []capacitacion.Capacitacion{}
	q := selectQuery("SELECT * FROM capacitaciones", &where, orderBy, 0)
	if err := sqlx.SelectContext(ctx, repo.db, &caps, q, where.args...); err != nil {
		return nil, errors.Wrap(err, "querying capacitaciones")
	}
	return caps, nil
}

func (repo capacitacionRepository) GetCapacitacion(ctx context.Context, id string) (capacitacion.Capacitacion, error) {
	if !validID(id) {
		return capacitacion.Capacitacion{}, capacitacion.ErrNotFound
	}
	var c capacitacion.Capacitacion
	if err := sqlx.GetContext(ctx, repo.db, &c, "SELECT * FROM capacitaciones WHERE id = $1", id); err != nil {
		return capacitacion.Capacitacion{}, trapNoRowsErr(err, capacitacion.ErrNotFound, "finding capacitación")
	}
	return c, nil
}

func (repo capacitacionRepository) UpdateCapacitacion(ctx context.Context, c capacitacion.Capacitacion) (capacitacion.Capacitacion, error) {
	var saved capacitacion.Capacitacion
	args := append(capacitacionArgs(c), c.ID)
	if err := sqlx.GetContext(ctx, repo.db, &saved, updateQuery("capacitaciones", capacitacionColumns), args...); err != nil {
		return capacitacion.Capacitacion{}, trapNoRowsErr(err, capacitacion.ErrNotFound, "updating capacitación")
	}
	return saved, nil
}

func (repo capacitacionRepository) GetProgreso(ctx context.Context, voluntarioID, capacitacionID string) (capacitacion.VoluntarioCapacitacion, error) {
	var vc capacitacion.VoluntarioCapacitacion
	q := "SELECT * FROM voluntarios_capacitaciones WHERE voluntario_id = $1 AND capacitacion_id = $2"
	if err := sqlx.GetContext(ctx, repo.db, &vc, q, voluntarioID, capacitacionID); err != nil {
		return capacitacion.VoluntarioCapacitacion{}, trapNoRowsErr(err, capacitacion.ErrProgressNotFound, "finding progreso")
	}
	return vc, nil
}

func (repo capacitacionRepository) UpsertProgreso(ctx context.Context, vc capacitacion.VoluntarioCapacitacion) (capacitacion.VoluntarioCapacitacion, error) {
	var saved capacitacion.VoluntarioCapacitacion
	cols := []string{"voluntario_id", "capacitacion_id", "estado", "puntaje", "iniciada_at", "completada_at"}
	q := `INSERT INTO voluntarios_capacitaciones (` + quoted(cols) + `)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (voluntario_id, capacitacion_id) DO UPDATE SET
			estado = EXCLUDED.estado,
			puntaje = EXCLUDED.puntaje,
			iniciada_at = EXCLUDED.iniciada_at,
			completada_at = EXCLUDED.completada_at
		RETURNING *`
	err := sqlx.GetContext(ctx, repo.db, &saved, q,
		vc.VoluntarioID, vc.CapacitacionID, vc.Estado, vc.Puntaje, vc.IniciadaAt, vc.CompletadaAt)
	if err != nil {
		return capacitacion.VoluntarioCapacitacion{}, errors.Wrap(err, "upserting progreso")
	}
	return saved, nil
}

func (repo capacitacionRepository) QueryProgresos(ctx context.Context, voluntarioID, capacitacionID string) ([]capacitacion.VoluntarioCapacitacion, error) {
	var where whereClause
	if voluntarioID != "" {
		where.add("voluntario_id::text = ?", voluntarioID)
	}
	if capacitacionID != "" {
		where.add("capacitacion_id::text = ?", capacitacionID)
	}

	progresos := []capacitacion.VoluntarioCapacitacion{}
	q := selectQuery("SELECT * FROM voluntarios_capacitaciones", &where, "iniciada_at DESC NULLS LAST", 0)
	if err := sqlx.SelectContext(ctx, repo.db, &progresos, q, where.args...); err != nil {
		return nil, errors.Wrap(err, "querying progresos")
	}
	return progresos, nil
}
