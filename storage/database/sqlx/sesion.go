package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/plataforma-apa/apa/core"
	"github.com/plataforma-apa/apa/core/sesion"
)

var sesionColumns = []string{
	"id", "nino_id", "voluntario_id", "fecha", "duracion_minutos", "actividades", "observaciones",
	"estado_animo", "created_at", "sincronizada_at",
}

type sesionRepository struct {
	db core.DB
}

var _ sesion.Repository = (*sesionRepository)(nil) // interface compliance check

func NewSesionRepository(db core.DB) *sesionRepository {
	return &sesionRepository{db: db}
}

func (repo sesionRepository) CreateSesion(ctx context.Context, s sesion.Sesion) (sesion.Sesion, bool, error) {
	q := "INSERT INTO sesiones (" + quoted(sesionColumns) + ") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) " +
		"ON CONFLICT (id) DO NOTHING RETURNING *"
	var saved sesion.Sesion
	err := sqlx.GetContext(ctx, repo.db, &saved, q,
		s.ID, s.NinoID, s.VoluntarioID, s.Fecha.UTC(), s.DuracionMinutos, s.Actividades, s.Observaciones,
		s.EstadoAnimo, s.CreatedAt.UTC(), s.SincronizadaAt.UTC())
	switch {
	case err == nil:
		return saved, true, nil
	case errors.Cause(err) == sql.ErrNoRows: // conflict: already stored
		existing, err := repo.GetSesion(ctx, s.ID)
		return existing, false, err
	}
	return sesion.Sesion{}, false, errors.Wrap(err, "inserting sesión")
}

func (repo sesionRepository) QuerySesiones(ctx context.Context, filter *sesion.QueryFilter) ([]sesion.Sesion, error) {
	var where whereClause
	limit := 0
	if filter != nil {
		if filter.NinoID != "" {
			where.add("nino_id::text = ?", filter.NinoID)
		}
		if filter.VoluntarioID != "" {
			where.add("voluntario_id::text = ?", filter.VoluntarioID)
		}
		if filter.Desde.Valid {
			where.add("fecha >= ?", filter.Desde.Time)
		}
		if filter.Hasta.Valid {
			where.add("fecha < ?", filter.Hasta.Time.AddDate(0, 0, 1)) // inclusive day
		}
		limit = filter.Limit
	}

	sesiones := []sesion.Sesion{}
	q := selectQuery("SELECT * FROM sesiones", &where, "fecha DESC, created_at DESC", limit)
	if err := sqlx.SelectContext(ctx, repo.db, &sesiones, q, where.args...); err != nil {
		return nil, errors.Wrap(err, "querying sesiones")
	}
	return sesiones, nil
}

func (repo sesionRepository) GetSesion(ctx context.Context, id string) (sesion.Sesion, error) {
	if !validID(id) {
		return sesion.Sesion{}, sesion.ErrNotFound
	}
	var s sesion.Sesion
	if err := sqlx.GetContext(ctx, repo.db, &s, "SELECT * FROM sesiones WHERE id = $1", id); err != nil {
		return sesion.Sesion{}, trapNoRowsErr(err, sesion.ErrNotFound, "finding sesión")
	}
	return s, nil
}
