package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/plataforma-apa/apa/core"
	"github.com/plataforma-apa/apa/core/autoevaluacion"
)

var plantillaColumns = []string{"titulo", "descripcion", "preguntas", "activa", "created_at"}

type autoevaluacionRepository struct {
	db core.DB
}

var _ autoevaluacion.Repository = (*autoevaluacionRepository)(nil) // interface compliance check

func NewAutoevaluacionRepository(db core.DB) *autoevaluacionRepository {
	return &autoevaluacionRepository{db: db}
}

func (repo autoevaluacionRepository) CreatePlantilla(ctx context.Context, p autoevaluacion.Plantilla) (autoevaluacion.Plantilla, error) {
	var saved autoevaluacion.Plantilla
	q := insertQuery("plantillas_autoevaluacion", plantillaColumns)
	if err := sqlx.GetContext(ctx, repo.db, &saved, q, p.Titulo, p.Descripcion, p.Preguntas, p.Activa, p.CreatedAt.UTC()); err != nil {
		return autoevaluacion.Plantilla{}, errors.Wrap(err, "inserting plantilla")
	}
	return saved, nil
}

func (repo autoevaluacionRepository) QueryPlantillas(ctx context.Context, filter *autoevaluacion.QueryFilter) ([]autoevaluacion.Plantilla, error) {
	var where whereClause
	if filter != nil && filter.Activa != nil {
		where.add("activa = ?", *filter.Activa)
	}

	plantillas := []autoevaluacion.Plantilla{}
	q := selectQuery("SELECT * FROM plantillas_autoevaluacion", &where, "titulo ASC", 0)
	if err := sqlx.SelectContext(ctx, repo.db, &plantillas, q, where.args...); err != nil {
		return nil, errors.Wrap(err, "querying plantillas")
	}
	return plantillas, nil
}

func (repo autoevaluacionRepository) GetPlantilla(ctx context.Context, id string) (autoevaluacion.Plantilla, error) {
	if !validID(id) {
		return autoevaluacion.Plantilla{}, autoevaluacion.ErrNotFound
	}
	var p autoevaluacion.Plantilla
	if err := sqlx.GetContext(ctx, repo.db, &p, "SELECT * FROM plantillas_autoevaluacion WHERE id = $1", id); err != nil {
		return autoevaluacion.Plantilla{}, trapNoRowsErr(err, autoevaluacion.ErrNotFound, "finding plantilla")
	}
	return p, nil
}

func (repo autoevaluacionRepository) UpdatePlantilla(ctx context.Context, p autoevaluacion.Plantilla) (autoevaluacion.Plantilla, error) {
	var saved autoevaluacion.Plantilla
	cols := plantillaColumns[:4] // created_at is immutable
	q := updateQuery("plantillas_autoevaluacion", cols)
	if err := sqlx.GetContext(ctx, repo.db, &saved, q, p.Titulo, p.Descripcion, p.Preguntas, p.Activa, p.ID); err != nil {
		return autoevaluacion.Plantilla{}, trapNoRowsErr(err, autoevaluacion.ErrNotFound, "updating plantilla")
	}
	return saved, nil
}

func (repo autoevaluacionRepository) CreateRespuesta(ctx context.Context, r autoevaluacion.Respuesta) (autoevaluacion.Respuesta, error) {
	var saved autoevaluacion.Respuesta
	q := insertQuery("respuestas_autoevaluacion", []string{"plantilla_id", "voluntario_id", "respuestas", "created_at"})
	if err := sqlx.GetContext(ctx, repo.db, &saved, q, r.PlantillaID, r.VoluntarioID, r.Respuestas, r.CreatedAt.UTC()); err != nil {
		return autoevaluacion.Respuesta{}, errors.Wrap(err, "inserting respuesta")
	}
	return saved, nil
}

func (repo autoevaluacionRepository) QueryRespuestas(ctx context.Context, filter *autoevaluacion.RespuestaFilter) ([]autoevaluacion.Respuesta, error) {
	var where whereClause
	if filter != nil {
		if filter.PlantillaID != "" {
			where.add("plantilla_id::text = ?", filter.PlantillaID)
		}
		if filter.VoluntarioID != "" {
			where.add("voluntario_id::text = ?", filter.VoluntarioID)
		}
	}

	respuestas := []autoevaluacion.Respuesta{}
	q := selectQuery("SELECT * FROM respuestas_autoevaluacion", &where, "created_at DESC", 0)
	if err := sqlx.SelectContext(ctx, repo.db, &respuestas, q, where.args...); err != nil {
		return nil, errors.Wrap(err, "querying respuestas")
	}
	return respuestas, nil
}
