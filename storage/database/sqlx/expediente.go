package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/plataforma-apa/apa/core"
	"github.com/plataforma-apa/apa/core/expediente"
)

var expedienteBaseColumns = []string{"nino_id", "autor_id", "fecha", "created_at", "updated_at"}

// expedienteRepository stores one kind of record of a child's file.
type expedienteRepository[T expediente.Record] struct {
	db       core.DB
	table    string
	cols     []string                  // base columns first
	args     func(rec T) []interface{} // in `cols` order
	notFound error
}

func baseArgs(b expediente.Base) []interface{} {
	return []interface{}{b.NinoID, b.AutorID, b.Fecha, b.CreatedAt.UTC(), b.UpdatedAt.UTC()}
}

func NewEvaluacionInicialRepository(db core.DB) *expedienteRepository[expediente.EvaluacionInicial] {
	return &expedienteRepository[expediente.EvaluacionInicial]{
		db:    db,
		table: "evaluaciones_iniciales",
		cols: append(append([]string{}, expedienteBaseColumns...),
			"area_cognitiva", "area_emocional", "area_social", "lectura_nivel", "escritura_nivel",
			"matematica_nivel", "observaciones"),
		args: func(e expediente.EvaluacionInicial) []interface{} {
			return append(baseArgs(e.Base),
				e.AreaCognitiva, e.AreaEmocional, e.AreaSocial, e.LecturaNivel, e.EscrituraNivel,
				e.MatematicaNivel, e.Observaciones)
		},
		notFound: expediente.ErrEvaluacionNotFound,
	}
}

func NewPlanIntervencionRepository(db core.DB) *expedienteRepository[expediente.PlanIntervencion] {
	return &expedienteRepository[expediente.PlanIntervencion]{
		db:    db,
		table: "planes_intervencion",
		cols: append(append([]string{}, expedienteBaseColumns...),
			"objetivos", "estrategias", "fecha_inicio", "fecha_fin", "estado"),
		args: func(p expediente.PlanIntervencion) []interface{} {
			return append(baseArgs(p.Base), p.Objetivos, p.Estrategias, p.FechaInicio, p.FechaFin, p.Estado)
		},
		notFound: expediente.ErrPlanNotFound,
	}
}

func NewEntrevistaFamiliarRepository(db core.DB) *expedienteRepository[expediente.EntrevistaFamiliar] {
	return &expedienteRepository[expediente.EntrevistaFamiliar]{
		db:    db,
		table: "entrevistas_familiares",
		cols: append(append([]string{}, expedienteBaseColumns...),
			"entrevistado", "parentesco", "situacion_familiar", "situacion_economica", "observaciones"),
		args: func(e expediente.EntrevistaFamiliar) []interface{} {
			return append(baseArgs(e.Base),
				e.Entrevistado, e.Parentesco, e.SituacionFamiliar, e.SituacionEconomica, e.Observaciones)
		},
		notFound: expediente.ErrEntrevistaNotFound,
	}
}

func (repo expedienteRepository[T]) Create(ctx context.Context, rec T) (T, error) {
	var saved T
	if err := sqlx.GetContext(ctx, repo.db, &saved, insertQuery(repo.table, repo.cols), repo.args(rec)...); err != nil {
		return saved, errors.Wrapf(err, "inserting into %s", repo.table)
	}
	return saved, nil
}

func (repo expedienteRepository[T]) QueryByNino(ctx context.Context, ninoID string) ([]T, error) {
	recs := []T{}
	if !validID(ninoID) {
		return recs, nil
	}
	q := "SELECT * FROM " + repo.table + " WHERE nino_id = $1 ORDER BY fecha DESC, created_at DESC"
	if err := sqlx.SelectContext(ctx, repo.db, &recs, q, ninoID); err != nil {
		return nil, errors.Wrapf(err, "querying %s", repo.table)
	}
	return recs, nil
}

func (repo expedienteRepository[T]) Get(ctx context.Context, id string) (T, error) {
	var rec T
	if !validID(id) {
		return rec, repo.notFound
	}
	if err := sqlx.GetContext(ctx, repo.db, &rec, "SELECT * FROM "+repo.table+" WHERE id = $1", id); err != nil {
		return rec, trapNoRowsErr(err, repo.notFound, "finding record in "+repo.table)
	}
	return rec, nil
}

func (repo expedienteRepository[T]) Update(ctx context.Context, rec T) (T, error) {
	var saved T
	// nino_id & created_at are immutable
	cols := append([]string{}, repo.cols[1:]...)
	cols = append(cols[:2], cols[3:]...)
	args := repo.args(rec)[1:]
	args = append(append([]interface{}{}, args[:2]...), args[3:]...)
	args = append(args, rec.Meta().ID)

	if err := sqlx.GetContext(ctx, repo.db, &saved, updateQuery(repo.table, cols), args...); err != nil {
		return saved, trapNoRowsErr(err, repo.notFound, "updating record in "+repo.table)
	}
	return saved, nil
}

func (repo expedienteRepository[T]) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return repo.notFound
	}
	res, err := repo.db.ExecContext(ctx, "DELETE FROM "+repo.table+" WHERE id = $1", id)
	if err != nil {
		return errors.Wrapf(err, "deleting from %s", repo.table)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return repo.notFound
	}
	return nil
}
