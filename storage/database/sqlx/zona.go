package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/plataforma-apa/apa/core"
	"github.com/plataforma-apa/apa/core/zona"
)

type zonaRepository struct {
	db core.DB
}

var _ zona.Repository = (*zonaRepository)(nil) // interface compliance check

func NewZonaRepository(db core.DB) *zonaRepository {
	return &zonaRepository{db: db}
}

func (repo zonaRepository) CheckNameUniqueness(ctx context.Context, nombre string, excludedIDs ...string) error {
	var where whereClause
	where.add("lower(nombre) = lower(?)", nombre)
	for _, id := range excludedIDs {
		where.add("id::text <> ?", id)
	}

	var exists bool
	q := selectQuery("SELECT EXISTS (SELECT 1 FROM zonas", &where, "", 0) + ")"
	if err := sqlx.GetContext(ctx, repo.db, &exists, q, where.args...); err != nil {
		return errors.Wrap(err, "checking zona uniqueness")
	}
	if exists {
		return zona.ErrNameExists
	}
	return nil
}

func (repo zonaRepository) CreateZona(ctx context.Context, z zona.Zona) (zona.Zona, error) {
	var saved zona.Zona
	q := insertQuery("zonas", []string{"nombre", "descripcion", "created_at"})
	if err := sqlx.GetContext(ctx, repo.db, &saved, q, z.Nombre, z.Descripcion, z.CreatedAt.UTC()); err != nil {
		if isUniqueViolation(err) {
			return zona.Zona{}, zona.ErrNameExists
		}
		return zona.Zona{}, errors.Wrap(err, "inserting zona")
	}
	return saved, nil
}

func (repo zonaRepository) QueryZonas(ctx context.Context) ([]zona.Zona, error) {
	zonas := []zona.Zona{}
	if err := sqlx.SelectContext(ctx, repo.db, &zonas, "SELECT * FROM zonas ORDER BY nombre"); err != nil {
		return nil, errors.Wrap(err, "querying zonas")
	}
	return zonas, nil
}

func (repo zonaRepository) GetZona(ctx context.Context, id string) (zona.Zona, error) {
	if !validID(id) {
		return zona.Zona{}, zona.ErrNotFound
	}
	var z zona.Zona
	if err := sqlx.GetContext(ctx, repo.db, &z, "SELECT * FROM zonas WHERE id = $1", id); err != nil {
		return zona.Zona{}, trapNoRowsErr(err, zona.ErrNotFound, "finding zona")
	}
	return z, nil
}

func (repo zonaRepository) UpdateZona(ctx context.Context, z zona.Zona) (zona.Zona, error) {
	var saved zona.Zona
	q := updateQuery("zonas", []string{"nombre", "descripcion"})
	if err := sqlx.GetContext(ctx, repo.db, &saved, q, z.Nombre, z.Descripcion, z.ID); err != nil {
		if isUniqueViolation(err) {
			return zona.Zona{}, zona.ErrNameExists
		}
		return zona.Zona{}, trapNoRowsErr(err, zona.ErrNotFound, "updating zona")
	}
	return saved, nil
}

func (repo zonaRepository) DeleteZona(ctx context.Context, id string) error {
	if !validID(id) {
		return zona.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, "DELETE FROM zonas WHERE id = $1", id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return zona.ErrInUse
		}
		return errors.Wrap(err, "deleting zona")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return zona.ErrNotFound
	}
	return nil
}
