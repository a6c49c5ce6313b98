package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/plataforma-apa/apa/core"
	"github.com/plataforma-apa/apa/core/perfil"
)

var perfilColumns = []string{
	"id", "nombre", "email", "telefono", "rol", "zona_id", "activo", "disponibilidad", "created_at", "updated_at",
}

type perfilRepository struct {
	db core.DB
}

var _ perfil.Repository = (*perfilRepository)(nil) // interface compliance check

func NewPerfilRepository(db core.DB) *perfilRepository {
	return &perfilRepository{db: db}
}

func perfilArgs(p perfil.Perfil) []interface{} {
	return []interface{}{
		p.ID, p.Nombre, p.Email, p.Telefono, p.Rol, p.ZonaID, p.Activo, p.Disponibilidad, p.CreatedAt.UTC(), p.UpdatedAt.UTC(),
	}
}

func (repo perfilRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedIDs ...string) error {
	if excludedIDs == nil {
		excludedIDs = []string{}
	}
	var exists bool
	q := "SELECT EXISTS (SELECT 1 FROM perfiles WHERE lower(email) = lower($1) AND NOT (id::text = ANY($2)))"
	if err := sqlx.GetContext(ctx, repo.db, &exists, q, email, pq.Array(excludedIDs)); err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if exists {
		return perfil.ErrEmailExists
	}
	return nil
}

func (repo perfilRepository) CreatePerfil(ctx context.Context, p perfil.Perfil) (perfil.Perfil, error) {
	var saved perfil.Perfil
	err := sqlx.GetContext(ctx, repo.db, &saved, insertQuery("perfiles", perfilColumns), perfilArgs(p)...)
	if err != nil {
		if isUniqueViolation(err) {
			return perfil.Perfil{}, perfil.ErrEmailExists
		}
		return perfil.Perfil{}, errors.Wrap(err, "inserting perfil")
	}
	return saved, nil
}

func (repo perfilRepository) QueryPerfiles(ctx context.Context, filter *perfil.QueryFilter, ordering []core.DBOrdering) ([]perfil.Perfil, error) {
	var where whereClause
	if filter != nil {
		if filter.Search != "" {
			val := likeArg(filter.Search)
			where.add("(nombre ILIKE ? OR email ILIKE ?)", val, val)
		}
		if len(filter.Roles) > 0 {
			where.add("rol = ANY(?)", pq.Array(filter.Roles))
		}
		if filter.Activo != nil {
			where.add("activo = ?", *filter.Activo)
		}
		if filter.ZonaID != "" {
			where.add("zona_id::text = ?", filter.ZonaID)
		}
	}
	orderBy := orderByClause(ordering, "nombre ASC", "nombre", "email", "rol", "created_at", "updated_at")

	perfiles := []perfil.Perfil{}
	q := selectQuery("SELECT * FROM perfiles", &where, orderBy, 0)
	if err := sqlx.SelectContext(ctx, repo.db, &perfiles, q, where.args...); err != nil {
		return nil, errors.Wrap(err, "querying perfiles")
	}
	return perfiles, nil
}

func (repo perfilRepository) GetPerfil(ctx context.Context, id string) (perfil.Perfil, error) {
	if !validID(id) {
		return perfil.Perfil{}, perfil.ErrNotFound
	}
	var p perfil.Perfil
	if err := sqlx.GetContext(ctx, repo.db, &p, "SELECT * FROM perfiles WHERE id = $1", id); err != nil {
		return perfil.Perfil{}, trapNoRowsErr(err, perfil.ErrNotFound, "finding perfil by ID")
	}
	return p, nil
}

func (repo perfilRepository) GetPerfilByEmail(ctx context.Context, email string) (perfil.Perfil, error) {
	var p perfil.Perfil
	if err := sqlx.GetContext(ctx, repo.db, &p, "SELECT * FROM perfiles WHERE lower(email) = lower($1)", email); err != nil {
		return perfil.Perfil{}, trapNoRowsErr(err, perfil.ErrNotFound, "finding perfil by email")
	}
	return p, nil
}

func (repo perfilRepository) UpdatePerfil(ctx context.Context, p perfil.Perfil) (perfil.Perfil, error) {
	cols := perfilColumns[1:] // all but id
	args := append(perfilArgs(p)[1:], p.ID)

	var saved perfil.Perfil
	if err := sqlx.GetContext(ctx, repo.db, &saved, updateQuery("perfiles", cols), args...); err != nil {
		return perfil.Perfil{}, trapNoRowsErr(err, perfil.ErrNotFound, "updating perfil")
	}
	return saved, nil
}
