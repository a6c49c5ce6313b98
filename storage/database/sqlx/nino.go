package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/plataforma-apa/apa/core"
	"github.com/plataforma-apa/apa/core/nino"
)

var ninoColumns = []string{
	"nombre", "apellido", "fecha_nacimiento", "genero", "escuela", "grado", "zona_id", "direccion",
	"contacto_familiar", "telefono_contacto", "observaciones", "foto_url", "foto_archivo_id", "activo",
	"created_at", "updated_at",
}

type ninoRepository struct {
	db core.DB
}

var _ nino.Repository = (*ninoRepository)(nil) // interface compliance check

func NewNinoRepository(db core.DB) *ninoRepository {
	return &ninoRepository{db: db}
}

func ninoArgs(n nino.Nino) []interface{} {
	return []interface{}{
		n.Nombre, n.Apellido, n.FechaNacimiento, n.Genero, n.Escuela, n.Grado, n.ZonaID, n.Direccion,
		n.ContactoFamiliar, n.TelefonoContacto, n.Observaciones, n.FotoURL, n.FotoArchivoID, n.Activo,
		n.CreatedAt.UTC(), n.UpdatedAt.UTC(),
	}
}

func (repo ninoRepository) CreateNino(ctx context.Context, n nino.Nino) (nino.Nino, error) {
	var saved nino.Nino
	if err := sqlx.GetContext(ctx, repo.db, &saved, insertQuery("ninos", ninoColumns), ninoArgs(n)...); err != nil {
		return nino.Nino{}, errors.Wrap(err, "inserting niño")
	}
	return saved, nil
}

func (repo ninoRepository) QueryNinos(ctx context.Context, filter *nino.QueryFilter, ordering []core.DBOrdering) ([]nino.Nino, error) {
	var where whereClause
	if filter != nil {
		if filter.Search != "" {
			val := likeArg(filter.Search)
			where.add("(nombre ILIKE ? OR apellido ILIKE ?)", val, val)
		}
		if filter.ZonaID != "" {
			where.add("zona_id::text = ?", filter.ZonaID)
		}
		if filter.Activo != nil {
			where.add("activo = ?", *filter.Activo)
		}
		if filter.VoluntarioID != "" {
			where.add(
				"id IN (SELECT nino_id FROM asignaciones WHERE activa AND voluntario_id::text = ?)",
				filter.VoluntarioID,
			)
		}
	}
	orderBy := orderByClause(ordering, "apellido ASC, nombre ASC",
		"nombre", "apellido", "fecha_nacimiento", "created_at", "updated_at")

	ninos := []nino.Nino{}
	q := selectQuery("SELECT * FROM ninos", &where, orderBy, 0)
	if err := sqlx.SelectContext(ctx, repo.db, &ninos, q, where.args...); err != nil {
		return nil, errors.Wrap(err, "querying niños")
	}
	return ninos, nil
}

func (repo ninoRepository) GetNino(ctx context.Context, id string) (nino.Nino, error) {
	if !validID(id) {
		return nino.Nino{}, nino.ErrNotFound
	}
	var n nino.Nino
	if err := sqlx.GetContext(ctx, repo.db, &n, "SELECT * FROM ninos WHERE id = $1", id); err != nil {
		return nino.Nino{}, trapNoRowsErr(err, nino.ErrNotFound, "finding niño")
	}
	return n, nil
}

func (repo ninoRepository) UpdateNino(ctx context.Context, n nino.Nino) (nino.Nino, error) {
	var saved nino.Nino
	args := append(ninoArgs(n), n.ID)
	if err := sqlx.GetContext(ctx, repo.db, &saved, updateQuery("ninos", ninoColumns), args...); err != nil {
		return nino.Nino{}, trapNoRowsErr(err, nino.ErrNotFound, "updating niño")
	}
	return saved, nil
}

func (repo ninoRepository) IsAssignedTo(ctx context.Context, ninoID, voluntarioID string) (bool, error) {
	if !validID(ninoID) || !validID(voluntarioID) {
		return false, nil
	}
	var assigned bool
	q := "SELECT EXISTS (SELECT 1 FROM asignaciones WHERE nino_id = $1 AND voluntario_id = $2 AND activa)"
	if err := sqlx.GetContext(ctx, repo.db, &assigned, q, ninoID, voluntarioID); err != nil {
		return false, errors.Wrap(err, "checking asignación")
	}
	return assigned, nil
}
