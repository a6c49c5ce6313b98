package testutil

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/plataforma-apa/apa/storage/database"
)

const postgresImage = "pgvector/pgvector:pg16"

var tables = []string{
	"document_chunks", "documentos", "sesiones", "entrevistas_familiares", "planes_intervencion",
	"evaluaciones_iniciales", "respuestas_autoevaluacion", "plantillas_autoevaluacion",
	"voluntarios_capacitaciones", "capacitaciones", "asignaciones", "ninos", "perfiles", "zonas",
}

var (
	pgOnce sync.Once
	pgDB   *sqlx.DB
	pgErr  error
)

// PrepareDB returns a migrated & emptied Postgres database running in a container shared by the
// package tests. Skipped in short mode or when no container runtime is available.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	pgOnce.Do(func() { pgDB, pgErr = startPostgres(context.Background()) })
	if pgErr != nil {
		t.Fatalf("PrepareDB() failed: %v", pgErr)
	}

	if _, err := pgDB.Exec("TRUNCATE " + strings.Join(tables, ", ") + " CASCADE"); err != nil {
		t.Fatalf("PrepareDB() truncate failed: %v", err)
	}
	return pgDB
}

// startPostgres starts the container and runs the migrations. The container is reaped when the test binary exits.
func startPostgres(ctx context.Context) (*sqlx.DB, error) {
	ctr, err := postgres.Run(ctx, postgresImage,
		postgres.WithDatabase("apa_test"),
		postgres.WithUsername("apa"),
		postgres.WithPassword("apa"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, err
	}
	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable", "timezone=utc")
	if err != nil {
		return nil, err
	}
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err = database.Migrate(db.DB); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
