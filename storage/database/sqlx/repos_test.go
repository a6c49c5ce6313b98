package sqlxrepos

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/plataforma-apa/apa/core/asignacion"
	"github.com/plataforma-apa/apa/core/biblioteca"
	"github.com/plataforma-apa/apa/core/capacitacion"
	"github.com/plataforma-apa/apa/core/matching"
	"github.com/plataforma-apa/apa/core/perfil"
	"github.com/plataforma-apa/apa/core/zona"
	"github.com/plataforma-apa/apa/tests"
)

func Test_zonaRepository(t *testing.T) {
	db := testutil.PrepareDB(t)
	ctx := context.Background()
	repo := NewZonaRepository(db)
	ninoRepo := NewNinoRepository(db)

	norte := testutil.CreateZona(t, repo, "Norte")
	sur := testutil.CreateZona(t, repo, "Sur")

	t.Run("uniqueness", func(t *testing.T) {
		_, err := repo.CreateZona(ctx, zona.Zona{Nombre: "NORTE", CreatedAt: time.Now()})
		assert.Equal(t, zona.ErrNameExists, err)

		assert.Equal(t, zona.ErrNameExists, repo.CheckNameUniqueness(ctx, "norte"))
		assert.NoError(t, repo.CheckNameUniqueness(ctx, "norte", norte.ID))
		assert.NoError(t, repo.CheckNameUniqueness(ctx, "Oeste"))

		sur.Nombre = "Norte"
		_, err = repo.UpdateZona(ctx, sur)
		assert.Equal(t, zona.ErrNameExists, err)
	})

	t.Run("get", func(t *testing.T) {
		got, err := repo.GetZona(ctx, norte.ID)
		require.NoError(t, err)
		assert.Equal(t, "Norte", got.Nombre)

		for _, id := range []string{"lol", uuid.NewString()} {
			_, err = repo.GetZona(ctx, id)
			assert.Equal(t, zona.ErrNotFound, err, id)
		}

		zonas, err := repo.QueryZonas(ctx)
		require.NoError(t, err)
		require.Len(t, zonas, 2)
		assert.Equal(t, norte.ID, zonas[0].ID)
	})

	t.Run("delete", func(t *testing.T) {
		testutil.CreateNino(t, ninoRepo, "Luz", "Acosta", norte.ID, true)
		assert.Equal(t, zona.ErrInUse, repo.DeleteZona(ctx, norte.ID))

		require.NoError(t, repo.DeleteZona(ctx, sur.ID))
		assert.Equal(t, zona.ErrNotFound, repo.DeleteZona(ctx, sur.ID))
		assert.Equal(t, zona.ErrNotFound, repo.DeleteZona(ctx, "lol"))
	})
}

func Test_asignacionRepository_Reassign(t *testing.T) {
	db := testutil.PrepareDB(t)
	ctx := context.Background()
	repo := NewAsignacionRepository(db)
	perfilRepo := NewPerfilRepository(db)
	ninoRepo := NewNinoRepository(db)

	vol1 := testutil.CreatePerfil(t, perfilRepo, "Ana", "ana@apa.test", perfil.RoleVoluntario, true)
	vol2 := testutil.CreatePerfil(t, perfilRepo, "Beto", "beto@apa.test", perfil.RoleVoluntario, true)
	n := testutil.CreateNino(t, ninoRepo, "Luz", "Acosta", "", true)

	first := testutil.Assign(t, repo, n, vol1)
	second := testutil.Assign(t, repo, n, vol2)

	all, err := repo.QueryAsignaciones(ctx, &asignacion.QueryFilter{NinoID: n.ID}, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)

	prev, err := repo.GetAsignacion(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, prev.Activa)
	require.True(t, prev.FechaFin.Valid)
	assert.True(t, prev.FechaFin.Time.Equal(second.FechaInicio))

	activa := true
	active, err := repo.QueryAsignaciones(ctx, &asignacion.QueryFilter{NinoID: n.ID, Activa: &activa}, nil)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, vol2.ID, active[0].VoluntarioID)

	_, err = repo.GetAsignacion(ctx, "lol")
	assert.Equal(t, asignacion.ErrNotFound, err)
}

func Test_matchingRepository_SugerirVoluntarios(t *testing.T) {
	db := testutil.PrepareDB(t)
	ctx := context.Background()
	repo := NewMatchingRepository(db)
	perfilRepo := NewPerfilRepository(db)
	ninoRepo := NewNinoRepository(db)
	zonaRepo := NewZonaRepository(db)
	capRepo := NewCapacitacionRepository(db)
	asignacionRepo := NewAsignacionRepository(db)

	norte := testutil.CreateZona(t, zonaRepo, "Norte")
	n := testutil.CreateNino(t, ninoRepo, "Luz", "Acosta", norte.ID, true)
	other := testutil.CreateNino(t, ninoRepo, "Juan", "Benítez", "", true)

	cercana := testutil.CreatePerfil(t, perfilRepo, "Ana", "ana@apa.test", perfil.RoleVoluntario, true)
	cercana.ZonaID = null.StringFrom(norte.ID)
	_, err := perfilRepo.UpdatePerfil(ctx, cercana)
	require.NoError(t, err)

	capacitada := testutil.CreatePerfil(t, perfilRepo, "Beto", "beto@apa.test", perfil.RoleVoluntario, true)
	for _, titulo := range []string{"Introducción", "Lectura", "Escritura"} {
		c, err := capRepo.CreateCapacitacion(ctx, capacitacion.Capacitacion{Titulo: titulo, Activa: true})
		require.NoError(t, err)
		estado := capacitacion.EstadoCompletada
		if titulo == "Escritura" {
			estado = capacitacion.EstadoEnProgreso
		}
		_, err = capRepo.UpsertProgreso(ctx, capacitacion.VoluntarioCapacitacion{
			VoluntarioID:   capacitada.ID,
			CapacitacionID: c.ID,
			Estado:         estado,
		})
		require.NoError(t, err)
	}

	ocupada := testutil.CreatePerfil(t, perfilRepo, "Caro", "caro@apa.test", perfil.RoleVoluntario, true)
	testutil.Assign(t, asignacionRepo, other, ocupada)

	actual := testutil.CreatePerfil(t, perfilRepo, "Dani", "dani@apa.test", perfil.RoleVoluntario, true)
	testutil.Assign(t, asignacionRepo, n, actual)

	testutil.CreatePerfil(t, perfilRepo, "Eli", "eli@apa.test", perfil.RoleVoluntario, false)
	testutil.CreatePerfil(t, perfilRepo, "Fede", "fede@apa.test", perfil.RoleCoordinador, true)

	got, err := repo.SugerirVoluntarios(ctx, n.ID)
	require.NoError(t, err)

	want := []matching.Sugerencia{
		{VoluntarioID: cercana.ID, Nombre: "Ana", MismaZona: true, Puntaje: 80},
		{VoluntarioID: capacitada.ID, Nombre: "Beto", CapacitacionesCompletadas: 2, Puntaje: 40},
		{VoluntarioID: ocupada.ID, Nombre: "Caro", AsignacionesActivas: 1, Puntaje: 20},
	}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(matching.Sugerencia{}, "Email", "ZonaID")); diff != "" {
		t.Errorf("SugerirVoluntarios() mismatch (-want +got):\n%s", diff)
	}

	got, err = repo.SugerirVoluntarios(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Empty(t, got)
}

// axis returns a 768-dim unit vector along dimension `i`.
func axis(i int, extra ...float32) []float32 {
	vec := make([]float32, 768)
	vec[i] = 1
	for j, v := range extra {
		vec[i+1+j] = v
	}
	return vec
}

func Test_bibliotecaRepository(t *testing.T) {
	db := testutil.PrepareDB(t)
	ctx := context.Background()
	repo := NewBibliotecaRepository(db)

	create := func(t *testing.T, titulo, estado string) biblioteca.Documento {
		d, err := repo.CreateDocumento(ctx, biblioteca.Documento{
			Titulo:        titulo,
			NombreArchivo: titulo + ".txt",
			MimeType:      "text/plain",
			Tamano:        1200,
			ArchivoID:     uuid.NewString(),
			URL:           "/files/" + titulo,
			Estado:        estado,
			CreatedAt:     time.Now(),
		})
		require.NoError(t, err)
		return d
	}

	guia := create(t, "guia", biblioteca.EstadoListo)
	borrador := create(t, "borrador", biblioteca.EstadoProcesando)

	require.NoError(t, repo.ReplaceChunks(ctx, guia.ID, []biblioteca.Chunk{
		{Indice: 0, Contenido: "lectura", Embedding: axis(0)},
		{Indice: 1, Contenido: "escritura", Embedding: axis(10)},
		{Indice: 2, Contenido: "lectura compartida", Embedding: axis(0, 1)},
	}))
	require.NoError(t, repo.ReplaceChunks(ctx, borrador.ID, []biblioteca.Chunk{
		{Indice: 0, Contenido: "borrador", Embedding: axis(0)},
	}))

	t.Run("search", func(t *testing.T) {
		frags, err := repo.BuscarFragmentos(ctx, axis(0), 2)
		require.NoError(t, err)
		require.Len(t, frags, 2)
		assert.Equal(t, "lectura", frags[0].Contenido)
		assert.Equal(t, guia.ID, frags[0].DocumentoID)
		assert.Equal(t, "guia", frags[0].Titulo)
		assert.InDelta(t, 1, frags[0].Similitud, 1e-6)
		assert.Equal(t, "lectura compartida", frags[1].Contenido)
		assert.InDelta(t, 0.7071, frags[1].Similitud, 1e-3)
	})

	t.Run("replace", func(t *testing.T) {
		require.NoError(t, repo.ReplaceChunks(ctx, guia.ID, []biblioteca.Chunk{
			{Indice: 0, Contenido: "numeros", Embedding: axis(20)},
		}))
		frags, err := repo.BuscarFragmentos(ctx, axis(0), 5)
		require.NoError(t, err)
		require.Len(t, frags, 1)
		assert.Equal(t, "numeros", frags[0].Contenido)
	})

	t.Run("update & delete", func(t *testing.T) {
		borrador.Estado = biblioteca.EstadoError
		borrador.Error = null.StringFrom("no text found")
		updated, err := repo.UpdateDocumento(ctx, borrador)
		require.NoError(t, err)
		assert.Equal(t, biblioteca.EstadoError, updated.Estado)

		require.NoError(t, repo.DeleteDocumento(ctx, guia.ID))
		frags, err := repo.BuscarFragmentos(ctx, axis(20), 5)
		require.NoError(t, err)
		assert.Empty(t, frags)

		err = repo.DeleteDocumento(ctx, guia.ID)
		assert.Equal(t, biblioteca.ErrNotFound, errors.Cause(err))

		docs, err := repo.QueryDocumentos(ctx)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, borrador.ID, docs[0].ID)
	})
}
