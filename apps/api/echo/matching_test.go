package echoapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/plataforma-apa/apa/core/capacitacion"
	"github.com/plataforma-apa/apa/core/matching"
	"github.com/plataforma-apa/apa/core/perfil"
	"github.com/plataforma-apa/apa/tests"
)

func Test_matchingApi_sugerencias(t *testing.T) {
	app := setup(t)
	ctx := context.Background()

	coord := testutil.CreatePerfil(t, app.perfilRepo, "Coordinadora", "coord@apa.test", perfil.RoleCoordinador, true)
	norte := testutil.CreateZona(t, app.zonaRepo, "Norte")
	n := testutil.CreateNino(t, app.ninoRepo, "Luz", "Acosta", norte.ID, true)
	other := testutil.CreateNino(t, app.ninoRepo, "Juan", "Benítez", "", true)

	cercana := testutil.CreatePerfil(t, app.perfilRepo, "Ana", "ana@apa.test", perfil.RoleVoluntario, true)
	cercana.ZonaID = null.StringFrom(norte.ID)
	_, err := app.perfilRepo.UpdatePerfil(ctx, cercana)
	require.NoError(t, err)

	capacitada := testutil.CreatePerfil(t, app.perfilRepo, "Beto", "beto@apa.test", perfil.RoleVoluntario, true)
	for _, titulo := range []string{"Introducción", "Lectura"} {
		c, err := app.capRepo.CreateCapacitacion(ctx, capacitacion.Capacitacion{Titulo: titulo, Activa: true})
		require.NoError(t, err)
		_, err = app.capRepo.UpsertProgreso(ctx, capacitacion.VoluntarioCapacitacion{
			VoluntarioID:   capacitada.ID,
			CapacitacionID: c.ID,
			Estado:         capacitacion.EstadoCompletada,
		})
		require.NoError(t, err)
	}

	ocupada := testutil.CreatePerfil(t, app.perfilRepo, "Caro", "caro@apa.test", perfil.RoleVoluntario, true)
	testutil.Assign(t, app.asignacionRepo, other, ocupada)

	actual := testutil.CreatePerfil(t, app.perfilRepo, "Dani", "dani@apa.test", perfil.RoleVoluntario, true)
	testutil.Assign(t, app.asignacionRepo, n, actual)

	testutil.CreatePerfil(t, app.perfilRepo, "Eli", "eli@apa.test", perfil.RoleVoluntario, false)

	token := getToken(t, coord)
	path := "/api/matching/ninos/" + n.ID + "/sugerencias"

	sugerencias := func(t *testing.T, path string) []matching.Sugerencia {
		rec := app.do(t, http.MethodGet, path, token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var sugs []matching.Sugerencia
		unmarshal(t, rec, &sugs)
		return sugs
	}

	t.Run("ranking", func(t *testing.T) {
		sugs := sugerencias(t, path)
		require.Len(t, sugs, 3)

		assert.Equal(t, cercana.ID, sugs[0].VoluntarioID)
		assert.True(t, sugs[0].MismaZona)
		assert.Equal(t, 80, sugs[0].Puntaje)

		assert.Equal(t, capacitada.ID, sugs[1].VoluntarioID)
		assert.Equal(t, 2, sugs[1].CapacitacionesCompletadas)
		assert.Equal(t, 40, sugs[1].Puntaje)

		assert.Equal(t, ocupada.ID, sugs[2].VoluntarioID)
		assert.Equal(t, 1, sugs[2].AsignacionesActivas)
		assert.Equal(t, 20, sugs[2].Puntaje)
	})

	t.Run("limite", func(t *testing.T) {
		sugs := sugerencias(t, path+"?limite=1")
		require.Len(t, sugs, 1)
		assert.Equal(t, cercana.ID, sugs[0].VoluntarioID)
	})

	app.run(t, []httpTest{
		{name: "staff only", path: path, token: getToken(t, ocupada), wantCode: http.StatusForbidden},
		{
			name: "unknown nino", path: "/api/matching/ninos/lol/sugerencias", token: token,
			wantCode: http.StatusNotFound, wantData: marshalObj(t, httpErr{Error: "niño not found"}),
		},
		{
			name: "invalid limite", path: path + "?limite=lol", token: token,
			wantCode: http.StatusBadRequest, wantData: []byte(`{"limite":"must be a positive integer"}`),
		},
	})
}
