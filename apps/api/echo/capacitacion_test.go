package echoapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plataforma-apa/apa/core/capacitacion"
	"github.com/plataforma-apa/apa/core/perfil"
	"github.com/plataforma-apa/apa/tests"
)

func Test_capacitacionApi(t *testing.T) {
	app := setup(t)

	coord := testutil.CreatePerfil(t, app.perfilRepo, "Coordinadora", "coord@apa.test", perfil.RoleCoordinador, true)
	vol := testutil.CreatePerfil(t, app.perfilRepo, "Ana", "ana@apa.test", perfil.RoleVoluntario, true)
	staffToken := getToken(t, coord)
	volToken := getToken(t, vol)

	create := func(t *testing.T, body string) capacitacion.Capacitacion {
		rec := app.do(t, http.MethodPost, "/api/capacitaciones", staffToken, []byte(body))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var c capacitacion.Capacitacion
		unmarshal(t, rec, &c)
		return c
	}

	app.run(t, []httpTest{
		{
			name: "staff only", method: http.MethodPost, path: "/api/capacitaciones", token: volToken,
			body: []byte(`{"titulo":"Lol"}`), wantCode: http.StatusForbidden,
		},
		{
			name: "titulo required", method: http.MethodPost, path: "/api/capacitaciones", token: staffToken,
			body: []byte(`{"titulo":""}`), wantCode: http.StatusBadRequest, wantData: []byte(`{"titulo":"this field is required"}`),
		},
		{
			name: "invalid url", method: http.MethodPost, path: "/api/capacitaciones", token: staffToken,
			body: []byte(`{"titulo":"Lol","contenido_url":"not a url"}`), wantCode: http.StatusBadRequest,
		},
	})

	c2 := create(t, `{"titulo":"Primeros auxilios","orden":2}`)
	c1 := create(t, `{"titulo":"Introducción","obligatoria":true,"orden":1,"duracion_minutos":45,"contenido_url":"https://apa.test/intro"}`)
	assert.True(t, c1.Activa)
	assert.True(t, c1.Obligatoria)
	assert.Equal(t, 45, c1.DuracionMinutos.Int)

	rec := app.do(t, http.MethodDelete, "/api/capacitaciones/"+c2.ID, staffToken)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	c2.Activa = false

	list := func(t *testing.T, token, path string) []string {
		rec := app.do(t, http.MethodGet, path, token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var caps []capacitacion.Capacitacion
		unmarshal(t, rec, &caps)
		ids := make([]string, len(caps))
		for i, c := range caps {
			ids[i] = c.ID
		}
		return ids
	}

	t.Run("query", func(t *testing.T) {
		assert.Equal(t, []string{c1.ID, c2.ID}, list(t, staffToken, "/api/capacitaciones"))
		assert.Equal(t, []string{c2.ID}, list(t, staffToken, "/api/capacitaciones?activa=false"))
		assert.Equal(t, []string{c1.ID}, list(t, volToken, "/api/capacitaciones"))
		assert.Equal(t, []string{c1.ID}, list(t, volToken, "/api/capacitaciones?activa=false"))
	})

	notFound := marshalObj(t, httpErr{Error: "capacitación not found"})
	app.run(t, []httpTest{
		{name: "voluntario gets active", path: "/api/capacitaciones/" + c1.ID, token: volToken},
		{name: "inactive hidden from voluntarios", path: "/api/capacitaciones/" + c2.ID, token: volToken, wantCode: http.StatusNotFound, wantData: notFound},
		{name: "inactive visible to staff", path: "/api/capacitaciones/" + c2.ID, token: staffToken},
		{
			name: "cannot start an inactive one", method: http.MethodPost, path: "/api/capacitaciones/" + c2.ID + "/iniciar", token: volToken,
			wantCode: http.StatusNotFound, wantData: notFound,
		},
		{name: "staff cannot start", method: http.MethodPost, path: "/api/capacitaciones/" + c1.ID + "/iniciar", token: staffToken, wantCode: http.StatusForbidden},
		{name: "mias is for voluntarios", path: "/api/capacitaciones/mias", token: staffToken, wantCode: http.StatusForbidden},
	})

	t.Run("progress", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/api/capacitaciones/"+c1.ID+"/iniciar", volToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var started capacitacion.VoluntarioCapacitacion
		unmarshal(t, rec, &started)
		assert.Equal(t, capacitacion.EstadoEnProgreso, started.Estado)
		assert.True(t, started.IniciadaAt.Valid)

		// starting twice keeps the original start
		rec = app.do(t, http.MethodPost, "/api/capacitaciones/"+c1.ID+"/iniciar", volToken)
		require.Equal(t, http.StatusOK, rec.Code)
		var again capacitacion.VoluntarioCapacitacion
		unmarshal(t, rec, &again)
		assert.True(t, started.IniciadaAt.Time.Equal(again.IniciadaAt.Time))

		app.run(t, []httpTest{
			{
				name: "puntaje required", method: http.MethodPost, path: "/api/capacitaciones/" + c1.ID + "/completar", token: volToken,
				body: []byte(`{}`), wantCode: http.StatusBadRequest, wantData: []byte(`{"puntaje":"this field is required"}`),
			},
			{
				name: "puntaje above 100", method: http.MethodPost, path: "/api/capacitaciones/" + c1.ID + "/completar", token: volToken,
				body: []byte(`{"puntaje":120}`), wantCode: http.StatusBadRequest,
			},
		})

		rec = app.do(t, http.MethodPost, "/api/capacitaciones/"+c1.ID+"/completar", volToken, []byte(`{"puntaje":80}`))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var done capacitacion.VoluntarioCapacitacion
		unmarshal(t, rec, &done)
		assert.Equal(t, capacitacion.EstadoCompletada, done.Estado)
		assert.Equal(t, 80, done.Puntaje.Int)
		assert.True(t, done.CompletadaAt.Valid)
		assert.True(t, started.IniciadaAt.Time.Equal(done.IniciadaAt.Time))

		rec = app.do(t, http.MethodGet, "/api/capacitaciones/mias", volToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var mias []capacitacion.MiCapacitacion
		unmarshal(t, rec, &mias)
		require.Len(t, mias, 1)
		assert.Equal(t, c1.ID, mias[0].ID)
		require.NotNil(t, mias[0].Progreso)
		assert.Equal(t, capacitacion.EstadoCompletada, mias[0].Progreso.Estado)

		rec = app.do(t, http.MethodGet, "/api/capacitaciones/"+c1.ID+"/progreso", volToken)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = app.do(t, http.MethodGet, "/api/capacitaciones/"+c1.ID+"/progreso", staffToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var progresos []capacitacion.VoluntarioCapacitacion
		unmarshal(t, rec, &progresos)
		require.Len(t, progresos, 1)
		assert.Equal(t, vol.ID, progresos[0].VoluntarioID)
	})

	t.Run("update", func(t *testing.T) {
		rec := app.do(t, http.MethodPut, "/api/capacitaciones/"+c2.ID, staffToken, []byte(`{"titulo":"Primeros auxilios II","activa":true,"orden":3}`))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var c capacitacion.Capacitacion
		unmarshal(t, rec, &c)
		assert.Equal(t, "Primeros auxilios II", c.Titulo)
		assert.True(t, c.Activa)
		assert.Equal(t, []string{c1.ID, c2.ID}, list(t, volToken, "/api/capacitaciones"))
	})
}
