package echoapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plataforma-apa/apa/core/asignacion"
	"github.com/plataforma-apa/apa/core/perfil"
	"github.com/plataforma-apa/apa/tests"
)

func Test_asignacionApi(t *testing.T) {
	app := setup(t)

	coord := testutil.CreatePerfil(t, app.perfilRepo, "Coordinadora", "coord@apa.test", perfil.RoleCoordinador, true)
	vol1 := testutil.CreatePerfil(t, app.perfilRepo, "Ana", "ana@apa.test", perfil.RoleVoluntario, true)
	vol2 := testutil.CreatePerfil(t, app.perfilRepo, "Beto", "beto@apa.test", perfil.RoleVoluntario, true)
	inactiveVol := testutil.CreatePerfil(t, app.perfilRepo, "Caro", "caro@apa.test", perfil.RoleVoluntario, false)
	n := testutil.CreateNino(t, app.ninoRepo, "Luz", "Acosta", "", true)
	inactiveNino := testutil.CreateNino(t, app.ninoRepo, "Sol", "Benítez", "", false)

	token := getToken(t, coord)
	body := func(ninoID, volID string) []byte {
		return marshalObj(t, asignacion.NewAsignacion{NinoID: ninoID, VoluntarioID: volID, Notas: "Apoyo escolar"})
	}

	app.run(t, []httpTest{
		{
			name: "staff required", method: http.MethodPost, path: "/api/asignaciones", token: getToken(t, vol1),
			body: body(n.ID, vol1.ID), wantCode: http.StatusForbidden,
		},
		{
			name: "required fields", method: http.MethodPost, path: "/api/asignaciones", token: token, body: []byte(`{}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"nino_id":"this field is required","voluntario_id":"this field is required"}`),
		},
		{
			name: "inactive nino", method: http.MethodPost, path: "/api/asignaciones", token: token,
			body: body(inactiveNino.ID, vol1.ID), wantCode: http.StatusBadRequest, wantData: []byte(`{"nino_id":"niño is not active"}`),
		},
		{
			name: "inactive voluntario", method: http.MethodPost, path: "/api/asignaciones", token: token,
			body: body(n.ID, inactiveVol.ID), wantCode: http.StatusBadRequest, wantData: []byte(`{"voluntario_id":"perfil is not an active voluntario"}`),
		},
		{
			name: "staff cannot be assigned", method: http.MethodPost, path: "/api/asignaciones", token: token,
			body: body(n.ID, coord.ID), wantCode: http.StatusBadRequest, wantData: []byte(`{"voluntario_id":"perfil is not an active voluntario"}`),
		},
	})

	var first, second asignacion.Asignacion
	t.Run("create", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/api/asignaciones", token, body(n.ID, vol1.ID))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		unmarshal(t, rec, &first)
		assert.True(t, first.Activa)
		assert.Equal(t, coord.ID, first.AsignadoPor.String)
		assert.Equal(t, "Apoyo escolar", first.Notas.String)

		msgs := app.mail.SentMessages()
		require.Len(t, msgs, 1)
		assert.Equal(t, vol1.Email, msgs[0].To[0].Address)
		assert.Equal(t, "Nueva asignación: Luz Acosta", msgs[0].Subject)
	})

	t.Run("reassign finishes the previous one", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/api/asignaciones", token, body(n.ID, vol2.ID))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		unmarshal(t, rec, &second)

		prev, err := app.asignacionRepo.GetAsignacion(context.Background(), first.ID)
		require.NoError(t, err)
		assert.False(t, prev.Activa)
		assert.True(t, prev.FechaFin.Valid)

		active := true
		list, err := app.asignacionRepo.QueryAsignaciones(context.Background(), &asignacion.QueryFilter{NinoID: n.ID, Activa: &active}, nil)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, second.ID, list[0].ID)

		// the previous voluntario no longer sees the child
		rec = app.do(t, http.MethodGet, "/api/ninos/"+n.ID, getToken(t, vol1))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		rec = app.do(t, http.MethodGet, "/api/ninos/"+n.ID, getToken(t, vol2))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("query", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, "/api/asignaciones?voluntario_id="+vol1.ID, getToken(t, vol2))
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = app.do(t, http.MethodGet, "/api/asignaciones", getToken(t, vol2))
		require.Equal(t, http.StatusOK, rec.Code)
		var own []asignacion.Asignacion
		unmarshal(t, rec, &own)
		require.Len(t, own, 1)
		assert.Equal(t, second.ID, own[0].ID)

		rec = app.do(t, http.MethodGet, "/api/asignaciones?nino_id="+n.ID, token)
		require.Equal(t, http.StatusOK, rec.Code)
		var all []asignacion.Asignacion
		unmarshal(t, rec, &all)
		assert.Len(t, all, 2)
	})

	t.Run("finalize", func(t *testing.T) {
		path := "/api/asignaciones/" + second.ID + "/finalizar"

		rec := app.do(t, http.MethodPost, path, getToken(t, vol2))
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = app.do(t, http.MethodPost, path, token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var a asignacion.Asignacion
		unmarshal(t, rec, &a)
		assert.False(t, a.Activa)
		assert.True(t, a.FechaFin.Valid)

		app.run(t, []httpTest{
			{
				name: "twice", method: http.MethodPost, path: path, token: token,
				wantCode: http.StatusBadRequest, wantData: marshalObj(t, httpErr{Error: "asignación already finished"}),
			},
			{
				name: "unknown", method: http.MethodPost, path: "/api/asignaciones/lol/finalizar", token: token,
				wantCode: http.StatusNotFound, wantData: marshalObj(t, httpErr{Error: "asignación not found"}),
			},
		})
	})
}
