package echoapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plataforma-apa/apa/core/autoevaluacion"
	"github.com/plataforma-apa/apa/core/perfil"
	"github.com/plataforma-apa/apa/tests"
)

func Test_autoevaluacionApi(t *testing.T) {
	app := setup(t)

	psico := testutil.CreatePerfil(t, app.perfilRepo, "Psico", "psico@apa.test", perfil.RolePsicopedagogia, true)
	vol1 := testutil.CreatePerfil(t, app.perfilRepo, "Ana", "ana@apa.test", perfil.RoleVoluntario, true)
	vol2 := testutil.CreatePerfil(t, app.perfilRepo, "Beto", "beto@apa.test", perfil.RoleVoluntario, true)
	staffToken := getToken(t, psico)
	vol1Token := getToken(t, vol1)

	const preguntas = `[
		{"id":"animo","texto":"¿Cómo te sentiste?","tipo":"escala","requerida":true},
		{"id":"momento","texto":"Momento del día","tipo":"Opcion","opciones":["mañana","tarde"]},
		{"id":"notas","texto":"Comentarios","tipo":"texto"}
	]`

	app.run(t, []httpTest{
		{
			name: "staff only", method: http.MethodPost, path: "/api/autoevaluaciones/plantillas", token: vol1Token,
			body: []byte(`{"titulo":"Semanal","preguntas":` + preguntas + `}`), wantCode: http.StatusForbidden,
		},
		{
			name: "preguntas required", method: http.MethodPost, path: "/api/autoevaluaciones/plantillas", token: staffToken,
			body: []byte(`{"titulo":"Semanal"}`), wantCode: http.StatusBadRequest, wantData: []byte(`{"preguntas":"this field is required"}`),
		},
		{
			name: "unknown tipo", method: http.MethodPost, path: "/api/autoevaluaciones/plantillas", token: staffToken,
			body: []byte(`{"titulo":"Semanal","preguntas":[{"id":"a","texto":"A","tipo":"lol"}]}`), wantCode: http.StatusBadRequest,
		},
		{
			name: "duplicate ids", method: http.MethodPost, path: "/api/autoevaluaciones/plantillas", token: staffToken,
			body:     []byte(`{"titulo":"Semanal","preguntas":[{"id":"a","texto":"A","tipo":"texto"},{"id":"a","texto":"B","tipo":"texto"}]}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"preguntas":"duplicate question id a"}`),
		},
		{
			name: "opcion without opciones", method: http.MethodPost, path: "/api/autoevaluaciones/plantillas", token: staffToken,
			body:     []byte(`{"titulo":"Semanal","preguntas":[{"id":"a","texto":"A","tipo":"opcion"}]}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"preguntas":"question a requires opciones"}`),
		},
	})

	rec := app.do(t, http.MethodPost, "/api/autoevaluaciones/plantillas", staffToken, []byte(`{"titulo":"Semanal","preguntas":`+preguntas+`}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var p autoevaluacion.Plantilla
	unmarshal(t, rec, &p)
	require.Len(t, p.Preguntas, 3)
	assert.Equal(t, autoevaluacion.TipoOpcion, p.Preguntas[1].Tipo)
	assert.True(t, p.Activa)

	rec = app.do(t, http.MethodPost, "/api/autoevaluaciones/plantillas", staffToken, []byte(`{"titulo":"Anterior","preguntas":[{"id":"a","texto":"A","tipo":"texto"}],"activa":false}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var old autoevaluacion.Plantilla
	unmarshal(t, rec, &old)
	assert.False(t, old.Activa)

	respuestasPath := "/api/autoevaluaciones/plantillas/" + p.ID + "/respuestas"
	app.run(t, []httpTest{
		{name: "voluntarios only see active plantillas", path: "/api/autoevaluaciones/plantillas", token: vol1Token, wantData: marshalList(t, p)},
		{
			name: "inactive hidden", path: "/api/autoevaluaciones/plantillas/" + old.ID, token: vol1Token,
			wantCode: http.StatusNotFound, wantData: marshalObj(t, httpErr{Error: "plantilla not found"}),
		},
		{
			name: "respuestas required", method: http.MethodPost, path: respuestasPath, token: vol1Token,
			body: []byte(`{}`), wantCode: http.StatusBadRequest, wantData: []byte(`{"respuestas":"this field is required"}`),
		},
		{
			name: "missing required answer", method: http.MethodPost, path: respuestasPath, token: vol1Token,
			body: []byte(`{"respuestas":{"notas":"bien"}}`), wantCode: http.StatusBadRequest,
		},
		{
			name: "escala out of range", method: http.MethodPost, path: respuestasPath, token: vol1Token,
			body: []byte(`{"respuestas":{"animo":7}}`), wantCode: http.StatusBadRequest,
		},
		{
			name: "unknown opcion", method: http.MethodPost, path: respuestasPath, token: vol1Token,
			body: []byte(`{"respuestas":{"animo":4,"momento":"noche"}}`), wantCode: http.StatusBadRequest,
		},
		{
			name: "unknown question", method: http.MethodPost, path: respuestasPath, token: vol1Token,
			body: []byte(`{"respuestas":{"animo":4,"lol":"x"}}`), wantCode: http.StatusBadRequest,
		},
		{
			name: "staff cannot answer", method: http.MethodPost, path: respuestasPath, token: staffToken,
			body: []byte(`{"respuestas":{"animo":4}}`), wantCode: http.StatusForbidden,
		},
	})

	t.Run("responder", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, respuestasPath, vol1Token, []byte(`{"respuestas":{"animo":4,"momento":"tarde","notas":"Muy bien"}}`))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var r autoevaluacion.Respuesta
		unmarshal(t, rec, &r)
		assert.Equal(t, p.ID, r.PlantillaID)
		assert.Equal(t, vol1.ID, r.VoluntarioID)
		assert.Equal(t, "tarde", r.Respuestas["momento"])

		rec = app.do(t, http.MethodPost, respuestasPath, getToken(t, vol2), []byte(`{"respuestas":{"animo":2}}`))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		count := func(token, path string) int {
			rec := app.do(t, http.MethodGet, path, token)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			var list []autoevaluacion.Respuesta
			unmarshal(t, rec, &list)
			return len(list)
		}
		assert.Equal(t, 2, count(staffToken, "/api/autoevaluaciones/respuestas?plantilla_id="+p.ID))
		assert.Equal(t, 1, count(staffToken, "/api/autoevaluaciones/respuestas?voluntario_id="+vol2.ID))
		assert.Equal(t, 1, count(vol1Token, "/api/autoevaluaciones/respuestas"))
		assert.Equal(t, 1, count(vol1Token, "/api/autoevaluaciones/respuestas?voluntario_id="+vol2.ID))
	})

	t.Run("deactivate", func(t *testing.T) {
		rec := app.do(t, http.MethodDelete, "/api/autoevaluaciones/plantillas/"+p.ID, staffToken)
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

		rec = app.do(t, http.MethodPost, respuestasPath, vol1Token, []byte(`{"respuestas":{"animo":4}}`))
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = app.do(t, http.MethodGet, "/api/autoevaluaciones/plantillas/"+p.ID, staffToken)
		require.Equal(t, http.StatusOK, rec.Code)
		var got autoevaluacion.Plantilla
		unmarshal(t, rec, &got)
		assert.False(t, got.Activa)
	})
}
