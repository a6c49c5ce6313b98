package echoapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plataforma-apa/apa/core/perfil"
	"github.com/plataforma-apa/apa/core/zona"
	"github.com/plataforma-apa/apa/tests"
)

func Test_zonaApi(t *testing.T) {
	app := setup(t)

	admin := testutil.CreatePerfil(t, app.perfilRepo, "Admin", "admin@apa.test", perfil.RoleAdmin, true)
	vol := testutil.CreatePerfil(t, app.perfilRepo, "Ana", "ana@apa.test", perfil.RoleVoluntario, true)
	norte := testutil.CreateZona(t, app.zonaRepo, "Norte")
	sur := testutil.CreateZona(t, app.zonaRepo, "Sur")
	testutil.CreateNino(t, app.ninoRepo, "Luz", "Acosta", sur.ID, true)

	adminToken := getToken(t, admin)
	volToken := getToken(t, vol)

	app.run(t, []httpTest{
		{name: "any perfil lists", path: "/api/zonas", token: volToken, wantData: marshalList(t, norte, sur)},
		{name: "retrieve", path: "/api/zonas/" + norte.ID, token: volToken, wantData: marshalObj(t, norte)},
		{
			name: "unknown", path: "/api/zonas/lol", token: volToken,
			wantCode: http.StatusNotFound, wantData: marshalObj(t, httpErr{Error: "zona not found"}),
		},
		{
			name: "admin only", method: http.MethodPost, path: "/api/zonas", token: volToken,
			body: []byte(`{"nombre":"Este"}`), wantCode: http.StatusForbidden,
		},
		{
			name: "nombre required", method: http.MethodPost, path: "/api/zonas", token: adminToken,
			body: []byte(`{"descripcion":"lol"}`), wantCode: http.StatusBadRequest,
			wantData: []byte(`{"nombre":"this field is required"}`),
		},
		{
			name: "nombre exists", method: http.MethodPost, path: "/api/zonas", token: adminToken,
			body: []byte(`{"nombre":"NORTE"}`), wantCode: http.StatusBadRequest,
			wantData: []byte(`{"nombre":"a zona with this name already exists"}`),
		},
		{
			name: "rename to an existing nombre", method: http.MethodPut, path: "/api/zonas/" + norte.ID, token: adminToken,
			body: []byte(`{"nombre":"sur"}`), wantCode: http.StatusBadRequest,
			wantData: []byte(`{"nombre":"a zona with this name already exists"}`),
		},
		{
			name: "in use", method: http.MethodDelete, path: "/api/zonas/" + sur.ID, token: adminToken,
			wantCode: http.StatusBadRequest, wantData: marshalObj(t, httpErr{Error: "zona is referenced by children or profiles"}),
		},
		{name: "delete", method: http.MethodDelete, path: "/api/zonas/" + norte.ID, token: adminToken, wantCode: http.StatusNoContent},
		{name: "deleted", path: "/api/zonas", token: volToken, wantData: marshalList(t, sur)},
	})

	t.Run("create & update", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/api/zonas", adminToken, []byte(`{"nombre":"  Este ","descripcion":"Barrio Este"}`))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var z zona.Zona
		unmarshal(t, rec, &z)
		assert.Equal(t, "Este", z.Nombre)
		assert.Equal(t, "Barrio Este", z.Descripcion.String)

		// keeping its own nombre is fine
		rec = app.do(t, http.MethodPut, "/api/zonas/"+z.ID, adminToken, []byte(`{"nombre":"Este"}`))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		unmarshal(t, rec, &z)
		assert.False(t, z.Descripcion.Valid)
	})
}
