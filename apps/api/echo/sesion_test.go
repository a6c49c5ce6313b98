package echoapi

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plataforma-apa/apa/core/perfil"
	"github.com/plataforma-apa/apa/core/sesion"
	"github.com/plataforma-apa/apa/tests"
)

func Test_sesionApi(t *testing.T) {
	app := setup(t)

	psico := testutil.CreatePerfil(t, app.perfilRepo, "Psico", "psico@apa.test", perfil.RolePsicopedagogia, true)
	vol1 := testutil.CreatePerfil(t, app.perfilRepo, "Ana", "ana@apa.test", perfil.RoleVoluntario, true)
	vol2 := testutil.CreatePerfil(t, app.perfilRepo, "Beto", "beto@apa.test", perfil.RoleVoluntario, true)
	n1 := testutil.CreateNino(t, app.ninoRepo, "Luz", "Acosta", "", true)
	n2 := testutil.CreateNino(t, app.ninoRepo, "Juan", "Benítez", "", true)
	testutil.Assign(t, app.asignacionRepo, n1, vol1)
	testutil.Assign(t, app.asignacionRepo, n2, vol2)

	volToken := getToken(t, vol1)
	staffToken := getToken(t, psico)

	const (
		id1 = "0b9f2a54-3d7c-4c8e-9a51-2f6f0e1a7b01"
		id2 = "0b9f2a54-3d7c-4c8e-9a51-2f6f0e1a7b02"
		id3 = "0b9f2a54-3d7c-4c8e-9a51-2f6f0e1a7b03"
	)
	day := func(d int) time.Time { return time.Date(2024, time.March, d, 15, 0, 0, 0, time.UTC) }
	input := func(id, ninoID string, fecha time.Time) sesion.SesionInput {
		return sesion.SesionInput{ID: id, NinoID: ninoID, Fecha: fecha, DuracionMinutos: 60, Actividades: "Lectura compartida"}
	}

	app.run(t, []httpTest{
		{
			name: "required fields", method: http.MethodPost, path: "/api/sesiones", token: volToken, body: []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"nino_id":"this field is required","fecha":"this field is required","duracion_minutos":"this field is required","actividades":"this field is required"}`),
		},
		{
			name: "child not assigned", method: http.MethodPost, path: "/api/sesiones", token: volToken,
			body: marshalObj(t, input("", n2.ID, day(1))), wantCode: http.StatusBadRequest,
			wantData: []byte(`{"nino_id":"niño is not assigned to this voluntario"}`),
		},
		{
			name: "for another voluntario", method: http.MethodPost, path: "/api/sesiones", token: volToken,
			body:     []byte(fmt.Sprintf(`{"nino_id":%q,"voluntario_id":%q,"fecha":"2024-03-01T15:00:00Z","duracion_minutos":30,"actividades":"x"}`, n1.ID, vol2.ID)),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"voluntario_id":"cannot record sessions for another voluntario"}`),
		},
		{
			name: "staff must name the voluntario", method: http.MethodPost, path: "/api/sesiones", token: staffToken,
			body: marshalObj(t, input("", n1.ID, day(1))), wantCode: http.StatusBadRequest,
			wantData: []byte(`{"voluntario_id":"voluntario_id is required"}`),
		},
	})

	var s1 sesion.Sesion
	t.Run("create & replay", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/api/sesiones", volToken, marshalObj(t, input(id1, n1.ID, day(1))))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		unmarshal(t, rec, &s1)
		assert.Equal(t, id1, s1.ID)
		assert.Equal(t, vol1.ID, s1.VoluntarioID)
		assert.True(t, day(1).Equal(s1.Fecha))

		// replayed by the offline queue
		rec = app.do(t, http.MethodPost, "/api/sesiones", volToken, marshalObj(t, input(id1, n1.ID, day(1))))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var replayed sesion.Sesion
		unmarshal(t, rec, &replayed)
		assert.Equal(t, s1.ID, replayed.ID)
		assert.True(t, s1.CreatedAt.Equal(replayed.CreatedAt))
	})

	t.Run("sync", func(t *testing.T) {
		items := []sesion.SesionInput{
			input(id1, n1.ID, day(1)), // already stored
			input(id2, n1.ID, day(5)),
			input(id3, n2.ID, day(6)), // not assigned
			input("", n1.ID, day(7)),  // no client id
		}
		rec := app.do(t, http.MethodPost, "/api/sesiones/sync", volToken, marshalObj(t, sesion.SyncRequest{Sesiones: items}))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var res struct {
			Resultados []sesion.SyncResult `json:"resultados"`
		}
		unmarshal(t, rec, &res)
		require.Len(t, res.Resultados, 4)
		assert.Equal(t, sesion.SyncResult{ID: id1, Estado: sesion.EstadoDuplicada}, res.Resultados[0])
		assert.Equal(t, sesion.SyncResult{ID: id2, Estado: sesion.EstadoCreada}, res.Resultados[1])
		assert.Equal(t, sesion.SyncResult{ID: id3, Estado: sesion.EstadoError, Error: "niño is not assigned to this voluntario"}, res.Resultados[2])
		assert.Equal(t, sesion.EstadoError, res.Resultados[3].Estado)
	})

	t.Run("id owned by another sesión", func(t *testing.T) {
		vol2Token := getToken(t, vol2)
		tests := []struct {
			name  string
			token string
			in    sesion.SesionInput
		}{
			{name: "other voluntario", token: vol2Token, in: input(id1, n2.ID, day(2))},
			{name: "same voluntario, other child", token: staffToken, in: func() sesion.SesionInput {
				in := input(id1, n2.ID, day(2))
				in.VoluntarioID = vol1.ID
				return in
			}()},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				rec := app.do(t, http.MethodPost, "/api/sesiones", tt.token, marshalObj(t, tt.in))
				require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
				assert.JSONEq(t, `{"id":"id already belongs to another sesión"}`, rec.Body.String())
				assert.NotContains(t, rec.Body.String(), s1.Actividades)

				rec = app.do(t, http.MethodPost, "/api/sesiones/sync", tt.token, marshalObj(t, sesion.SyncRequest{Sesiones: []sesion.SesionInput{tt.in}}))
				require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
				var res struct {
					Resultados []sesion.SyncResult `json:"resultados"`
				}
				unmarshal(t, rec, &res)
				assert.Equal(t, []sesion.SyncResult{{ID: id1, Estado: sesion.EstadoError, Error: "id already belongs to another sesión"}}, res.Resultados)
			})
		}

		// the owner can still replay it
		rec := app.do(t, http.MethodPost, "/api/sesiones", volToken, marshalObj(t, input(id1, n1.ID, day(1))))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	t.Run("staff records for a voluntario", func(t *testing.T) {
		in := input("", n2.ID, day(10))
		in.VoluntarioID = vol2.ID
		rec := app.do(t, http.MethodPost, "/api/sesiones", staffToken, marshalObj(t, in))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	})

	ids := func(t *testing.T, token, path string) []string {
		rec := app.do(t, http.MethodGet, path, token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var list []sesion.Sesion
		unmarshal(t, rec, &list)
		res := make([]string, len(list))
		for i, s := range list {
			res[i] = s.ID
		}
		return res
	}

	t.Run("query", func(t *testing.T) {
		assert.Equal(t, []string{id2, id1}, ids(t, volToken, "/api/sesiones"))
		assert.Equal(t, []string{id2}, ids(t, volToken, "/api/sesiones?limite=1"))
		assert.Equal(t, []string{id2}, ids(t, volToken, "/api/sesiones?desde=2024-03-02"))
		assert.Equal(t, []string{id1}, ids(t, volToken, "/api/sesiones?hasta=2024-03-01"))
		assert.Len(t, ids(t, staffToken, "/api/sesiones"), 3)
		assert.Len(t, ids(t, staffToken, "/api/sesiones?nino_id="+n2.ID), 1)

		app.run(t, []httpTest{
			{
				name: "other voluntario", path: "/api/sesiones?voluntario_id=" + vol2.ID, token: volToken,
				wantCode: http.StatusForbidden,
			},
			{
				name: "invalid date", path: "/api/sesiones?desde=01-03-2024", token: volToken, wantCode: http.StatusBadRequest,
			},
			{
				name: "invalid limit", path: "/api/sesiones?limite=-1", token: volToken,
				wantCode: http.StatusBadRequest, wantData: []byte(`{"limite":"must be a positive integer"}`),
			},
		})
	})

	t.Run("retrieve", func(t *testing.T) {
		app.run(t, []httpTest{
			{name: "own", path: "/api/sesiones/" + id1, token: volToken, wantData: marshalObj(t, s1)},
			{name: "staff", path: "/api/sesiones/" + id1, token: staffToken, wantData: marshalObj(t, s1)},
			{name: "other voluntario", path: "/api/sesiones/" + id1, token: getToken(t, vol2), wantCode: http.StatusNotFound},
			{name: "unknown", path: "/api/sesiones/lol", token: staffToken, wantCode: http.StatusNotFound},
		})
	})
}
