package echoapi

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"reflect"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plataforma-apa/apa/core"
	"github.com/plataforma-apa/apa/core/asignacion"
	"github.com/plataforma-apa/apa/core/autoevaluacion"
	"github.com/plataforma-apa/apa/core/biblioteca"
	"github.com/plataforma-apa/apa/core/capacitacion"
	"github.com/plataforma-apa/apa/core/dashboard"
	"github.com/plataforma-apa/apa/core/expediente"
	"github.com/plataforma-apa/apa/core/informe"
	"github.com/plataforma-apa/apa/core/matching"
	"github.com/plataforma-apa/apa/core/nino"
	"github.com/plataforma-apa/apa/core/perfil"
	"github.com/plataforma-apa/apa/core/sesion"
	"github.com/plataforma-apa/apa/core/zona"
	"github.com/plataforma-apa/apa/services/email"
	"github.com/plataforma-apa/apa/services/filestore"
	"github.com/plataforma-apa/apa/storage/database/inmem"
	"github.com/plataforma-apa/apa/tests"
)

const (
	testJWTSecret = "super-secret-jwt-token-with-at-least-32-characters"
	testAudience  = "authenticated"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type sentMessages interface {
	SentMessages() []core.EmailMessage
}

type testApp struct {
	srv  *Server
	conf *core.Config

	perfilRepo     perfil.Repository
	zonaRepo       zona.Repository
	ninoRepo       nino.Repository
	asignacionRepo asignacion.Repository
	capRepo        capacitacion.Repository

	auth *testutil.AuthProviderMock
	ai   *testutil.AIMock
	mail sentMessages
}

func setup(t *testing.T) *testApp {
	conf := &core.Config{
		TestMode:        true,
		Build:           "test",
		AppName:         "APA",
		FrontendBaseURL: "http://localhost:3000",
		Server:          core.ServerConfig{MaxUploadSize: 1 << 20},
		Supabase:        core.SupabaseConfig{JWTSecret: testJWTSecret, JWTAudience: testAudience},
		RAG:             core.RAGConfig{ChunkSize: 200, ChunkOverlap: 20, MatchCount: 5, MinSimilarity: 0.3},
	}
	logger := &testutil.NopLogger{}

	// validators
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	perfil.InitValidators(validate, translator)

	// DB & repos
	db := inmemdb.Open()
	perfilRepo := inmemdb.NewPerfilRepository(db)
	zonaRepo := inmemdb.NewZonaRepository(db)
	ninoRepo := inmemdb.NewNinoRepository(db)
	asignacionRepo := inmemdb.NewAsignacionRepository(db)
	capRepo := inmemdb.NewCapacitacionRepository(db)

	// collaborators
	auth := testutil.NewAuthProviderMock()
	ai := &testutil.AIMock{Dims: 64, Answer: "Respuesta generada."}
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	store, err := filestore.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	// services
	perfilSvc := perfil.NewService(perfilRepo, auth, mailSvc, logger, conf.FrontendBaseURL)
	ninoSvc := nino.NewService(ninoRepo, store, logger)
	evaluacionSvc := expediente.NewService[expediente.EvaluacionInicial](inmemdb.NewEvaluacionInicialRepository(db), ninoSvc)
	planSvc := expediente.NewService[expediente.PlanIntervencion](inmemdb.NewPlanIntervencionRepository(db), ninoSvc)
	entrevistaSvc := expediente.NewService[expediente.EntrevistaFamiliar](inmemdb.NewEntrevistaFamiliarRepository(db), ninoSvc)
	sesionSvc := sesion.NewService(inmemdb.NewSesionRepository(db), ninoSvc, logger)

	srv := NewServer(ServerDeps{
		Conf:              conf,
		Logger:            logger,
		Validate:          validate,
		Translator:        translator,
		PerfilSvc:         perfilSvc,
		ZonaSvc:           zona.NewService(zonaRepo),
		NinoSvc:           ninoSvc,
		AsignacionSvc:     asignacion.NewService(asignacionRepo, ninoSvc, perfilSvc, mailSvc, conf.FrontendBaseURL),
		MatchingSvc:       matching.NewService(inmemdb.NewMatchingRepository(db), ninoSvc),
		CapacitacionSvc:   capacitacion.NewService(capRepo),
		AutoevaluacionSvc: autoevaluacion.NewService(inmemdb.NewAutoevaluacionRepository(db)),
		EvaluacionSvc:     evaluacionSvc,
		PlanSvc:           planSvc,
		EntrevistaSvc:     entrevistaSvc,
		SesionSvc:         sesionSvc,
		BibliotecaSvc: biblioteca.NewService(inmemdb.NewBibliotecaRepository(db), store, ai, ai, logger, biblioteca.Options{
			ChunkSize:     conf.RAG.ChunkSize,
			ChunkOverlap:  conf.RAG.ChunkOverlap,
			MatchCount:    conf.RAG.MatchCount,
			MinSimilarity: conf.RAG.MinSimilarity,
			EmbeddingDims: ai.Dims,
		}),
		InformeSvc:   informe.NewService(ninoSvc, evaluacionSvc, planSvc, entrevistaSvc, sesionSvc, ai),
		DashboardSvc: dashboard.NewService(inmemdb.NewDashboardRepository(db)),
		LocalFiles:   store,
	})
	t.Cleanup(func() { _ = srv.Close() })

	return &testApp{
		srv:            srv,
		conf:           conf,
		perfilRepo:     perfilRepo,
		zonaRepo:       zonaRepo,
		ninoRepo:       ninoRepo,
		asignacionRepo: asignacionRepo,
		capRepo:        capRepo,
		auth:           auth,
		ai:             ai,
		mail:           mailSvc,
	}
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func (app *testApp) do(t *testing.T, method, path, token string, data ...[]byte) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(method, path, token, data...)
	app.srv.ServeHTTP(rec, req)
	return rec
}

func (app *testApp) upload(t *testing.T, path, token, filename, contentType string, content []byte, fields map[string]string) *httptest.ResponseRecorder {
	req, rec := newUploadRequest(t, path, token, filename, contentType, content, fields)
	app.srv.ServeHTTP(rec, req)
	return rec
}

func (app *testApp) run(t *testing.T, tests []httpTest) {
	for _, tt := range tests {
		if tt.method == "" {
			tt.method = http.MethodGet
		}
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(t, tt.method, tt.path, tt.token, tt.body)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

// newUploadRequest builds a multipart request carrying `content` as the "file" field.
func newUploadRequest(t *testing.T, path, token, filename, contentType string, content []byte, fields map[string]string) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req, httptest.NewRecorder()
}

func signToken(t *testing.T, claims *Claims, secret string) string {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("signToken() failed: %v", err)
	}
	return token
}

func getToken(t *testing.T, p perfil.Perfil) string {
	now := time.Now()
	return signToken(t, &Claims{
		StandardClaims: jwt.StandardClaims{
			Subject:   p.ID,
			Audience:  testAudience,
			ExpiresAt: now.Add(time.Hour).Unix(),
			IssuedAt:  now.Unix(),
		},
		Email: p.Email,
		Role:  "authenticated",
	}, testJWTSecret)
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshalObj() failed: %v", err)
	}
	return data
}

func marshalList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marshalList() failed: %v", err)
	}
	return data
}

func unmarshal(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), dest); err != nil {
		t.Fatalf("unmarshal(%s) failed: %v", rec.Body.String(), err)
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	assert.Equal(t, tt.wantCode, rec.Code, "code; body: %s", rec.Body.String())
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
