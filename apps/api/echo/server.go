package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

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
)

type (
	// LocalFiles resolves a locally stored file to its path on disk.
	LocalFiles interface {
		Path(id string) (string, error)
	}

	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator

		PerfilSvc         *perfil.Service
		ZonaSvc           *zona.Service
		NinoSvc           *nino.Service
		AsignacionSvc     *asignacion.Service
		MatchingSvc       *matching.Service
		CapacitacionSvc   *capacitacion.Service
		AutoevaluacionSvc *autoevaluacion.Service
		EvaluacionSvc     *expediente.Service[expediente.EvaluacionInicial]
		PlanSvc           *expediente.Service[expediente.PlanIntervencion]
		EntrevistaSvc     *expediente.Service[expediente.EntrevistaFamiliar]
		SesionSvc         *sesion.Service
		BibliotecaSvc     *biblioteca.Service
		InformeSvc        *informe.Service
		DashboardSvc      *dashboard.Service

		// LocalFiles is set when files are stored on the local disk; they are then served under /api/archivos.
		LocalFiles LocalFiles
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	vala.BeginValidation().Validate(
		vala.IsNotNil(deps.Conf, "conf"),
		vala.IsNotNil(deps.Logger, "logger"),
		vala.IsNotNil(deps.Validate, "validate"),
		vala.IsNotNil(deps.Translator, "translator"),
		vala.IsNotNil(deps.PerfilSvc, "perfilSvc"),
	).CheckAndPanic()

	s := &Server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Debug = conf.Debug
	s.app.JSONSerializer = jsonSerializer{}
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)

	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.RequestID())
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{conf.FrontendBaseURL},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	api := s.app.Group("/api")
	api.GET("/health", s.health)

	jwt := middleware.JWTWithConfig(newJWTConfig(conf.Supabase))
	authed := api.Group("", jwt, perfilMiddleware(s.deps.PerfilSvc))

	registerAuthAPI(api, authed, s.deps.PerfilSvc, s.deps.Validate)
	registerPerfilAPI(authed, s.deps.PerfilSvc, s.deps.Validate)
	registerZonaAPI(authed, s.deps.ZonaSvc, s.deps.Validate)
	registerNinoAPI(authed, s.deps.NinoSvc, s.deps.Validate, conf.Server.MaxUploadSize)
	registerAsignacionAPI(authed, s.deps.AsignacionSvc, s.deps.Validate)
	registerMatchingAPI(authed, s.deps.MatchingSvc)
	registerCapacitacionAPI(authed, s.deps.CapacitacionSvc, s.deps.Validate)
	registerAutoevaluacionAPI(authed, s.deps.AutoevaluacionSvc, s.deps.Validate)
	registerExpedienteAPI(authed, s.deps.NinoSvc, s.deps.EvaluacionSvc, s.deps.PlanSvc, s.deps.EntrevistaSvc, s.deps.Validate)
	registerSesionAPI(authed, s.deps.SesionSvc, s.deps.Validate)
	registerBibliotecaAPI(authed, s.deps.BibliotecaSvc, s.deps.Validate, conf.Server.MaxUploadSize)
	registerInformeAPI(authed, s.deps.InformeSvc, s.deps.Validate)
	registerDashboardAPI(authed, s.deps.DashboardSvc)
	if s.deps.LocalFiles != nil {
		registerArchivoAPI(authed, s.deps.LocalFiles)
	}
}

func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

// Errors receives the error that stopped the server, if any.
func (s *Server) Errors() <-chan error {
	return s.errors
}

// ShutdownSignal receives SIGINT/SIGTERM and internal shutdown requests.
func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"status": "ok", "build": s.deps.Conf.Build})
}
