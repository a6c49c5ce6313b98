package main

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	_ "net/http/pprof"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	echoapi "github.com/plataforma-apa/apa/apps/api/echo"
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
	emailsvc "github.com/plataforma-apa/apa/services/email"
	"github.com/plataforma-apa/apa/services/filestore"
	"github.com/plataforma-apa/apa/services/gemini"
	logsvc "github.com/plataforma-apa/apa/services/logger"
	"github.com/plataforma-apa/apa/services/supabase"
	"github.com/plataforma-apa/apa/storage/database"
	sqlxrepos "github.com/plataforma-apa/apa/storage/database/sqlx"
)

// TODO:
// - APM/Tracing
// - rate limit the AI endpoints (informes, biblioteca/preguntar)
func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()
	ctx := context.Background()

	// set up loggers
	entry := logsvc.NewLogrusEntry(conf)
	logger := logsvc.NewRollbarLogger(entry.WithField("component", "API"), conf)
	logger.Enable(!conf.Debug)
	dbLogger := logger.With(logrus.Fields{"component": "DB"})

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()

	// set up external services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	store, err := filestore.New(ctx, conf.Storage)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up file storage: %v", err), err)
	}

	ai, err := gemini.NewClient(ctx, conf.AI)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up gemini: %v", err), err)
	}

	auth := supabase.NewClient(conf.Supabase, nil)

	// set up core services
	perfilSvc := perfil.NewService(sqlxrepos.NewPerfilRepository(db), auth, mailSvc, logger, conf.FrontendBaseURL)
	ninoSvc := nino.NewService(sqlxrepos.NewNinoRepository(db), store, logger)
	evaluacionSvc := expediente.NewService[expediente.EvaluacionInicial](sqlxrepos.NewEvaluacionInicialRepository(db), ninoSvc)
	planSvc := expediente.NewService[expediente.PlanIntervencion](sqlxrepos.NewPlanIntervencionRepository(db), ninoSvc)
	entrevistaSvc := expediente.NewService[expediente.EntrevistaFamiliar](sqlxrepos.NewEntrevistaFamiliarRepository(db), ninoSvc)
	sesionSvc := sesion.NewService(sqlxrepos.NewSesionRepository(db), ninoSvc, logger)
	bibliotecaSvc := biblioteca.NewService(sqlxrepos.NewBibliotecaRepository(db), store, ai, ai, logger, biblioteca.Options{
		ChunkSize:     conf.RAG.ChunkSize,
		ChunkOverlap:  conf.RAG.ChunkOverlap,
		MatchCount:    conf.RAG.MatchCount,
		MinSimilarity: conf.RAG.MinSimilarity,
		EmbeddingDims: conf.AI.EmbeddingDims,
	})

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	perfil.InitValidators(validate, translator)

	core.ParseEmailTemplates(conf, logger)

	perfil.LoadCommonPasswords(logger)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("storage").Set(conf.Storage.Driver)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugAddress, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	deps := echoapi.ServerDeps{
		Conf:              conf,
		Logger:            logger,
		Validate:          validate,
		Translator:        translator,
		PerfilSvc:         perfilSvc,
		ZonaSvc:           zona.NewService(sqlxrepos.NewZonaRepository(db)),
		NinoSvc:           ninoSvc,
		AsignacionSvc:     asignacion.NewService(sqlxrepos.NewAsignacionRepository(db), ninoSvc, perfilSvc, mailSvc, conf.FrontendBaseURL),
		MatchingSvc:       matching.NewService(sqlxrepos.NewMatchingRepository(db), ninoSvc),
		CapacitacionSvc:   capacitacion.NewService(sqlxrepos.NewCapacitacionRepository(db)),
		AutoevaluacionSvc: autoevaluacion.NewService(sqlxrepos.NewAutoevaluacionRepository(db)),
		EvaluacionSvc:     evaluacionSvc,
		PlanSvc:           planSvc,
		EntrevistaSvc:     entrevistaSvc,
		SesionSvc:         sesionSvc,
		BibliotecaSvc:     bibliotecaSvc,
		InformeSvc:        informe.NewService(ninoSvc, evaluacionSvc, planSvc, entrevistaSvc, sesionSvc, ai),
		DashboardSvc:      dashboard.NewService(sqlxrepos.NewDashboardRepository(db)),
	}
	if local, ok := store.(*filestore.LocalStore); ok {
		deps.LocalFiles = local
	}
	server := echoapi.NewServer(deps)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(ctx, conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if conf.Debug {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db.DB); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
