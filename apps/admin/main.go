package main

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/plataforma-apa/apa/core"
	"github.com/plataforma-apa/apa/core/autoevaluacion"
	"github.com/plataforma-apa/apa/core/capacitacion"
	"github.com/plataforma-apa/apa/core/perfil"
	"github.com/plataforma-apa/apa/core/zona"
	emailsvc "github.com/plataforma-apa/apa/services/email"
	logsvc "github.com/plataforma-apa/apa/services/logger"
	"github.com/plataforma-apa/apa/services/supabase"
	"github.com/plataforma-apa/apa/storage/database"
	sqlxrepos "github.com/plataforma-apa/apa/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(logsvc.NewLogrusEntry(conf), conf).With(logrus.Fields{"component": "ADMIN"})
	logger.Enable(!conf.Debug)

	// set up DB
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	perfil.InitValidators(validate, translator)
	core.ParseEmailTemplates(conf, logger)
	perfil.LoadCommonPasswords(logger)

	// start CLI
	cli := commandLine{
		db: db.DB,
		perfilSvc: perfil.NewService(
			sqlxrepos.NewPerfilRepository(db), supabase.NewClient(conf.Supabase, nil), mailSvc, logger, conf.FrontendBaseURL,
		),
		zonaSvc:    zona.NewService(sqlxrepos.NewZonaRepository(db)),
		capSvc:     capacitacion.NewService(sqlxrepos.NewCapacitacionRepository(db)),
		autoSvc:    autoevaluacion.NewService(sqlxrepos.NewAutoevaluacionRepository(db)),
		validate:   validate,
		translator: translator,
		out:        os.Stdout,
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %v", err), err)
		}
		os.Exit(1)
	}
}
