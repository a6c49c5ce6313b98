package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/plataforma-apa/apa/core"
	"github.com/plataforma-apa/apa/core/nino"
	"github.com/plataforma-apa/apa/core/perfil"
	"github.com/plataforma-apa/apa/core/sesion"
	emailsvc "github.com/plataforma-apa/apa/services/email"
	"github.com/plataforma-apa/apa/services/filestore"
	inmemdb "github.com/plataforma-apa/apa/storage/database/inmem"
)

func TestNopLogger_ServiceConstructors(t *testing.T) {
	logger := &NopLogger{}
	db := inmemdb.Open()
	store, err := filestore.NewLocalStore(t.TempDir())
	assert.NoError(t, err)

	assert.NotPanics(t, func() {
		mailSvc := emailsvc.NewConsoleServiceMock(&core.Config{AppName: "APA"}, logger)
		perfil.NewService(inmemdb.NewPerfilRepository(db), NewAuthProviderMock(), mailSvc, logger, "")
		ninoSvc := nino.NewService(inmemdb.NewNinoRepository(db), store, logger)
		sesion.NewService(inmemdb.NewSesionRepository(db), ninoSvc, logger)
	})
}
