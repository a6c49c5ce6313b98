package emailsvc

import (
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plataforma-apa/apa/core"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func TestConsoleService_SendMessages(t *testing.T) {
	conf := &core.Config{AppName: "Plataforma APA", DefaultFromEmail: mail.Address{Name: "APA", Address: "noreply@apa.org"}}
	svc := NewConsoleServiceMock(conf, nopLogger{})

	svc.SendMessages(
		&core.EmailMessage{
			To:              []mail.Address{{Name: "Ana", Address: "ana@apa.org"}},
			Subject:         "Nueva asignación",
			TemplateName:    "asignacion_nueva",
			FrontendBaseURL: "https://apa.org",
			TemplateData: map[string]string{
				"Voluntario":  "Ana",
				"Nino":        "Juan Pérez",
				"NinoID":      "n-1",
				"FechaInicio": "01/03/2024",
				"Notas":       "",
			},
		},
		&core.EmailMessage{Subject: "no recipients", BodyStr: "ignored"},
	)

	sent := svc.SentMessages()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].TextContent, "Juan Pérez")
	assert.Contains(t, sent[0].TextContent, "https://apa.org/ninos/n-1")
	assert.NotEmpty(t, sent[0].HTMLContent)
}

func TestConsoleService_PlainBody(t *testing.T) {
	conf := &core.Config{AppName: "APA"}
	svc := NewConsoleServiceMock(conf, nopLogger{})

	svc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Address: "ana@apa.org"}},
		Subject: "hola",
		BodyStr: "texto plano",
	})

	sent := svc.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "texto plano", sent[0].TextContent)
	assert.Empty(t, sent[0].HTMLContent)
}
