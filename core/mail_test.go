package core

import (
	"io/fs"
	"net/mail"
	"path"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appfs "github.com/plataforma-apa/apa/fs"
)

func TestEmailMessage_Render(t *testing.T) {
	tmplInit.Do(func() { tmplErr = parseTemplates(true) })
	require.NoError(t, tmplErr)

	tests := []struct {
		name     string
		data     map[string]string
		wantText []string
	}{
		{
			name: "asignacion_nueva",
			data: map[string]string{
				"Voluntario":  "Ana",
				"Nino":        "Luz Acosta",
				"NinoID":      "n-1",
				"FechaInicio": "01/03/2024",
				"Notas":       "Los martes",
			},
			wantText: []string{"Hola Ana", "Luz Acosta", "01/03/2024", "Los martes", "https://apa.test/ninos/n-1"},
		},
		{
			name:     "bienvenida",
			data:     map[string]string{"Nombre": "Beto", "Email": "beto@apa.test", "Rol": "voluntario"},
			wantText: []string{"Hola Beto", "voluntario", "https://apa.test/login", "beto@apa.test"},
		},
	}

	t.Run("every template is covered", func(t *testing.T) {
		fps, err := fs.Glob(appfs.FS, path.Join(emailTemplatesDir, "*"))
		require.NoError(t, err)
		assert.Contains(t, fps, path.Join(emailTemplatesDir, "_base.txt"))
		assert.Contains(t, fps, path.Join(emailTemplatesDir, "_base.gohtml"))

		names := make(map[string]bool)
		for _, fp := range fps {
			if fname := path.Base(fp); !strings.HasPrefix(fname, "_") {
				names[strings.TrimSuffix(fname, path.Ext(fname))] = true
			}
		}
		covered := make(map[string]bool)
		for _, tt := range tests {
			covered[tt.name] = true
		}
		assert.Equal(t, names, covered)
	})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := &EmailMessage{
				To:              []mail.Address{{Address: "ana@apa.test"}},
				TemplateName:    tt.name,
				TemplateData:    tt.data,
				FrontendBaseURL: "https://apa.test",
			}
			require.NoError(t, msg.Render())
			assert.True(t, msg.HasContent())
			for _, want := range tt.wantText {
				assert.Contains(t, msg.TextContent, want)
			}
			assert.Contains(t, msg.TextContent, "Plataforma APA")
			assert.Contains(t, msg.HTMLContent, "<!DOCTYPE html>")
		})
	}

	t.Run("missing key", func(t *testing.T) {
		msg := &EmailMessage{TemplateName: "bienvenida", TemplateData: map[string]string{}}
		assert.Error(t, msg.Render())
	})
}

func Test_strictTemplates(t *testing.T) {
	tests := []struct {
		name string
		conf Config
		want bool
	}{
		{name: "production", conf: Config{}, want: false},
		{name: "debug", conf: Config{Debug: true}, want: true},
		{name: "test mode", conf: Config{TestMode: true}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, strictTemplates(&tt.conf))
		})
	}
}
