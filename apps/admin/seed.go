package main

import (
	"context"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/plataforma-apa/apa/core/autoevaluacion"
	"github.com/plataforma-apa/apa/core/capacitacion"
	"github.com/plataforma-apa/apa/core/zona"
)

// seedFile is the layout of the seed YAML document.
//
//	zonas:
//	  - nombre: Norte
//	capacitaciones:
//	  - titulo: Introducción
//	    obligatoria: true
//	plantillas:
//	  - titulo: Semanal
//	    preguntas:
//	      - {id: animo, texto: ¿Cómo te sentiste?, tipo: escala, requerida: true}
type seedFile struct {
	Zonas []struct {
		Nombre      string `yaml:"nombre"`
		Descripcion string `yaml:"descripcion"`
	} `yaml:"zonas"`
	Capacitaciones []struct {
		Titulo          string `yaml:"titulo"`
		Descripcion     string `yaml:"descripcion"`
		ContenidoURL    string `yaml:"contenido_url"`
		DuracionMinutos *int   `yaml:"duracion_minutos"`
		Obligatoria     bool   `yaml:"obligatoria"`
		Orden           int    `yaml:"orden"`
	} `yaml:"capacitaciones"`
	Plantillas []struct {
		Titulo      string `yaml:"titulo"`
		Descripcion string `yaml:"descripcion"`
		Preguntas   []struct {
			ID        string   `yaml:"id"`
			Texto     string   `yaml:"texto"`
			Tipo      string   `yaml:"tipo"`
			Opciones  []string `yaml:"opciones"`
			Requerida bool     `yaml:"requerida"`
		} `yaml:"preguntas"`
	} `yaml:"plantillas"`
}

type seedResult struct {
	created, skipped int
}

func (cli *commandLine) seedCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load zonas, capacitaciones and autoevaluación plantillas from a YAML file; existing ones are skipped",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if path == "" {
				_ = cmd.Help()
				return errHelp
			}
			return cli.seed(path)
		},
	}
	cmd.Flags().StringVarP(&path, "file", "f", "", "The seed YAML file")
	return cmd
}

func (cli *commandLine) seed(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "reading seed file")
	}
	var sf seedFile
	if err = yaml.Unmarshal(data, &sf); err != nil {
		return errors.Wrap(err, "parsing seed file")
	}

	ctx := context.Background()
	res, err := cli.seedZonas(ctx, sf)
	if err != nil {
		return err
	}
	cli.printf("zonas: %d created, %d skipped\n", res.created, res.skipped)

	if res, err = cli.seedCapacitaciones(ctx, sf); err != nil {
		return err
	}
	cli.printf("capacitaciones: %d created, %d skipped\n", res.created, res.skipped)

	if res, err = cli.seedPlantillas(ctx, sf); err != nil {
		return err
	}
	cli.printf("plantillas: %d created, %d skipped\n", res.created, res.skipped)
	return nil
}

func (cli *commandLine) seedZonas(ctx context.Context, sf seedFile) (seedResult, error) {
	var res seedResult
	existing, err := cli.zonaSvc.Query(ctx)
	if err != nil {
		return res, err
	}
	seen := make(map[string]bool, len(existing))
	for _, z := range existing {
		seen[strings.ToLower(z.Nombre)] = true
	}

	for _, z := range sf.Zonas {
		in := zona.ZonaInput{Nombre: z.Nombre, Descripcion: z.Descripcion}
		if err = in.Validate(cli.validate); err != nil {
			return res, errors.Wrapf(cli.translate(err), "zona %q", z.Nombre)
		}
		if seen[strings.ToLower(in.Nombre)] {
			res.skipped++
			continue
		}
		if _, err = cli.zonaSvc.Create(ctx, in); err != nil {
			return res, errors.Wrapf(err, "zona %q", in.Nombre)
		}
		seen[strings.ToLower(in.Nombre)] = true
		res.created++
	}
	return res, nil
}

func (cli *commandLine) seedCapacitaciones(ctx context.Context, sf seedFile) (seedResult, error) {
	var res seedResult
	existing, err := cli.capSvc.Query(ctx, nil, nil)
	if err != nil {
		return res, err
	}
	seen := make(map[string]bool, len(existing))
	for _, c := range existing {
		seen[strings.ToLower(c.Titulo)] = true
	}

	for _, c := range sf.Capacitaciones {
		in := capacitacion.CapacitacionInput{
			Titulo:          c.Titulo,
			Descripcion:     c.Descripcion,
			ContenidoURL:    c.ContenidoURL,
			DuracionMinutos: c.DuracionMinutos,
			Obligatoria:     c.Obligatoria,
			Orden:           c.Orden,
		}
		if err = in.Validate(cli.validate); err != nil {
			return res, errors.Wrapf(cli.translate(err), "capacitación %q", c.Titulo)
		}
		if seen[strings.ToLower(in.Titulo)] {
			res.skipped++
			continue
		}
		if _, err = cli.capSvc.Create(ctx, in); err != nil {
			return res, err
		}
		seen[strings.ToLower(in.Titulo)] = true
		res.created++
	}
	return res, nil
}

func (cli *commandLine) seedPlantillas(ctx context.Context, sf seedFile) (seedResult, error) {
	var res seedResult
	existing, err := cli.autoSvc.QueryPlantillas(ctx, nil)
	if err != nil {
		return res, err
	}
	seen := make(map[string]bool, len(existing))
	for _, p := range existing {
		seen[strings.ToLower(p.Titulo)] = true
	}

	for _, p := range sf.Plantillas {
		in := autoevaluacion.PlantillaInput{Titulo: p.Titulo, Descripcion: p.Descripcion}
		for _, q := range p.Preguntas {
			in.Preguntas = append(in.Preguntas, autoevaluacion.Pregunta{
				ID:        q.ID,
				Texto:     q.Texto,
				Tipo:      q.Tipo,
				Opciones:  q.Opciones,
				Requerida: q.Requerida,
			})
		}
		if err = in.Validate(cli.validate); err != nil {
			return res, errors.Wrapf(cli.translate(err), "plantilla %q", p.Titulo)
		}
		if seen[strings.ToLower(in.Titulo)] {
			res.skipped++
			continue
		}
		if _, err = cli.autoSvc.CreatePlantilla(ctx, in); err != nil {
			return res, err
		}
		seen[strings.ToLower(in.Titulo)] = true
		res.created++
	}
	return res, nil
}
