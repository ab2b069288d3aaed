package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/urfave/cli/v2"

	"github.com/vitalvas/openroute/backend/memory"
	"github.com/vitalvas/openroute/examples/users"
	"github.com/vitalvas/openroute/openapi"
	"github.com/vitalvas/openroute/router"
)

func schemaCommand() *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "Print the OpenAPI document of the users API",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    formatFlag,
				Aliases: []string{"f"},
				Value:   "json",
				Usage:   "json or yaml",
			},
			&cli.BoolFlag{
				Name:  validateFlag,
				Usage: "check the document with the OpenAPI 3.0 rules",
			},
		}, configFlags...),
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			logger := slog.New(slog.NewTextHandler(io.Discard, nil))

			store, err := memory.New(users.Meta)
			if err != nil {
				return err
			}

			cfg.OpenAPI.DisableDocs = true

			r, err := newRouter(cfg, router.NewMuxAdapter(nil), logger)
			if err != nil {
				return err
			}

			if err := users.Register(r, store); err != nil {
				return err
			}

			doc := r.Document()

			if c.Bool(validateFlag) {
				if err := openapi.Validate(c.Context, doc); err != nil {
					return err
				}
			}

			return writeDocument(c.App.Writer, doc, c.String(formatFlag))
		},
	}
}

func writeDocument(w io.Writer, doc *openapi.Document, format string) error {
	var (
		data []byte
		err  error
	)

	switch format {
	case "json":
		data, err = json.MarshalIndent(doc, "", "  ")
		data = append(data, '\n')
	case "yaml":
		data, err = doc.YAML()
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return err
	}

	_, err = w.Write(data)
	return err
}
