package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"
)

const (
	configFlag   = "config"
	addrFlag     = "addr"
	backendFlag  = "backend"
	formatFlag   = "format"
	validateFlag = "validate"
)

var configFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    configFlag,
		Aliases: []string{"c"},
		Usage:   "YAML or TOML settings file",
		EnvVars: []string{"OPENROUTE_CONFIG"},
	},
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "openroute",
		Usage: "Schema validated CRUD API with generated OpenAPI documents",
		Commands: []*cli.Command{
			serveCommand(),
			schemaCommand(),
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
