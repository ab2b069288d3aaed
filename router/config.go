package router

import (
	"errors"
	"fmt"
	"strings"

	"dario.cat/mergo"
	"github.com/go-playground/validator/v10"

	"github.com/vitalvas/openroute/openapi"
)

var configValidator = validator.New(validator.WithRequiredStructEnabled())

// Config holds the router options. Zero fields take the defaults of
// DefaultConfig.
type Config struct {
	// Base is prepended to every registered path.
	Base string `validate:"omitempty,startswith=/"`

	// OpenAPIVersion selects the document version: "3", "3.0" or "3.0.x"
	// for 3.0.3, "3.1" or "3.1.x" for 3.1.0. See openapi.VersionFor.
	OpenAPIVersion string `validate:"omitempty,startswith=3"`

	// GenerateOperationIDs derives missing operation ids. When false, a
	// route without an explicit id is a registration error.
	GenerateOperationIDs *bool

	// RaiseUnknownParameters rejects undeclared request sections.
	RaiseUnknownParameters *bool

	Info            openapi.Info                       `validate:"required"`
	Servers         []openapi.Server                   `validate:"dive"`
	SecuritySchemes map[string]*openapi.SecurityScheme `validate:"dive,required"`
	Security        []openapi.SecurityRequirement
	Tags            []openapi.Tag `validate:"dive"`

	DocsURL    string `validate:"omitempty,startswith=/"`
	RedocURL   string `validate:"omitempty,startswith=/"`
	OpenAPIURL string `validate:"omitempty,startswith=/,endswith=.json"`

	// DisableDocs skips the documentation routes.
	DisableDocs bool
}

// DefaultConfig returns the default options.
func DefaultConfig() Config {
	enabled := true
	raise := true

	return Config{
		OpenAPIVersion:         "3.1",
		GenerateOperationIDs:   &enabled,
		RaiseUnknownParameters: &raise,
		Info: openapi.Info{
			Title:   "OpenAPI",
			Version: "1.0.0",
		},
		DocsURL:    "/docs",
		RedocURL:   "/redocs",
		OpenAPIURL: "/openapi.json",
	}
}

// prepare fills defaults into cfg and validates the result.
func prepare(cfg Config) (Config, error) {
	if err := mergo.Merge(&cfg, DefaultConfig()); err != nil {
		return Config{}, fmt.Errorf("router: config defaults: %w", err)
	}

	if cfg.Base == "/" {
		cfg.Base = ""
	}
	cfg.Base = strings.TrimSuffix(cfg.Base, "/")

	if err := configValidator.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			e := verrs[0]
			return Config{}, &ConfigError{Reason: fmt.Sprintf("invalid %s: %s", e.Namespace(), e.Tag())}
		}
		return Config{}, &ConfigError{Reason: err.Error()}
	}

	return cfg, nil
}

// YAMLURL returns the path of the YAML document next to OpenAPIURL.
func (c Config) YAMLURL() string {
	return strings.TrimSuffix(c.OpenAPIURL, ".json") + ".yaml"
}

// ConfigError reports an invalid router setup. It is returned at
// registration time, never while serving.
type ConfigError struct {
	Method string
	Path   string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return "router: " + e.Reason
	}

	return fmt.Sprintf("router: %s %s: %s", e.Method, e.Path, e.Reason)
}
