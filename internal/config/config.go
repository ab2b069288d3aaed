// Package config loads the server settings of the openroute command from
// an optional YAML or TOML file and OPENROUTE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joeshaw/envdecode"
	"gopkg.in/yaml.v3"
)

// Backend names.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config holds the server settings. Environment variables win over the
// file; zero fields take the values of Default.
type Config struct {
	Addr     string `mapstructure:"addr" env:"OPENROUTE_ADDR" validate:"required,hostname_port"`
	Backend  string `mapstructure:"backend" env:"OPENROUTE_BACKEND" validate:"required,oneof=memory postgres redis"`
	LogLevel string `mapstructure:"log_level" env:"OPENROUTE_LOG_LEVEL" validate:"required,oneof=debug info warn error"`

	PostgresDSN string `mapstructure:"postgres_dsn" env:"OPENROUTE_POSTGRES_DSN" validate:"required_if=Backend postgres"`
	RedisAddr   string `mapstructure:"redis_addr" env:"OPENROUTE_REDIS_ADDR" validate:"required_if=Backend redis"`
	RedisDB     int    `mapstructure:"redis_db" env:"OPENROUTE_REDIS_DB" validate:"gte=0"`

	MaxBodyBytes int64         `mapstructure:"max_body_bytes" env:"OPENROUTE_MAX_BODY_BYTES" validate:"gt=0"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" env:"OPENROUTE_READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" env:"OPENROUTE_WRITE_TIMEOUT" validate:"gt=0"`
	H2C          bool          `mapstructure:"h2c" env:"OPENROUTE_H2C"`

	OpenAPI OpenAPI `mapstructure:"openapi"`
}

// OpenAPI holds the document settings.
type OpenAPI struct {
	Version     string `mapstructure:"version" env:"OPENROUTE_OPENAPI_VERSION" validate:"required,startswith=3"`
	Title       string `mapstructure:"title" env:"OPENROUTE_OPENAPI_TITLE" validate:"required"`
	APIVersion  string `mapstructure:"api_version" env:"OPENROUTE_OPENAPI_API_VERSION" validate:"required"`
	DisableDocs bool   `mapstructure:"disable_docs" env:"OPENROUTE_OPENAPI_DISABLE_DOCS"`
}

// Default returns the settings used for unset fields.
func Default() Config {
	return Config{
		Addr:         "127.0.0.1:8080",
		Backend:      BackendMemory,
		LogLevel:     "info",
		MaxBodyBytes: 1 << 20,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		OpenAPI: OpenAPI{
			Version:    "3.1",
			Title:      "openroute",
			APIVersion: "1.0.0",
		},
	}
}

// Load reads path when it is not empty, applies the environment, fills
// the defaults and validates the result.
func Load(path string) (Config, error) {
	var cfg Config

	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("config: environment: %w", err)
	}

	if err := mergo.Merge(&cfg, Default()); err != nil {
		return Config{}, fmt.Errorf("config: defaults: %w", err)
	}

	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return Config{}, fmt.Errorf("config: invalid %s: %s", verrs[0].Namespace(), verrs[0].Tag())
		}
		return Config{}, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	raw := map[string]any{}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	case ".toml":
		err = toml.Unmarshal(data, &raw)
	default:
		return fmt.Errorf("config: %s: unsupported format %q", path, ext)
	}
	if err != nil {
		return fmt.Errorf("config: %s: %w", path, err)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("config: %s: %w", path, err)
	}

	return nil
}
