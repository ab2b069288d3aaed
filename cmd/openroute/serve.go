package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/vitalvas/openroute/backend/memory"
	"github.com/vitalvas/openroute/backend/redisstore"
	"github.com/vitalvas/openroute/backend/sqlstore"
	"github.com/vitalvas/openroute/examples/users"
	"github.com/vitalvas/openroute/internal/config"
	"github.com/vitalvas/openroute/mux"
	"github.com/vitalvas/openroute/muxhandlers"
	"github.com/vitalvas/openroute/openapi"
	"github.com/vitalvas/openroute/router"
	"github.com/vitalvas/openroute/sqlsafe"
)

const shutdownTimeout = 10 * time.Second

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the users API",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:  addrFlag,
				Usage: "listen address, overrides the settings",
			},
			&cli.StringFlag{
				Name:  backendFlag,
				Usage: "memory, postgres or redis, overrides the settings",
			},
		}, configFlags...),
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, newLogger(cfg.LogLevel))
		},
	}
}

// loadConfig reads the settings and applies the command line overrides.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.String(configFlag))
	if err != nil {
		return config.Config{}, err
	}

	if v := c.String(addrFlag); v != "" {
		cfg.Addr = v
	}

	if v := c.String(backendFlag); v != "" {
		switch v {
		case config.BackendMemory, config.BackendPostgres, config.BackendRedis:
			cfg.Backend = v
		default:
			return config.Config{}, fmt.Errorf("unknown backend %q", v)
		}
	}

	return cfg, nil
}

func serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	handler, err := newHandler(cfg, store, reg, logger)
	if err != nil {
		return err
	}

	if cfg.H2C {
		handler = h2c.NewHandler(handler, &http2.Server{})
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       2 * cfg.WriteTimeout,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server.start",
			slog.String("addr", cfg.Addr),
			slog.String("backend", cfg.Backend),
			slog.Bool("h2c", cfg.H2C),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("server.shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// newHandler builds the users API with its middlewares and the metrics
// endpoint.
func newHandler(cfg config.Config, store users.Store, reg *prometheus.Registry, logger *slog.Logger) (http.Handler, error) {
	metrics, err := muxhandlers.NewMetrics(reg)
	if err != nil {
		return nil, err
	}

	sizeLimit, err := muxhandlers.RequestSizeLimitMiddleware(muxhandlers.RequestSizeLimitConfig{MaxBytes: cfg.MaxBodyBytes})
	if err != nil {
		return nil, err
	}

	m := mux.NewRouter()
	m.Use(
		muxhandlers.RequestIDMiddleware(muxhandlers.RequestIDConfig{TrustIncoming: true}),
		muxhandlers.RecoveryMiddleware(muxhandlers.RecoveryConfig{Logger: logger}),
		muxhandlers.MetricsMiddleware(metrics),
		sizeLimit,
	)
	m.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	r, err := newRouter(cfg, router.NewMuxAdapter(m), logger)
	if err != nil {
		return nil, err
	}

	if err := users.Register(r, store); err != nil {
		return nil, err
	}

	return r, nil
}

func newRouter(cfg config.Config, adapter router.Adapter, logger *slog.Logger) (*router.Router, error) {
	return router.New(adapter, router.Config{
		OpenAPIVersion: cfg.OpenAPI.Version,
		Info: openapi.Info{
			Title:   cfg.OpenAPI.Title,
			Version: cfg.OpenAPI.APIVersion,
		},
		DisableDocs: cfg.OpenAPI.DisableDocs,
	}, router.WithLogger(logger))
}

// openStore connects the configured backend. The returned func releases
// its resources.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (users.Store, func(), error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres: %w", err)
		}

		if _, err := db.ExecContext(ctx, users.Table); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("postgres: create table: %w", err)
		}

		store, err := sqlstore.New(sqlstore.FromDB(db, sqlsafe.Postgres), users.Meta, sqlstore.WithLogger(logger))
		if err != nil {
			db.Close()
			return nil, nil, err
		}

		return store, func() { db.Close() }, nil

	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("redis: %w", err)
		}

		store, err := redisstore.New(redisstore.Config{Client: client, Logger: logger, Unique: []string{"email"}}, users.Meta)
		if err != nil {
			client.Close()
			return nil, nil, err
		}

		return store, func() { client.Close() }, nil

	default:
		store, err := memory.New(users.Meta, memory.WithUnique("email"), memory.WithLogger(logger))
		if err != nil {
			return nil, nil, err
		}

		return store, func() {}, nil
	}
}
