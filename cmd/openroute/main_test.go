package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/vitalvas/openroute/backend/memory"
	"github.com/vitalvas/openroute/examples/users"
	"github.com/vitalvas/openroute/internal/config"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	app := newApp()
	app.Writer = &out
	app.ErrWriter = io.Discard

	err := app.Run(append([]string{"openroute"}, args...))

	return out.String(), err
}

func TestSchemaCommand(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		out, err := runApp(t, "schema")
		require.NoError(t, err)

		var doc map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &doc))
		assert.Equal(t, "3.1.0", doc["openapi"])
		assert.Contains(t, doc["paths"], "/users/{id}")
	})

	t.Run("yaml validated", func(t *testing.T) {
		t.Setenv("OPENROUTE_OPENAPI_VERSION", "3")

		out, err := runApp(t, "schema", "--format", "yaml", "--validate")
		require.NoError(t, err)

		var doc map[string]any
		require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
		assert.Equal(t, "3.0.3", doc["openapi"])
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := runApp(t, "schema", "--format", "xml")
		assert.Error(t, err)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := runApp(t, "schema", "--backend", "sqlite")
		assert.Error(t, err)
	})
}

func TestHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := config.Default()
	cfg.MaxBodyBytes = 64

	store, err := memory.New(users.Meta, memory.WithUnique("email"))
	require.NoError(t, err)

	h, err := newHandler(cfg, store, prometheus.NewRegistry(), logger)
	require.NoError(t, err)

	serve := func(method, target, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, target, strings.NewReader(body))
		if body != "" {
			req.Header.Set("Content-Type", "application/json")
		}

		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		return w
	}

	t.Run("create", func(t *testing.T) {
		w := serve(http.MethodPost, "/users", `{"name":"Alice","email":"alice@example.com"}`)
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})

	t.Run("body too large", func(t *testing.T) {
		w := serve(http.MethodPost, "/users", `{"name":"`+strings.Repeat("a", 100)+`","email":"a@example.com"}`)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Contains(t, w.Body.String(), `"code":7013`)
	})

	t.Run("unknown route", func(t *testing.T) {
		w := serve(http.MethodGet, "/nope", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), `"code":7002`)
	})

	t.Run("metrics", func(t *testing.T) {
		w := serve(http.MethodGet, "/metrics", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `openroute_http_requests_total{code="201",method="POST"} 1`)
	})
}
