package openapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDocumentHandlers(t *testing.T) {
	reg := NewRegistry()
	src := func() *Document {
		return reg.Document(DocumentConfig{Info: Info{Title: "Users", Version: "1.0.0"}})
	}

	jsonHandler := JSONHandler(src)
	reg.Add("/users", http.MethodGet, listOperation())

	t.Run("json reflects registry at request time", func(t *testing.T) {
		w := httptest.NewRecorder()
		jsonHandler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var doc Document
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
		assert.Equal(t, Version31, doc.OpenAPI)
		assert.Contains(t, doc.Paths, "/users")
	})

	t.Run("yaml", func(t *testing.T) {
		w := httptest.NewRecorder()
		YAMLHandler(src).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/x-yaml", w.Header().Get("Content-Type"))

		var out map[string]any
		require.NoError(t, yaml.Unmarshal(w.Body.Bytes(), &out))
		assert.Contains(t, out["paths"], "/users")
	})
}

func TestUIHandlers(t *testing.T) {
	t.Run("swagger ui", func(t *testing.T) {
		w := httptest.NewRecorder()
		SwaggerUIHandler("Users <API>", "/openapi.json", map[string]any{"docExpansion": "none"}).
			ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/docs", nil))

		body := w.Body.String()
		assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Contains(t, body, `url: "/openapi.json"`)
		assert.Contains(t, body, `docExpansion: "none"`)
		assert.Contains(t, body, "Users &lt;API&gt;")
	})

	t.Run("redoc", func(t *testing.T) {
		w := httptest.NewRecorder()
		RedocHandler("Users", "/openapi.json").ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/redocs", nil))

		assert.Contains(t, w.Body.String(), `<redoc spec-url="/openapi.json">`)
	})
}
