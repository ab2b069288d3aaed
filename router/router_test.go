package router

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/vitalvas/openroute/endpoint"
	"github.com/vitalvas/openroute/exceptions"
	"github.com/vitalvas/openroute/openapi"
	"github.com/vitalvas/openroute/schema"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type GetUser struct{}

func (GetUser) Schema() endpoint.Schema {
	return endpoint.Schema{
		Tags: []string{"users"},
		Request: &endpoint.RequestSchema{
			Params: schema.Object(schema.Fields{"id": schema.Integer()}),
		},
		Responses: map[string]*endpoint.ResponseSchema{
			"200": {Schema: schema.Object(schema.Fields{"id": schema.Integer()})},
			"404": {Schema: exceptions.NotFound("").Schema()},
		},
	}
}

func (GetUser) Handle(_ context.Context, req *endpoint.Request) (any, error) {
	id := req.Params()["id"].(int64)
	if id == 999 {
		return nil, exceptions.NotFound("")
	}

	return map[string]any{"id": id}, nil
}

type named struct{ s endpoint.Schema }

func (n named) Schema() endpoint.Schema { return n.s }
func (named) Name() string              { return "CustomName" }
func (named) Handle(context.Context, *endpoint.Request) (any, error) {
	return map[string]any{}, nil
}

func newRouter(t *testing.T, cfg Config, adapter Adapter) *Router {
	t.Helper()

	r, err := New(adapter, cfg, WithLogger(quietLogger))
	require.NoError(t, err)

	return r
}

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestRegistration(t *testing.T) {
	r := newRouter(t, Config{Base: "/api/"}, nil)

	require.NoError(t, r.Get("/users/:id", GetUser{}))
	require.NoError(t, r.Post("/users/", named{}))
	require.NoError(t, r.Get("/health", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }))
	require.NoError(t, r.Delete("/items/{itemId}/tags/{tag}", http.NotFoundHandler()))
	require.NoError(t, r.Put("/explicit", named{s: endpoint.Schema{OperationID: "replaceThing"}}))

	reg := r.Registry()

	t.Run("paths normalized", func(t *testing.T) {
		assert.Equal(t, []string{
			"/api/explicit",
			"/api/health",
			"/api/items/{itemId}/tags/{tag}",
			"/api/users",
			"/api/users/{id}",
		}, reg.Paths())
	})

	t.Run("operation ids", func(t *testing.T) {
		tests := []struct {
			path, method, id string
		}{
			{"/api/users/{id}", http.MethodGet, "get_GetUser"},
			{"/api/users", http.MethodPost, "post_CustomName"},
			{"/api/health", http.MethodGet, "get__api_health"},
			{"/api/explicit", http.MethodPut, "replaceThing"},
		}

		for _, tt := range tests {
			t.Run(tt.id, func(t *testing.T) {
				op, ok := reg.Operation(tt.path, tt.method)
				require.True(t, ok)
				assert.Equal(t, tt.id, op.OperationID)
			})
		}
	})

	t.Run("schema from endpoint", func(t *testing.T) {
		op, _ := reg.Operation("/api/users/{id}", http.MethodGet)

		require.Len(t, op.Parameters, 1)
		assert.Equal(t, []string{"integer"}, op.Parameters[0].Schema.Type.Values())
		assert.Equal(t, "Not Found", op.Responses["404"].Description)
		assert.Equal(t, []string{"users"}, op.Tags)
	})

	t.Run("synthesized path parameters", func(t *testing.T) {
		op, _ := reg.Operation("/api/items/{itemId}/tags/{tag}", http.MethodDelete)

		require.Len(t, op.Parameters, 2)
		for _, p := range op.Parameters {
			assert.Equal(t, "path", p.In)
			assert.True(t, p.Required)
			assert.Equal(t, []string{"string"}, p.Schema.Type.Values())
		}
		assert.Contains(t, op.Responses, "200")
	})

	t.Run("requests served", func(t *testing.T) {
		w := serve(r, http.MethodGet, "/api/users/7")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"id":7}`, w.Body.String())

		w = serve(r, http.MethodGet, "/api/users/999")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"success":false,"errors":[{"code":7002,"message":"Not Found"}],"result":{}}`, w.Body.String())

		w = serve(r, http.MethodGet, "/api/users/abc")
		assert.Equal(t, http.StatusBadRequest, w.Code)

		assert.Equal(t, http.StatusNoContent, serve(r, http.MethodGet, "/api/health").Code)
	})

	t.Run("unmatched requests", func(t *testing.T) {
		w := serve(r, http.MethodGet, "/nowhere")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), `"code":7002`)

		w = serve(r, http.MethodPatch, "/api/health")
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
		assert.Equal(t, "GET", w.Header().Get("Allow"))
		assert.Contains(t, w.Body.String(), `"code":7005`)
	})
}

func TestRegistrationErrors(t *testing.T) {
	t.Run("operation id required", func(t *testing.T) {
		disabled := false
		r := newRouter(t, Config{GenerateOperationIDs: &disabled}, nil)

		err := r.Get("/users/:id", GetUser{})
		var cerr *ConfigError
		require.ErrorAs(t, err, &cerr)
		assert.Equal(t, "/users/{id}", cerr.Path)
		assert.Zero(t, r.Registry().Len())

		assert.NoError(t, r.Get("/explicit", named{s: endpoint.Schema{OperationID: "getExplicit"}}))
	})

	t.Run("invalid chains", func(t *testing.T) {
		r := newRouter(t, Config{}, nil)

		assert.Error(t, r.Get("/a"))
		assert.Error(t, r.Get("/a", 42))
		assert.Error(t, r.Get("/a", "middleware", GetUser{}))
	})

	t.Run("path parameters differ from template", func(t *testing.T) {
		r := newRouter(t, Config{}, nil)

		for _, path := range []string{"/users/{uid}", "/users", "/users/{id}/{extra}"} {
			err := r.Get(path, GetUser{})

			var cerr *ConfigError
			require.ErrorAs(t, err, &cerr, path)
			assert.Contains(t, cerr.Reason, "[id]", path)
		}

		assert.Zero(t, r.Registry().Len())
		assert.NoError(t, r.Get("/users/{id}", GetUser{}))
	})

	t.Run("full version strings", func(t *testing.T) {
		for option, want := range map[string]string{
			"3":     openapi.Version30,
			"3.0.3": openapi.Version30,
			"3.1":   openapi.Version31,
			"3.1.0": openapi.Version31,
		} {
			r, err := New(nil, Config{OpenAPIVersion: option})
			require.NoError(t, err, option)
			assert.Equal(t, want, r.Version(), option)
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		for name, cfg := range map[string]Config{
			"relative base":   {Base: "api"},
			"unknown version": {OpenAPIVersion: "2"},
			"spec url":        {OpenAPIURL: "/openapi.txt"},
			"server":          {Servers: []openapi.Server{{URL: "https://a"}, {}}},
		} {
			t.Run(name, func(t *testing.T) {
				_, err := New(nil, cfg)
				var cerr *ConfigError
				assert.ErrorAs(t, err, &cerr)
			})
		}
	})
}

func TestMiddlewareChain(t *testing.T) {
	r := newRouter(t, Config{}, nil)

	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, req)
			})
		}
	}
	deny := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			exceptions.Write(w, exceptions.Unauthorized(""))
		})
	}

	require.NoError(t, r.Get("/users/:id", mw("a"), mw("b"), GetUser{}))
	require.NoError(t, r.Get("/private/:id", deny, GetUser{}))

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/users/1").Code)
	assert.Equal(t, []string{"a", "b"}, order)

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/private/1").Code)

	op, _ := r.Registry().Operation("/users/{id}", http.MethodGet)
	assert.Equal(t, "get_GetUser", op.OperationID)
}

func TestMount(t *testing.T) {
	leaf := newRouter(t, Config{DisableDocs: true}, nil)
	require.NoError(t, leaf.Get("/users/:id", GetUser{}))

	mid := newRouter(t, Config{DisableDocs: true}, nil)
	require.NoError(t, mid.Get("/status", func(w http.ResponseWriter, _ *http.Request) {}))
	require.NoError(t, mid.All("/v1/*", leaf))

	top := newRouter(t, Config{}, nil)
	require.NoError(t, top.All("/api", mid))

	t.Run("paths merged recursively", func(t *testing.T) {
		assert.Equal(t, []string{"/api/status", "/api/v1/users/{id}"}, top.Registry().Paths())

		op, ok := top.Registry().Operation("/api/v1/users/{id}", http.MethodGet)
		require.True(t, ok)
		assert.Equal(t, "get_GetUser", op.OperationID)
	})

	t.Run("requests reach the leaf", func(t *testing.T) {
		w := serve(top, http.MethodGet, "/api/v1/users/5")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"id":5}`, w.Body.String())

		assert.Equal(t, http.StatusNotFound, serve(top, http.MethodGet, "/api/v1/users/999").Code)
		assert.Equal(t, http.StatusNotFound, serve(top, http.MethodGet, "/apix/status").Code)
	})

	t.Run("mount via handle", func(t *testing.T) {
		other := newRouter(t, Config{}, nil)
		require.NoError(t, other.Get("/admin", leaf))
		assert.Equal(t, []string{"/admin/users/{id}"}, other.Registry().Paths())
	})

	t.Run("dynamic mount rejected", func(t *testing.T) {
		other := newRouter(t, Config{}, nil)
		assert.Error(t, other.All("/orgs/:org", leaf))
		assert.Error(t, other.All("/", leaf))
	})
}

func TestServeMuxAdapter(t *testing.T) {
	r := newRouter(t, Config{}, NewServeMuxAdapter(nil))

	require.NoError(t, r.Get("/users/{id:int}", GetUser{}))

	sub := newRouter(t, Config{DisableDocs: true}, NewServeMuxAdapter(nil))
	require.NoError(t, sub.Get("/users/:id", GetUser{}))
	require.NoError(t, r.All("/v2", sub))

	w := serve(r, http.MethodGet, "/users/3")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":3}`, w.Body.String())

	w = serve(r, http.MethodGet, "/v2/users/4")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":4}`, w.Body.String())

	assert.Equal(t, []string{"/users/{id}", "/v2/users/{id}"}, r.Registry().Paths())
}

func TestDocs(t *testing.T) {
	r := newRouter(t, Config{
		OpenAPIVersion: "3",
		Info:           openapi.Info{Title: "Users", Version: "2.0.0"},
		Servers:        []openapi.Server{{URL: "https://api.example.com"}},
		SecuritySchemes: map[string]*openapi.SecurityScheme{
			"bearer": {Type: "http", Scheme: "bearer"},
		},
	}, nil)

	require.NoError(t, r.Get("/users/:id", GetUser{}))

	t.Run("json", func(t *testing.T) {
		w := serve(r, http.MethodGet, "/openapi.json")
		require.Equal(t, http.StatusOK, w.Code)

		var doc openapi.Document
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
		assert.Equal(t, openapi.Version30, doc.OpenAPI)
		assert.Equal(t, "Users", doc.Info.Title)
		assert.Contains(t, doc.Paths, "/users/{id}")
		assert.NotContains(t, doc.Paths, "/openapi.json")
		assert.Equal(t, "bearer", doc.Components.SecuritySchemes["bearer"].Scheme)
	})

	t.Run("late routes visible", func(t *testing.T) {
		require.NoError(t, r.Get("/late", func(http.ResponseWriter, *http.Request) {}))
		assert.Contains(t, serve(r, http.MethodGet, "/openapi.json").Body.String(), `"/late"`)
	})

	t.Run("yaml", func(t *testing.T) {
		w := serve(r, http.MethodGet, "/openapi.yaml")
		require.Equal(t, http.StatusOK, w.Code)

		var out map[string]any
		require.NoError(t, yaml.Unmarshal(w.Body.Bytes(), &out))
		assert.Equal(t, "3.0.3", out["openapi"])
	})

	t.Run("ui pages", func(t *testing.T) {
		assert.Contains(t, serve(r, http.MethodGet, "/docs").Body.String(), "swagger-ui")
		assert.Contains(t, serve(r, http.MethodGet, "/redocs").Body.String(), "redoc")
	})

	t.Run("valid 3.0 document", func(t *testing.T) {
		assert.NoError(t, openapi.Validate(context.Background(), r.Document()))
	})

	t.Run("docs under base", func(t *testing.T) {
		based := newRouter(t, Config{Base: "/api"}, nil)
		w := serve(based, http.MethodGet, "/api/docs")
		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, strings.Contains(w.Body.String(), `"/api/openapi.json"`))
	})

	t.Run("disabled", func(t *testing.T) {
		off := newRouter(t, Config{DisableDocs: true}, nil)
		assert.Equal(t, http.StatusNotFound, serve(off, http.MethodGet, "/openapi.json").Code)
	})
}

func TestOperationID(t *testing.T) {
	assert.Equal(t, "get_ListUsers", OperationID("GET", "ListUsers", "/users"))
	assert.Equal(t, "post__users_{id}", OperationID("POST", "", "/users/{id}"))
}
