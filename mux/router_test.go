package mux

import (
	"maps"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func echoVars(w http.ResponseWriter, r *http.Request) {
	vars := Vars(r)
	parts := make([]string, 0, len(vars))
	for _, name := range slices.Sorted(maps.Keys(vars)) {
		parts = append(parts, name+"="+vars[name])
	}
	_, _ = w.Write([]byte(strings.Join(parts, ",")))
}

func serve(r http.Handler, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestRouterPathVariables(t *testing.T) {
	r := NewRouter()
	r.HandleFunc("/users/{id}", echoVars)
	r.HandleFunc("/orgs/{org}/repos/{repo:[a-z]+}", echoVars)
	r.HandleFunc("/items/{id:int}", echoVars)
	r.HandleFunc("/objects/{id:uuid}", echoVars)
	r.HandleFunc("/hosts/{name:domain}", echoVars)

	tests := []struct {
		name   string
		target string
		code   int
		body   string
	}{
		{"default pattern", "/users/42", http.StatusOK, "id=42"},
		{"two variables", "/orgs/acme/repos/api", http.StatusOK, "org=acme,repo=api"},
		{"regexp mismatch", "/orgs/acme/repos/API", http.StatusNotFound, ""},
		{"int macro", "/items/7", http.StatusOK, "id=7"},
		{"int macro mismatch", "/items/x", http.StatusNotFound, ""},
		{"uuid macro", "/objects/550e8400-e29b-41d4-a716-446655440000", http.StatusOK, "id=550e8400-e29b-41d4-a716-446655440000"},
		{"uuid macro mismatch", "/objects/550e8400", http.StatusNotFound, ""},
		{"domain macro", "/hosts/example.com", http.StatusOK, "name=example.com"},
		{"domain too long", "/hosts/" + strings.Repeat("a.", 130) + "com", http.StatusNotFound, ""},
		{"variable does not span segments", "/users/1/2", http.StatusNotFound, ""},
		{"dot segments cleaned", "/users/../users/5", http.StatusOK, "id=5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(r, http.MethodGet, tt.target)
			assert.Equal(t, tt.code, w.Code)
			if tt.code == http.StatusOK {
				assert.Equal(t, tt.body, w.Body.String())
			}
		})
	}
}

func TestRouterMethods(t *testing.T) {
	r := NewRouter()
	r.HandleFunc("/users", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("list")) }).Methods(http.MethodGet)
	r.HandleFunc("/users", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("create")) }).Methods("post")
	r.HandleFunc("/any", func(w http.ResponseWriter, _ *http.Request) {})

	t.Run("dispatch by method", func(t *testing.T) {
		assert.Equal(t, "list", serve(r, http.MethodGet, "/users").Body.String())
		assert.Equal(t, "create", serve(r, http.MethodPost, "/users").Body.String())
	})

	t.Run("method not allowed", func(t *testing.T) {
		w := serve(r, http.MethodDelete, "/users")
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
		assert.Equal(t, "GET, POST", w.Header().Get("Allow"))
	})

	t.Run("no methods matches all", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, serve(r, http.MethodPatch, "/any").Code)
	})

	t.Run("custom handlers", func(t *testing.T) {
		r2 := NewRouter()
		r2.HandleFunc("/x", func(http.ResponseWriter, *http.Request) {}).Methods(http.MethodGet)
		r2.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })
		r2.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusConflict) })

		assert.Equal(t, http.StatusTeapot, serve(r2, http.MethodGet, "/y").Code)
		assert.Equal(t, http.StatusConflict, serve(r2, http.MethodPut, "/x").Code)
	})
}

func TestRouterPathPrefix(t *testing.T) {
	sub := NewRouter()
	sub.HandleFunc("/users", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(r.URL.Path)) })

	r := NewRouter()
	r.PathPrefix("/api").Handler(http.StripPrefix("/api", sub))

	assert.Equal(t, "/users", serve(r, http.MethodGet, "/api/users").Body.String())
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/apis/users").Code)
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/api/other").Code)
}

func TestRouterMiddleware(t *testing.T) {
	var order []string
	mw := func(name string) MiddlewareFunc {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	r := NewRouter()
	r.HandleFunc("/", func(http.ResponseWriter, *http.Request) { order = append(order, "handler") })
	r.Use(mw("a"), mw("b"))

	serve(r, http.MethodGet, "/")
	assert.Equal(t, []string{"a", "b", "handler"}, order)

	t.Run("not applied to 404", func(t *testing.T) {
		order = nil
		serve(r, http.MethodGet, "/missing")
		assert.Empty(t, order)
	})

	t.Run("cached handler reset by Use", func(t *testing.T) {
		order = nil
		r.Use(mw("c"))
		serve(r, http.MethodGet, "/")
		assert.Equal(t, []string{"a", "b", "c", "handler"}, order)
	})
}

func TestRouteErrors(t *testing.T) {
	r := NewRouter()

	tests := []string{
		"/users/{id",
		"/users/{}",
		"/users/{id}/{id}",
		"/users/{id:(}",
	}

	for _, tpl := range tests {
		t.Run(tpl, func(t *testing.T) {
			route := r.Path(tpl)
			assert.Error(t, route.err)

			route.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
			assert.Nil(t, route.handler)
		})
	}
}

func TestVars(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, Vars(req))

	req = setVars(req, map[string]string{"id": "9"})
	assert.Equal(t, map[string]string{"id": "9"}, Vars(req))
}

func TestCleanPath(t *testing.T) {
	for in, want := range map[string]string{
		"":          "/",
		"a":         "/a",
		"/a/./b":    "/a/b",
		"/a/../b/":  "/b/",
		"//a//b":    "/a/b",
		"/":         "/",
		"/a/b/../c": "/a/c",
	} {
		assert.Equal(t, want, cleanPath(in), in)
	}
}
