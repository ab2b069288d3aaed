package router

import (
	"net/http"
	"strings"

	"github.com/vitalvas/openroute/exceptions"
	"github.com/vitalvas/openroute/mux"
	"github.com/vitalvas/openroute/openapi"
)

// Adapter is the HTTP router the routes are registered on.
type Adapter interface {
	http.Handler

	// Handle registers h for method and the route template path
	// ({name} and {name:pattern} variables).
	Handle(method, path string, h http.Handler)

	// Mount serves h for every path below the static prefix. h sees the
	// path with the prefix removed.
	Mount(prefix string, h http.Handler)

	// PathParams returns the variables matched for r.
	PathParams(r *http.Request) map[string]string
}

// MuxAdapter registers routes on a *mux.Router. Unmatched paths and
// methods answer with the JSON error envelope.
type MuxAdapter struct {
	router *mux.Router
}

// NewMuxAdapter wraps r. A nil r creates a new router.
func NewMuxAdapter(r *mux.Router) *MuxAdapter {
	if r == nil {
		r = mux.NewRouter()
	}

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		exceptions.Write(w, exceptions.NotFound(""))
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		exceptions.Write(w, exceptions.MethodNotAllowed(""))
	})

	return &MuxAdapter{router: r}
}

// Router returns the wrapped router.
func (a *MuxAdapter) Router() *mux.Router {
	return a.router
}

func (a *MuxAdapter) Handle(method, path string, h http.Handler) {
	a.router.Handle(path, h).Methods(method)
}

func (a *MuxAdapter) Mount(prefix string, h http.Handler) {
	a.router.PathPrefix(prefix).Handler(http.StripPrefix(prefix, h))
}

func (a *MuxAdapter) PathParams(r *http.Request) map[string]string {
	return mux.Vars(r)
}

func (a *MuxAdapter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// ServeMuxAdapter registers routes on a *http.ServeMux. Variable patterns
// are dropped from templates since ServeMux matches whole segments only.
type ServeMuxAdapter struct {
	mux *http.ServeMux
}

// NewServeMuxAdapter wraps m. A nil m creates a new ServeMux.
func NewServeMuxAdapter(m *http.ServeMux) *ServeMuxAdapter {
	if m == nil {
		m = http.NewServeMux()
	}

	return &ServeMuxAdapter{mux: m}
}

func (a *ServeMuxAdapter) Handle(method, path string, h http.Handler) {
	pattern, _ := openapi.ParsePath(path)
	a.mux.Handle(method+" "+pattern, h)
}

func (a *ServeMuxAdapter) Mount(prefix string, h http.Handler) {
	a.mux.Handle(strings.TrimSuffix(prefix, "/")+"/", http.StripPrefix(prefix, h))
}

func (a *ServeMuxAdapter) PathParams(r *http.Request) map[string]string {
	_, pattern, _ := strings.Cut(r.Pattern, " ")
	if pattern == "" {
		pattern = r.Pattern
	}

	names := openapi.PathVariables(pattern)
	if len(names) == 0 {
		return nil
	}

	out := make(map[string]string, len(names))
	for _, name := range names {
		name = strings.TrimSuffix(name, "...")
		out[name] = r.PathValue(name)
	}

	return out
}

func (a *ServeMuxAdapter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}
