package mux

import (
	"net/http"
	"slices"
	"strings"
	"sync"
)

var (
	defaultNotFoundHandler = http.NotFoundHandler()

	defaultMethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})
)

// Router registers routes to be matched and dispatches a handler.
//
//	r := mux.NewRouter()
//	r.HandleFunc("/", handler)
//	http.ListenAndServe(":8080", r)
type Router struct {
	// NotFoundHandler is called when no route matches.
	// If nil, http.NotFoundHandler() is used.
	NotFoundHandler http.Handler

	// MethodNotAllowedHandler is called when a route matches the path
	// but not the method. The Allow header is set before it runs.
	MethodNotAllowedHandler http.Handler

	routes      []*Route
	middlewares []MiddlewareFunc

	// handlerCache holds the middleware-wrapped handler per route.
	handlerCache sync.Map // map[*Route]http.Handler

	skipClean bool
}

// NewRouter returns a new router instance.
func NewRouter() *Router {
	return &Router{}
}

// SkipClean disables dot-segment removal (RFC 3986 Section 5.2.4) on
// request paths.
func (r *Router) SkipClean(value bool) *Router {
	r.skipClean = value
	return r
}

// ServeHTTP dispatches the handler registered in the matched route.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if !r.skipClean {
		if cleaned := cleanPath(req.URL.Path); cleaned != req.URL.Path {
			u := *req.URL
			u.Path = cleaned
			u.RawPath = ""
			req = req.Clone(req.Context())
			req.URL = &u
		}
	}

	var match RouteMatch
	if r.Match(req, &match) {
		handler := match.Handler
		if handler == nil {
			handler = defaultNotFoundHandler
		}

		handler.ServeHTTP(w, setVars(req, match.Vars))
		return
	}

	if match.MatchErr == ErrMethodMismatch {
		w.Header().Set("Allow", strings.Join(match.Allowed, ", "))
		handler := r.MethodNotAllowedHandler
		if handler == nil {
			handler = defaultMethodNotAllowedHandler
		}
		handler.ServeHTTP(w, req)
		return
	}

	handler := r.NotFoundHandler
	if handler == nil {
		handler = defaultNotFoundHandler
	}
	handler.ServeHTTP(w, req)
}

// Match matches req against the routes in registration order. On a
// method mismatch MatchErr is ErrMethodMismatch and Allowed lists the
// methods registered for the path.
func (r *Router) Match(req *http.Request, match *RouteMatch) bool {
	var allowed []string

	for _, route := range r.routes {
		vars := make(map[string]string)

		pathOK, methodOK := route.match(req, vars)
		if !pathOK {
			continue
		}

		if !methodOK {
			allowed = append(allowed, route.methods...)
			continue
		}

		match.Route = route
		match.Vars = vars
		match.Handler = r.wrapped(route)
		match.MatchErr = nil

		return true
	}

	if len(allowed) > 0 {
		slices.Sort(allowed)
		match.Allowed = slices.Compact(allowed)
		match.MatchErr = ErrMethodMismatch
		return false
	}

	match.MatchErr = ErrNotFound
	return false
}

func (r *Router) wrapped(route *Route) http.Handler {
	if route.handler == nil || len(r.middlewares) == 0 {
		return route.handler
	}

	if cached, ok := r.handlerCache.Load(route); ok {
		return cached.(http.Handler)
	}

	handler := route.handler
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		handler = r.middlewares[i](handler)
	}

	actual, _ := r.handlerCache.LoadOrStore(route, handler)

	return actual.(http.Handler)
}

func (r *Router) forget(route *Route) {
	r.handlerCache.Delete(route)
}

// NewRoute creates an empty route for configuration.
func (r *Router) NewRoute() *Route {
	route := &Route{router: r}
	r.routes = append(r.routes, route)

	return route
}

// Handle registers a new route with a matcher for the URL path and handler.
func (r *Router) Handle(path string, handler http.Handler) *Route {
	return r.NewRoute().Path(path).Handler(handler)
}

// HandleFunc registers a new route with a matcher for the URL path and
// handler function.
func (r *Router) HandleFunc(path string, f func(http.ResponseWriter, *http.Request)) *Route {
	return r.NewRoute().Path(path).HandlerFunc(f)
}

// Path registers a new route with a matcher for the URL path.
func (r *Router) Path(tpl string) *Route {
	return r.NewRoute().Path(tpl)
}

// PathPrefix registers a new route with a matcher for the URL path prefix.
func (r *Router) PathPrefix(tpl string) *Route {
	return r.NewRoute().PathPrefix(tpl)
}

// Methods registers a new route with a matcher for HTTP methods.
func (r *Router) Methods(methods ...string) *Route {
	return r.NewRoute().Methods(methods...)
}

// Use appends middleware applied to matched handlers only.
func (r *Router) Use(mwf ...MiddlewareFunc) {
	r.middlewares = append(r.middlewares, mwf...)
	r.handlerCache.Clear()
}
