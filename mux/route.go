package mux

import (
	"net/http"
	"slices"
	"strings"
)

// Route stores information to match a request.
type Route struct {
	router  *Router
	handler http.Handler
	path    *pathTemplate
	methods []string
	err     error
}

// match reports whether the path of req matches and whether the method
// does. Variables are written into vars only on a full match.
func (r *Route) match(req *http.Request, vars map[string]string) (pathOK, methodOK bool) {
	if r.err != nil {
		return false, false
	}

	if r.path != nil && !r.path.match(req.URL.Path, nil) {
		return false, false
	}

	methodOK = len(r.methods) == 0 || slices.Contains(r.methods, req.Method)
	if methodOK && r.path != nil {
		r.path.match(req.URL.Path, vars)
	}

	return true, methodOK
}

// Path sets the path template the route matches in full.
func (r *Route) Path(tpl string) *Route {
	return r.setPath(tpl, false)
}

// PathPrefix sets the path template the route matches as a prefix.
func (r *Route) PathPrefix(tpl string) *Route {
	return r.setPath(tpl, true)
}

func (r *Route) setPath(tpl string, prefix bool) *Route {
	if r.err != nil {
		return r
	}

	r.path, r.err = newPathTemplate(tpl, prefix)

	return r
}

// Methods restricts the route to the given request methods. Calling it
// again replaces the previous set.
func (r *Route) Methods(methods ...string) *Route {
	r.methods = make([]string, len(methods))
	for i, m := range methods {
		r.methods[i] = strings.ToUpper(m)
	}

	return r
}

// Handler sets the handler of the route.
func (r *Route) Handler(handler http.Handler) *Route {
	if r.err == nil {
		r.handler = handler
		r.router.forget(r)
	}

	return r
}

// HandlerFunc sets a handler function for the route.
func (r *Route) HandlerFunc(f func(http.ResponseWriter, *http.Request)) *Route {
	return r.Handler(http.HandlerFunc(f))
}
