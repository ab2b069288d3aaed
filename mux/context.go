package mux

import (
	"context"
	"errors"
	"net/http"
)

type routeContextKey struct{}

var ctxKey = routeContextKey{}

type routeContext struct {
	vars map[string]string
}

// Vars returns the route variables for the current request, if any.
func Vars(r *http.Request) map[string]string {
	if rc, ok := r.Context().Value(ctxKey).(*routeContext); ok {
		return rc.vars
	}
	return nil
}

func setVars(r *http.Request, vars map[string]string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), ctxKey, &routeContext{vars: vars}))
}

// RouteMatch stores information about a matched route.
type RouteMatch struct {
	// Route is the matched route, if any.
	Route *Route

	// Handler is the middleware-wrapped handler of the matched route.
	Handler http.Handler

	// Vars contains the extracted path variables.
	Vars map[string]string

	// MatchErr is ErrMethodMismatch when a route matched the path but not
	// the method, ErrNotFound when nothing matched.
	MatchErr error

	// Allowed lists the methods registered for the path on a method
	// mismatch, sorted.
	Allowed []string
}

// MiddlewareFunc receives an http.Handler and returns another one.
type MiddlewareFunc func(http.Handler) http.Handler

// ErrMethodMismatch is recorded when the path matched but the method did not.
var ErrMethodMismatch = errors.New("method is not allowed")

// ErrNotFound is recorded when no route matched.
var ErrNotFound = errors.New("no matching route was found")
