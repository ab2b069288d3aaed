package router

import (
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"slices"
	"strings"

	"github.com/vitalvas/openroute/endpoint"
	"github.com/vitalvas/openroute/mux"
	"github.com/vitalvas/openroute/openapi"
	"github.com/vitalvas/openroute/schema"
)

// Mountable is implemented by sub-routers. Their registry is merged into
// the parent on mount.
type Mountable interface {
	http.Handler
	Registry() *openapi.Registry
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger of the router and its endpoints.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

// WithErrorHandler sets the handler of untyped endpoint errors.
func WithErrorHandler(fn endpoint.ErrorHandler) Option {
	return func(r *Router) {
		r.errorHandler = fn
	}
}

// Router registers schema-described endpoints on an Adapter and keeps the
// OpenAPI registry of everything registered.
//
// Registration is not safe for concurrent use and must finish before the
// router serves requests.
type Router struct {
	cfg          Config
	adapter      Adapter
	registry     *openapi.Registry
	logger       *slog.Logger
	errorHandler endpoint.ErrorHandler
}

// New returns a router registering on adapter. A nil adapter uses a new
// MuxAdapter. The documentation routes are added unless disabled.
func New(adapter Adapter, cfg Config, opts ...Option) (*Router, error) {
	cfg, err := prepare(cfg)
	if err != nil {
		return nil, err
	}

	if adapter == nil {
		adapter = NewMuxAdapter(nil)
	}

	r := &Router{
		cfg:      cfg,
		adapter:  adapter,
		registry: openapi.NewRegistry(),
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}

	for name, scheme := range cfg.SecuritySchemes {
		r.registry.AddSecurityScheme(name, scheme)
	}
	for _, tag := range cfg.Tags {
		r.registry.AddTag(tag)
	}

	if !cfg.DisableDocs {
		r.registerDocs()
	}

	return r, nil
}

// Config returns the effective options.
func (r *Router) Config() Config {
	return r.cfg
}

// Registry returns the path registry.
func (r *Router) Registry() *openapi.Registry {
	return r.registry
}

// Adapter returns the underlying adapter.
func (r *Router) Adapter() Adapter {
	return r.adapter
}

// Version returns the OpenAPI version of the generated document.
func (r *Router) Version() string {
	return openapi.VersionFor(r.cfg.OpenAPIVersion)
}

// Document builds the OpenAPI document of the registered routes.
func (r *Router) Document() *openapi.Document {
	return r.registry.Document(openapi.DocumentConfig{
		Version:  r.Version(),
		Info:     r.cfg.Info,
		Servers:  r.cfg.Servers,
		Security: r.cfg.Security,
	})
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.adapter.ServeHTTP(w, req)
}

// Get registers handlers for GET requests on path.
func (r *Router) Get(path string, handlers ...any) error {
	return r.Handle(http.MethodGet, path, handlers...)
}

// Post registers handlers for POST requests on path.
func (r *Router) Post(path string, handlers ...any) error {
	return r.Handle(http.MethodPost, path, handlers...)
}

// Put registers handlers for PUT requests on path.
func (r *Router) Put(path string, handlers ...any) error {
	return r.Handle(http.MethodPut, path, handlers...)
}

// Patch registers handlers for PATCH requests on path.
func (r *Router) Patch(path string, handlers ...any) error {
	return r.Handle(http.MethodPatch, path, handlers...)
}

// Delete registers handlers for DELETE requests on path.
func (r *Router) Delete(path string, handlers ...any) error {
	return r.Handle(http.MethodDelete, path, handlers...)
}

// Head registers handlers for HEAD requests on path.
func (r *Router) Head(path string, handlers ...any) error {
	return r.Handle(http.MethodHead, path, handlers...)
}

// Options registers handlers for OPTIONS requests on path.
func (r *Router) Options(path string, handlers ...any) error {
	return r.Handle(http.MethodOptions, path, handlers...)
}

// All mounts sub below path. A trailing "*" is ignored, so "/api/*" and
// "/api" are the same mount point.
func (r *Router) All(path string, sub Mountable) error {
	return r.mount(path, sub)
}

// Handle registers a handler chain for method and path. The chain is zero
// or more middlewares followed by one terminal handler: an
// endpoint.Handler, an *endpoint.Route, an http.Handler or a handler
// function. A single Mountable is mounted instead.
func (r *Router) Handle(method, path string, handlers ...any) error {
	method = strings.ToUpper(method)

	if len(handlers) == 0 {
		return &ConfigError{Method: method, Path: path, Reason: "no handler"}
	}

	if len(handlers) == 1 {
		if sub, ok := handlers[0].(Mountable); ok {
			return r.mount(path, sub)
		}
	}

	routePath := openapi.JoinPath(r.cfg.Base, path)
	docPath, autoParams := openapi.ParsePath(routePath)

	terminal, err := r.terminal(method, routePath, handlers[len(handlers)-1])
	if err != nil {
		return err
	}

	middlewares, err := middlewaresOf(method, routePath, handlers[:len(handlers)-1])
	if err != nil {
		return err
	}

	op, err := r.operation(method, docPath, autoParams, handlers, terminal)
	if err != nil {
		return err
	}

	var h http.Handler = terminal
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}

	r.registry.Add(docPath, method, op)
	r.adapter.Handle(method, routePath, h)

	r.logger.Debug("route.register",
		slog.String("method", method),
		slog.String("path", docPath),
		slog.String("operation_id", op.OperationID),
	)

	return nil
}

func (r *Router) endpointOptions() []endpoint.Option {
	opts := []endpoint.Option{
		endpoint.WithLogger(r.logger),
		endpoint.WithPathParams(r.adapter.PathParams),
		endpoint.WithRaiseUnknownParameters(*r.cfg.RaiseUnknownParameters),
	}

	if r.errorHandler != nil {
		opts = append(opts, endpoint.WithErrorHandler(r.errorHandler))
	}

	return opts
}

func (r *Router) terminal(method, path string, h any) (http.Handler, error) {
	switch t := h.(type) {
	case *endpoint.Route:
		return t.With(endpoint.WithPathParams(r.adapter.PathParams)), nil
	case endpoint.Handler:
		return endpoint.New(t, r.endpointOptions()...), nil
	case http.Handler:
		return t, nil
	case func(http.ResponseWriter, *http.Request):
		return http.HandlerFunc(t), nil
	}

	return nil, &ConfigError{Method: method, Path: path, Reason: fmt.Sprintf("unsupported handler %T", h)}
}

func middlewaresOf(method, path string, handlers []any) ([]func(http.Handler) http.Handler, error) {
	out := make([]func(http.Handler) http.Handler, 0, len(handlers))

	for _, h := range handlers {
		switch t := h.(type) {
		case func(http.Handler) http.Handler:
			out = append(out, t)
		case mux.MiddlewareFunc:
			out = append(out, t)
		default:
			return nil, &ConfigError{Method: method, Path: path, Reason: fmt.Sprintf("unsupported middleware %T", h)}
		}
	}

	return out, nil
}

// operation builds the documented operation of a chain. The first
// endpoint in the chain supplies the schema; without one a default 200
// response and string path parameters are documented.
func (r *Router) operation(method, docPath string, autoParams []*openapi.Parameter, handlers []any, terminal http.Handler) (*openapi.Operation, error) {
	var (
		op   *openapi.Operation
		name string
	)

	chain := append(append([]any{}, handlers[:len(handlers)-1]...), terminal)

	for _, h := range chain {
		if name == "" {
			name = handlerName(h)
		}

		if op != nil {
			continue
		}

		if p, ok := h.(endpoint.Provider); ok {
			s := p.OpenAPISchema()
			op = s.Operation(r.Version())

			if s.Request == nil || s.Request.Params == nil {
				op.Parameters = openapi.MergeParameters(autoParams, op.Parameters)
			} else if err := checkPathParams(s.Request.Params, autoParams); err != nil {
				return nil, &ConfigError{Method: method, Path: docPath, Reason: err.Error()}
			}
		}
	}

	if op == nil {
		op = &openapi.Operation{
			Parameters: autoParams,
			Responses:  openapi.DefaultResponses(),
		}
	}

	if op.OperationID == "" {
		if !*r.cfg.GenerateOperationIDs {
			return nil, &ConfigError{Method: method, Path: docPath, Reason: "operation id required when generation is disabled"}
		}

		op.OperationID = OperationID(method, name, docPath)
	}

	return op, nil
}

// checkPathParams requires the declared path parameters to be exactly the
// variables of the route template.
func checkPathParams(params *schema.Validator, vars []*openapi.Parameter) error {
	declared := params.FieldNames()

	names := make([]string, 0, len(vars))
	for _, p := range vars {
		names = append(names, p.Name)
	}
	slices.Sort(names)

	if !slices.Equal(declared, names) {
		return fmt.Errorf("path parameters %v differ from url parameters %v", declared, names)
	}

	return nil
}

// OperationID derives an operation id from the handler name, or from the
// path when the handler has none.
func OperationID(method, name, path string) string {
	method = strings.ToLower(method)

	if name != "" {
		return method + "_" + name
	}

	return method + "_" + strings.ReplaceAll(path, "/", "_")
}

// handlerName returns the Name() of h, the endpoint wrapped by a route, or
// the struct type name of h. Functions have no name.
func handlerName(h any) string {
	if n, ok := h.(interface{ Name() string }); ok {
		return n.Name()
	}

	if rt, ok := h.(*endpoint.Route); ok {
		return handlerName(rt.Handler())
	}

	t := reflect.TypeOf(h)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t == nil || t.Kind() != reflect.Struct {
		return ""
	}

	return t.Name()
}

func (r *Router) mount(path string, sub Mountable) error {
	prefix := openapi.JoinPath(r.cfg.Base, strings.TrimSuffix(path, "*"))

	if strings.ContainsAny(prefix, "{}") {
		return &ConfigError{Method: "ALL", Path: prefix, Reason: "mount path must be static"}
	}

	if prefix == "/" {
		return &ConfigError{Method: "ALL", Path: prefix, Reason: "cannot mount at the root"}
	}

	r.registry.Merge(prefix, sub.Registry())
	r.adapter.Mount(prefix, sub)

	r.logger.Debug("route.mount", slog.String("prefix", prefix))

	return nil
}

func (r *Router) registerDocs() {
	specURL := openapi.JoinPath(r.cfg.Base, r.cfg.OpenAPIURL)
	title := r.cfg.Info.Title

	r.adapter.Handle(http.MethodGet, specURL, openapi.JSONHandler(r.Document))
	r.adapter.Handle(http.MethodGet, openapi.JoinPath(r.cfg.Base, r.cfg.YAMLURL()), openapi.YAMLHandler(r.Document))
	r.adapter.Handle(http.MethodGet, openapi.JoinPath(r.cfg.Base, r.cfg.DocsURL), openapi.SwaggerUIHandler(title, specURL, nil))
	r.adapter.Handle(http.MethodGet, openapi.JoinPath(r.cfg.Base, r.cfg.RedocURL), openapi.RedocHandler(title, specURL))
}
