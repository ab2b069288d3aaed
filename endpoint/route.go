package endpoint

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"

	"github.com/vitalvas/openroute/exceptions"
	"github.com/vitalvas/openroute/schema"
)

// ErrInvalidReturnType is the panic value wrapped when Handle returns a
// value that is neither nil, a *Response nor a JSON object or array.
var ErrInvalidReturnType = errors.New("endpoint: invalid return type")

const jsonContentType = "application/json;charset=UTF-8"

// Handler is an endpoint with a declared contract.
type Handler interface {
	// Schema returns the declared contract. It is called once when the
	// route is built.
	Schema() Schema

	// Handle serves one request. The request data is already validated.
	Handle(ctx context.Context, req *Request) (any, error)
}

// Provider is implemented by values that document themselves with a
// resolved schema.
type Provider interface {
	OpenAPISchema() Schema
}

// ErrorHandler writes the response for an error that is neither a
// validation error nor an exception.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Response is a fully specified handler result.
type Response struct {
	Status int
	Header http.Header

	// Body is written as is when it is []byte or string, JSON encoded
	// otherwise. A nil body writes no content.
	Body any
}

// JSON returns a response encoding body as JSON with status.
func JSON(status int, body any) *Response {
	return &Response{Status: status, Body: body}
}

// Option configures a Route.
type Option func(*Route)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(rt *Route) {
		rt.logger = logger
	}
}

// WithPathParams sets the accessor of matched path parameters. The
// default reads http.Request.PathValue for every declared parameter.
func WithPathParams(fn func(*http.Request) map[string]string) Option {
	return func(rt *Route) {
		rt.pathParamsFn = fn
	}
}

// WithErrorHandler sets the handler of untyped errors.
func WithErrorHandler(fn ErrorHandler) Option {
	return func(rt *Route) {
		rt.errorHandler = fn
	}
}

// WithRaiseUnknownParameters controls whether undeclared request sections
// are rejected. It is true by default.
func WithRaiseUnknownParameters(raise bool) Option {
	return func(rt *Route) {
		rt.raiseUnknown = raise
	}
}

// Route adapts a Handler to http.Handler: it extracts and validates the
// request, calls the handler and writes the result or the error envelope.
type Route struct {
	handler Handler
	schema  Schema

	logger       *slog.Logger
	pathParamsFn func(*http.Request) map[string]string
	errorHandler ErrorHandler
	raiseUnknown bool

	full   *schema.Validator
	noBody *schema.Validator
}

// New builds a route for h. The schema of h is resolved once.
func New(h Handler, opts ...Option) *Route {
	rt := &Route{
		handler:      h,
		schema:       Resolve(h),
		raiseUnknown: true,
	}

	for _, opt := range opts {
		opt(rt)
	}

	rt.build()

	return rt
}

// With returns a copy of the route with opts applied.
func (rt *Route) With(opts ...Option) *Route {
	out := *rt
	for _, opt := range opts {
		opt(&out)
	}

	out.build()

	return &out
}

func (rt *Route) build() {
	if rt.logger == nil {
		rt.logger = slog.Default()
	}

	rt.full = composite(rt.schema.Request, true, rt.raiseUnknown)
	rt.noBody = composite(rt.schema.Request, false, rt.raiseUnknown)
}

func composite(req *RequestSchema, withBody, strict bool) *schema.Validator {
	fields := schema.Fields{}

	if req != nil {
		if req.Params != nil {
			fields[SectionParams] = req.Params
		}
		if req.Query != nil {
			fields[SectionQuery] = req.Query
		}
		if req.Headers != nil {
			fields[SectionHeaders] = req.Headers
		}
		if withBody && req.Body != nil && req.Body.Schema != nil {
			fields[SectionBody] = req.Body.Schema
		}
	}

	v := schema.Object(fields)
	if strict {
		v = v.Strict()
	}

	return v
}

func (rt *Route) validator(withBody bool) *schema.Validator {
	if withBody {
		return rt.full
	}

	return rt.noBody
}

// Handler returns the wrapped endpoint.
func (rt *Route) Handler() Handler {
	return rt.handler
}

// OpenAPISchema returns the resolved schema.
func (rt *Route) OpenAPISchema() Schema {
	return rt.schema
}

func (rt *Route) pathParams(r *http.Request) map[string]string {
	if rt.pathParamsFn != nil {
		return rt.pathParamsFn(r)
	}

	req := rt.schema.Request
	if req == nil || req.Params == nil {
		return nil
	}

	out := make(map[string]string)
	for _, name := range req.Params.FieldNames() {
		if v := r.PathValue(name); v != "" {
			out[name] = v
		}
	}

	return out
}

// ServeHTTP runs the request lifecycle. Every request starts with empty
// caches.
func (rt *Route) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req := &Request{route: rt, w: w}
	req.req = r.WithContext(context.WithValue(r.Context(), requestContextKey{}, req))

	if _, err := req.ValidatedData(); err != nil {
		rt.fail(w, req.req, err)
		return
	}

	result, err := rt.handler.Handle(req.req.Context(), req)
	if err != nil {
		rt.fail(w, req.req, err)
		return
	}

	rt.write(w, result)
}

func (rt *Route) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *schema.ValidationError
	if errors.As(err, &verr) {
		rt.logger.Debug("request.validate.fail",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("issues", len(verr.Issues)),
		)
		exceptions.Write(w, exceptions.FromValidation(verr))
		return
	}

	var resp exceptions.Responder
	if errors.As(err, &resp) {
		if !resp.Visible() {
			rt.logger.Error("handler.error",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("error", err.Error()),
			)
		}
		exceptions.Write(w, resp)
		return
	}

	if rt.errorHandler != nil {
		rt.errorHandler(w, r, err)
		return
	}

	rt.defaultErrorHandler(w, r, err)
}

func (rt *Route) defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	rt.logger.Error("handler.error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)

	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (rt *Route) write(w http.ResponseWriter, result any) {
	if result == nil {
		return
	}

	if resp, ok := result.(*Response); ok {
		writeResponse(w, resp)
		return
	}

	if !isStructural(result) {
		panic(fmt.Errorf("%w: %T", ErrInvalidReturnType, result))
	}

	writeResponse(w, JSON(http.StatusOK, result))
}

func writeResponse(w http.ResponseWriter, resp *Response) {
	if resp == nil {
		return
	}

	for k, values := range resp.Header {
		for _, v := range values {
			w.Header().Add(k, v)
		}
	}

	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}

	var body []byte

	switch b := resp.Body.(type) {
	case nil:
	case []byte:
		body = b
	case string:
		body = []byte(b)
	default:
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		body = buf.Bytes()

		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", jsonContentType)
		}
	}

	w.WriteHeader(status)

	if len(body) > 0 {
		_, _ = w.Write(body)
	}
}

func isStructural(v any) bool {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return false
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map, reflect.Struct, reflect.Slice, reflect.Array:
		return true
	}

	return false
}
