package endpoint

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/elnormous/contenttype"

	"github.com/vitalvas/openroute/exceptions"
	"github.com/vitalvas/openroute/schema"
)

// Request section keys of the raw and validated data.
const (
	SectionParams  = "params"
	SectionQuery   = "query"
	SectionHeaders = "headers"
	SectionBody    = "body"
)

var jsonMediaType = contenttype.NewMediaType(DefaultContentType)

type requestContextKey struct{}

// Request is the per-request state of a route. Raw and validated data are
// computed once and cached.
type Request struct {
	route *Route
	req   *http.Request
	w     http.ResponseWriter

	raw       map[string]any
	rawErr    error
	rawDone   bool
	valid     map[string]any
	validErr  error
	validDone bool
}

// RequestFromContext returns the route request stored in ctx by
// Route.ServeHTTP.
func RequestFromContext(ctx context.Context) (*Request, bool) {
	r, ok := ctx.Value(requestContextKey{}).(*Request)
	return r, ok
}

// HTTP returns the underlying HTTP request.
func (r *Request) HTTP() *http.Request {
	return r.req
}

// ResponseWriter returns the writer of the current response.
func (r *Request) ResponseWriter() http.ResponseWriter {
	return r.w
}

// UnvalidatedData returns the coerced but unvalidated request data keyed by
// section. Only declared sections are read, with one exception: a query
// string on a route without a query schema is kept so strict validation
// can reject it.
func (r *Request) UnvalidatedData() (map[string]any, error) {
	if r.rawDone {
		return r.raw, r.rawErr
	}

	r.raw, r.rawErr = r.extract()
	r.rawDone = true

	return r.raw, r.rawErr
}

// ValidatedData returns the validated, typed and defaulted request data.
// A failed validation returns a *schema.ValidationError.
func (r *Request) ValidatedData() (map[string]any, error) {
	if r.validDone {
		return r.valid, r.validErr
	}

	raw, err := r.UnvalidatedData()
	if err == nil {
		r.valid, err = r.ValidateRequest(raw)
	}

	r.validErr = err
	r.validDone = true

	return r.valid, r.validErr
}

// ValidateRequest validates raw against the composite schema of the
// declared sections. Top level keys that are not declared sections are
// rejected unless the route allows unknown parameters.
func (r *Request) ValidateRequest(raw map[string]any) (map[string]any, error) {
	v := r.route.validator(r.readsBody())

	out, err := v.Parse(raw)
	if err != nil {
		return nil, err
	}

	data, _ := out.(map[string]any)
	if data == nil {
		data = map[string]any{}
	}

	return data, nil
}

// Params returns the validated path parameters.
func (r *Request) Params() map[string]any {
	return r.section(SectionParams)
}

// Query returns the validated query parameters.
func (r *Request) Query() map[string]any {
	return r.section(SectionQuery)
}

// Headers returns the validated headers.
func (r *Request) Headers() map[string]any {
	return r.section(SectionHeaders)
}

// Body returns the validated body.
func (r *Request) Body() any {
	if r.valid == nil {
		return nil
	}

	return r.valid[SectionBody]
}

// Decode binds a validated section into out.
func (r *Request) Decode(section string, out any) error {
	data, err := r.ValidatedData()
	if err != nil {
		return err
	}

	return schema.Decode(data[section], out)
}

func (r *Request) section(name string) map[string]any {
	if r.valid == nil {
		return nil
	}

	m, _ := r.valid[name].(map[string]any)

	return m
}

func (r *Request) readsBody() bool {
	req := r.route.schema.Request
	if req == nil || req.Body == nil || req.Body.Schema == nil {
		return false
	}

	return r.req.Method != http.MethodGet && r.req.Method != http.MethodHead
}

func (r *Request) extract() (map[string]any, error) {
	raw := make(map[string]any, 4)
	decl := r.route.schema.Request

	query := r.req.URL.Query()

	if decl == nil {
		if len(query) > 0 {
			raw[SectionQuery] = schema.Coerce(query, nil)
		}
		return raw, nil
	}

	if decl.Params != nil {
		raw[SectionParams] = orEmpty(schema.Coerce(pathValues(r.route.pathParams(r.req)), decl.Params))
	}

	switch {
	case decl.Query != nil:
		raw[SectionQuery] = orEmpty(schema.Coerce(query, decl.Query))
	case len(query) > 0:
		raw[SectionQuery] = schema.Coerce(query, nil)
	}

	if decl.Headers != nil {
		names := decl.Headers.FieldNames()
		headers := make(map[string]any, len(names))
		for _, name := range names {
			headers[name] = r.req.Header.Get(name)
		}
		raw[SectionHeaders] = orEmpty(schema.CoerceMap(headers, decl.Headers))
	}

	if r.readsBody() {
		body, err := r.readBody()
		if err != nil {
			return nil, err
		}
		raw[SectionBody] = body
	}

	return raw, nil
}

// readBody reads a JSON body once. A non-JSON media type or an unparsable
// document yields an empty object.
func (r *Request) readBody() (any, error) {
	if r.req.Body == nil || r.req.Body == http.NoBody {
		return map[string]any{}, nil
	}

	if r.req.Header.Get("Content-Type") != "" {
		ctype, err := contenttype.GetMediaType(r.req)
		if err != nil || !isJSON(ctype) {
			return map[string]any{}, nil
		}
	}

	data, err := io.ReadAll(r.req.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, exceptions.PayloadTooLarge("")
		}
		return nil, fmt.Errorf("endpoint: read body: %w", err)
	}
	r.req.Body = io.NopCloser(bytes.NewReader(data))

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var body any
	if err := dec.Decode(&body); err != nil || body == nil {
		return map[string]any{}, nil
	}

	return body, nil
}

func isJSON(mt contenttype.MediaType) bool {
	if mt.Matches(jsonMediaType) {
		return true
	}

	return mt.Type == "application" && strings.HasSuffix(mt.Subtype, "+json")
}

func pathValues(params map[string]string) url.Values {
	if len(params) == 0 {
		return nil
	}

	values := make(url.Values, len(params))
	for k, v := range params {
		values.Set(k, v)
	}

	return values
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}

	return m
}
