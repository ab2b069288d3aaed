package endpoint

import (
	"maps"
	"sort"

	"github.com/vitalvas/openroute/openapi"
	"github.com/vitalvas/openroute/schema"
)

// DefaultContentType is the body media type used when none is declared.
const DefaultContentType = "application/json"

// Schema is the declared request and response contract of an endpoint.
type Schema struct {
	Tags        []string
	Summary     string
	Description string
	OperationID string
	Deprecated  bool
	Security    []openapi.SecurityRequirement

	Request *RequestSchema

	// Responses is keyed by status code ("200", "404") or "default".
	Responses map[string]*ResponseSchema
}

// RequestSchema groups the validators of the request sections. Params,
// Query and Headers are object validators; nil sections are not read.
type RequestSchema struct {
	Params  *schema.Validator
	Query   *schema.Validator
	Headers *schema.Validator
	Body    *Body
}

// Body describes the request body.
type Body struct {
	Description string
	ContentType string
	Schema      *schema.Validator
}

// JSONBody declares a JSON request body validated by v.
func JSONBody(v *schema.Validator) *Body {
	return &Body{ContentType: DefaultContentType, Schema: v}
}

func (b *Body) contentType() string {
	if b.ContentType == "" {
		return DefaultContentType
	}

	return b.ContentType
}

// ResponseSchema describes one documented response.
type ResponseSchema struct {
	Description string
	ContentType string
	Schema      *schema.Validator
	Headers     map[string]*schema.Validator
}

// Resolve returns a shallow copy of the schema of h with a default 200
// response when none is declared. Nested request and response values are
// shared with the declared schema.
func Resolve(h Handler) Schema {
	s := h.Schema()

	if s.Responses == nil {
		s.Responses = map[string]*ResponseSchema{
			"200": {Description: "Successful response", Schema: schema.Object(nil)},
		}
	}

	return s
}

// Operation renders the schema as an OpenAPI operation for version.
// Path parameters are always required.
func (s Schema) Operation(version string) *openapi.Operation {
	op := &openapi.Operation{
		Tags:        s.Tags,
		Summary:     s.Summary,
		Description: s.Description,
		OperationID: s.OperationID,
		Deprecated:  s.Deprecated,
		Security:    s.Security,
		Responses:   make(map[string]*openapi.Response, len(s.Responses)),
	}

	if req := s.Request; req != nil {
		op.Parameters = append(op.Parameters, parameters(req.Params, "path", version)...)
		op.Parameters = append(op.Parameters, parameters(req.Query, "query", version)...)
		op.Parameters = append(op.Parameters, parameters(req.Headers, "header", version)...)

		if req.Body != nil && req.Body.Schema != nil {
			op.RequestBody = &openapi.RequestBody{
				Description: req.Body.Description,
				Required:    req.Body.Schema.IsRequired(),
				Content: map[string]*openapi.MediaType{
					req.Body.contentType(): {Schema: req.Body.Schema.OpenAPI(version)},
				},
			}
		}
	}

	for _, code := range sortedKeys(s.Responses) {
		op.Responses[code] = response(code, s.Responses[code], version)
	}

	if len(op.Responses) == 0 {
		op.Responses = openapi.DefaultResponses()
	}

	return op
}

func parameters(v *schema.Validator, in, version string) []*openapi.Parameter {
	if v == nil {
		return nil
	}

	names := v.FieldNames()
	out := make([]*openapi.Parameter, 0, len(names))

	for _, name := range names {
		f, _ := v.Field(name)
		meta := f.Meta()

		p := &openapi.Parameter{
			Name:        name,
			In:          in,
			Description: meta.Description,
			Required:    in == "path" || f.IsRequired(),
			Deprecated:  meta.Deprecated,
			Schema:      f.OpenAPI(version),
		}

		if meta.HasExample {
			p.Example = p.Schema.Example
			p.Schema.Example = nil
		}

		out = append(out, p)
	}

	return out
}

func response(code string, r *ResponseSchema, version string) *openapi.Response {
	out := &openapi.Response{Description: r.Description}
	if out.Description == "" {
		out.Description = openapi.ResponseDescription(code)
	}

	if r.Schema != nil {
		ct := r.ContentType
		if ct == "" {
			ct = DefaultContentType
		}

		out.Content = map[string]*openapi.MediaType{
			ct: {Schema: r.Schema.OpenAPI(version)},
		}
	}

	if len(r.Headers) > 0 {
		out.Headers = make(map[string]*openapi.Header, len(r.Headers))
		for name, h := range r.Headers {
			out.Headers[name] = &openapi.Header{
				Description: h.Meta().Description,
				Required:    h.IsRequired(),
				Schema:      h.OpenAPI(version),
			}
		}
	}

	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range maps.Keys(m) {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}
