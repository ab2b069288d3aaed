package crud

import (
	"maps"
	"slices"

	"github.com/vitalvas/openroute/endpoint"
	"github.com/vitalvas/openroute/exceptions"
	"github.com/vitalvas/openroute/openapi"
	"github.com/vitalvas/openroute/schema"
)

const (
	defaultSearchField = "search"
	defaultPerPage     = 20
	maxPerPage         = 100
)

// Option configures a CRUD endpoint.
type Option func(*options)

type options struct {
	name        string
	tags        []string
	summary     string
	description string
	operationID string
	security    []openapi.SecurityRequirement

	pathParams []string
	pathSet    bool
	defaults   map[string]func() any
	status     int

	filterFields   []string
	searchFields   []string
	searchField    string
	orderByFields  []string
	defaultOrderBy string
}

func newOptions(status int, opts []Option) options {
	o := options{
		status:      status,
		searchField: defaultSearchField,
	}

	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// WithName overrides the endpoint name used for the operation id.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithTags sets the OpenAPI tags of the endpoint.
func WithTags(tags ...string) Option {
	return func(o *options) {
		o.tags = tags
	}
}

// WithSummary sets the OpenAPI summary.
func WithSummary(summary string) Option {
	return func(o *options) {
		o.summary = summary
	}
}

// WithDescription sets the OpenAPI description.
func WithDescription(description string) Option {
	return func(o *options) {
		o.description = description
	}
}

// WithOperationID sets an explicit operation id.
func WithOperationID(id string) Option {
	return func(o *options) {
		o.operationID = id
	}
}

// WithSecurity sets the security requirements of the endpoint.
func WithSecurity(requirements ...openapi.SecurityRequirement) Option {
	return func(o *options) {
		o.security = requirements
	}
}

// WithPathParameters names the model fields bound to the URL. Read, Update
// and Delete default to the primary keys; Create and List default to none.
func WithPathParameters(fields ...string) Option {
	return func(o *options) {
		o.pathParams = fields
		o.pathSet = true
	}
}

// WithDefaults sets value factories for Create. A field with a factory is
// optional in the body and filled by its factory when absent.
func WithDefaults(factories map[string]func() any) Option {
	return func(o *options) {
		o.defaults = factories
	}
}

// WithStatus sets the success status code.
func WithStatus(status int) Option {
	return func(o *options) {
		o.status = status
	}
}

// WithFilterFields sets the List fields accepted as EQ query filters.
func WithFilterFields(fields ...string) Option {
	return func(o *options) {
		o.filterFields = fields
	}
}

// WithSearchFields enables the List free text search over fields.
func WithSearchFields(fields ...string) Option {
	return func(o *options) {
		o.searchFields = fields
	}
}

// WithSearchFieldName renames the List search query parameter.
func WithSearchFieldName(name string) Option {
	return func(o *options) {
		o.searchField = name
	}
}

// WithOrderByFields sets the List columns accepted by order_by.
func WithOrderByFields(fields ...string) Option {
	return func(o *options) {
		o.orderByFields = fields
	}
}

// WithDefaultOrderBy sets the List order column used when none is
// requested.
func WithDefaultOrderBy(field string) Option {
	return func(o *options) {
		o.defaultOrderBy = field
	}
}

// path returns the URL bound fields, falling back to the primary keys when
// keyed is set.
func (o options) path(m Meta, keyed bool) []string {
	if o.pathSet || !keyed {
		return o.pathParams
	}

	return m.PrimaryKeys
}

// base returns the documented parts shared by every template.
func (o options) base(m Meta, verb string) endpoint.Schema {
	s := endpoint.Schema{
		Tags:        o.tags,
		Summary:     o.summary,
		Description: o.description,
		OperationID: o.operationID,
		Security:    o.security,
	}

	if s.Summary == "" {
		s.Summary = verb + " " + m.typeName()
	}

	return s
}

func (o options) endpointName(m Meta, kind string) string {
	if o.name != "" {
		return o.name
	}

	return m.typeName() + kind
}

// eqFilters turns each entry of the sections into an EQ filter. Fields are
// ordered by name within a section.
func eqFilters(sections ...map[string]any) []Filter {
	var out []Filter
	for _, section := range sections {
		for _, field := range slices.Sorted(maps.Keys(section)) {
			out = append(out, Filter{Field: field, Operator: EQ, Value: section[field]})
		}
	}

	return out
}

func asRecord(v any) Record {
	r, _ := v.(map[string]any)
	if r == nil {
		return Record{}
	}

	return r
}

// successResponse documents {success, result} with the public record shape.
func successResponse(result *schema.Validator) *endpoint.ResponseSchema {
	return &endpoint.ResponseSchema{
		Description: "Successful response",
		Schema: schema.Object(schema.Fields{
			"success": schema.Boolean(),
			"result":  result,
		}),
	}
}

func errorResponse(e *exceptions.Exception) *endpoint.ResponseSchema {
	return &endpoint.ResponseSchema{
		Description: e.Message,
		Schema:      e.Schema(),
	}
}

func success(status int, result any) *endpoint.Response {
	return endpoint.JSON(status, map[string]any{
		"success": true,
		"result":  result,
	})
}
