package crud

import (
	"context"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cast"

	"github.com/vitalvas/openroute/endpoint"
	"github.com/vitalvas/openroute/schema"
)

// List query parameters that are not filters.
const (
	QueryPage             = "page"
	QueryPerPage          = "per_page"
	QueryOrderBy          = "order_by"
	QueryOrderByDirection = "order_by_direction"
)

// List returns a page of records matching the query filters.
type List struct {
	meta   Meta
	hooks  ListHandler
	opts   options
	schema endpoint.Schema
}

// NewList returns a List endpoint for meta. The query accepts the filter
// fields, page and per_page, order_by when order fields are set and the
// search parameter when search fields are set.
func NewList(meta Meta, hooks ListHandler, opts ...Option) (*List, error) {
	if err := meta.validate(false); err != nil {
		return nil, err
	}

	o := newOptions(http.StatusOK, opts)
	path := o.path(meta, false)

	query, err := meta.query(o.filterFields, path)
	if err != nil {
		return nil, err
	}

	extra := schema.Fields{
		QueryPage:    schema.Integer().Min(1).Default(1),
		QueryPerPage: schema.Integer().Min(1).Max(maxPerPage).Default(defaultPerPage),
	}

	if len(o.orderByFields) > 0 {
		for _, field := range o.orderByFields {
			if _, ok := meta.Schema.Field(field); !ok {
				return nil, fmt.Errorf("crud: %s: order field %q is not a schema field", meta.Table, field)
			}
		}

		orderBy := schema.Enum(toAny(o.orderByFields)...).Optional()
		if o.defaultOrderBy != "" {
			if !slices.Contains(o.orderByFields, o.defaultOrderBy) {
				return nil, fmt.Errorf("crud: %s: default order %q is not an order field", meta.Table, o.defaultOrderBy)
			}
			orderBy = orderBy.Default(o.defaultOrderBy)
		}

		extra[QueryOrderBy] = orderBy
		extra[QueryOrderByDirection] = schema.Enum("asc", "desc").Default("asc")
	}

	if len(o.searchFields) > 0 {
		for _, field := range o.searchFields {
			if _, ok := meta.Schema.Field(field); !ok {
				return nil, fmt.Errorf("crud: %s: search field %q is not a schema field", meta.Table, field)
			}
		}

		extra[o.searchField] = schema.String().Optional().Describe("Search in " + strings.Join(o.searchFields, ", "))
	}

	req := &endpoint.RequestSchema{Query: query.Extend(extra)}
	if len(path) > 0 {
		params, err := meta.pick(path)
		if err != nil {
			return nil, err
		}
		req.Params = params
	}

	info := schema.Object(schema.Fields{
		QueryPage:     schema.Integer(),
		QueryPerPage:  schema.Integer(),
		"total_count": schema.Integer().Optional(),
	})

	s := o.base(meta, "List")
	s.Request = req
	s.Responses = map[string]*endpoint.ResponseSchema{
		strconv.Itoa(o.status): {
			Description: "Successful response",
			Schema: schema.Object(schema.Fields{
				"success":     schema.Boolean(),
				"result":      schema.Array(meta.serializerSchema()),
				"result_info": info,
			}),
		},
	}

	return &List{meta: meta, hooks: hooks, opts: o, schema: s}, nil
}

// Name returns the endpoint name, "UsersList" for table "users".
func (l *List) Name() string {
	return l.opts.endpointName(l.meta, "List")
}

func (l *List) Schema() endpoint.Schema {
	return l.schema
}

// filters splits the query into options, the LIKE search filter and EQ
// filters. Path parameters are EQ filters too.
func (l *List) filters(req *endpoint.Request) Filters {
	out := Filters{
		Filters: eqFilters(req.Params()),
		Options: Options{Page: 1, PerPage: defaultPerPage},
	}

	query := req.Query()

	for _, key := range slices.Sorted(maps.Keys(query)) {
		value := query[key]

		switch {
		case key == QueryPage:
			out.Options.Page = cast.ToInt(value)
		case key == QueryPerPage:
			out.Options.PerPage = cast.ToInt(value)
		case key == QueryOrderBy && len(l.opts.orderByFields) > 0:
			out.Options.OrderBy = cast.ToString(value)
		case key == QueryOrderByDirection && len(l.opts.orderByFields) > 0:
			out.Options.OrderByDirection = cast.ToString(value)
		case key == l.opts.searchField && len(l.opts.searchFields) > 0:
			out.Filters = append(out.Filters, Filter{Field: key, Operator: LIKE, Value: value})
			out.Options.SearchFields = l.opts.searchFields
		default:
			out.Filters = append(out.Filters, Filter{Field: key, Operator: EQ, Value: value})
		}
	}

	return out
}

func (l *List) Handle(ctx context.Context, req *endpoint.Request) (any, error) {
	filters, err := l.hooks.BeforeList(ctx, l.filters(req))
	if err != nil {
		return nil, err
	}

	result, err := l.hooks.List(ctx, filters)
	if err != nil {
		return nil, err
	}

	result, err = l.hooks.AfterList(ctx, result)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(result.Records))
	for _, r := range result.Records {
		records = append(records, l.meta.serialize(r))
	}

	info := map[string]any{
		QueryPage:    filters.Options.Page,
		QueryPerPage: filters.Options.PerPage,
	}
	if result.TotalCount != nil {
		info["total_count"] = *result.TotalCount
	}

	return endpoint.JSON(l.opts.status, map[string]any{
		"success":     true,
		"result":      records,
		"result_info": info,
	}), nil
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}

	return out
}
