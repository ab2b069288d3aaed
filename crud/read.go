package crud

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/vitalvas/openroute/endpoint"
	"github.com/vitalvas/openroute/exceptions"
)

// Read fetches one record selected by the path parameters and the
// optional query filters.
type Read struct {
	meta   Meta
	hooks  ReadHandler
	opts   options
	schema endpoint.Schema
}

// NewRead returns a Read endpoint for meta. The path parameters default to
// the primary keys; every one of them must be a schema field.
func NewRead(meta Meta, hooks ReadHandler, opts ...Option) (*Read, error) {
	o := newOptions(http.StatusOK, opts)

	if err := meta.validate(!o.pathSet); err != nil {
		return nil, err
	}

	path := o.path(meta, true)
	if len(path) == 0 {
		return nil, fmt.Errorf("crud: %s: read needs path parameters", meta.Table)
	}

	params, err := meta.pick(path)
	if err != nil {
		return nil, err
	}

	req := &endpoint.RequestSchema{Params: params}
	if len(o.filterFields) > 0 {
		query, err := meta.query(o.filterFields, path)
		if err != nil {
			return nil, err
		}
		req.Query = query
	}

	s := o.base(meta, "Get")
	s.Request = req
	s.Responses = map[string]*endpoint.ResponseSchema{
		strconv.Itoa(o.status): successResponse(meta.serializerSchema()),
		"404":                  errorResponse(exceptions.NotFound("")),
	}

	return &Read{meta: meta, hooks: hooks, opts: o, schema: s}, nil
}

// Name returns the endpoint name, "UsersRead" for table "users".
func (r *Read) Name() string {
	return r.opts.endpointName(r.meta, "Read")
}

func (r *Read) Schema() endpoint.Schema {
	return r.schema
}

func (r *Read) Handle(ctx context.Context, req *endpoint.Request) (any, error) {
	filters := Filters{Filters: eqFilters(req.Params(), req.Query())}

	filters, err := r.hooks.BeforeFetch(ctx, filters)
	if err != nil {
		return nil, err
	}

	obj, err := r.hooks.Fetch(ctx, filters)
	if err != nil {
		return nil, err
	}

	if obj == nil {
		return nil, exceptions.NotFound("")
	}

	obj, err = r.hooks.AfterFetch(ctx, obj)
	if err != nil {
		return nil, err
	}

	return success(r.opts.status, r.meta.serialize(obj)), nil
}
