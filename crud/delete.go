package crud

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strconv"

	"github.com/vitalvas/openroute/endpoint"
	"github.com/vitalvas/openroute/exceptions"
)

// Delete removes the record selected by its primary keys and returns it.
type Delete struct {
	meta   Meta
	hooks  DeleteHandler
	opts   options
	schema endpoint.Schema
}

// NewDelete returns a Delete endpoint for meta. Primary keys bound to the
// path are path parameters; the others are required body fields.
func NewDelete(meta Meta, hooks DeleteHandler, opts ...Option) (*Delete, error) {
	o := newOptions(http.StatusOK, opts)

	if err := meta.validate(!o.pathSet); err != nil {
		return nil, err
	}

	path := o.path(meta, true)

	keys := meta.PrimaryKeys
	if len(keys) == 0 {
		keys = path
	}

	var inBody []string
	for _, key := range keys {
		if !slices.Contains(path, key) {
			inBody = append(inBody, key)
		}
	}

	if len(path)+len(inBody) == 0 {
		return nil, fmt.Errorf("crud: %s: delete needs primary keys", meta.Table)
	}

	req := &endpoint.RequestSchema{}

	if len(path) > 0 {
		params, err := meta.pick(path)
		if err != nil {
			return nil, err
		}
		req.Params = params
	}

	if len(inBody) > 0 {
		body, err := meta.pick(inBody)
		if err != nil {
			return nil, err
		}
		req.Body = endpoint.JSONBody(body)
	}

	s := o.base(meta, "Delete")
	s.Request = req
	s.Responses = map[string]*endpoint.ResponseSchema{
		strconv.Itoa(o.status): successResponse(meta.serializerSchema()),
		"404":                  errorResponse(exceptions.NotFound("")),
	}

	return &Delete{meta: meta, hooks: hooks, opts: o, schema: s}, nil
}

// Name returns the endpoint name, "UsersDelete" for table "users".
func (d *Delete) Name() string {
	return d.opts.endpointName(d.meta, "Delete")
}

func (d *Delete) Schema() endpoint.Schema {
	return d.schema
}

func (d *Delete) Handle(ctx context.Context, req *endpoint.Request) (any, error) {
	filters := Filters{Filters: eqFilters(req.Params(), asRecord(req.Body()))}

	old, err := d.hooks.GetObject(ctx, filters)
	if err != nil {
		return nil, err
	}

	if old == nil {
		return nil, exceptions.NotFound("")
	}

	filters, err = d.hooks.BeforeDelete(ctx, old, filters)
	if err != nil {
		return nil, err
	}

	obj, err := d.hooks.Delete(ctx, old, filters)
	if err != nil {
		return nil, err
	}

	obj, err = d.hooks.AfterDelete(ctx, obj)
	if err != nil {
		return nil, err
	}

	return success(d.opts.status, d.meta.serialize(obj)), nil
}
