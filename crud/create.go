package crud

import (
	"context"
	"maps"
	"net/http"
	"strconv"

	"github.com/vitalvas/openroute/endpoint"
	"github.com/vitalvas/openroute/exceptions"
	"github.com/vitalvas/openroute/schema"
)

// Create inserts a record built from the body, the path parameters and
// the default factories.
type Create struct {
	meta   Meta
	hooks  CreateHandler
	opts   options
	schema endpoint.Schema
}

// NewCreate returns a Create endpoint for meta. The body accepts the
// writable fields that are not bound to the path. The success status
// defaults to 201.
func NewCreate(meta Meta, hooks CreateHandler, opts ...Option) (*Create, error) {
	if err := meta.validate(false); err != nil {
		return nil, err
	}

	o := newOptions(http.StatusCreated, opts)
	path := o.path(meta, false)

	body := meta.fields().Omit(path...)
	for name := range o.defaults {
		if f, ok := body.Field(name); ok {
			body = body.Extend(schema.Fields{name: f.Optional()})
		}
	}

	req := &endpoint.RequestSchema{Body: endpoint.JSONBody(body)}
	if len(path) > 0 {
		params, err := meta.pick(path)
		if err != nil {
			return nil, err
		}
		req.Params = params
	}

	s := o.base(meta, "Create")
	s.Request = req
	s.Responses = map[string]*endpoint.ResponseSchema{
		strconv.Itoa(o.status): successResponse(meta.serializerSchema()),
		"400":                  errorResponse(exceptions.InputValidation("")),
	}

	return &Create{meta: meta, hooks: hooks, opts: o, schema: s}, nil
}

// Name returns the endpoint name, "UsersCreate" for table "users".
func (c *Create) Name() string {
	return c.opts.endpointName(c.meta, "Create")
}

func (c *Create) Schema() endpoint.Schema {
	return c.schema
}

func (c *Create) Handle(ctx context.Context, req *endpoint.Request) (any, error) {
	obj := maps.Clone(asRecord(req.Body()))
	maps.Copy(obj, req.Params())

	for name, factory := range c.opts.defaults {
		if _, ok := obj[name]; !ok {
			obj[name] = factory()
		}
	}

	obj, err := c.hooks.BeforeCreate(ctx, obj)
	if err != nil {
		return nil, err
	}

	obj, err = c.hooks.Create(ctx, obj)
	if err != nil {
		return nil, err
	}

	obj, err = c.hooks.AfterCreate(ctx, obj)
	if err != nil {
		return nil, err
	}

	return success(c.opts.status, c.meta.serialize(obj)), nil
}
