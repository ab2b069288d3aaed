package crud

import (
	"context"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strconv"

	"github.com/vitalvas/openroute/endpoint"
	"github.com/vitalvas/openroute/exceptions"
)

// Update changes the fields supplied in the body of the record selected by
// the path parameters.
type Update struct {
	meta   Meta
	hooks  UpdateHandler
	opts   options
	schema endpoint.Schema
}

// NewUpdate returns an Update endpoint for meta. Every body field is
// optional and has no default, so a partial body never resets the fields
// it leaves out.
func NewUpdate(meta Meta, hooks UpdateHandler, opts ...Option) (*Update, error) {
	o := newOptions(http.StatusOK, opts)

	if err := meta.validate(!o.pathSet); err != nil {
		return nil, err
	}

	path := o.path(meta, true)
	if len(path) == 0 {
		return nil, fmt.Errorf("crud: %s: update needs path parameters", meta.Table)
	}

	params, err := meta.pick(path)
	if err != nil {
		return nil, err
	}

	s := o.base(meta, "Update")
	s.Request = &endpoint.RequestSchema{
		Params: params,
		Body:   endpoint.JSONBody(meta.fields().Omit(path...).Partial()),
	}
	s.Responses = map[string]*endpoint.ResponseSchema{
		strconv.Itoa(o.status): successResponse(meta.serializerSchema()),
		"400":                  errorResponse(exceptions.InputValidation("")),
		"404":                  errorResponse(exceptions.NotFound("")),
	}

	return &Update{meta: meta, hooks: hooks, opts: o, schema: s}, nil
}

// Name returns the endpoint name, "UsersUpdate" for table "users".
func (u *Update) Name() string {
	return u.opts.endpointName(u.meta, "Update")
}

func (u *Update) Schema() endpoint.Schema {
	return u.schema
}

// filters selects by the path parameters and the primary keys found in the
// body. The other body fields go to UpdatedData, but only those the client
// actually sent.
func (u *Update) filters(req *endpoint.Request) (Filters, error) {
	raw, err := req.UnvalidatedData()
	if err != nil {
		return Filters{}, err
	}

	sent := asRecord(raw[endpoint.SectionBody])
	body := asRecord(req.Body())

	out := Filters{
		Filters:     eqFilters(req.Params()),
		UpdatedData: make(map[string]any, len(body)),
	}

	for _, field := range slices.Sorted(maps.Keys(body)) {
		if _, ok := sent[field]; !ok {
			continue
		}

		if slices.Contains(u.meta.PrimaryKeys, field) {
			if _, ok := out.Value(field); !ok {
				out.Filters = append(out.Filters, Filter{Field: field, Operator: EQ, Value: body[field]})
			}
			continue
		}

		out.UpdatedData[field] = body[field]
	}

	return out, nil
}

func (u *Update) Handle(ctx context.Context, req *endpoint.Request) (any, error) {
	filters, err := u.filters(req)
	if err != nil {
		return nil, err
	}

	old, err := u.hooks.GetObject(ctx, filters)
	if err != nil {
		return nil, err
	}

	if old == nil {
		return nil, exceptions.NotFound("")
	}

	filters, err = u.hooks.BeforeUpdate(ctx, old, filters)
	if err != nil {
		return nil, err
	}

	obj, err := u.hooks.Update(ctx, old, filters)
	if err != nil {
		return nil, err
	}

	obj, err = u.hooks.AfterUpdate(ctx, obj)
	if err != nil {
		return nil, err
	}

	return success(u.opts.status, u.meta.serialize(obj)), nil
}
