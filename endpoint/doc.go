// Package endpoint runs the request lifecycle of a schema-described
// endpoint.
//
// An endpoint implements Handler: Schema declares the params, query,
// headers and body validators plus the documented responses, Handle
// serves the request. New wraps it into a *Route, an http.Handler that
//
//  1. extracts the declared sections and coerces wire strings,
//  2. validates them as one strict object,
//  3. calls Handle with the validated data,
//  4. writes the result, or the error envelope on failure.
//
// Validation failures answer 400 with one entry per issue. Errors that
// implement exceptions.Responder answer with their own status. Other
// errors go to the ErrorHandler.
//
//	type getUser struct{}
//
//	func (getUser) Schema() endpoint.Schema {
//	    return endpoint.Schema{
//	        Request: &endpoint.RequestSchema{
//	            Params: schema.Object(schema.Fields{"id": schema.Integer()}),
//	        },
//	    }
//	}
//
//	func (getUser) Handle(ctx context.Context, req *endpoint.Request) (any, error) {
//	    id := req.Params()["id"].(int64)
//	    ...
//	}
package endpoint
