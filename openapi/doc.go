// Package openapi holds the OpenAPI 3.0/3.1 document model and the path
// registry the router fills while routes are registered.
//
// Every router owns a Registry mapping path -> method -> Operation.
// Mounting a sub-router merges its registry under the mount prefix with
// deep copies, so the parent document is independent of later changes.
//
//	reg := openapi.NewRegistry()
//	reg.Add("/users/{id}", http.MethodGet, op)
//
//	doc := reg.Document(openapi.DocumentConfig{
//	    Version: openapi.Version31,
//	    Info:    openapi.Info{Title: "Users", Version: "1.0.0"},
//	})
//
// The document is served by JSONHandler and YAMLHandler. SwaggerUIHandler
// and RedocHandler render the interactive pages pointing at it.
//
// Route templates are normalized with JoinPath (":id" becomes "{id}") and
// ParsePath derives the path parameters of a template.
//
// See: https://spec.openapis.org/oas/v3.1.0
// See: https://spec.openapis.org/oas/v3.0.3
package openapi
