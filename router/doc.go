// Package router registers schema-described endpoints on an HTTP router
// and builds the OpenAPI document of everything registered.
//
//	r, err := router.New(router.NewMuxAdapter(nil), router.Config{
//	    Base: "/api",
//	    Info: openapi.Info{Title: "Users", Version: "1.0.0"},
//	})
//
//	r.Get("/users/:id", getUser{})       // documented as /api/users/{id}
//	r.Post("/users", requireAuth, createUser{})
//
// Paths get the base prepended, repeated and trailing slashes removed and
// ":name" segments rewritten to "{name}". Operation ids default to
// "{method}_{handler name}". Sub-routers mounted with All contribute their
// paths to the parent document under the mount prefix.
//
// The document is served at /openapi.json and /openapi.yaml, with
// Swagger UI at /docs and ReDoc at /redocs.
package router
