// Package schema describes request and response shapes with composable
// validators.
//
// A Validator is built from constructors and modifiers:
//
//	user := schema.Object(schema.Fields{
//		"name":  schema.String().MinLength(1),
//		"email": schema.Email(),
//		"age":   schema.Integer().Min(0).Optional(),
//		"role":  schema.Enum("admin", "user").Default("user"),
//	})
//
// Shorthand declarations go through Normalize, and struct types through
// FromStruct. Wire strings from query, path and header sources are
// converted by Coerce before Parse validates them. Validation runs on
// JSON Schema 2020-12; the same validator renders itself as an OpenAPI
// 3.0 or 3.1 schema object.
package schema
