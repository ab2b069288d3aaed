package schema

import (
	"sort"
	"time"

	"github.com/vitalvas/openroute/openapi"
)

var kindTypes = map[Kind]string{
	KindString:   "string",
	KindNumber:   "number",
	KindInteger:  "integer",
	KindBoolean:  "boolean",
	KindDateTime: "string",
	KindDate:     "string",
	KindArray:    "array",
	KindObject:   "object",
}

// OpenAPI renders the validator as an OpenAPI schema object for the given
// document version. Nullable types use "nullable" for 3.0 and a type
// array for 3.1. Nested objects are inlined.
func (v *Validator) OpenAPI(version string) *openapi.Schema {
	legacy := openapi.IsLegacy(version)

	s := &openapi.Schema{
		Format:      v.format,
		Title:       v.title,
		Description: v.description,
		Deprecated:  v.deprecated,
		Pattern:     v.pattern,
		Minimum:     v.minimum,
		Maximum:     v.maximum,
		MinLength:   v.minLength,
		MaxLength:   v.maxLength,
		MinItems:    v.minItems,
		MaxItems:    v.maxItems,
	}

	if typ, ok := kindTypes[v.kind]; ok {
		switch {
		case v.nullable && legacy:
			s.Type = openapi.TypeString(typ)
			s.Nullable = true
		case v.nullable:
			s.Type = openapi.TypeArray(typ, "null")
		default:
			s.Type = openapi.TypeString(typ)
		}
	}

	switch v.kind {
	case KindDateTime:
		if s.Format == "" {
			s.Format = "date-time"
		}
	case KindDate:
		if s.Format == "" {
			s.Format = "date"
		}
	case KindArray:
		s.Items = v.items.OpenAPI(version)
	case KindObject:
		s.Properties = make(map[string]*openapi.Schema, len(v.fields))
		for name, f := range v.fields {
			s.Properties[name] = f.OpenAPI(version)
			if f.IsRequired() {
				s.Required = append(s.Required, name)
			}
		}
		sort.Strings(s.Required)

		if v.strict {
			closed := false
			s.AdditionalProperties = &closed
		}
	}

	if len(v.enum) > 0 {
		s.Enum = append([]any(nil), v.enum...)
		if v.nullable {
			s.Enum = append(s.Enum, nil)
		}
	}

	if v.hasDefault {
		s.Default = documentValue(v.defaultValue, v.kind)
	}

	if v.hasExample {
		s.Example = documentValue(v.example, v.kind)
	}

	return s
}

// documentValue renders defaults and examples the way they travel on the
// wire.
func documentValue(value any, kind Kind) any {
	t, ok := value.(time.Time)
	if !ok {
		return value
	}

	if kind == KindDate {
		return t.Format(time.DateOnly)
	}

	return t.Format(time.RFC3339)
}
