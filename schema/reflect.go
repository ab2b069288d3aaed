package schema

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Exampler can be implemented by types to provide an example value for
// the reflected object validator.
//
//	func (u User) OpenAPIExample() any {
//	    return User{ID: 1, Name: "Alice"}
//	}
type Exampler interface {
	OpenAPIExample() any
}

var timeType = reflect.TypeOf(time.Time{})

// FromStruct reflects a struct value (or pointer to one) into an object
// validator.
//
// Field names follow the json tag. Fields tagged omitempty or omitzero are
// optional, pointer fields are nullable, anonymous embedded structs are
// inlined. The `openapi` tag adds constraints:
//
//	Name string `json:"name" openapi:"description=User name,minLength=1,example=Alice"`
//	Role string `json:"role,omitempty" openapi:"enum=admin|user,default=user"`
func FromStruct(v any) (*Validator, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: nil struct", ErrUnsupportedType)
	}

	return FromType(reflect.TypeOf(v))
}

// FromType reflects a Go type into a validator.
func FromType(t reflect.Type) (*Validator, error) {
	r := &reflector{visiting: make(map[reflect.Type]bool)}

	v := r.typeOf(t)
	if v == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	}

	return v, nil
}

type reflector struct {
	visiting map[reflect.Type]bool
}

func (r *reflector) typeOf(t reflect.Type) *Validator {
	nullable := false
	if t.Kind() == reflect.Pointer {
		nullable = true
		t = t.Elem()
	}

	v := r.inlineType(t)
	if v != nil && nullable {
		v = v.Nullable()
	}

	return v
}

func (r *reflector) inlineType(t reflect.Type) *Validator {
	if t == timeType {
		return DateTime()
	}

	switch t.Kind() {
	case reflect.Bool:
		return Boolean()

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Integer()

	case reflect.Float32, reflect.Float64:
		return Number()

	case reflect.String:
		return String()

	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return String().Format("byte")
		}
		return Array(r.typeOf(t.Elem()))

	case reflect.Array:
		return Array(r.typeOf(t.Elem()))

	case reflect.Map, reflect.Interface:
		return Any()

	case reflect.Struct:
		// Recursive types stop at the first repeat.
		if r.visiting[t] {
			return Any()
		}

		r.visiting[t] = true
		defer delete(r.visiting, t)

		v := Object(r.fields(t, false))

		if ex, ok := reflect.New(t).Interface().(Exampler); ok {
			v = v.Example(ex.OpenAPIExample())
		}

		return v
	}

	return nil
}

// fields collects the struct fields. When allOptional is true every
// field is optional, which is the case for pointer-embedded structs.
func (r *reflector) fields(t reflect.Type, allOptional bool) Fields {
	out := make(Fields)

	for i := range t.NumField() {
		field := t.Field(i)

		if field.Anonymous {
			jsonName, _ := parseJSONTag(field.Tag.Get("json"))
			if jsonName == "" {
				ft := field.Type
				isPtr := ft.Kind() == reflect.Pointer
				if isPtr {
					ft = ft.Elem()
				}
				if ft.Kind() == reflect.Struct {
					for name, f := range r.fields(ft, allOptional || isPtr) {
						out[name] = f
					}
					continue
				}
			}
		}

		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}

		name, omitempty := parseJSONTag(jsonTag)
		if name == "" {
			name = field.Name
		}

		v := r.typeOf(field.Type)
		if v == nil {
			continue
		}

		v = applyTag(v, field.Tag.Get("openapi"))

		if omitempty || allOptional {
			v = v.Optional()
		}

		out[name] = v
	}

	return out
}

func parseJSONTag(tag string) (string, bool) {
	if tag == "" {
		return "", false
	}

	name, rest, _ := strings.Cut(tag, ",")

	return name, strings.Contains(rest, "omitempty") || strings.Contains(rest, "omitzero")
}

// applyTag parses the `openapi` struct tag.
func applyTag(v *Validator, tag string) *Validator {
	if tag == "" {
		return v
	}

	for part := range strings.SplitSeq(tag, ",") {
		key, value, _ := strings.Cut(part, "=")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "description":
			v = v.Describe(value)
		case "title":
			v = v.Title(value)
		case "example":
			v = v.Example(tagValue(v.kind, value))
		case "default":
			v = v.Default(tagValue(v.kind, value))
		case "format":
			v = v.Format(value)
		case "pattern":
			v = v.Pattern(value)
		case "deprecated":
			v = v.Deprecated()
		case "minimum":
			if n, err := cast.ToFloat64E(value); err == nil {
				v = v.Min(n)
			}
		case "maximum":
			if n, err := cast.ToFloat64E(value); err == nil {
				v = v.Max(n)
			}
		case "minLength":
			if n, err := cast.ToIntE(value); err == nil {
				v = v.MinLength(n)
			}
		case "maxLength":
			if n, err := cast.ToIntE(value); err == nil {
				v = v.MaxLength(n)
			}
		case "minItems":
			if n, err := cast.ToIntE(value); err == nil {
				v = v.MinItems(n)
			}
		case "maxItems":
			if n, err := cast.ToIntE(value); err == nil {
				v = v.MaxItems(n)
			}
		case "enum":
			values := strings.Split(value, "|")
			out := v.clone()
			out.enum = make([]any, len(values))
			for i, s := range values {
				out.enum[i] = tagValue(v.kind, s)
			}
			v = out
		}
	}

	return v
}

// tagValue converts a tag string to the Go type of kind.
func tagValue(k Kind, value string) any {
	switch k {
	case KindInteger:
		if n, err := cast.ToInt64E(value); err == nil {
			return n
		}
	case KindNumber:
		if n, err := cast.ToFloat64E(value); err == nil {
			return n
		}
	case KindBoolean:
		if b, err := cast.ToBoolE(value); err == nil {
			return b
		}
	}

	return value
}
