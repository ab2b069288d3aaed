package schema

import (
	"errors"
	"fmt"
	"reflect"
	"time"
)

var (
	// ErrEmptyArray is returned when an array shorthand has no element type.
	ErrEmptyArray = errors.New("schema: array shorthand must have a type")

	// ErrUnsupportedType is returned for declarations Normalize cannot map.
	ErrUnsupportedType = errors.New("schema: unsupported type declaration")
)

// Marker is a shorthand naming a primitive type.
type Marker int

const (
	TypeString Marker = iota + 1
	TypeNumber
	TypeInteger
	TypeBoolean
	TypeDate
)

// Builder is the callable shorthand: it receives the parameter options and
// returns the finished validator.
type Builder func(opts ...ParamOption) *Validator

// Normalize turns a type declaration into a validator and applies opts.
// Accepted declarations, in match order:
//
//	nil                    optional string
//	*Validator             the validator itself
//	Marker                 String, Number, Integer, Boolean or DateTime
//	Builder                called with opts
//	string, bool, numbers  typed validator with the literal as example
//	time.Time              DateTime with the literal as example
//	Fields, map[string]any object with each field normalized
//	[]T with one element   array of the normalized element
//	struct or *struct      object reflected from the type
//
// Normalize is pure: it never mutates its input.
func Normalize(raw any, opts ...ParamOption) (*Validator, error) {
	switch t := raw.(type) {
	case nil:
		return Annotate(String().Optional(), opts...), nil
	case *Validator:
		return Annotate(t, opts...), nil
	case Marker:
		v, err := fromMarker(t)
		if err != nil {
			return nil, err
		}
		return Annotate(v, opts...), nil
	case Builder:
		return t(opts...), nil
	case func(opts ...ParamOption) *Validator:
		return t(opts...), nil
	case string:
		return Annotate(String().Example(t), opts...), nil
	case bool:
		return Annotate(Boolean().Example(t), opts...), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return Annotate(Integer().Example(t), opts...), nil
	case float32, float64:
		return Annotate(Number().Example(t), opts...), nil
	case time.Time:
		return Annotate(DateTime().Example(t), opts...), nil
	case Fields:
		return Annotate(Object(t), opts...), nil
	case map[string]any:
		fields := make(Fields, len(t))
		for name, decl := range t {
			f, err := Normalize(decl)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", name, err)
			}
			fields[name] = f
		}
		return Annotate(Object(fields), opts...), nil
	}

	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		switch rv.Len() {
		case 0:
			return nil, ErrEmptyArray
		case 1:
			items, err := Normalize(rv.Index(0).Interface())
			if err != nil {
				return nil, err
			}
			return Annotate(Array(items), opts...), nil
		default:
			return nil, fmt.Errorf("%w: array shorthand with %d elements", ErrUnsupportedType, rv.Len())
		}
	case reflect.Struct, reflect.Pointer:
		t := rv.Type()
		if t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		if t.Kind() != reflect.Struct {
			break
		}

		v, err := FromType(t)
		if err != nil {
			return nil, err
		}
		return Annotate(v, opts...), nil
	}

	return nil, fmt.Errorf("%w: %T", ErrUnsupportedType, raw)
}

// MustNormalize is like Normalize but panics on error. It is intended for
// package level route declarations.
func MustNormalize(raw any, opts ...ParamOption) *Validator {
	v, err := Normalize(raw, opts...)
	if err != nil {
		panic(err)
	}

	return v
}

// NormalizeFields normalizes every declaration of a field map.
func NormalizeFields(decls map[string]any) (Fields, error) {
	if decls == nil {
		return nil, nil
	}

	out := make(Fields, len(decls))
	for name, decl := range decls {
		v, err := Normalize(decl)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		out[name] = v
	}

	return out, nil
}

func fromMarker(m Marker) (*Validator, error) {
	switch m {
	case TypeString:
		return String(), nil
	case TypeNumber:
		return Number(), nil
	case TypeInteger:
		return Integer(), nil
	case TypeBoolean:
		return Boolean(), nil
	case TypeDate:
		return DateTime(), nil
	}

	return nil, fmt.Errorf("%w: marker %d", ErrUnsupportedType, m)
}
