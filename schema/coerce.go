package schema

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// Coerce converts wire strings into the types declared by target.
//
// It returns nil when values has no entries, so callers can tell "nothing
// supplied" from "supplied but empty". Blank values become nil, a key
// given more than once becomes a []any, and each value is converted
// according to the declared kind of its field. When target is not an
// object its own kind drives every key. Values that cannot be converted
// are passed through unchanged for the validator to reject.
//
// Date and date-time fields are lenient: any layout cast.ToTimeE parses is
// accepted, not only RFC 3339. "2024-05-06 07:08:09", "06 May 2024" and
// RFC 1123 strings all become a time.Time, and zone-less input is read as
// UTC. The validated value is rendered back as RFC 3339.
func Coerce(values url.Values, target *Validator) map[string]any {
	if len(values) == 0 {
		return nil
	}

	out := make(map[string]any, len(values))
	for key, raw := range values {
		out[key] = CoerceValue(collapse(raw), fieldValidator(target, key))
	}

	return out
}

// CoerceMap applies the per-field conversion of Coerce to an already
// collected mapping.
func CoerceMap(values map[string]any, target *Validator) map[string]any {
	if len(values) == 0 {
		return nil
	}

	out := make(map[string]any, len(values))
	for key, value := range values {
		out[key] = CoerceValue(blankToNil(value), fieldValidator(target, key))
	}

	return out
}

// CoerceValue converts a single value to the kind of v. A nil v leaves
// the value untouched.
func CoerceValue(value any, v *Validator) any {
	if v == nil || value == nil {
		return value
	}

	switch v.kind {
	case KindArray:
		items, ok := value.([]any)
		if !ok {
			items = []any{value}
		}

		out := make([]any, len(items))
		for i, item := range items {
			out[i] = CoerceValue(blankToNil(item), v.items)
		}

		return out

	case KindBoolean:
		s, ok := value.(string)
		if !ok {
			return value
		}

		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true":
			return true
		case "false":
			return false
		}

		return value

	case KindNumber:
		s, ok := value.(string)
		if !ok {
			return value
		}

		f, err := cast.ToFloat64E(strings.TrimSpace(s))
		if err != nil {
			return value
		}

		return f

	case KindInteger:
		s, ok := value.(string)
		if !ok {
			return value
		}

		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return value
		}

		return n

	case KindDateTime, KindDate:
		s, ok := value.(string)
		if !ok {
			return value
		}

		t, err := cast.ToTimeE(strings.TrimSpace(s))
		if err != nil {
			return value
		}

		return t
	}

	return value
}

func fieldValidator(target *Validator, key string) *Validator {
	if target == nil {
		return nil
	}

	if target.kind != KindObject {
		return target
	}

	f, _ := target.Field(key)

	return f
}

func collapse(raw []string) any {
	switch len(raw) {
	case 0:
		return nil
	case 1:
		return blankToNil(raw[0])
	}

	out := make([]any, len(raw))
	for i, s := range raw {
		out[i] = blankToNil(s)
	}

	return out
}

func blankToNil(value any) any {
	if s, ok := value.(string); ok && s == "" {
		return nil
	}

	return value
}
