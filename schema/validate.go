package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"github.com/spf13/cast"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/vitalvas/openroute/openapi"
)

const resourceURL = "openroute://schema.json"

var printer = message.NewPrinter(language.English)

// Issue is a single validation failure.
type Issue struct {
	Path    []string `json:"path"`
	Message string   `json:"message"`
	Keyword string   `json:"keyword,omitempty"`
}

// ValidationError lists every failure found while validating one value.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		if len(issue.Path) == 0 {
			parts = append(parts, issue.Message)
			continue
		}
		parts = append(parts, strings.Join(issue.Path, ".")+": "+issue.Message)
	}

	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(path []string, msg, keyword string) {
	e.Issues = append(e.Issues, Issue{
		Path:    append([]string{}, path...),
		Message: msg,
		Keyword: keyword,
	})
}

func (e *ValidationError) sort() {
	sort.SliceStable(e.Issues, func(i, j int) bool {
		a := strings.Join(e.Issues[i].Path, "\x00")
		b := strings.Join(e.Issues[j].Path, "\x00")
		if a != b {
			return a < b
		}
		return e.Issues[i].Message < e.Issues[j].Message
	})
}

// Parse validates value and returns the typed result: absent fields carry
// their defaults, undeclared keys of non-strict objects are dropped,
// integers are int64, numbers float64 and dates time.Time.
//
// A failed validation returns a *ValidationError.
func (v *Validator) Parse(value any) (any, error) {
	if value == nil {
		switch {
		case v.hasDefault:
			value = v.defaultValue
		case v.nullable || v.optional:
			return nil, nil
		default:
			verr := &ValidationError{}
			verr.add(nil, "Required", "required")
			return nil, verr
		}
	}

	generic, err := v.prepare(value)
	if err != nil {
		return nil, err
	}

	sch, err := v.compiled()
	if err != nil {
		return nil, err
	}

	inst, err := instance(generic)
	if err != nil {
		return nil, err
	}

	if err := sch.Validate(inst); err != nil {
		verr, ok := err.(*jsonschema.ValidationError)
		if !ok {
			return nil, fmt.Errorf("schema: validate: %w", err)
		}

		out := &ValidationError{}
		collectIssues(verr, out)
		out.sort()

		return nil, out
	}

	return v.finalize(generic), nil
}

// MustParse is like Parse but panics on error.
func (v *Validator) MustParse(value any) any {
	out, err := v.Parse(value)
	if err != nil {
		panic(err)
	}

	return out
}

func (v *Validator) compiled() (*jsonschema.Schema, error) {
	if v.cache == nil {
		return v.compile()
	}

	v.cache.once.Do(func() {
		v.cache.schema, v.cache.err = v.compile()
	})

	return v.cache.schema, v.cache.err
}

func (v *Validator) compile() (*jsonschema.Schema, error) {
	data, err := json.Marshal(v.OpenAPI(openapi.Version31))
	if err != nil {
		return nil, fmt.Errorf("schema: marshal: %w", err)
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("schema: decode: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.DefaultDraft(jsonschema.Draft2020)
	compiler.AssertFormat()

	if err := compiler.AddResource(resourceURL, doc); err != nil {
		return nil, fmt.Errorf("schema: add resource: %w", err)
	}

	sch, err := compiler.Compile(resourceURL)
	if err != nil {
		return nil, fmt.Errorf("schema: compile: %w", err)
	}

	return sch, nil
}

func instance(value any) (any, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("schema: marshal value: %w", err)
	}

	return jsonschema.UnmarshalJSON(bytes.NewReader(data))
}

func collectIssues(verr *jsonschema.ValidationError, out *ValidationError) {
	if verr == nil {
		return
	}

	if len(verr.Causes) == 0 {
		path := verr.InstanceLocation

		switch k := verr.ErrorKind.(type) {
		case *kind.Required:
			for _, name := range k.Missing {
				out.add(append(append([]string{}, path...), name), "Required", "required")
			}
			return

		case *kind.AdditionalProperties:
			quoted := make([]string, len(k.Properties))
			for i, name := range k.Properties {
				quoted[i] = "'" + name + "'"
			}
			out.add(path, "Unrecognized key(s) in object: "+strings.Join(quoted, ", "), "additionalProperties")
			return
		}

		out.add(path, verr.ErrorKind.LocalizedString(printer), keyword(verr.ErrorKind))
		return
	}

	for _, cause := range verr.Causes {
		collectIssues(cause, out)
	}
}

func keyword(k jsonschema.ErrorKind) string {
	if k == nil {
		return ""
	}

	path := k.KeywordPath()
	if len(path) == 0 {
		return ""
	}

	return path[len(path)-1]
}

// prepare reduces value to plain JSON shapes guided by v. Nil values of
// non-nullable fields are dropped so they report as missing.
func (v *Validator) prepare(value any) (any, error) {
	switch t := value.(type) {
	case nil:
		return nil, nil

	case time.Time:
		if v != nil && v.kind == KindDate {
			return t.Format(time.DateOnly), nil
		}
		return t.Format(time.RFC3339Nano), nil

	case map[string]any:
		out := make(map[string]any, len(t))
		for key, val := range t {
			var f *Validator
			if v != nil {
				f, _ = v.Field(key)
			}

			p, err := f.prepare(val)
			if err != nil {
				return nil, err
			}

			if p == nil && f != nil && !f.nullable {
				continue
			}
			out[key] = p
		}
		return out, nil

	case []any:
		var items *Validator
		if v != nil {
			items = v.items
		}

		out := make([]any, len(t))
		for i, val := range t {
			p, err := items.prepare(val)
			if err != nil {
				return nil, err
			}
			out[i] = p
		}
		return out, nil

	case string, bool, json.Number,
		int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return t, nil
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil, nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("schema: marshal %T: %w", value, err)
	}

	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("schema: unmarshal %T: %w", value, err)
	}

	return v.prepare(generic)
}

// finalize fills defaults, strips undeclared keys and converts scalars to
// their Go types. It runs only on values that passed validation.
func (v *Validator) finalize(value any) any {
	if v == nil || value == nil {
		return value
	}

	switch v.kind {
	case KindObject:
		m, ok := value.(map[string]any)
		if !ok {
			return value
		}

		out := make(map[string]any, len(v.fields))
		for name, f := range v.fields {
			if val, present := m[name]; present {
				out[name] = f.finalize(val)
				continue
			}

			if f.hasDefault {
				def, err := f.prepare(f.defaultValue)
				if err != nil {
					def = f.defaultValue
				}
				out[name] = f.finalize(def)
			}
		}
		return out

	case KindArray:
		items, ok := value.([]any)
		if !ok {
			return value
		}

		out := make([]any, len(items))
		for i, item := range items {
			out[i] = v.items.finalize(item)
		}
		return out

	case KindInteger:
		if n, err := cast.ToInt64E(numeric(value)); err == nil {
			return n
		}

	case KindNumber:
		if f, err := cast.ToFloat64E(numeric(value)); err == nil {
			return f
		}

	case KindDateTime:
		if s, ok := value.(string); ok {
			if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
				return t
			}
		}

	case KindDate:
		if s, ok := value.(string); ok {
			if t, err := time.Parse(time.DateOnly, s); err == nil {
				return t
			}
		}
	}

	return value
}

func numeric(value any) any {
	if n, ok := value.(json.Number); ok {
		return n.String()
	}

	return value
}
