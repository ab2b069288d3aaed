package schema

import (
	"sort"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Kind is the structural type of a Validator.
type Kind int

const (
	KindAny Kind = iota
	KindString
	KindNumber
	KindInteger
	KindBoolean
	KindDateTime
	KindDate
	KindArray
	KindObject
)

var kindNames = map[Kind]string{
	KindAny:      "any",
	KindString:   "string",
	KindNumber:   "number",
	KindInteger:  "integer",
	KindBoolean:  "boolean",
	KindDateTime: "datetime",
	KindDate:     "date",
	KindArray:    "array",
	KindObject:   "object",
}

func (k Kind) String() string {
	return kindNames[k]
}

// Fields maps object field names to their validators.
type Fields map[string]*Validator

// Validator is a composable structural type description. It validates
// values, fills defaults and renders itself as an OpenAPI schema.
//
// Validators are immutable: every modifier returns a modified copy, so a
// validator may be shared between routes and annotated independently.
type Validator struct {
	kind Kind

	optional   bool
	nullable   bool
	strict     bool
	deprecated bool

	title       string
	description string
	format      string
	pattern     string

	hasDefault   bool
	defaultValue any
	hasExample   bool
	example      any

	enum []any

	minimum   *float64
	maximum   *float64
	minLength *int
	maxLength *int
	minItems  *int
	maxItems  *int

	items  *Validator
	fields Fields

	cache *compileCache
}

type compileCache struct {
	once   sync.Once
	schema *jsonschema.Schema
	err    error
}

// Meta is the annotation state of a validator.
type Meta struct {
	Optional    bool
	Nullable    bool
	Deprecated  bool
	Title       string
	Description string
	Format      string
	HasDefault  bool
	Default     any
	HasExample  bool
	Example     any
}

func newValidator(kind Kind) *Validator {
	return &Validator{kind: kind, cache: &compileCache{}}
}

func (v *Validator) clone() *Validator {
	out := *v
	out.cache = &compileCache{}

	return &out
}

// String returns a string validator.
func String() *Validator { return newValidator(KindString) }

// Number returns a floating point number validator.
func Number() *Validator { return newValidator(KindNumber) }

// Integer returns an integer validator. Validated values are int64.
func Integer() *Validator { return newValidator(KindInteger) }

// Boolean returns a boolean validator.
func Boolean() *Validator { return newValidator(KindBoolean) }

// DateTime returns an RFC 3339 date-time validator. Validated values are
// time.Time.
func DateTime() *Validator { return newValidator(KindDateTime) }

// Date returns a full-date (YYYY-MM-DD) validator. Validated values are
// time.Time.
func Date() *Validator { return newValidator(KindDate) }

// Any returns a validator accepting every value.
func Any() *Validator { return newValidator(KindAny) }

// Email returns a string validator with the email format.
func Email() *Validator { return String().Format("email") }

// UUID returns a string validator with the uuid format.
func UUID() *Validator { return String().Format("uuid") }

// Enum returns a validator accepting only values. The kind is string when
// all values are strings, integer or number for numeric values, any otherwise.
func Enum(values ...any) *Validator {
	v := newValidator(enumKind(values))
	v.enum = append([]any(nil), values...)

	return v
}

func enumKind(values []any) Kind {
	kind := KindAny
	for i, value := range values {
		var k Kind
		switch value.(type) {
		case string:
			k = KindString
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			k = KindInteger
		case float32, float64:
			k = KindNumber
		case bool:
			k = KindBoolean
		default:
			return KindAny
		}

		if i == 0 {
			kind = k
			continue
		}

		if k != kind {
			if (k == KindNumber && kind == KindInteger) || (k == KindInteger && kind == KindNumber) {
				kind = KindNumber
				continue
			}
			return KindAny
		}
	}

	return kind
}

// Array returns an array validator with items validated by items.
// A nil items accepts any element.
func Array(items *Validator) *Validator {
	if items == nil {
		items = Any()
	}

	v := newValidator(KindArray)
	v.items = items

	return v
}

// Object returns an object validator. Undeclared keys are removed from
// validated values unless the object is Strict, in which case they are
// rejected.
func Object(fields Fields) *Validator {
	v := newValidator(KindObject)
	v.fields = make(Fields, len(fields))
	for name, f := range fields {
		if f == nil {
			f = Any()
		}
		v.fields[name] = f
	}

	return v
}

// Optional marks the value as not required.
func (v *Validator) Optional() *Validator {
	out := v.clone()
	out.optional = true
	return out
}

// Required marks the value as required.
func (v *Validator) Required() *Validator {
	out := v.clone()
	out.optional = false
	return out
}

// Nullable accepts null in addition to the declared type.
func (v *Validator) Nullable() *Validator {
	out := v.clone()
	out.nullable = true
	return out
}

// Describe sets the description.
func (v *Validator) Describe(description string) *Validator {
	out := v.clone()
	out.description = description
	return out
}

// Title sets the title.
func (v *Validator) Title(title string) *Validator {
	out := v.clone()
	out.title = title
	return out
}

// Default sets the value used when the field is absent. Zero values
// (0, false, "") are real defaults.
func (v *Validator) Default(value any) *Validator {
	out := v.clone()
	out.hasDefault = true
	out.defaultValue = value
	return out
}

// Example sets the documentation example.
func (v *Validator) Example(value any) *Validator {
	out := v.clone()
	out.hasExample = true
	out.example = value
	return out
}

// Format sets the string format (email, uuid, uri, ...). Known formats
// are asserted during validation.
func (v *Validator) Format(format string) *Validator {
	out := v.clone()
	out.format = format
	return out
}

// Deprecated marks the value as deprecated.
func (v *Validator) Deprecated() *Validator {
	out := v.clone()
	out.deprecated = true
	return out
}

// Pattern sets the regular expression a string must match.
func (v *Validator) Pattern(pattern string) *Validator {
	out := v.clone()
	out.pattern = pattern
	return out
}

// Min sets the inclusive minimum of a number.
func (v *Validator) Min(n float64) *Validator {
	out := v.clone()
	out.minimum = &n
	return out
}

// Max sets the inclusive maximum of a number.
func (v *Validator) Max(n float64) *Validator {
	out := v.clone()
	out.maximum = &n
	return out
}

// MinLength sets the minimum string length.
func (v *Validator) MinLength(n int) *Validator {
	out := v.clone()
	out.minLength = &n
	return out
}

// MaxLength sets the maximum string length.
func (v *Validator) MaxLength(n int) *Validator {
	out := v.clone()
	out.maxLength = &n
	return out
}

// MinItems sets the minimum array length.
func (v *Validator) MinItems(n int) *Validator {
	out := v.clone()
	out.minItems = &n
	return out
}

// MaxItems sets the maximum array length.
func (v *Validator) MaxItems(n int) *Validator {
	out := v.clone()
	out.maxItems = &n
	return out
}

// Strict rejects undeclared object keys instead of removing them.
// Nested objects are not affected.
func (v *Validator) Strict() *Validator {
	out := v.clone()
	out.strict = true
	return out
}

// Kind returns the structural type.
func (v *Validator) Kind() Kind {
	return v.kind
}

// Meta returns the annotation state.
func (v *Validator) Meta() Meta {
	return Meta{
		Optional:    v.optional,
		Nullable:    v.nullable,
		Deprecated:  v.deprecated,
		Title:       v.title,
		Description: v.description,
		Format:      v.format,
		HasDefault:  v.hasDefault,
		Default:     v.defaultValue,
		HasExample:  v.hasExample,
		Example:     v.example,
	}
}

// IsStrict reports whether undeclared object keys are rejected.
func (v *Validator) IsStrict() bool {
	return v.strict
}

// IsRequired reports whether an absent value is an error: the validator is
// neither optional nor defaulted.
func (v *Validator) IsRequired() bool {
	return !v.optional && !v.hasDefault
}

// Items returns the element validator of an array.
func (v *Validator) Items() *Validator {
	return v.items
}

// EnumValues returns the accepted values of an enum.
func (v *Validator) EnumValues() []any {
	return append([]any(nil), v.enum...)
}

// Field returns the validator of an object field.
func (v *Validator) Field(name string) (*Validator, bool) {
	f, ok := v.fields[name]
	return f, ok
}

// Fields returns a copy of the object fields.
func (v *Validator) Fields() Fields {
	out := make(Fields, len(v.fields))
	for name, f := range v.fields {
		out[name] = f
	}

	return out
}

// FieldNames returns the object field names in lexical order.
func (v *Validator) FieldNames() []string {
	names := make([]string, 0, len(v.fields))
	for name := range v.fields {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Pick returns an object with only the named fields. Unknown names are
// ignored.
func (v *Validator) Pick(names ...string) *Validator {
	out := v.clone()
	out.fields = make(Fields, len(names))
	for _, name := range names {
		if f, ok := v.fields[name]; ok {
			out.fields[name] = f
		}
	}

	return out
}

// Omit returns an object without the named fields.
func (v *Validator) Omit(names ...string) *Validator {
	skip := make(map[string]bool, len(names))
	for _, name := range names {
		skip[name] = true
	}

	out := v.clone()
	out.fields = make(Fields, len(v.fields))
	for name, f := range v.fields {
		if !skip[name] {
			out.fields[name] = f
		}
	}

	return out
}

// Extend returns an object with fields added or replaced.
func (v *Validator) Extend(fields Fields) *Validator {
	out := v.clone()
	out.fields = v.Fields()
	for name, f := range fields {
		out.fields[name] = f
	}

	return out
}

// Partial returns an object whose fields are all optional and carry no
// default, so absent fields stay absent after validation.
func (v *Validator) Partial() *Validator {
	out := v.clone()
	out.fields = make(Fields, len(v.fields))
	for name, f := range v.fields {
		p := f.clone()
		p.optional = true
		p.hasDefault = false
		p.defaultValue = nil
		out.fields[name] = p
	}

	return out
}
