package crud

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/vitalvas/openroute/schema"
)

// Record is one stored row.
type Record = map[string]any

// Meta describes the model served by the CRUD templates.
type Meta struct {
	// Table is the storage name of the model.
	Table string

	// Schema is the object validator of a stored record.
	Schema *schema.Validator

	// Fields is the writable subset of Schema. Defaults to Schema.
	Fields *schema.Validator

	// PrimaryKeys lists the identifying fields in order.
	PrimaryKeys []string

	// Serializer maps a stored record to its public form. Defaults to the
	// identity.
	Serializer func(Record) Record

	// SerializerSchema documents the public form. Defaults to Schema.
	SerializerSchema *schema.Validator
}

func (m Meta) validate(needKeys bool) error {
	if m.Table == "" {
		return fmt.Errorf("crud: meta table is required")
	}

	if m.Schema == nil || m.Schema.Kind() != schema.KindObject {
		return fmt.Errorf("crud: %s: meta schema must be an object validator", m.Table)
	}

	if needKeys && len(m.PrimaryKeys) == 0 {
		return fmt.Errorf("crud: %s: primary keys are required", m.Table)
	}

	for _, key := range m.PrimaryKeys {
		if _, ok := m.Schema.Field(key); !ok {
			return fmt.Errorf("crud: %s: primary key %q is not a schema field", m.Table, key)
		}
	}

	return nil
}

func (m Meta) fields() *schema.Validator {
	if m.Fields != nil {
		return m.Fields
	}

	return m.Schema
}

func (m Meta) serializerSchema() *schema.Validator {
	if m.SerializerSchema != nil {
		return m.SerializerSchema
	}

	return m.Schema
}

func (m Meta) serialize(r Record) Record {
	if r == nil || m.Serializer == nil {
		return r
	}

	return m.Serializer(maps.Clone(r))
}

// typeName renders the table as an identifier: "user_accounts" becomes
// "UserAccounts".
func (m Meta) typeName() string {
	caser := cases.Title(language.English)

	var b strings.Builder
	for part := range strings.FieldsFuncSeq(m.Table, func(r rune) bool { return r == '_' || r == '-' || r == '.' }) {
		b.WriteString(caser.String(part))
	}

	return b.String()
}

// pick returns the named schema fields, each required.
func (m Meta) pick(names []string) (*schema.Validator, error) {
	fields := make(schema.Fields, len(names))
	for _, name := range names {
		f, ok := m.Schema.Field(name)
		if !ok {
			return nil, fmt.Errorf("crud: %s: field %q is not a schema field", m.Table, name)
		}
		fields[name] = f.Required()
	}

	return schema.Object(fields), nil
}

// query returns the named schema fields that are not bound to the path,
// each optional and without default.
func (m Meta) query(names, path []string) (*schema.Validator, error) {
	keep := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := m.Schema.Field(name); !ok {
			return nil, fmt.Errorf("crud: %s: filter field %q is not a schema field", m.Table, name)
		}
		if !slices.Contains(path, name) {
			keep = append(keep, name)
		}
	}

	return m.Schema.Pick(keep...).Partial(), nil
}
