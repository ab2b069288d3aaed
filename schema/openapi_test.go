package schema

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalvas/openroute/openapi"
)

func TestValidatorOpenAPI(t *testing.T) {
	t.Run("primitives", func(t *testing.T) {
		tests := []struct {
			name   string
			v      *Validator
			typ    string
			format string
		}{
			{"string", String(), "string", ""},
			{"number", Number(), "number", ""},
			{"integer", Integer(), "integer", ""},
			{"boolean", Boolean(), "boolean", ""},
			{"datetime", DateTime(), "string", "date-time"},
			{"date", Date(), "string", "date"},
			{"email", Email(), "string", "email"},
			{"uuid", UUID(), "string", "uuid"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				s := tt.v.OpenAPI(openapi.Version31)
				assert.Equal(t, openapi.TypeString(tt.typ), s.Type)
				assert.Equal(t, tt.format, s.Format)
			})
		}
	})

	t.Run("any has no type", func(t *testing.T) {
		s := Any().OpenAPI(openapi.Version31)
		assert.True(t, s.Type.IsEmpty())
	})

	t.Run("nullable 3.1", func(t *testing.T) {
		s := String().Nullable().OpenAPI(openapi.Version31)
		assert.Equal(t, openapi.TypeArray("string", "null"), s.Type)
		assert.False(t, s.Nullable)
	})

	t.Run("nullable 3.0", func(t *testing.T) {
		s := String().Nullable().OpenAPI(openapi.Version30)
		assert.Equal(t, openapi.TypeString("string"), s.Type)
		assert.True(t, s.Nullable)
	})

	t.Run("object required and strict", func(t *testing.T) {
		v := Object(Fields{
			"b":   String(),
			"a":   Integer(),
			"opt": String().Optional(),
			"def": Boolean().Default(false),
		}).Strict()

		s := v.OpenAPI(openapi.Version31)
		assert.Equal(t, []string{"a", "b"}, s.Required)
		assert.Len(t, s.Properties, 4)
		require.NotNil(t, s.AdditionalProperties)
		assert.False(t, *s.AdditionalProperties)
	})

	t.Run("zero default is rendered", func(t *testing.T) {
		s := Integer().Default(0).OpenAPI(openapi.Version31)

		data, err := json.Marshal(s)
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"integer","default":0}`, string(data))
	})

	t.Run("constraints", func(t *testing.T) {
		s := String().MinLength(1).MaxLength(10).Pattern("^a").Describe("d").Title("T").Deprecated().OpenAPI(openapi.Version31)
		assert.Equal(t, 1, *s.MinLength)
		assert.Equal(t, 10, *s.MaxLength)
		assert.Equal(t, "^a", s.Pattern)
		assert.Equal(t, "d", s.Description)
		assert.Equal(t, "T", s.Title)
		assert.True(t, s.Deprecated)

		n := Number().Min(1).Max(5).OpenAPI(openapi.Version31)
		assert.Equal(t, 1.0, *n.Minimum)
		assert.Equal(t, 5.0, *n.Maximum)
	})

	t.Run("array", func(t *testing.T) {
		s := Array(String()).MinItems(1).MaxItems(3).OpenAPI(openapi.Version31)
		assert.Equal(t, openapi.TypeString("array"), s.Type)
		require.NotNil(t, s.Items)
		assert.Equal(t, openapi.TypeString("string"), s.Items.Type)
		assert.Equal(t, 1, *s.MinItems)
		assert.Equal(t, 3, *s.MaxItems)
	})

	t.Run("nullable enum includes null", func(t *testing.T) {
		s := Enum("a", "b").Nullable().OpenAPI(openapi.Version31)
		assert.Equal(t, []any{"a", "b", nil}, s.Enum)
	})

	t.Run("time example", func(t *testing.T) {
		at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

		assert.Equal(t, "2024-01-02T03:04:05Z", DateTime().Example(at).OpenAPI(openapi.Version31).Example)
		assert.Equal(t, "2024-01-02", Date().Example(at).OpenAPI(openapi.Version31).Example)
	})
}

func TestEnumKind(t *testing.T) {
	assert.Equal(t, KindString, Enum("a", "b").Kind())
	assert.Equal(t, KindInteger, Enum(1, 2).Kind())
	assert.Equal(t, KindNumber, Enum(1, 2.5).Kind())
	assert.Equal(t, KindAny, Enum("a", 1).Kind())
}

func TestObjectHelpers(t *testing.T) {
	base := Object(Fields{
		"id":     Integer(),
		"name":   String(),
		"status": String().Default("active"),
	})

	t.Run("pick", func(t *testing.T) {
		assert.Equal(t, []string{"id"}, base.Pick("id", "missing").FieldNames())
	})

	t.Run("omit", func(t *testing.T) {
		assert.Equal(t, []string{"name", "status"}, base.Omit("id").FieldNames())
	})

	t.Run("extend", func(t *testing.T) {
		v := base.Extend(Fields{"email": Email()})
		assert.Equal(t, []string{"email", "id", "name", "status"}, v.FieldNames())
		assert.Len(t, base.FieldNames(), 3)
	})

	t.Run("partial drops defaults", func(t *testing.T) {
		v := base.Partial()

		out, err := v.Parse(map[string]any{"name": "x"})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"name": "x"}, out)

		status, _ := base.Field("status")
		assert.True(t, status.Meta().HasDefault)
	})
}
