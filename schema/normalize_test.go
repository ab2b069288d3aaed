package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Run("nil is optional string", func(t *testing.T) {
		v, err := Normalize(nil)
		require.NoError(t, err)
		assert.Equal(t, KindString, v.Kind())
		assert.False(t, v.IsRequired())
	})

	t.Run("validator passes through", func(t *testing.T) {
		in := Integer().Min(1)
		v, err := Normalize(in)
		require.NoError(t, err)
		assert.Same(t, in, v)
	})

	t.Run("validator with params is annotated copy", func(t *testing.T) {
		in := Integer()
		v, err := Normalize(in, Description("count"))
		require.NoError(t, err)
		assert.NotSame(t, in, v)
		assert.Equal(t, "count", v.Meta().Description)
		assert.Empty(t, in.Meta().Description)
	})

	t.Run("markers", func(t *testing.T) {
		tests := []struct {
			marker Marker
			kind   Kind
		}{
			{TypeString, KindString},
			{TypeNumber, KindNumber},
			{TypeInteger, KindInteger},
			{TypeBoolean, KindBoolean},
			{TypeDate, KindDateTime},
		}

		for _, tt := range tests {
			t.Run(tt.kind.String(), func(t *testing.T) {
				v, err := Normalize(tt.marker)
				require.NoError(t, err)
				assert.Equal(t, tt.kind, v.Kind())
			})
		}
	})

	t.Run("unknown marker", func(t *testing.T) {
		_, err := Normalize(Marker(99))
		assert.ErrorIs(t, err, ErrUnsupportedType)
	})

	t.Run("literals set example", func(t *testing.T) {
		tests := []struct {
			name string
			raw  any
			kind Kind
		}{
			{"string", "alice", KindString},
			{"int", 42, KindInteger},
			{"int64", int64(7), KindInteger},
			{"float", 1.5, KindNumber},
			{"bool", true, KindBoolean},
			{"time", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), KindDateTime},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				v, err := Normalize(tt.raw)
				require.NoError(t, err)
				assert.Equal(t, tt.kind, v.Kind())

				meta := v.Meta()
				assert.True(t, meta.HasExample)
				assert.Equal(t, tt.raw, meta.Example)
			})
		}
	})

	t.Run("single element array", func(t *testing.T) {
		v, err := Normalize([]any{TypeNumber})
		require.NoError(t, err)
		assert.Equal(t, KindArray, v.Kind())
		assert.Equal(t, KindNumber, v.Items().Kind())
	})

	t.Run("typed slice", func(t *testing.T) {
		v, err := Normalize([]string{"tag"})
		require.NoError(t, err)
		assert.Equal(t, KindArray, v.Kind())
		assert.Equal(t, KindString, v.Items().Kind())
	})

	t.Run("empty array", func(t *testing.T) {
		_, err := Normalize([]any{})
		assert.ErrorIs(t, err, ErrEmptyArray)
	})

	t.Run("multi element array", func(t *testing.T) {
		_, err := Normalize([]any{"a", "b"})
		assert.ErrorIs(t, err, ErrUnsupportedType)
	})

	t.Run("plain object", func(t *testing.T) {
		v, err := Normalize(map[string]any{
			"name": TypeString,
			"tags": []any{"x"},
			"meta": map[string]any{"age": 10},
		})
		require.NoError(t, err)
		assert.Equal(t, KindObject, v.Kind())
		assert.Equal(t, []string{"meta", "name", "tags"}, v.FieldNames())

		meta, ok := v.Field("meta")
		require.True(t, ok)
		age, ok := meta.Field("age")
		require.True(t, ok)
		assert.Equal(t, KindInteger, age.Kind())
	})

	t.Run("nested error names field", func(t *testing.T) {
		_, err := Normalize(map[string]any{"bad": []any{}})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrEmptyArray)
		assert.Contains(t, err.Error(), `"bad"`)
	})

	t.Run("callable receives params", func(t *testing.T) {
		var got []ParamOption
		builder := func(opts ...ParamOption) *Validator {
			got = opts
			return Annotate(String(), opts...)
		}

		v, err := Normalize(builder, Description("from builder"))
		require.NoError(t, err)
		assert.Len(t, got, 1)
		assert.Equal(t, "from builder", v.Meta().Description)
	})

	t.Run("struct", func(t *testing.T) {
		type user struct {
			Name string `json:"name"`
		}

		v, err := Normalize(&user{})
		require.NoError(t, err)
		assert.Equal(t, KindObject, v.Kind())
		assert.False(t, v.Meta().Nullable)
		assert.Equal(t, []string{"name"}, v.FieldNames())
	})

	t.Run("unsupported", func(t *testing.T) {
		_, err := Normalize(make(chan int))
		assert.ErrorIs(t, err, ErrUnsupportedType)
	})

	t.Run("deterministic", func(t *testing.T) {
		decl := map[string]any{"id": TypeInteger}

		a, err := Normalize(decl, Required(false))
		require.NoError(t, err)
		b, err := Normalize(decl, Required(false))
		require.NoError(t, err)

		assert.Equal(t, a.OpenAPI("3.1"), b.OpenAPI("3.1"))
		assert.Len(t, decl, 1)
	})
}

func TestMustNormalize(t *testing.T) {
	assert.NotPanics(t, func() { MustNormalize(TypeString) })
	assert.Panics(t, func() { MustNormalize([]any{}) })
}
