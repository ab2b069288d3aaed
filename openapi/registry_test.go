package openapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listOperation(tags ...string) *Operation {
	return &Operation{
		Tags:        tags,
		OperationID: "get_ListUsers",
		Parameters: []*Parameter{
			{Name: "page", In: "query", Schema: &Schema{Type: TypeString("integer")}},
		},
		Responses: map[string]*Response{"200": {Description: "OK"}},
	}
}

func TestRegistry(t *testing.T) {
	t.Run("add and lookup", func(t *testing.T) {
		reg := NewRegistry()
		reg.Add("/users", "get", listOperation())
		reg.Add("/users", http.MethodPost, &Operation{OperationID: "post_CreateUser"})
		reg.Add("/health", http.MethodGet, &Operation{})

		op, ok := reg.Operation("/users", http.MethodGet)
		require.True(t, ok)
		assert.Equal(t, "get_ListUsers", op.OperationID)

		_, ok = reg.Operation("/users", http.MethodDelete)
		assert.False(t, ok)

		assert.Equal(t, []string{"/health", "/users"}, reg.Paths())
		assert.Equal(t, 3, reg.Len())
	})

	t.Run("add replaces", func(t *testing.T) {
		reg := NewRegistry()
		reg.Add("/users", http.MethodGet, &Operation{OperationID: "a"})
		reg.Add("/users", http.MethodGet, &Operation{OperationID: "b"})

		op, _ := reg.Operation("/users", http.MethodGet)
		assert.Equal(t, "b", op.OperationID)
		assert.Equal(t, 1, reg.Len())
	})
}

func TestRegistryMerge(t *testing.T) {
	child := NewRegistry()
	child.Add("/users", http.MethodGet, listOperation("users"))
	child.Add("/users/{id}", http.MethodDelete, &Operation{OperationID: "delete_DeleteUser"})
	child.AddSecurityScheme("bearer", &SecurityScheme{Type: "http", Scheme: "bearer"})
	child.AddTag(Tag{Name: "users", Description: "User management"})

	parent := NewRegistry()
	parent.Add("/health", http.MethodGet, &Operation{})
	parent.Merge("/api/v1/", child)

	t.Run("prefixed paths", func(t *testing.T) {
		assert.Equal(t, []string{"/api/v1/users", "/api/v1/users/{id}", "/health"}, parent.Paths())
	})

	t.Run("deep copy", func(t *testing.T) {
		childOp, _ := child.Operation("/users", http.MethodGet)
		childOp.Summary = "changed"
		childOp.Parameters[0].Name = "changed"

		merged, ok := parent.Operation("/api/v1/users", http.MethodGet)
		require.True(t, ok)
		assert.Empty(t, merged.Summary)
		assert.Equal(t, "page", merged.Parameters[0].Name)
	})

	t.Run("later child routes not visible", func(t *testing.T) {
		child.Add("/late", http.MethodGet, &Operation{})
		_, ok := parent.Operation("/api/v1/late", http.MethodGet)
		assert.False(t, ok)
	})

	t.Run("components carried", func(t *testing.T) {
		doc := parent.Document(DocumentConfig{Info: Info{Title: "API", Version: "1"}})
		require.NotNil(t, doc.Components)
		assert.Equal(t, "bearer", doc.Components.SecuritySchemes["bearer"].Scheme)
		assert.Equal(t, []Tag{{Name: "users", Description: "User management"}}, doc.Tags)
	})
}

func TestRegistryDocument(t *testing.T) {
	reg := NewRegistry()
	reg.Add("/users", http.MethodGet, listOperation("users", "admin"))
	reg.Add("/users", http.MethodPost, &Operation{
		Tags:      []string{"users"},
		Responses: map[string]*Response{"201": {Description: "Created"}},
	})
	reg.AddTag(Tag{Name: "zeta"})

	doc := reg.Document(DocumentConfig{
		Version: Version30,
		Info:    Info{Title: "Users", Version: "1.0.0"},
		Servers: []Server{{URL: "https://api.example.com"}},
	})

	assert.Equal(t, Version30, doc.OpenAPI)
	require.Contains(t, doc.Paths, "/users")
	assert.NotNil(t, doc.Paths["/users"].Get)
	assert.NotNil(t, doc.Paths["/users"].Post)
	assert.Nil(t, doc.Components)
	assert.Equal(t, []Tag{{Name: "admin"}, {Name: "users"}, {Name: "zeta"}}, doc.Tags)

	t.Run("document is a copy", func(t *testing.T) {
		doc.Paths["/users"].Get.OperationID = "mutated"
		op, _ := reg.Operation("/users", http.MethodGet)
		assert.Equal(t, "get_ListUsers", op.OperationID)
	})

	t.Run("default version", func(t *testing.T) {
		assert.Equal(t, Version31, reg.Document(DocumentConfig{}).OpenAPI)
	})

	t.Run("valid 3.0 document", func(t *testing.T) {
		fresh := reg.Document(DocumentConfig{Version: Version30, Info: Info{Title: "Users", Version: "1.0.0"}})
		assert.NoError(t, Validate(context.Background(), fresh))
	})

	t.Run("3.1 not checked", func(t *testing.T) {
		assert.NoError(t, Validate(context.Background(), &Document{OpenAPI: Version31}))
	})

	t.Run("invalid 3.0 document", func(t *testing.T) {
		bad := &Document{
			OpenAPI: Version30,
			Info:    Info{Title: "Bad", Version: "1"},
			Paths: map[string]*PathItem{
				"/users/{id}": {Get: &Operation{Responses: map[string]*Response{"200": {Description: "OK"}}}},
			},
		}
		assert.Error(t, Validate(context.Background(), bad))
	})
}

func TestMergeParameters(t *testing.T) {
	auto := []*Parameter{
		{Name: "id", In: "path", Schema: &Schema{Type: TypeString("string")}},
		{Name: "org", In: "path", Schema: &Schema{Type: TypeString("string")}},
	}
	custom := []*Parameter{
		{Name: "id", In: "path", Schema: &Schema{Type: TypeString("integer")}},
		{Name: "id", In: "query"},
	}

	merged := MergeParameters(auto, custom)
	require.Len(t, merged, 3)
	assert.Equal(t, "org", merged[0].Name)
	assert.Equal(t, []string{"integer"}, merged[1].Schema.Type.Values())
	assert.Equal(t, "query", merged[2].In)

	assert.Nil(t, MergeParameters(nil, nil))
}

func TestResponseDescription(t *testing.T) {
	assert.Equal(t, "OK", ResponseDescription("200"))
	assert.Equal(t, "Not Found", ResponseDescription("404"))
	assert.Equal(t, "Default response", ResponseDescription("default"))
	assert.Equal(t, "2XX", ResponseDescription("2XX"))
	assert.Equal(t, "599", ResponseDescription("599"))

	assert.Contains(t, DefaultResponses(), "200")
}
