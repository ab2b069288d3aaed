package memory

import (
	"context"
	"errors"
	"math"
	"net/http"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalvas/openroute/crud"
	"github.com/vitalvas/openroute/exceptions"
	"github.com/vitalvas/openroute/schema"
)

var meta = crud.Meta{
	Table: "users",
	Schema: schema.Object(schema.Fields{
		"id":    schema.Integer(),
		"name":  schema.String(),
		"email": schema.Email(),
	}),
	PrimaryKeys: []string{"id"},
}

func byID(id any) crud.Filters {
	return crud.Filters{Filters: []crud.Filter{{Field: "id", Operator: crud.EQ, Value: id}}}
}

func statusOf(t *testing.T, err error) int {
	t.Helper()

	var e *exceptions.Exception
	require.True(t, errors.As(err, &e))

	return e.HTTPStatus()
}

func TestNew(t *testing.T) {
	_, err := New(crud.Meta{Table: "users"})
	assert.Error(t, err)

	s, err := New(meta)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())

	var (
		_ crud.CreateHandler = s
		_ crud.ReadHandler   = s
		_ crud.UpdateHandler = s
		_ crud.DeleteHandler = s
		_ crud.ListHandler   = s
	)
}

func TestStore(t *testing.T) {
	ctx := context.Background()

	s, err := New(meta, WithUnique("email"))
	require.NoError(t, err)

	require.NoError(t, s.Seed(ctx,
		crud.Record{"name": "Alice", "email": "alice@example.com"},
		crud.Record{"name": "Bob", "email": "bob@example.com"},
	))

	t.Run("create assigns ids", func(t *testing.T) {
		r, err := s.Create(ctx, crud.Record{"name": "Charlie", "email": "charlie@example.com"})
		require.NoError(t, err)
		assert.Equal(t, int64(3), r["id"])
		assert.Equal(t, 3, s.Len())
	})

	t.Run("explicit id moves the sequence", func(t *testing.T) {
		_, err := s.Create(ctx, crud.Record{"id": int64(10), "name": "Dan", "email": "dan@example.com"})
		require.NoError(t, err)

		r, err := s.Create(ctx, crud.Record{"name": "Eve", "email": "eve@example.com"})
		require.NoError(t, err)
		assert.Equal(t, int64(11), r["id"])
	})

	t.Run("conflicts", func(t *testing.T) {
		_, err := s.Create(ctx, crud.Record{"id": int64(1), "name": "X", "email": "x@example.com"})
		assert.Equal(t, http.StatusConflict, statusOf(t, err))

		_, err = s.Create(ctx, crud.Record{"name": "X", "email": "alice@example.com"})
		assert.Equal(t, http.StatusConflict, statusOf(t, err))
	})

	t.Run("fetch", func(t *testing.T) {
		r, err := s.Fetch(ctx, byID(float64(2)))
		require.NoError(t, err)
		assert.Equal(t, "Bob", r["name"])

		r["name"] = "changed"
		again, err := s.Fetch(ctx, byID(2))
		require.NoError(t, err)
		assert.Equal(t, "Bob", again["name"])

		missing, err := s.GetObject(ctx, byID(999))
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("update", func(t *testing.T) {
		old, err := s.GetObject(ctx, byID(1))
		require.NoError(t, err)

		r, err := s.Update(ctx, old, crud.Filters{UpdatedData: map[string]any{"name": "Alicia"}})
		require.NoError(t, err)
		assert.Equal(t, "Alicia", r["name"])
		assert.Equal(t, "alice@example.com", r["email"])

		_, err = s.Update(ctx, old, crud.Filters{UpdatedData: map[string]any{"email": "bob@example.com"}})
		assert.Equal(t, http.StatusConflict, statusOf(t, err))

		_, err = s.Update(ctx, old, crud.Filters{UpdatedData: map[string]any{"email": "alice@example.com"}})
		assert.NoError(t, err)
	})

	t.Run("list", func(t *testing.T) {
		res, err := s.List(ctx, crud.Filters{Options: crud.Options{Page: 1, PerPage: 2, OrderBy: "id", OrderByDirection: "desc"}})
		require.NoError(t, err)
		require.NotNil(t, res.TotalCount)
		assert.Equal(t, 5, *res.TotalCount)
		require.Len(t, res.Records, 2)
		assert.Equal(t, int64(11), res.Records[0]["id"])

		res, err = s.List(ctx, crud.Filters{
			Filters: []crud.Filter{{Field: "search", Operator: crud.LIKE, Value: "ALI"}},
			Options: crud.Options{Page: 1, PerPage: 20, SearchFields: []string{"name"}},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, *res.TotalCount)

		res, err = s.List(ctx, crud.Filters{Options: crud.Options{Page: math.MaxInt / 10, PerPage: 20}})
		require.NoError(t, err)
		assert.Empty(t, res.Records)
		assert.Equal(t, 5, *res.TotalCount)

		_, err = s.List(ctx, crud.Filters{Filters: []crud.Filter{{Field: "id", Operator: "IN", Value: 1}}})
		assert.Equal(t, http.StatusInternalServerError, statusOf(t, err))
	})

	t.Run("delete", func(t *testing.T) {
		old, err := s.GetObject(ctx, byID(2))
		require.NoError(t, err)

		r, err := s.Delete(ctx, old, byID(2))
		require.NoError(t, err)
		assert.Equal(t, "Bob", r["name"])

		_, err = s.Delete(ctx, old, byID(2))
		assert.Equal(t, http.StatusNotFound, statusOf(t, err))
	})
}

func TestUUIDs(t *testing.T) {
	ctx := context.Background()

	s, err := New(meta, WithUUIDs())
	require.NoError(t, err)

	r, err := s.Create(ctx, crud.Record{"name": "A"})
	require.NoError(t, err)

	_, err = uuid.Parse(r["id"].(string))
	assert.NoError(t, err)
}

func TestConcurrentCreate(t *testing.T) {
	ctx := context.Background()

	s, err := New(meta)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Create(ctx, crud.Record{"name": "n"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	res, err := s.List(ctx, crud.Filters{})
	require.NoError(t, err)
	assert.Equal(t, 50, *res.TotalCount)
}
