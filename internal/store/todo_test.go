package store

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nboone/todoapp/internal/model"
)

func mustCreate(t *testing.T, s *TodoStore, title string) *model.Todo {
	t.Helper()
	todo, err := s.Create(context.Background(), &model.CreateTodoRequest{Title: title})
	require.NoError(t, err)
	return todo
}

func TestTodoStore_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns strictly increasing unique ids", func(t *testing.T) {
		s := NewTodoStore()
		a := mustCreate(t, s, "a")
		b := mustCreate(t, s, "b")
		c := mustCreate(t, s, "c")

		assert.Equal(t, int64(1), a.ID)
		assert.Equal(t, int64(2), b.ID)
		assert.Equal(t, int64(3), c.ID)
	})

	t.Run("defaults completed to false and stamps createdAt", func(t *testing.T) {
		s := NewTodoStore()
		todo := mustCreate(t, s, "Buy milk")

		assert.False(t, todo.Completed)
		assert.False(t, todo.CreatedAt.IsZero())
	})

	t.Run("trims the stored title", func(t *testing.T) {
		s := NewTodoStore()
		todo := mustCreate(t, s, "  Buy milk  ")
		assert.Equal(t, "Buy milk", todo.Title)
	})

	t.Run("rejects invalid titles without advancing the counter", func(t *testing.T) {
		s := NewTodoStore()

		for _, title := range []string{"", "   "} {
			_, err := s.Create(ctx, &model.CreateTodoRequest{Title: title})
			assert.ErrorIs(t, err, model.ErrTitleRequired)
		}

		todo := mustCreate(t, s, "first valid")
		assert.Equal(t, int64(1), todo.ID)
		assert.Equal(t, int64(1), s.Count())
	})
}

func TestTodoStore_Toggle(t *testing.T) {
	ctx := context.Background()
	s := NewTodoStore()
	todo := mustCreate(t, s, "flip me")

	got, err := s.Toggle(ctx, todo.ID)
	require.NoError(t, err)
	assert.True(t, got.Completed)

	got, err = s.Toggle(ctx, todo.ID)
	require.NoError(t, err)
	assert.False(t, got.Completed, "second toggle flips back to false")

	_, err = s.Toggle(ctx, 99)
	assert.ErrorIs(t, err, model.ErrTodoNotFound)
}

func TestTodoStore_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("applies only the fields present", func(t *testing.T) {
		s := NewTodoStore()
		todo := mustCreate(t, s, "original")

		title := "renamed"
		got, err := s.Update(ctx, todo.ID, &model.UpdateTodoRequest{Title: &title})
		require.NoError(t, err)
		assert.Equal(t, "renamed", got.Title)
		assert.False(t, got.Completed)

		completed := true
		got, err = s.Update(ctx, todo.ID, &model.UpdateTodoRequest{Completed: &completed})
		require.NoError(t, err)
		assert.Equal(t, "renamed", got.Title)
		assert.True(t, got.Completed)
	})

	t.Run("rejects an empty title", func(t *testing.T) {
		s := NewTodoStore()
		todo := mustCreate(t, s, "keep me")

		empty := "  "
		_, err := s.Update(ctx, todo.ID, &model.UpdateTodoRequest{Title: &empty})
		assert.ErrorIs(t, err, model.ErrTitleRequired)

		got, err := s.Get(ctx, todo.ID)
		require.NoError(t, err)
		assert.Equal(t, "keep me", got.Title)
	})

	t.Run("reports not found for unknown ids", func(t *testing.T) {
		s := NewTodoStore()
		completed := true
		_, err := s.Update(ctx, 42, &model.UpdateTodoRequest{Completed: &completed})
		assert.ErrorIs(t, err, model.ErrTodoNotFound)
	})

	t.Run("unknown id wins over an invalid patch", func(t *testing.T) {
		s := NewTodoStore()
		empty := ""
		_, err := s.Update(ctx, 42, &model.UpdateTodoRequest{Title: &empty})
		assert.ErrorIs(t, err, model.ErrTodoNotFound)
	})
}

func TestTodoStore_Remove(t *testing.T) {
	ctx := context.Background()
	s := NewTodoStore()
	todo := mustCreate(t, s, "short lived")

	require.NoError(t, s.Remove(ctx, todo.ID))
	assert.ErrorIs(t, s.Remove(ctx, todo.ID), model.ErrTodoNotFound,
		"second remove of the same id reports not found")

	// The freed id is never reused.
	next := mustCreate(t, s, "next")
	assert.Equal(t, todo.ID+1, next.ID)
}

func TestTodoStore_List(t *testing.T) {
	ctx := context.Background()

	t.Run("empty store returns an empty non-nil slice", func(t *testing.T) {
		s := NewTodoStore()
		todos, err := s.List(ctx)
		require.NoError(t, err)
		assert.NotNil(t, todos)
		assert.Empty(t, todos)
	})

	t.Run("keeps creation order across toggles and removes", func(t *testing.T) {
		s := NewTodoStore()
		a := mustCreate(t, s, "A")
		b := mustCreate(t, s, "B")
		c := mustCreate(t, s, "C")

		_, err := s.Toggle(ctx, b.ID)
		require.NoError(t, err)

		todos, err := s.List(ctx)
		require.NoError(t, err)

		var titles []string
		for _, todo := range todos {
			titles = append(titles, todo.Title)
		}
		if diff := cmp.Diff([]string{"A", "B", "C"}, titles); diff != "" {
			t.Fatalf("list order mismatch (-want +got):\n%s", diff)
		}

		require.NoError(t, s.Remove(ctx, a.ID))
		todos, err = s.List(ctx)
		require.NoError(t, err)
		require.Len(t, todos, 2)
		assert.Equal(t, b.ID, todos[0].ID)
		assert.Equal(t, c.ID, todos[1].ID)
	})

	t.Run("returned items do not alias the stored collection", func(t *testing.T) {
		s := NewTodoStore()
		created := mustCreate(t, s, "snapshot")

		todos, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, todos, 1)

		_, err = s.Toggle(ctx, created.ID)
		require.NoError(t, err)

		assert.False(t, todos[0].Completed, "earlier List result is a detached copy")
		assert.False(t, created.Completed, "earlier Create result is a detached copy")

		got, err := s.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, got.Completed)
	})
}
