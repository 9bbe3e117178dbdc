package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/nboone/todoapp/internal/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/nboone/todoapp/internal/store")

// TodoStore provides in-memory storage for todos. Items are kept in
// insertion order, and ids come from a monotonic counter that is never
// advanced for a rejected create and never reused after a delete.
type TodoStore struct {
	mu     sync.RWMutex
	todos  []*model.Todo
	nextID int64
}

// NewTodoStore creates an empty TodoStore.
func NewTodoStore() *TodoStore {
	return &TodoStore{
		todos: make([]*model.Todo, 0),
	}
}

// List returns all todos in creation order. The result is never nil so
// an empty store serialises as an empty JSON array. Items are copies:
// callers encode them after the lock is released, so they must not
// alias the stored collection.
func (s *TodoStore) List(ctx context.Context) ([]*model.Todo, error) {
	_, span := tracer.Start(ctx, "TodoStore.List")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()

	todos := make([]*model.Todo, 0, len(s.todos))
	for _, todo := range s.todos {
		out := *todo
		todos = append(todos, &out)
	}

	span.SetAttributes(attribute.Int("todo.count", len(todos)))
	return todos, nil
}

// Create validates the request, allocates the next id and appends the
// new todo. State is untouched when validation fails.
func (s *TodoStore) Create(ctx context.Context, req *model.CreateTodoRequest) (*model.Todo, error) {
	_, span := tracer.Start(ctx, "TodoStore.Create",
		trace.WithAttributes(attribute.String("todo.title", req.Title)),
	)
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	todo := &model.Todo{
		ID:        s.nextID,
		Title:     strings.TrimSpace(req.Title),
		Completed: false,
		CreatedAt: time.Now(),
	}
	s.todos = append(s.todos, todo)

	span.SetAttributes(attribute.Int64("todo.id", todo.ID))
	out := *todo
	return &out, nil
}

// Get retrieves a todo by its id.
func (s *TodoStore) Get(ctx context.Context, id int64) (*model.Todo, error) {
	_, span := tracer.Start(ctx, "TodoStore.Get",
		trace.WithAttributes(attribute.Int64("todo.id", id)),
	)
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()

	todo := s.find(id)
	if todo == nil {
		span.SetAttributes(attribute.Bool("todo.found", false))
		return nil, model.ErrTodoNotFound
	}

	span.SetAttributes(attribute.Bool("todo.found", true))
	out := *todo
	return &out, nil
}

// Toggle flips the completed flag on the matching todo.
func (s *TodoStore) Toggle(ctx context.Context, id int64) (*model.Todo, error) {
	_, span := tracer.Start(ctx, "TodoStore.Toggle",
		trace.WithAttributes(attribute.Int64("todo.id", id)),
	)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	todo := s.find(id)
	if todo == nil {
		span.SetAttributes(attribute.Bool("todo.found", false))
		return nil, model.ErrTodoNotFound
	}

	todo.Completed = !todo.Completed

	span.SetAttributes(
		attribute.Bool("todo.found", true),
		attribute.Bool("todo.completed", todo.Completed),
	)
	out := *todo
	return &out, nil
}

// Update applies the fields present in req to the matching todo. An
// unknown id reports not-found even when the patch itself is invalid.
func (s *TodoStore) Update(ctx context.Context, id int64, req *model.UpdateTodoRequest) (*model.Todo, error) {
	_, span := tracer.Start(ctx, "TodoStore.Update",
		trace.WithAttributes(attribute.Int64("todo.id", id)),
	)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	todo := s.find(id)
	if todo == nil {
		span.SetAttributes(attribute.Bool("todo.found", false))
		return nil, model.ErrTodoNotFound
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	if req.Title != nil {
		todo.Title = strings.TrimSpace(*req.Title)
	}
	if req.Completed != nil {
		todo.Completed = *req.Completed
	}

	span.SetAttributes(attribute.Bool("todo.found", true))
	out := *todo
	return &out, nil
}

// Remove deletes the matching todo. Deleting an id twice reports
// not-found on the second call.
func (s *TodoStore) Remove(ctx context.Context, id int64) error {
	_, span := tracer.Start(ctx, "TodoStore.Remove",
		trace.WithAttributes(attribute.Int64("todo.id", id)),
	)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, todo := range s.todos {
		if todo.ID == id {
			s.todos = append(s.todos[:i], s.todos[i+1:]...)
			span.SetAttributes(attribute.Bool("todo.found", true))
			return nil
		}
	}

	span.SetAttributes(attribute.Bool("todo.found", false))
	return model.ErrTodoNotFound
}

// Count returns the current number of todos.
func (s *TodoStore) Count() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.todos))
}

// find returns the todo with the given id, or nil. Callers hold s.mu.
func (s *TodoStore) find(id int64) *model.Todo {
	for _, todo := range s.todos {
		if todo.ID == id {
			return todo
		}
	}
	return nil
}
