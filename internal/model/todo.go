package model

import (
	"strings"
	"time"
)

// Todo represents a single item on the list.
type Todo struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateTodoRequest represents the request body for creating a todo.
type CreateTodoRequest struct {
	Title string `json:"title"`
}

// UpdateTodoRequest represents the request body for updating a todo.
// Pointer fields distinguish "not sent" from an explicit zero value.
type UpdateTodoRequest struct {
	Title     *string `json:"title,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

// Validate checks if the CreateTodoRequest is valid.
func (r *CreateTodoRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return ErrTitleRequired
	}
	return nil
}

// Validate checks if the UpdateTodoRequest is valid. A title that is
// present must be non-empty after trimming; an absent title is fine.
func (r *UpdateTodoRequest) Validate() error {
	if r.Title != nil && strings.TrimSpace(*r.Title) == "" {
		return ErrTitleRequired
	}
	return nil
}

// TodoError represents a domain error for todos.
type TodoError struct {
	Message string
}

func (e TodoError) Error() string {
	return e.Message
}

var (
	ErrTodoNotFound  = TodoError{Message: "todo not found"}
	ErrTitleRequired = TodoError{Message: "title is required"}
)
