// Package client implements the data layer used by the terminal UI and
// CLI. It keeps a disposable read-model of the server's list: every
// successful mutation triggers a full re-fetch, which trades a round
// trip for guaranteed consistency with the server's order and fields.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nboone/todoapp/internal/model"
)

// Client talks to the todo server and caches the last fetched list.
type Client struct {
	baseURL string
	httpc   *http.Client
	logger  *slog.Logger

	mu    sync.RWMutex
	todos []model.Todo
}

// Stats are aggregate counts derived from the cached list.
type Stats struct {
	ItemsLeft int
	Completed int
}

// APIError is an error response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) { c.httpc = httpc }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a Client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 10 * time.Second},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		todos:   make([]model.Todo, 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Refresh fetches the full list and replaces the cached read-model.
// On failure the previous cache is kept.
func (c *Client) Refresh(ctx context.Context) error {
	var todos []model.Todo
	if err := c.do(ctx, http.MethodGet, "/api/todos", nil, &todos); err != nil {
		return err
	}
	if todos == nil {
		todos = make([]model.Todo, 0)
	}

	c.mu.Lock()
	c.todos = todos
	c.mu.Unlock()

	c.logger.Debug("refreshed todos", slog.Int("count", len(todos)))
	return nil
}

// Todos returns a copy of the cached list.
func (c *Client) Todos() []model.Todo {
	c.mu.RLock()
	defer c.mu.RUnlock()

	todos := make([]model.Todo, len(c.todos))
	copy(todos, c.todos)
	return todos
}

// Stats derives aggregate counts from the cached list. Counts are
// computed on every call, never stored.
func (c *Client) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var s Stats
	for _, t := range c.todos {
		if t.Completed {
			s.Completed++
		} else {
			s.ItemsLeft++
		}
	}
	return s
}

// Create adds a new todo and refreshes the cache.
func (c *Client) Create(ctx context.Context, title string) (model.Todo, error) {
	var todo model.Todo
	req := model.CreateTodoRequest{Title: title}
	if err := c.do(ctx, http.MethodPost, "/api/todos", &req, &todo); err != nil {
		return model.Todo{}, err
	}
	return todo, c.Refresh(ctx)
}

// Toggle flips the completed flag on a todo and refreshes the cache.
func (c *Client) Toggle(ctx context.Context, id int64) (model.Todo, error) {
	var todo model.Todo
	path := fmt.Sprintf("/api/todos/%d/toggle", id)
	if err := c.do(ctx, http.MethodPatch, path, nil, &todo); err != nil {
		return model.Todo{}, err
	}
	return todo, c.Refresh(ctx)
}

// Update modifies a todo and refreshes the cache.
func (c *Client) Update(ctx context.Context, id int64, req model.UpdateTodoRequest) (model.Todo, error) {
	var todo model.Todo
	path := fmt.Sprintf("/api/todos/%d", id)
	if err := c.do(ctx, http.MethodPut, path, &req, &todo); err != nil {
		return model.Todo{}, err
	}
	return todo, c.Refresh(ctx)
}

// Delete removes a todo and refreshes the cache.
func (c *Client) Delete(ctx context.Context, id int64) error {
	path := fmt.Sprintf("/api/todos/%d", id)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return err
	}
	return c.Refresh(ctx)
}

// do issues one request. Error bodies of the shape {"error": string}
// become *APIError; out may be nil for empty responses.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	// Not a de-duplication key, just log correlation for rapid-fire
	// submissions.
	req.Header.Set("X-Request-Id", uuid.New().String())

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode, Message: "unknown error"}
		var errBody struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errBody); err == nil && errBody.Error != "" {
			apiErr.Message = errBody.Error
		}
		c.logger.Warn("request rejected",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
		)
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
