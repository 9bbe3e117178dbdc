package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nboone/todoapp/internal/model"
	"github.com/nboone/todoapp/internal/store"
	"github.com/nboone/todoapp/internal/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/nboone/todoapp/internal/handler")

// TodoHandler handles HTTP requests for todos.
type TodoHandler struct {
	store   *store.TodoStore
	logger  *slog.Logger
	metrics *telemetry.Metrics
}

// NewTodoHandler creates a new TodoHandler.
func NewTodoHandler(s *store.TodoStore, logger *slog.Logger, metrics *telemetry.Metrics) *TodoHandler {
	return &TodoHandler{
		store:   s,
		logger:  logger,
		metrics: metrics,
	}
}

// Routes returns the chi router with todo routes.
func (h *TodoHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.GetByID)
	r.Patch("/{id}/toggle", h.Toggle)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)

	return r
}

// List returns all todos.
func (h *TodoHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	ctx, span := tracer.Start(ctx, "TodoHandler.List")
	defer span.End()

	todos, err := h.store.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list todos", slog.Any("error", err))
		h.respondError(w, http.StatusInternalServerError, "failed to list todos")
		h.recordMetrics(ctx, "GET", "/api/todos", http.StatusInternalServerError, start)
		return
	}

	span.SetAttributes(attribute.Int("todo.count", len(todos)))
	h.logger.InfoContext(ctx, "todos listed", slog.Int("count", len(todos)))

	h.respondJSON(w, http.StatusOK, todos)
	h.recordMetrics(ctx, "GET", "/api/todos", http.StatusOK, start)
}

// Create adds a new todo.
func (h *TodoHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	ctx, span := tracer.Start(ctx, "TodoHandler.Create")
	defer span.End()

	var req model.CreateTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid request body", slog.Any("error", err))
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		h.recordMetrics(ctx, "POST", "/api/todos", http.StatusBadRequest, start)
		return
	}

	todo, err := h.store.Create(ctx, &req)
	if err != nil {
		if errors.Is(err, model.ErrTitleRequired) {
			h.logger.WarnContext(ctx, "validation failed", slog.Any("error", err))
			h.respondError(w, http.StatusBadRequest, err.Error())
			h.recordMetrics(ctx, "POST", "/api/todos", http.StatusBadRequest, start)
			return
		}
		h.logger.ErrorContext(ctx, "failed to create todo", slog.Any("error", err))
		h.respondError(w, http.StatusInternalServerError, "failed to create todo")
		h.recordMetrics(ctx, "POST", "/api/todos", http.StatusInternalServerError, start)
		return
	}

	span.SetAttributes(attribute.Int64("todo.id", todo.ID))
	h.logger.InfoContext(ctx, "todo created", slog.Int64("id", todo.ID), slog.String("title", todo.Title))

	h.respondJSON(w, http.StatusCreated, todo)
	h.recordMetrics(ctx, "POST", "/api/todos", http.StatusCreated, start)
}

// GetByID returns a todo by id.
func (h *TodoHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	id, ok := h.pathID(w, r, "GET", "/api/todos/{id}", start)
	if !ok {
		return
	}

	ctx, span := tracer.Start(ctx, "TodoHandler.GetByID",
		trace.WithAttributes(attribute.Int64("todo.id", id)),
	)
	defer span.End()

	todo, err := h.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrTodoNotFound) {
			h.logger.WarnContext(ctx, "todo not found", slog.Int64("id", id))
			h.respondError(w, http.StatusNotFound, "todo not found")
			h.recordMetrics(ctx, "GET", "/api/todos/{id}", http.StatusNotFound, start)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get todo", slog.Any("error", err))
		h.respondError(w, http.StatusInternalServerError, "failed to get todo")
		h.recordMetrics(ctx, "GET", "/api/todos/{id}", http.StatusInternalServerError, start)
		return
	}

	h.respondJSON(w, http.StatusOK, todo)
	h.recordMetrics(ctx, "GET", "/api/todos/{id}", http.StatusOK, start)
}

// Toggle flips the completed flag on a todo.
func (h *TodoHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	id, ok := h.pathID(w, r, "PATCH", "/api/todos/{id}/toggle", start)
	if !ok {
		return
	}

	ctx, span := tracer.Start(ctx, "TodoHandler.Toggle",
		trace.WithAttributes(attribute.Int64("todo.id", id)),
	)
	defer span.End()

	todo, err := h.store.Toggle(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrTodoNotFound) {
			h.logger.WarnContext(ctx, "todo not found", slog.Int64("id", id))
			h.respondError(w, http.StatusNotFound, "todo not found")
			h.recordMetrics(ctx, "PATCH", "/api/todos/{id}/toggle", http.StatusNotFound, start)
			return
		}
		h.logger.ErrorContext(ctx, "failed to toggle todo", slog.Any("error", err))
		h.respondError(w, http.StatusInternalServerError, "failed to toggle todo")
		h.recordMetrics(ctx, "PATCH", "/api/todos/{id}/toggle", http.StatusInternalServerError, start)
		return
	}

	h.logger.InfoContext(ctx, "todo toggled", slog.Int64("id", id), slog.Bool("completed", todo.Completed))

	h.respondJSON(w, http.StatusOK, todo)
	h.recordMetrics(ctx, "PATCH", "/api/todos/{id}/toggle", http.StatusOK, start)
}

// Update modifies an existing todo.
func (h *TodoHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	id, ok := h.pathID(w, r, "PUT", "/api/todos/{id}", start)
	if !ok {
		return
	}

	ctx, span := tracer.Start(ctx, "TodoHandler.Update",
		trace.WithAttributes(attribute.Int64("todo.id", id)),
	)
	defer span.End()

	var req model.UpdateTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid request body", slog.Any("error", err))
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		h.recordMetrics(ctx, "PUT", "/api/todos/{id}", http.StatusBadRequest, start)
		return
	}

	todo, err := h.store.Update(ctx, id, &req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrTitleRequired):
			h.logger.WarnContext(ctx, "validation failed", slog.Any("error", err))
			h.respondError(w, http.StatusBadRequest, err.Error())
			h.recordMetrics(ctx, "PUT", "/api/todos/{id}", http.StatusBadRequest, start)
		case errors.Is(err, model.ErrTodoNotFound):
			h.logger.WarnContext(ctx, "todo not found", slog.Int64("id", id))
			h.respondError(w, http.StatusNotFound, "todo not found")
			h.recordMetrics(ctx, "PUT", "/api/todos/{id}", http.StatusNotFound, start)
		default:
			h.logger.ErrorContext(ctx, "failed to update todo", slog.Any("error", err))
			h.respondError(w, http.StatusInternalServerError, "failed to update todo")
			h.recordMetrics(ctx, "PUT", "/api/todos/{id}", http.StatusInternalServerError, start)
		}
		return
	}

	h.logger.InfoContext(ctx, "todo updated", slog.Int64("id", id))

	h.respondJSON(w, http.StatusOK, todo)
	h.recordMetrics(ctx, "PUT", "/api/todos/{id}", http.StatusOK, start)
}

// Delete removes a todo.
func (h *TodoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	id, ok := h.pathID(w, r, "DELETE", "/api/todos/{id}", start)
	if !ok {
		return
	}

	ctx, span := tracer.Start(ctx, "TodoHandler.Delete",
		trace.WithAttributes(attribute.Int64("todo.id", id)),
	)
	defer span.End()

	if err := h.store.Remove(ctx, id); err != nil {
		if errors.Is(err, model.ErrTodoNotFound) {
			h.logger.WarnContext(ctx, "todo not found", slog.Int64("id", id))
			h.respondError(w, http.StatusNotFound, "todo not found")
			h.recordMetrics(ctx, "DELETE", "/api/todos/{id}", http.StatusNotFound, start)
			return
		}
		h.logger.ErrorContext(ctx, "failed to delete todo", slog.Any("error", err))
		h.respondError(w, http.StatusInternalServerError, "failed to delete todo")
		h.recordMetrics(ctx, "DELETE", "/api/todos/{id}", http.StatusInternalServerError, start)
		return
	}

	h.logger.InfoContext(ctx, "todo deleted", slog.Int64("id", id))

	w.WriteHeader(http.StatusNoContent)
	h.recordMetrics(ctx, "DELETE", "/api/todos/{id}", http.StatusNoContent, start)
}

// Health returns a health check response.
func (h *TodoHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// pathID parses the {id} URL parameter. Ids are positive integers, so a
// non-numeric or non-positive value can never name an item and maps to
// 404 rather than 500.
func (h *TodoHandler) pathID(w http.ResponseWriter, r *http.Request, method, route string, start time.Time) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		h.logger.WarnContext(r.Context(), "invalid todo id", slog.String("id", raw))
		h.respondError(w, http.StatusNotFound, "todo not found")
		h.recordMetrics(r.Context(), method, route, http.StatusNotFound, start)
		return 0, false
	}
	return id, true
}

func (h *TodoHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func (h *TodoHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

func (h *TodoHandler) recordMetrics(ctx context.Context, method, route string, status int, start time.Time) {
	duration := time.Since(start).Seconds()

	attrs := metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", route),
		attribute.Int("http.status_code", status),
	)

	h.metrics.RequestCounter.Add(ctx, 1, attrs)
	h.metrics.RequestDuration.Record(ctx, duration, attrs)
}
