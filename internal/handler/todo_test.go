package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/nboone/todoapp/internal/model"
	"github.com/nboone/todoapp/internal/store"
	"github.com/nboone/todoapp/internal/telemetry"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	s := store.NewTodoStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics, err := telemetry.NewMetrics(noop.NewMeterProvider().Meter("test"), s.Count)
	require.NoError(t, err)

	h := NewTodoHandler(s, logger, metrics)

	r := chi.NewRouter()
	r.Get("/health", h.Health)
	r.Route("/api", func(r chi.Router) {
		r.Mount("/todos", h.Routes())
	})
	return r
}

func doRequest(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeTodo(t *testing.T, rec *httptest.ResponseRecorder) model.Todo {
	t.Helper()
	var todo model.Todo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &todo))
	return todo
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Error)
	return body.Error
}

func TestTodoHandler_Lifecycle(t *testing.T) {
	r := newTestRouter(t)

	rec := doRequest(t, r, http.MethodPost, "/api/todos", `{"title":"Buy milk"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeTodo(t, rec)
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, "Buy milk", created.Title)
	assert.False(t, created.Completed)
	assert.False(t, created.CreatedAt.IsZero())

	rec = doRequest(t, r, http.MethodGet, "/api/todos", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var todos []model.Todo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &todos))
	require.Len(t, todos, 1)
	assert.Equal(t, created.ID, todos[0].ID)

	rec = doRequest(t, r, http.MethodPatch, "/api/todos/1/toggle", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeTodo(t, rec).Completed)

	rec = doRequest(t, r, http.MethodDelete, "/api/todos/1", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = doRequest(t, r, http.MethodGet, "/api/todos", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestTodoHandler_List_EmptyIsArray(t *testing.T) {
	r := newTestRouter(t)

	rec := doRequest(t, r, http.MethodGet, "/api/todos", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestTodoHandler_Create(t *testing.T) {
	t.Run("missing title", func(t *testing.T) {
		r := newTestRouter(t)
		rec := doRequest(t, r, http.MethodPost, "/api/todos", `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		decodeError(t, rec)
	})

	t.Run("whitespace title", func(t *testing.T) {
		r := newTestRouter(t)
		rec := doRequest(t, r, http.MethodPost, "/api/todos", `{"title":"   "}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		decodeError(t, rec)
	})

	t.Run("malformed body", func(t *testing.T) {
		r := newTestRouter(t)
		rec := doRequest(t, r, http.MethodPost, "/api/todos", `{"title":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		decodeError(t, rec)
	})

	t.Run("rejected creates do not advance the id counter", func(t *testing.T) {
		r := newTestRouter(t)
		doRequest(t, r, http.MethodPost, "/api/todos", `{"title":""}`)
		rec := doRequest(t, r, http.MethodPost, "/api/todos", `{"title":"first"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, int64(1), decodeTodo(t, rec).ID)
	})
}

func TestTodoHandler_Update(t *testing.T) {
	t.Run("unknown id is 404 for any patch body", func(t *testing.T) {
		r := newTestRouter(t)
		// Valid and invalid patches alike: the unknown id dominates.
		for _, body := range []string{`{"completed":true}`, `{"title":""}`, `{"title":"   "}`, `{}`} {
			rec := doRequest(t, r, http.MethodPut, "/api/todos/99", body)
			assert.Equalf(t, http.StatusNotFound, rec.Code, "body %s", body)
			decodeError(t, rec)
		}
	})

	t.Run("replaces title and completed", func(t *testing.T) {
		r := newTestRouter(t)
		doRequest(t, r, http.MethodPost, "/api/todos", `{"title":"old"}`)

		rec := doRequest(t, r, http.MethodPut, "/api/todos/1", `{"title":"new","completed":true}`)
		require.Equal(t, http.StatusOK, rec.Code)
		todo := decodeTodo(t, rec)
		assert.Equal(t, "new", todo.Title)
		assert.True(t, todo.Completed)
	})

	t.Run("empty title in patch is 400", func(t *testing.T) {
		r := newTestRouter(t)
		doRequest(t, r, http.MethodPost, "/api/todos", `{"title":"keep"}`)

		rec := doRequest(t, r, http.MethodPut, "/api/todos/1", `{"title":""}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		decodeError(t, rec)
	})
}

func TestTodoHandler_Toggle(t *testing.T) {
	r := newTestRouter(t)
	doRequest(t, r, http.MethodPost, "/api/todos", `{"title":"flip"}`)

	rec := doRequest(t, r, http.MethodPatch, "/api/todos/1/toggle", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeTodo(t, rec).Completed)

	rec = doRequest(t, r, http.MethodPatch, "/api/todos/1/toggle", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeTodo(t, rec).Completed)

	rec = doRequest(t, r, http.MethodPatch, "/api/todos/7/toggle", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	decodeError(t, rec)
}

func TestTodoHandler_Delete_TwiceIsNotFound(t *testing.T) {
	r := newTestRouter(t)
	doRequest(t, r, http.MethodPost, "/api/todos", `{"title":"gone"}`)

	rec := doRequest(t, r, http.MethodDelete, "/api/todos/1", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, r, http.MethodDelete, "/api/todos/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	decodeError(t, rec)
}

func TestTodoHandler_NonNumericID(t *testing.T) {
	r := newTestRouter(t)
	doRequest(t, r, http.MethodPost, "/api/todos", `{"title":"safe"}`)

	cases := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodGet, "/api/todos/abc", ""},
		{http.MethodPatch, "/api/todos/abc/toggle", ""},
		{http.MethodPut, "/api/todos/abc", `{"completed":true}`},
		{http.MethodDelete, "/api/todos/abc", ""},
		{http.MethodDelete, "/api/todos/-1", ""},
	}
	for _, tc := range cases {
		rec := doRequest(t, r, tc.method, tc.path, tc.body)
		assert.Equalf(t, http.StatusNotFound, rec.Code, "%s %s", tc.method, tc.path)
		decodeError(t, rec)
	}
}

func TestTodoHandler_Health(t *testing.T) {
	r := newTestRouter(t)

	rec := doRequest(t, r, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
