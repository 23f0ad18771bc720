package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, h *Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	h.Register(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestLiveness(t *testing.T) {
	rec := serve(t, New("test", nil), "/health/live")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"alive"}`, rec.Body.String())
}

func TestReadiness(t *testing.T) {
	t.Run("all checks up", func(t *testing.T) {
		h := New("test", nil)
		h.RegisterCheck("redis", func(context.Context) error { return nil })

		rec := serve(t, h, "/health/ready")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ready","checks":{"redis":"up"}}`, rec.Body.String())
	})

	t.Run("failing check hides its error", func(t *testing.T) {
		h := New("test", nil)
		h.RegisterCheck("redis", func(context.Context) error { return nil })
		h.RegisterCheck("postgres", func(context.Context) error {
			return errors.New("dial tcp 10.0.0.12:5432: connection refused")
		})

		rec := serve(t, h, "/health/ready")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.NotContains(t, rec.Body.String(), "10.0.0.12")

		var body ReadinessResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "not_ready", body.Status)
		assert.Equal(t, map[string]string{"redis": "up", "postgres": "down"}, body.Checks)
	})

	t.Run("checks get a deadline", func(t *testing.T) {
		h := New("test", nil)
		h.RegisterCheck("kafka", func(ctx context.Context) error {
			_, ok := ctx.Deadline()
			assert.True(t, ok)
			return nil
		})
		assert.Equal(t, http.StatusOK, serve(t, h, "/health/ready").Code)
	})
}

func TestStatus(t *testing.T) {
	h := New("staging", nil)
	start := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	h.startTime = start
	h.now = func() time.Time { return start.Add(90 * time.Second) }

	rec := serve(t, h, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var body StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "staging", body.Environment)
	assert.Equal(t, int64(90), body.UptimeSeconds)
	assert.Equal(t, "2026-05-04T09:01:30Z", body.Timestamp)
}
