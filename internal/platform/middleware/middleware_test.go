package middleware

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequestID(t *testing.T) {
	t.Run("generates UUID when no header provided", func(t *testing.T) {
		var capturedID string
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			capturedID = GetRequestID(r.Context())
		}))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/login", nil))

		assert.Len(t, capturedID, 36)
		assert.Equal(t, capturedID, w.Header().Get("X-Request-ID"))
	})

	t.Run("keeps a valid client ID", func(t *testing.T) {
		var capturedID string
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			capturedID = GetRequestID(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
		req.Header.Set("X-Request-ID", "trace.span_1234")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, "trace.span_1234", capturedID)
		assert.Equal(t, "trace.span_1234", w.Header().Get("X-Request-ID"))
	})

	t.Run("replaces unsafe client IDs", func(t *testing.T) {
		for name, id := range map[string]string{
			"too long":     strings.Repeat("a", MaxRequestIDLength+1),
			"newline":      "valid\ninjected-log-line",
			"space":        "request id",
			"quote":        `request"id`,
			"angle":        "request<id>",
			"backslash":    `request\id`,
			"null byte":    "request\x00id",
			"semicolon":    "request;id",
			"unicode dash": "request–id",
		} {
			t.Run(name, func(t *testing.T) {
				req := httptest.NewRequest(http.MethodGet, "/", nil)
				req.Header.Set("X-Request-ID", id)
				w := httptest.NewRecorder()
				RequestID(okHandler()).ServeHTTP(w, req)

				got := w.Header().Get("X-Request-ID")
				assert.NotEqual(t, id, got)
				assert.Len(t, got, 36)
			})
		}
	})

	t.Run("accepts ID at exactly max length", func(t *testing.T) {
		id := strings.Repeat("a", MaxRequestIDLength)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", id)
		w := httptest.NewRecorder()
		RequestID(okHandler()).ServeHTTP(w, req)

		assert.Equal(t, id, w.Header().Get("X-Request-ID"))
	})

	t.Run("empty outside a request", func(t *testing.T) {
		assert.Equal(t, "", GetRequestID(context.Background()))
	})
}

func TestRequestTime(t *testing.T) {
	var first, second time.Time
	handler := RequestTime(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		first = RequestTimeFrom(r.Context())
		time.Sleep(time.Millisecond)
		second = RequestTimeFrom(r.Context())
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.False(t, first.IsZero())
	assert.True(t, first.Equal(second))

	pinned := time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)
	assert.True(t, pinned.Equal(RequestTimeFrom(WithRequestTime(context.Background(), pinned))))
}

func TestLogger(t *testing.T) {
	newLogger := func() (*slog.Logger, *bytes.Buffer) {
		var buf bytes.Buffer
		return slog.New(slog.NewJSONHandler(&buf, nil)), &buf
	}

	t.Run("logs path without query", func(t *testing.T) {
		logger, buf := newLogger()
		handler := RequestID(Logger(logger)(okHandler()))

		req := httptest.NewRequest(http.MethodGet, "/auth/callback/google?code=4%2F0Adeu5B&state=9f86d081884c7d65", nil)
		req.RemoteAddr = "203.0.113.77:51234"
		handler.ServeHTTP(httptest.NewRecorder(), req)

		out := buf.String()
		assert.Contains(t, out, `"path":"/auth/callback/google"`)
		assert.Contains(t, out, `"remote_addr_prefix":"203.0.113.0"`)
		assert.NotContains(t, out, "4%2F0Adeu5B")
		assert.NotContains(t, out, "9f86d081884c7d65")
		assert.NotContains(t, out, "203.0.113.77")
	})

	t.Run("skips successful health checks", func(t *testing.T) {
		logger, buf := newLogger()
		Logger(logger)(okHandler()).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Empty(t, buf.String())
	})

	t.Run("logs failing health checks", func(t *testing.T) {
		logger, buf := newLogger()
		failing := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
		Logger(logger)(failing).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		assert.Contains(t, buf.String(), `"status":503`)
	})
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	Recovery(logger)(panicking).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/login", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, buf.String(), "panic recovered")
}

func TestContentTypeJSON(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		contentType string
		wantStatus  int
	}{
		{"json", http.MethodPost, "application/json", http.StatusOK},
		{"json with charset", http.MethodPost, "application/json; charset=utf-8", http.StatusOK},
		{"missing", http.MethodPost, "", http.StatusOK},
		{"form", http.MethodPost, "application/x-www-form-urlencoded", http.StatusUnsupportedMediaType},
		{"malformed", http.MethodPost, "application/json; =", http.StatusUnsupportedMediaType},
		{"get ignores header", http.MethodGet, "text/plain", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/auth/login", strings.NewReader(`{}`))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()
			ContentTypeJSON(okHandler()).ServeHTTP(w, req)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestBodyLimit(t *testing.T) {
	t.Run("request at limit passes through", func(t *testing.T) {
		handler := BodyLimit(100)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			data, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			assert.Len(t, data, 100)
		}))
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 100)))
		handler.ServeHTTP(httptest.NewRecorder(), req)
	})

	t.Run("request over limit fails on read", func(t *testing.T) {
		var readErr error
		handler := BodyLimit(100)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, readErr = io.ReadAll(r.Body)
		}))
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 200)))
		handler.ServeHTTP(httptest.NewRecorder(), req)

		var maxErr *http.MaxBytesError
		require.ErrorAs(t, readErr, &maxErr)
		assert.Equal(t, int64(100), maxErr.Limit)
	})
}

type recordedRequest struct {
	route, method, status string
}

type fakeObserver struct {
	mu   sync.Mutex
	seen []recordedRequest
}

func (f *fakeObserver) ObserveRequest(route, method, status string, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, recordedRequest{route, method, status})
}

func TestLatency(t *testing.T) {
	observer := &fakeObserver{}
	r := chi.NewRouter()
	r.Use(Latency(observer))
	r.Get("/auth/oauth/{provider}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusFound)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/auth/oauth/google", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	require.Len(t, observer.seen, 2)
	assert.Equal(t, recordedRequest{"/auth/oauth/{provider}", http.MethodGet, "302"}, observer.seen[0])
	assert.Equal(t, recordedRequest{"unmatched", http.MethodGet, "404"}, observer.seen[1])
}
