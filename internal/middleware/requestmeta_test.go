package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/linkpulse/linkpulse/internal/handlers"
	"github.com/linkpulse/linkpulse/internal/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testOutput struct {
	Body struct {
		Status string `json:"status"`
	}
}

func setupMetaAPI(t *testing.T) (*chi.Mux, huma.API, chan handlers.RequestMeta) {
	t.Helper()

	router := chi.NewMux()
	api := humachi.New(router, huma.DefaultConfig("Test", "1.0.0"))
	api.UseMiddleware(middleware.RequestMeta(api))

	metaChan := make(chan handlers.RequestMeta, 1)

	huma.Get(api, "/test", func(ctx context.Context, _ *struct{}) (*testOutput, error) {
		metaChan <- handlers.RequestMetaFromContext(ctx)

		out := &testOutput{}
		out.Body.Status = "ok"

		return out, nil
	})

	return router, api, metaChan
}

func TestRequestMeta(t *testing.T) {
	t.Run("extracts user agent and referrer", func(t *testing.T) {
		router, _, metaChan := setupMetaAPI(t)

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("User-Agent", "TestAgent/1.0")
		req.Header.Set("Referer", "https://example.com")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		meta := <-metaChan
		assert.Equal(t, "TestAgent/1.0", meta.UserAgent)
		assert.Equal(t, "https://example.com", meta.Referrer)
	})

	t.Run("identity comes from the gateway header", func(t *testing.T) {
		router, _, metaChan := setupMetaAPI(t)

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(middleware.IdentityHeader, "user@example.com")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		meta := <-metaChan
		assert.Equal(t, "user@example.com", meta.Identity)
	})

	t.Run("identity falls back to the client address", func(t *testing.T) {
		router, _, metaChan := setupMetaAPI(t)

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.9")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		meta := <-metaChan
		assert.Equal(t, "203.0.113.9", meta.ClientIP)
		assert.Equal(t, "203.0.113.9", meta.Identity)
	})

	t.Run("first forwarded address wins", func(t *testing.T) {
		router, _, metaChan := setupMetaAPI(t)

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1, 172.16.0.1")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		meta := <-metaChan
		assert.Equal(t, "203.0.113.9", meta.ClientIP)
	})

	t.Run("X-Real-IP is used when X-Forwarded-For is absent", func(t *testing.T) {
		router, _, metaChan := setupMetaAPI(t)

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("X-Real-IP", "203.0.113.9")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		meta := <-metaChan
		assert.Equal(t, "203.0.113.9", meta.ClientIP)
	})

	t.Run("falls back to the host when no proxy headers are present", func(t *testing.T) {
		router, _, metaChan := setupMetaAPI(t)

		req := httptest.NewRequest(http.MethodGet, "/test", nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		meta := <-metaChan
		assert.NotEmpty(t, meta.ClientIP)
	})
}
