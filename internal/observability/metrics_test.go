package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveUpstreamCall(t *testing.T) {
	metrics := NewMetrics()

	metrics.ObserveUpstreamCall("login", http.StatusOK, 10*time.Millisecond)
	metrics.ObserveUpstreamCall("login", http.StatusOK, 20*time.Millisecond)
	metrics.ObserveUpstreamCall("login", 0, time.Second)

	body := scrape(t, metrics.Handler())

	assert.Contains(t, body, `shopconsole_upstream_calls_total{operation="login",status="200"} 2`)
	assert.Contains(t, body, `shopconsole_upstream_calls_total{operation="login",status="none"} 1`)
	assert.Contains(t, body, `shopconsole_upstream_call_duration_seconds_count{operation="login"} 3`)
}

func scrape(t *testing.T, h http.Handler) string {
	t.Helper()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	return w.Body.String()
}

func TestMiddlewareAndHandler(t *testing.T) {
	metrics := NewMetrics()

	r := chi.NewRouter()
	r.Use(metrics.Middleware)
	r.Get("/dashboard/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboard/users/7", nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	body := scrape(t, metrics.Handler())

	assert.Contains(t, body, `shopconsole_http_requests_total{method="GET",route="/dashboard/users/{id}",status="404"} 1`)
}
