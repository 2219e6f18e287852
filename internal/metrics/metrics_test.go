package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareRecordsRoutePattern(t *testing.T) {
	t.Parallel()

	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/todolists/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"a", "b", "c"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/todolists/"+id, nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "/todolists/{id}", "404")))
}

func TestGuardRejections(t *testing.T) {
	t.Parallel()

	m := New()
	m.GuardRejected("CE002")
	m.GuardRejected("CE002")
	m.GuardRejected("CE007")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.guardRejections.WithLabelValues("CE002")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.guardRejections.WithLabelValues("CE007")))
}

func TestHandlerExposesRegistry(t *testing.T) {
	t.Parallel()

	m := New()
	m.GuardRejected("CE001")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `todo_api_auth_guard_rejections_total{code="CE001"} 1`))
}
