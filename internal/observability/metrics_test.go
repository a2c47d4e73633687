package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareCountsRequests(t *testing.T) {
	m := NewMetrics()
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/items", nil))

	require.Equal(t, http.StatusTeapot, rec.Code)
	require.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("unknown", "418")))
}

func TestObserveDecisionNormalisesReason(t *testing.T) {
	m := NewMetrics()
	m.ObserveDecision("allow", "")
	m.ObserveDecision("deny", "organization_scope")

	require.Equal(t, 1.0, testutil.ToFloat64(m.decisionsTotal.WithLabelValues("allow", "none")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.decisionsTotal.WithLabelValues("deny", "organization_scope")))
}

func TestObserveCache(t *testing.T) {
	m := NewMetrics()
	m.ObserveCache(true)
	m.ObserveCache(true)
	m.ObserveCache(false)

	require.Equal(t, 2.0, testutil.ToFloat64(m.cacheTotal.WithLabelValues("hit")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.cacheTotal.WithLabelValues("miss")))
}

func TestMetricsEndpointServesRegistry(t *testing.T) {
	m := NewMetrics()
	m.ObserveCache(true)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "launchpad_authz_cache_total"))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ObserveDecision("allow", "")
	m.ObserveCache(false)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
