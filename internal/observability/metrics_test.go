package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsHandlerExposesPrometheusMetrics(t *testing.T) {
	metrics := NewMetrics()
	metrics.ObserveDecision("products.delete", "allow")

	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `bookapi_authz_decisions_total{operation="products.delete",outcome="allow"} 1`)
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/products/{id}")

	req := httptest.NewRequest(http.MethodGet, "/products/1", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusTeapot, rr.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.requestsTotal.WithLabelValues("/products/{id}", "418")))
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.requestDuration, "bookapi_http_request_duration_seconds"))
}

func TestObserveDecisionCountsPerOutcome(t *testing.T) {
	metrics := NewMetrics()
	metrics.ObserveDecision("users.list", "allow")
	metrics.ObserveDecision("users.list", "insufficient_permission")
	metrics.ObserveDecision("users.list", "insufficient_permission")

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.authzDecisions.WithLabelValues("users.list", "allow")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.authzDecisions.WithLabelValues("users.list", "insufficient_permission")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var metrics *Metrics
	metrics.ObserveDecision("x", "allow")
	metrics.ObserveRoleLookup("hit")

	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.True(t, strings.Contains(rr.Body.String(), "Service Unavailable"))
}
