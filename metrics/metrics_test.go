package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestInstrument(t *testing.T) {
	m := New()
	h := m.Instrument("/api/{service}/{path...}", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/order/1", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/order/2", nil))

	require.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/{service}/{path...}", "418")))
	require.Equal(t, 0.0, testutil.ToFloat64(m.httpInFlight))
}

func TestInstrument_ImplicitOK(t *testing.T) {
	m := New()
	h := m.Instrument("/healthz", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/healthz", "200")))
}

func TestUpstreamAndHandler(t *testing.T) {
	m := New()
	m.ObserveUpstream("order", http.StatusNotFound, 20*time.Millisecond)
	m.ObserveTransportError("customer")

	require.Equal(t, 1.0, testutil.ToFloat64(m.upstreamRequests.WithLabelValues("order", "404")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.upstreamFailures.WithLabelValues("customer")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.True(t, strings.Contains(body, `seller_gateway_proxy_transport_errors_total{service="customer"} 1`))
	require.Contains(t, body, "seller_gateway_proxy_upstream_duration_seconds")
}
