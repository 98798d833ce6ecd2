package telemetry

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveDispatchCounts(t *testing.T) {
	m := NewMetrics()
	m.ObserveDispatch(OutcomeFile, http.StatusOK, 10*time.Millisecond)
	m.ObserveDispatch(OutcomeFile, http.StatusOK, 20*time.Millisecond)
	m.ObserveDispatch(OutcomeProxy, http.StatusNotFound, time.Millisecond)

	if got := testutil.ToFloat64(m.dispatchTotal.WithLabelValues(OutcomeFile, "200")); got != 2 {
		t.Fatalf("expected 2 file dispatches, got %v", got)
	}
	if got := testutil.ToFloat64(m.dispatchTotal.WithLabelValues(OutcomeProxy, "404")); got != 1 {
		t.Fatalf("expected 1 proxy dispatch, got %v", got)
	}
}

func TestObserveUpstreamClasses(t *testing.T) {
	m := NewMetrics()
	m.ObserveUpstream(204)
	m.ObserveUpstream(503)
	m.ObserveUpstream(0)

	for class, want := range map[string]float64{"2xx": 1, "5xx": 1, "error": 1} {
		if got := testutil.ToFloat64(m.upstreamTotal.WithLabelValues(class)); got != want {
			t.Fatalf("class %s: expected %v, got %v", class, want, got)
		}
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveDispatch(OutcomeService, 200, time.Second)
	m.ObserveUpstream(200)
	m.ObserveFailure("transport")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("nil metrics handler should 404, got %d", rec.Code)
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := NewMetrics()
	m.ObserveFailure("transport")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), `devweb_reply_failures_total{kind="transport"} 1`) {
		t.Fatalf("expected failure counter in exposition, got %s", rec.Body.String())
	}
}
