package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestHTTPMetricsObserve(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	m.ObserveRequest("/api/v1/cart/items", "POST", 200, 12*time.Millisecond)
	m.ObserveRequest("/api/v1/cart/items", "POST", 200, 8*time.Millisecond)
	m.IncOrderPlaced("cod")

	if got := testutil.ToFloat64(m.requests.WithLabelValues("/api/v1/cart/items", "POST", "OK")); got != 2 {
		t.Fatalf("expected 2 requests, got %v", got)
	}
	if got := testutil.ToFloat64(m.orders.WithLabelValues("cod")); got != 1 {
		t.Fatalf("expected 1 order, got %v", got)
	}
}

func TestNilSafeMetrics(t *testing.T) {
	t.Parallel()

	var m *HTTPMetrics
	m.ObserveRequest("/x", "GET", 200, time.Millisecond)
	m.IncOrderPlaced("online")

	var j *JobMetrics
	j.ObserveDuration("outbox", time.Second)
	j.IncSuccess("outbox")
	j.IncFailure("outbox")

	empty := NewJobMetrics(nil)
	empty.IncSuccess("outbox")
}
