package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/unclebandit/engagesphere-dashboard/internal/metrics"
)

func TestObserveAPI(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	m.ObserveAPI("get", "ok", 10*time.Millisecond)
	m.ObserveAPI("get", "ok", 10*time.Millisecond)
	m.ObserveAPI("delete", "timeout", time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.APIRequests.WithLabelValues("get", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.APIRequests.WithLabelValues("delete", "timeout")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.ObserveAPI("get", "ok", time.Millisecond)
		m.CacheHit("campaign")
		m.CacheMiss("campaign")
		m.TipFallback()
	})
}
