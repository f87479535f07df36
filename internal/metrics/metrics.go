package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the dashboard collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	APIRequests  *prometheus.CounterVec
	APIDuration  *prometheus.HistogramVec
	CacheHits    *prometheus.CounterVec
	CacheMisses  *prometheus.CounterVec
	TipFallbacks prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		APIRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "engagesphere",
			Name:      "campaign_api_requests_total",
			Help:      "Campaign service requests by operation and outcome.",
		}, []string{"op", "outcome"}),
		APIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "engagesphere",
			Name:      "campaign_api_request_duration_seconds",
			Help:      "Campaign service request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "engagesphere",
			Name:      "query_cache_hits_total",
			Help:      "Query cache hits by key family.",
		}, []string{"family"}),
		CacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "engagesphere",
			Name:      "query_cache_misses_total",
			Help:      "Query cache misses by key family.",
		}, []string{"family"}),
		TipFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "engagesphere",
			Name:      "tip_generation_fallbacks_total",
			Help:      "Tip generations that degraded to an empty list.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.APIRequests, m.APIDuration, m.CacheHits, m.CacheMisses, m.TipFallbacks)
	}
	return m
}

func (m *Metrics) ObserveAPI(op, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.APIRequests.WithLabelValues(op, outcome).Inc()
	m.APIDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

func (m *Metrics) CacheHit(family string) {
	if m == nil {
		return
	}
	m.CacheHits.WithLabelValues(family).Inc()
}

func (m *Metrics) CacheMiss(family string) {
	if m == nil {
		return
	}
	m.CacheMisses.WithLabelValues(family).Inc()
}

func (m *Metrics) TipFallback() {
	if m == nil {
		return
	}
	m.TipFallbacks.Inc()
}
