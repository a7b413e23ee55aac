package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the BFA.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	apiDuration      *prometheus.HistogramVec
	apiErrors        *prometheus.CounterVec
	cacheHits        *prometheus.CounterVec
	cacheMisses      *prometheus.CounterVec
	flowTransitions  *prometheus.CounterVec
	balanceRefreshes *prometheus.CounterVec
	historyDropped   prometheus.Counter
	activeSessions   prometheus.Gauge
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		apiDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ppob_api_request_duration_seconds",
				Help:    "Duration of upstream PPOB API calls by endpoint.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		apiErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ppob_api_errors_total",
				Help: "Upstream PPOB API failures by endpoint and kind.",
			},
			[]string{"endpoint", "kind"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ppob_cache_hits_total",
				Help: "Reads served from a client-side cache.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ppob_cache_misses_total",
				Help: "Reads that had to go upstream.",
			},
			[]string{"cache"},
		),
		flowTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ppob_flow_transitions_total",
				Help: "Transaction flow state transitions.",
			},
			[]string{"flow", "state"},
		),
		balanceRefreshes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ppob_balance_refresh_total",
				Help: "Balance re-fetches by trigger.",
			},
			[]string{"reason"},
		),
		historyDropped: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ppob_history_pages_discarded_total",
				Help: "History pages that completed after a newer refresh and were discarded.",
			},
		),
		activeSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "ppob_active_sessions",
				Help: "Client-state containers currently held.",
			},
		),
	}
}

// RecordAPIDuration records the duration of an upstream call.
func (m *Metrics) RecordAPIDuration(endpoint string, d time.Duration) {
	m.apiDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// IncrAPIError increments the upstream error counter.
func (m *Metrics) IncrAPIError(endpoint, kind string) {
	m.apiErrors.WithLabelValues(endpoint, kind).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrFlowTransition counts a flow entering state.
func (m *Metrics) IncrFlowTransition(flow, state string) {
	m.flowTransitions.WithLabelValues(flow, state).Inc()
}

// IncrBalanceRefresh counts a balance re-fetch.
func (m *Metrics) IncrBalanceRefresh(reason string) {
	m.balanceRefreshes.WithLabelValues(reason).Inc()
}

// IncrHistoryDropped counts a discarded out-of-generation history page.
func (m *Metrics) IncrHistoryDropped() {
	m.historyDropped.Inc()
}

// SetActiveSessions reports the number of live containers.
func (m *Metrics) SetActiveSessions(n int) {
	m.activeSessions.Set(float64(n))
}

// FlowSnapshot is the payload of GET /v1/metrics/flows.
type FlowSnapshot struct {
	TopUp            map[string]int64 `json:"topup"`
	Payment          map[string]int64 `json:"payment"`
	BalanceRefreshes map[string]int64 `json:"balance_refreshes"`
	CatalogHitRate   float64          `json:"catalog_hit_rate"`
}

// GetFlowSnapshot reads the cumulative flow counters.
func (m *Metrics) GetFlowSnapshot() *FlowSnapshot {
	states := []string{"confirming", "submitting", "succeeded", "failed", "closed"}
	snap := &FlowSnapshot{
		TopUp:            make(map[string]int64, len(states)),
		Payment:          make(map[string]int64, len(states)),
		BalanceRefreshes: make(map[string]int64),
	}
	for _, s := range states {
		snap.TopUp[s] = int64(getCounterValue(m.flowTransitions, "topup", s))
		snap.Payment[s] = int64(getCounterValue(m.flowTransitions, "payment", s))
	}
	for _, reason := range []string{"topup", "payment", "visibility", "view"} {
		snap.BalanceRefreshes[reason] = int64(getCounterValue(m.balanceRefreshes, reason))
	}

	hits := getCounterValue(m.cacheHits, "services") + getCounterValue(m.cacheHits, "banners")
	misses := getCounterValue(m.cacheMisses, "services") + getCounterValue(m.cacheMisses, "banners")
	if hits+misses > 0 {
		snap.CatalogHitRate = hits / (hits + misses)
	}
	return snap
}

// getCounterValue extracts the current float64 value from a CounterVec for the given labels.
func getCounterValue(cv *prometheus.CounterVec, labels ...string) float64 {
	counter := cv.WithLabelValues(labels...)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
