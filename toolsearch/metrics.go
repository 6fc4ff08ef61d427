package toolsearch

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is a Prometheus-compatible collector for interceptor activity,
// namespaced "toolsearch" and labeled per sessionId/searchType.
type Metrics struct {
	activeSessions  prometheus.Gauge
	discoveredTools *prometheus.GaugeVec

	searchLatency *prometheus.HistogramVec
	turnLatency   *prometheus.HistogramVec

	searches       *prometheus.CounterVec
	retries        *prometheus.CounterVec
	loopBudgetHits prometheus.Counter

	mu      sync.RWMutex
	enabled bool
}

// NewMetrics registers every toolsearch_* metric with registry. Pass
// prometheus.DefaultRegisterer for the global registry, or a fresh
// *prometheus.Registry for isolation in tests.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	m := &Metrics{enabled: true}

	m.activeSessions = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: "toolsearch",
		Name:      "active_sessions",
		Help:      "Number of tool-search loops currently in progress",
	})

	m.discoveredTools = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "toolsearch",
		Name:      "discovered_tools",
		Help:      "Number of tools currently discovered for a session",
	}, []string{"session_id"})

	m.searchLatency = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "toolsearch",
		Name:      "search_latency_ms",
		Help:      "findTools call duration in milliseconds",
		Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000},
	}, []string{"search_type", "status"})

	m.turnLatency = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "toolsearch",
		Name:      "turn_latency_ms",
		Help:      "Per-turn LLM chat call duration in milliseconds",
		Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000},
	}, []string{"status"})

	m.searches = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "toolsearch",
		Name:      "searches_total",
		Help:      "Cumulative toolSearchTool invocations",
	}, []string{"search_type"})

	m.retries = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "toolsearch",
		Name:      "retries_total",
		Help:      "Cumulative indexTool retry attempts",
	}, []string{"reason"})

	m.loopBudgetHits = factory.NewCounter(prometheus.CounterOpts{
		Namespace: "toolsearch",
		Name:      "loop_budget_exceeded_total",
		Help:      "Cumulative count of loops terminated by maxTurns",
	})

	return m
}

func (m *Metrics) RecordSearchLatency(searchType string, latency time.Duration, status string) {
	if !m.isEnabled() {
		return
	}
	m.searchLatency.WithLabelValues(searchType, status).Observe(float64(latency.Milliseconds()))
}

func (m *Metrics) RecordTurnLatency(latency time.Duration, status string) {
	if !m.isEnabled() {
		return
	}
	m.turnLatency.WithLabelValues(status).Observe(float64(latency.Milliseconds()))
}

func (m *Metrics) IncrementSearches(searchType string) {
	if !m.isEnabled() {
		return
	}
	m.searches.WithLabelValues(searchType).Inc()
}

func (m *Metrics) IncrementRetries(reason string) {
	if !m.isEnabled() {
		return
	}
	m.retries.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncrementLoopBudgetExceeded() {
	if !m.isEnabled() {
		return
	}
	m.loopBudgetHits.Inc()
}

func (m *Metrics) SetActiveSessions(count int) {
	if !m.isEnabled() {
		return
	}
	m.activeSessions.Set(float64(count))
}

func (m *Metrics) SetDiscoveredTools(sessionID string, count int) {
	if !m.isEnabled() {
		return
	}
	m.discoveredTools.WithLabelValues(sessionID).Set(float64(count))
}

// DeleteSession removes per-session label values once a loop finalizes, so
// discovered_tools doesn't accumulate stale series across many short-lived
// sessions.
func (m *Metrics) DeleteSession(sessionID string) {
	m.discoveredTools.DeleteLabelValues(sessionID)
}

func (m *Metrics) isEnabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.enabled
}

func (m *Metrics) Disable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = false
}

func (m *Metrics) Enable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = true
}
