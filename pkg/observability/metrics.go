package observability

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Decision metrics
	DecisionsTotal   *prometheus.CounterVec
	DecisionDuration *prometheus.HistogramVec

	// Bootstrap metrics
	BootstrapTotal     *prometheus.CounterVec
	OrphanRepairsTotal *prometheus.CounterVec

	// Audit metrics
	AuditEntriesTotal  prometheus.Counter
	AuditFailuresTotal prometheus.Counter
	AuditDroppedTotal  prometheus.Counter

	// Resolver metrics
	ResolverCacheHitsTotal   prometheus.Counter
	ResolverCacheMissesTotal prometheus.Counter

	// Database metrics
	DBConnectionsActive prometheus.Gauge
	DBConnectionsIdle   prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		DecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "guardrail_decisions_total",
				Help: "Total number of access-control decisions",
			},
			[]string{"outcome", "reason", "action"},
		),
		DecisionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "guardrail_decision_duration_seconds",
				Help:    "Decision evaluation duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.00001, 10, 6),
			},
			[]string{"outcome"},
		),
		BootstrapTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "guardrail_bootstrap_total",
				Help: "Total number of bootstrap invocations by path and result",
			},
			[]string{"path", "result"},
		),
		OrphanRepairsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "guardrail_orphan_repairs_total",
				Help: "Total number of orphaned identities repaired",
			},
			[]string{"result"},
		),
		AuditEntriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "guardrail_audit_entries_total",
			Help: "Total number of audit entries recorded",
		}),
		AuditFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "guardrail_audit_failures_total",
			Help: "Total number of audit entries that failed to persist",
		}),
		AuditDroppedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "guardrail_audit_dropped_total",
			Help: "Total number of audit entries dropped due to a full queue",
		}),
		ResolverCacheHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "guardrail_resolver_cache_hits_total",
			Help: "Total number of principal snapshot cache hits",
		}),
		ResolverCacheMissesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "guardrail_resolver_cache_misses_total",
			Help: "Total number of principal snapshot cache misses",
		}),
		DBConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "guardrail_db_connections_active",
			Help: "Number of active database connections",
		}),
		DBConnectionsIdle: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "guardrail_db_connections_idle",
			Help: "Number of idle database connections",
		}),
		registry: registry,
	}

	registry.MustRegister(
		m.DecisionsTotal,
		m.DecisionDuration,
		m.BootstrapTotal,
		m.OrphanRepairsTotal,
		m.AuditEntriesTotal,
		m.AuditFailuresTotal,
		m.AuditDroppedTotal,
		m.ResolverCacheHitsTotal,
		m.ResolverCacheMissesTotal,
		m.DBConnectionsActive,
		m.DBConnectionsIdle,
	)

	return m
}

// Handler returns an HTTP handler serving the metrics registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// CollectDBStats samples sql.DB pool statistics into gauges until the stop
// channel closes.
func (m *Metrics) CollectDBStats(db *sql.DB, interval time.Duration, stop <-chan struct{}) {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			stats := db.Stats()
			m.DBConnectionsActive.Set(float64(stats.InUse))
			m.DBConnectionsIdle.Set(float64(stats.Idle))
		}
	}
}
