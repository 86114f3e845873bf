// Package observability provides structured logging, Prometheus metrics,
// OTLP tracing, health checks, and graceful shutdown for Guardrail.
//
// # Overview
//
// The decision path runs before every resource access, so the
// instrumentation here is counters and gauges only; nothing on that path
// blocks. Tracing is wired at the HTTP boundary, not inside the evaluator.
//
// # Metrics
//
// Decisions: guardrail_decisions_total{outcome, reason, action}
// Bootstrap: guardrail_bootstrap_total{path, result}
// Audit: guardrail_audit_entries_total, guardrail_audit_failures_total,
// guardrail_audit_dropped_total
// Repair: guardrail_orphan_repairs_total{result}
//
// # Usage Example
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	metrics := observability.NewMetrics(prometheus.NewRegistry())
//	logger.WithField("tenant", slug).Info("tenant provisioned")
package observability
