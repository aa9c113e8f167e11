// Package monitoring provides Prometheus metrics and OpenTelemetry tracing
package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/wellpack/engine/internal/application/engine"
	appplan "github.com/wellpack/engine/internal/application/plan"
	"github.com/wellpack/engine/internal/domain/plan"
)

const namespace = "wellpack"

// MetricsCollector handles Prometheus metrics collection
type MetricsCollector struct {
	registry *prometheus.Registry
	logger   *zap.Logger

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Assembly metrics
	plansAssembled      *prometheus.CounterVec
	assemblyDuration    *prometheus.HistogramVec
	assemblyFailures    *prometheus.CounterVec
	generatorFallbacks  *prometheus.CounterVec
	validatorActions    *prometheus.CounterVec
	validatorConflicts  *prometheus.CounterVec
	invariantViolations *prometheus.CounterVec
}

var _ appplan.Metrics = (*MetricsCollector)(nil)

// NewMetricsCollector creates a collector with its own registry
func NewMetricsCollector(logger *zap.Logger) *MetricsCollector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &MetricsCollector{
		registry: reg,
		logger:   logger.Named("metrics"),

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status_code"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		plansAssembled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "plans_assembled_total",
				Help:      "Plans assembled, by candidate source and tier",
			},
			[]string{"source", "tier"},
		),
		assemblyDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "plan_assembly_duration_seconds",
				Help:      "Plan assembly duration in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
			},
			[]string{"source"},
		),
		assemblyFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "plan_assembly_failures_total",
				Help:      "Failed assemblies, by last completed stage",
			},
			[]string{"stage"},
		),
		generatorFallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "generator_fallbacks_total",
				Help:      "Plans built from deterministic candidates, by reason",
			},
			[]string{"reason"},
		),
		validatorActions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validator_items_total",
				Help:      "Items touched by the validator, by action",
			},
			[]string{"action"},
		),
		validatorConflicts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validator_conflicts_total",
				Help:      "Pairwise conflicts resolved, by interaction status",
			},
			[]string{"status"},
		),
		invariantViolations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "invariant_violations_total",
				Help:      "Resolved packs that failed the final invariant check",
			},
			[]string{"invariant"},
		),
	}
}

// Registry returns the underlying registry
func (m *MetricsCollector) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		Registry: m.registry,
		ErrorLog: zap.NewStdLog(m.logger),
	})
}

// RecordHTTPRequest records one served request
func (m *MetricsCollector) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// PlanAssembled implements plan.Metrics
func (m *MetricsCollector) PlanAssembled(source plan.Source, tier plan.Tier, duration time.Duration) {
	m.plansAssembled.WithLabelValues(string(source), string(tier)).Inc()
	m.assemblyDuration.WithLabelValues(string(source)).Observe(duration.Seconds())
}

// AssemblyFailed implements plan.Metrics
func (m *MetricsCollector) AssemblyFailed(stage plan.Stage) {
	m.assemblyFailures.WithLabelValues(stage.String()).Inc()
}

// GeneratorFallback implements plan.Metrics
func (m *MetricsCollector) GeneratorFallback(reason string) {
	m.generatorFallbacks.WithLabelValues(reason).Inc()
}

// ValidatorReport implements plan.Metrics
func (m *MetricsCollector) ValidatorReport(report engine.Report) {
	for action, items := range map[string][]string{
		"unresolved": report.Unresolved,
		"duplicate":  report.Duplicates,
		"filtered":   report.Filtered,
		"backfilled": report.Backfilled,
		"trimmed":    report.Trimmed,
	} {
		if len(items) > 0 {
			m.validatorActions.WithLabelValues(action).Add(float64(len(items)))
		}
	}
	for _, c := range report.Conflicts {
		m.validatorConflicts.WithLabelValues(c.Status.String()).Inc()
	}
}

// InvariantViolation implements plan.Metrics
func (m *MetricsCollector) InvariantViolation(invariant string) {
	m.invariantViolations.WithLabelValues(invariant).Inc()
}
