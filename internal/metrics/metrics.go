// Package metrics exposes the service's Prometheus instrumentation.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles all collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	OptimizationRuns     *prometheus.CounterVec
	OptimizationDuration *prometheus.HistogramVec
	DecisionsCreated     *prometheus.CounterVec
	DecisionsExecuted    *prometheus.CounterVec
	SchedulesGenerated   *prometheus.CounterVec
	StatusWrites         *prometheus.CounterVec
	RequestDuration      *prometheus.HistogramVec
}

// New builds and registers all collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		OptimizationRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "navyatra",
			Name:      "optimization_runs_total",
			Help:      "Optimization runs by algorithm and status.",
		}, []string{"algorithm", "status"}),
		OptimizationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "navyatra",
			Name:      "optimization_duration_seconds",
			Help:      "Optimization wall time by algorithm.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"algorithm"}),
		DecisionsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "navyatra",
			Name:      "decisions_created_total",
			Help:      "Autonomous decisions created by type and urgency.",
		}, []string{"type", "urgency"}),
		DecisionsExecuted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "navyatra",
			Name:      "decisions_executed_total",
			Help:      "Decision executions by type and result.",
		}, []string{"type", "result"}),
		SchedulesGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "navyatra",
			Name:      "schedules_generated_total",
			Help:      "Generated schedules by type and routing outcome.",
		}, []string{"type", "status"}),
		StatusWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "navyatra",
			Name:      "status_writes_total",
			Help:      "Trainset status writes by target status.",
		}, []string{"status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "navyatra",
			Name:      "http_request_duration_seconds",
			Help:      "API request latency by method, path, and code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "code"}),
	}

	registry.MustRegister(
		m.OptimizationRuns,
		m.OptimizationDuration,
		m.DecisionsCreated,
		m.DecisionsExecuted,
		m.SchedulesGenerated,
		m.StatusWrites,
		m.RequestDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveOptimization records one optimizer run.
func (m *Metrics) ObserveOptimization(algorithm, status string, elapsed time.Duration) {
	m.OptimizationRuns.WithLabelValues(algorithm, status).Inc()
	m.OptimizationDuration.WithLabelValues(algorithm).Observe(elapsed.Seconds())
}
