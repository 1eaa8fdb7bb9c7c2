// Package metrics instruments plan execution with Prometheus collectors.
//
// Every collector hangs off its own registry so parallel tests and embedded
// uses never fight over the global default registerer. A nil *Collector is
// valid and records nothing, so callers that run without an ops server skip
// instrumentation without nil checks at every call site.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds the engine's metric families.
type Collector struct {
	registry *prometheus.Registry

	planRuns     *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
	netRuns      *prometheus.CounterVec
	opFailures   *prometheus.CounterVec
}

// New creates a collector with a private registry.
func New() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		planRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gridplan_plan_runs_total",
				Help: "Total number of plan executions.",
			},
			[]string{"status"},
		),
		stepDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gridplan_step_duration_seconds",
				Help:    "Wall-clock duration of top-level execution steps.",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
			},
			[]string{"step"},
		),
		netRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gridplan_network_runs_total",
				Help: "Total number of network runs.",
			},
			[]string{"network", "status"},
		),
		opFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gridplan_operator_failures_total",
				Help: "Total number of operator launch or execution failures.",
			},
			[]string{"network"},
		),
	}
}

// Registry exposes the private registry for the ops HTTP server.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// PlanFinished counts a completed plan execution.
func (c *Collector) PlanFinished(status string) {
	if c == nil {
		return
	}
	c.planRuns.WithLabelValues(status).Inc()
}

// StepObserved records the duration of one top-level step execution.
func (c *Collector) StepObserved(step string, d time.Duration) {
	if c == nil {
		return
	}
	c.stepDuration.WithLabelValues(step).Observe(d.Seconds())
}

// NetworkFinished counts one network run.
func (c *Collector) NetworkFinished(network, status string) {
	if c == nil {
		return
	}
	c.netRuns.WithLabelValues(network, status).Inc()
}

// OperatorFailed counts an operator failure inside a network.
func (c *Collector) OperatorFailed(network string) {
	if c == nil {
		return
	}
	c.opFailures.WithLabelValues(network).Inc()
}
