// Package metrics exposes Prometheus counters and histograms for the
// scheduler core: Cycle duration, candidates processed per source, and
// risk-gate/processor rejection counts by reason.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quantedge/scheduler-core/internal/autotrader/candidates"
)

// Metrics holds the process's Prometheus collectors, registered against a
// private registry so tests can build multiple independent instances.
type Metrics struct {
	registry *prometheus.Registry

	cycleDuration      *prometheus.HistogramVec
	candidatesExecuted *prometheus.CounterVec
	candidatesSkipped  *prometheus.CounterVec
	deployedDollars    prometheus.Counter
}

// New builds and registers the scheduler's metric collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		cycleDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "autotrader",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a scheduler Cycle, labeled by outcome.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"result"}),
		candidatesExecuted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "autotrader",
			Name:      "candidates_executed_total",
			Help:      "Candidate trades executed, labeled by source.",
		}, []string{"source"}),
		candidatesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "autotrader",
			Name:      "candidates_skipped_total",
			Help:      "Candidate trades skipped, labeled by source and rejection reason.",
		}, []string{"source", "reason"}),
		deployedDollars: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "autotrader",
			Name:      "deployed_dollars_total",
			Help:      "Cumulative dollar size of executed orders, as recorded by the Executor.",
		}),
	}

	registry.MustRegister(m.cycleDuration, m.candidatesExecuted, m.candidatesSkipped, m.deployedDollars)
	return m
}

// RecordPendingOrder implements executor.DeploymentTracker. It is a
// process-lifetime observability counter, independent from the Orchestrator's
// own per-Cycle/per-day pendingDeployedDollar and dailyDeployedDollar totals,
// which it re-derives itself from each processor Outcome.Deployed sum.
func (m *Metrics) RecordPendingOrder(dollarSize float64) {
	m.deployedDollars.Add(dollarSize)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveCycle records one Cycle's wall-clock duration under result.
func (m *Metrics) ObserveCycle(result string, seconds float64) {
	m.cycleDuration.WithLabelValues(result).Observe(seconds)
}

// RecordScannerOutcome tallies a ScannerProcessor pass.
func (m *Metrics) RecordScannerOutcome(out candidates.ScannerOutcome) {
	m.record("scanner", len(out.Executed), out.Skipped)
}

// RecordSuggestedFindsOutcome tallies a SuggestedFindsProcessor pass.
func (m *Metrics) RecordSuggestedFindsOutcome(out candidates.SuggestedFindsOutcome) {
	m.record("suggested_finds", len(out.Executed), out.Skipped)
}

// RecordExternalSignalOutcome tallies an ExternalSignalProcessor pass.
func (m *Metrics) RecordExternalSignalOutcome(out candidates.ExternalSignalOutcome) {
	m.record("external_signal", len(out.Executed), out.Skipped)
}

func (m *Metrics) record(source string, executed int, skipped map[string]int) {
	if executed > 0 {
		m.candidatesExecuted.WithLabelValues(source).Add(float64(executed))
	}
	for reason, count := range skipped {
		m.candidatesSkipped.WithLabelValues(source, reason).Add(float64(count))
	}
}
