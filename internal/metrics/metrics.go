// Package metrics records what the orchestrator did on-chain. Nothing is served
// over HTTP; a run can dump its registry to a node_exporter textfile instead.
package metrics

import (
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	StatusSuccess = "success"
	StatusFailure = "failure"

	ResultPassed = "passed"
	ResultFailed = "failed"
)

// Recorder owns a private registry so that separate runs, and tests, never share
// counters. A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	submissions        *prometheus.CounterVec
	submissionDuration *prometheus.HistogramVec
	assertions         *prometheus.CounterVec
	deployedContracts  *prometheus.CounterVec
}

func New() *Recorder {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Recorder{
		registry: registry,
		submissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lendnet_tx_submissions_total",
				Help: "Total number of submitted transactions by message type and status",
			},
			[]string{"msg", "status"},
		),
		submissionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lendnet_tx_submission_duration_seconds",
				Help:    "Time from signing a transaction until it is included",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
			},
			[]string{"msg"},
		),
		assertions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lendnet_scenario_assertions_total",
				Help: "Total number of scenario assertions by step and result",
			},
			[]string{"step", "result"},
		),
		deployedContracts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lendnet_contracts_deployed_total",
				Help: "Total number of contracts instantiated by role",
			},
			[]string{"role"},
		),
	}
}

// ObserveSubmission records one transaction. msgs are short message names; a
// transaction carrying several is labelled with all of them joined by "+".
func (r *Recorder) ObserveSubmission(msgs []string, status string, took time.Duration) {
	if r == nil {
		return
	}

	label := strings.Join(msgs, "+")
	r.submissions.WithLabelValues(label, status).Inc()
	r.submissionDuration.WithLabelValues(label).Observe(took.Seconds())
}

func (r *Recorder) ObserveAssertion(step string, passed bool) {
	if r == nil {
		return
	}

	result := ResultFailed
	if passed {
		result = ResultPassed
	}
	r.assertions.WithLabelValues(step, result).Inc()
}

func (r *Recorder) ObserveDeployed(role string) {
	if r == nil {
		return
	}

	r.deployedContracts.WithLabelValues(role).Inc()
}

func (r *Recorder) Gatherer() prometheus.Gatherer {
	if r == nil {
		return prometheus.NewRegistry()
	}
	return r.registry
}

// WriteTextfile writes the registry in text exposition format. An empty path is a no-op.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}

	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile %s: %w", path, err)
	}

	return nil
}
