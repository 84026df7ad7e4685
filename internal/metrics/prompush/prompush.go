// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package. The pipeline is a batch job with no scrape endpoint, so
// collected metrics are pushed on Flush.
package prompush

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"evstar/internal/metrics"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string
	jobName    string
	reg        *prometheus.Registry
	pusher     func() error

	stepCounter   *prometheus.CounterVec
	stepDuration  *prometheus.SummaryVec
	recordCounter *prometheus.CounterVec
	imputed       *prometheus.CounterVec
	tableRows     *prometheus.CounterVec
}

// NewBackend constructs a Pushgateway backend. jobName is the Pushgateway
// grouping job and defaults to "evstar".
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "evstar"
	}

	reg := prometheus.NewRegistry()
	b := &Backend{
		gatewayURL: gatewayURL,
		jobName:    jobName,
		reg:        reg,
		stepCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.StepTotal,
			Help: "Pipeline step executions by step and status.",
		}, []string{"step", "status"}),
		stepDuration: prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Name:       metrics.StepDuration,
			Help:       "Pipeline step duration in seconds by step and status.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		}, []string{"step", "status"}),
		recordCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.RecordsTotal,
			Help: "Record counts by kind (parsed, skipped, exhausted, loaded).",
		}, []string{"kind"}),
		imputed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.ImputedTotal,
			Help: "Cells filled by the imputer, by column and fallback step.",
		}, []string{"column", "step"}),
		tableRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.TableRowsTotal,
			Help: "Rows written per output table.",
		}, []string{"table"}),
	}

	for name, c := range map[string]prometheus.Collector{
		"step counter":   b.stepCounter,
		"step summary":   b.stepDuration,
		"record counter": b.recordCounter,
		"imputed":        b.imputed,
		"table rows":     b.tableRows,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register %s: %w", name, err)
		}
	}

	b.pusher = push.New(gatewayURL, jobName).Gatherer(reg).Push
	return b, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.StepTotal:
		b.stepCounter.WithLabelValues(labels["step"], labels["status"]).Add(delta)
	case metrics.RecordsTotal:
		b.recordCounter.WithLabelValues(labels["kind"]).Add(delta)
	case metrics.ImputedTotal:
		b.imputed.WithLabelValues(labels["column"], labels["step"]).Add(delta)
	case metrics.TableRowsTotal:
		b.tableRows.WithLabelValues(labels["table"]).Add(delta)
	default:
		// unknown metric name: ignore
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != metrics.StepDuration {
		return
	}
	b.stepDuration.WithLabelValues(labels["step"], labels["status"]).Observe(value)
}

// Flush pushes the current registry to the Pushgateway, replacing any
// metrics previously pushed under the same job.
func (b *Backend) Flush() error {
	if err := b.pusher(); err != nil {
		return fmt.Errorf("prompush: push to %s: %w", b.gatewayURL, err)
	}
	return nil
}
