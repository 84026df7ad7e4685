// Package metrics records operational metrics from the evstar pipeline behind
// a narrow Backend interface. The default backend is a no-op, so recording is
// always safe; concrete systems (Prometheus Pushgateway, Datadog) live in
// subpackages.
package metrics

import (
	"sync"
	"time"
)

// Metric names.
const (
	StepTotal      = "evstar_step_total"
	StepDuration   = "evstar_step_duration_seconds"
	RecordsTotal   = "evstar_records_total"
	ImputedTotal   = "evstar_imputed_cells_total"
	TableRowsTotal = "evstar_table_rows_total"
)

// Pipeline steps.
const (
	StepExtract  = "extract"
	StepValidate = "validate"
	StepImpute   = "impute"
	StepModel    = "model"
	StepReport   = "report"
	StepLoad     = "load"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a duration-style value.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it.
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs b. Passing nil restores the no-op backend.
func SetBackend(b Backend) {
	mu.Lock()
	defer mu.Unlock()
	if b == nil {
		b = nopBackend{}
	}
	backend = b
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// Flush delegates to the current backend.
func Flush() error {
	return current().Flush()
}

// RecordStep counts a step execution and observes its duration, labeled by
// success or failure.
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{"job": job, "step": step, "status": status}

	b := current()
	b.IncCounter(StepTotal, 1, lbls)
	b.ObserveHistogram(StepDuration, d.Seconds(), lbls)
}

// RecordRow increments a record-level counter. Kinds used by the pipeline:
// parsed, skipped, exhausted, loaded.
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(RecordsTotal, float64(delta), Labels{"job": job, "kind": kind})
}

// RecordImputed counts cells filled for column by one fallback step.
func RecordImputed(job, column, step string, n int) {
	if n <= 0 {
		return
	}
	current().IncCounter(ImputedTotal, float64(n), Labels{"job": job, "column": column, "step": step})
}

// RecordTableRows counts rows written to an output table.
func RecordTableRows(job, table string, n int64) {
	if n <= 0 {
		return
	}
	current().IncCounter(TableRowsTotal, float64(n), Labels{"job": job, "table": table})
}
