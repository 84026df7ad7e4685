package prompush

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"evstar/internal/metrics"
)

func TestNewBackend(t *testing.T) {
	t.Parallel()

	if _, err := NewBackend("ev", ""); err == nil {
		t.Fatalf("expected error for empty gateway URL")
	}

	b, err := NewBackend("", "http://pushgateway:9091")
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	if b.jobName != "evstar" {
		t.Fatalf("jobName = %q, want evstar", b.jobName)
	}
}

func TestCountersAndSummary(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("ev", "http://pushgateway:9091")
	if err != nil {
		t.Fatal(err)
	}

	b.IncCounter(metrics.StepTotal, 1, metrics.Labels{"step": "impute", "status": "success"})
	b.IncCounter(metrics.StepTotal, 1, metrics.Labels{"step": "impute", "status": "success"})
	b.IncCounter(metrics.RecordsTotal, 42, metrics.Labels{"kind": "parsed"})
	b.IncCounter(metrics.ImputedTotal, 5, metrics.Labels{"column": "base_msrp", "step": "global_mean"})
	b.IncCounter(metrics.TableRowsTotal, 9, metrics.Labels{"table": "dim_vehicle"})
	b.IncCounter("unknown_metric", 1, nil)
	b.ObserveHistogram(metrics.StepDuration, 0.25, metrics.Labels{"step": "load", "status": "failure"})
	b.ObserveHistogram("unknown_metric", 1, nil)

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"step", testutil.ToFloat64(b.stepCounter.WithLabelValues("impute", "success")), 2},
		{"records", testutil.ToFloat64(b.recordCounter.WithLabelValues("parsed")), 42},
		{"imputed", testutil.ToFloat64(b.imputed.WithLabelValues("base_msrp", "global_mean")), 5},
		{"table rows", testutil.ToFloat64(b.tableRows.WithLabelValues("dim_vehicle")), 9},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Fatalf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
	if n := testutil.CollectAndCount(b.stepDuration, metrics.StepDuration); n != 1 {
		t.Fatalf("summary series = %d, want 1", n)
	}
}

func TestFlushPushesToGateway(t *testing.T) {
	t.Parallel()

	var (
		mu     sync.Mutex
		method string
		path   string
		body   string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		method, path, body = r.Method, r.URL.Path, string(b)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	b, err := NewBackend("ev_population", srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	b.IncCounter(metrics.RecordsTotal, 3, metrics.Labels{"kind": "loaded"})

	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if method != http.MethodPut {
		t.Fatalf("method = %s, want PUT", method)
	}
	if path != "/metrics/job/ev_population" {
		t.Fatalf("path = %s", path)
	}
	if body == "" {
		t.Fatalf("empty push body")
	}
}

func TestFlushWrapsGatewayError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	b, err := NewBackend("ev", srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	err = b.Flush()
	if err == nil || !strings.Contains(err.Error(), "prompush: push to") {
		t.Fatalf("Flush err = %v", err)
	}
}
