package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeBackend records every call for assertions.
type fakeBackend struct {
	mu sync.Mutex

	counters   []counterCall
	histograms []histCall
	flushes    int
}

type counterCall struct {
	name   string
	delta  float64
	labels Labels
}

type histCall struct {
	name   string
	value  float64
	labels Labels
}

func (f *fakeBackend) IncCounter(name string, delta float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counters = append(f.counters, counterCall{name, delta, labels})
}

func (f *fakeBackend) ObserveHistogram(name string, value float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.histograms = append(f.histograms, histCall{name, value, labels})
}

func (f *fakeBackend) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushes++
	return nil
}

func install(t *testing.T) *fakeBackend {
	t.Helper()
	fb := &fakeBackend{}
	SetBackend(fb)
	t.Cleanup(func() { SetBackend(nil) })
	return fb
}

func TestRecordStep_SuccessAndFailure(t *testing.T) {
	fb := install(t)

	RecordStep("ev", StepImpute, nil, 2*time.Second)
	RecordStep("ev", StepLoad, errors.New("boom"), 1500*time.Millisecond)

	if len(fb.counters) != 2 || len(fb.histograms) != 2 {
		t.Fatalf("calls = %d counters, %d histograms; want 2, 2", len(fb.counters), len(fb.histograms))
	}

	c0 := fb.counters[0]
	if c0.name != StepTotal || c0.delta != 1 {
		t.Fatalf("counter[0] = %#v", c0)
	}
	if c0.labels["step"] != StepImpute || c0.labels["status"] != "success" || c0.labels["job"] != "ev" {
		t.Fatalf("counter[0].labels = %v", c0.labels)
	}
	if got := fb.counters[1].labels["status"]; got != "failure" {
		t.Fatalf("counter[1] status = %q, want failure", got)
	}

	h1 := fb.histograms[1]
	if h1.name != StepDuration || h1.value != 1.5 {
		t.Fatalf("histogram[1] = %#v", h1)
	}
}

func TestRecordCounters_SkipNonPositive(t *testing.T) {
	fb := install(t)

	RecordRow("ev", "parsed", 0)
	RecordImputed("ev", "base_msrp", "global_mean", -1)
	RecordTableRows("ev", "fact_registration", 0)
	if len(fb.counters) != 0 {
		t.Fatalf("expected no calls, got %#v", fb.counters)
	}

	RecordRow("ev", "parsed", 10)
	RecordImputed("ev", "base_msrp", "global_mean", 3)
	RecordTableRows("ev", "fact_registration", 7)

	want := []struct {
		name  string
		delta float64
		label string
		value string
	}{
		{RecordsTotal, 10, "kind", "parsed"},
		{ImputedTotal, 3, "step", "global_mean"},
		{TableRowsTotal, 7, "table", "fact_registration"},
	}
	if len(fb.counters) != len(want) {
		t.Fatalf("got %d calls, want %d", len(fb.counters), len(want))
	}
	for i, w := range want {
		c := fb.counters[i]
		if c.name != w.name || c.delta != w.delta || c.labels[w.label] != w.value {
			t.Fatalf("counter[%d] = %#v, want %s=%v %s=%s", i, c, w.name, w.delta, w.label, w.value)
		}
	}
}

func TestSetBackendNilRestoresNop(t *testing.T) {
	fb := install(t)
	if err := Flush(); err != nil {
		t.Fatal(err)
	}
	if fb.flushes != 1 {
		t.Fatalf("flushes = %d, want 1", fb.flushes)
	}

	SetBackend(nil)
	RecordStep("ev", StepModel, nil, time.Millisecond)
	if err := Flush(); err != nil {
		t.Fatalf("nop Flush: %v", err)
	}
	if len(fb.counters) != 0 {
		t.Fatalf("detached backend still received calls")
	}
}
