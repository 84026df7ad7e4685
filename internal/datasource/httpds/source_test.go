package httpds

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

func TestSourceOpen_NonSuccessIsError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	if _, err := NewSource(NewClient(Config{}), srv.URL).Open(context.Background()); err == nil {
		t.Fatalf("expected error for 404")
	}
}

func TestSourceOpen_CachesDownload(t *testing.T) {
	t.Parallel()

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = io.WriteString(w, "VIN (1-10)\nABC\n")
	}))
	defer srv.Close()

	dir := t.TempDir()
	s := NewSource(NewClient(Config{}), srv.URL+"/api/views/f6w7-q2d2/rows.csv?accessType=DOWNLOAD")
	s.CacheDir = dir
	s.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	for i := 0; i < 2; i++ {
		rc, err := s.Open(context.Background())
		if err != nil {
			t.Fatalf("Open #%d: %v", i, err)
		}
		b, _ := io.ReadAll(rc)
		rc.Close()
		if !strings.HasPrefix(string(b), "VIN (1-10)") {
			t.Fatalf("Open #%d content = %q", i, b)
		}
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("hits = %d, want 1", got)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != filepath.Base(CacheName(s.URL)) {
		t.Fatalf("cache entries = %v", entries)
	}
}

func TestCacheName(t *testing.T) {
	t.Parallel()

	a := CacheName("https://data.wa.gov/api/views/f6w7-q2d2/rows.csv?accessType=DOWNLOAD")
	b := CacheName("https://data.wa.gov/api/views/aaaa-bbbb/rows.csv?accessType=DOWNLOAD")
	if !strings.HasPrefix(a, "rows_csv_") {
		t.Fatalf("CacheName = %q", a)
	}
	if a == b {
		t.Fatalf("distinct URLs share a cache name %q", a)
	}
	if got := CacheName("https://example.com"); got != HashString("https://example.com")[:12] {
		t.Fatalf("CacheName(no path) = %q", got)
	}
}
