// Package csvfile writes each destination table to <dir>/<table>.csv. The
// header row is written when the repository is opened; an existing file is
// replaced.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"evstar/internal/storage"
)

// Repository appends rows to one CSV file.
type Repository struct {
	mu      sync.Mutex
	f       *os.File
	w       *csv.Writer
	columns []string
}

// NewRepository creates dir if needed and truncates <dir>/<table>.csv.
func NewRepository(dir, tableName string, columns []string) (*Repository, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("csvfile: output directory must not be empty")
	}
	if strings.TrimSpace(tableName) == "" || strings.ContainsAny(tableName, `/\`) {
		return nil, fmt.Errorf("csvfile: invalid table name %q", tableName)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("csvfile: columns must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("csvfile: mkdir: %w", err)
	}
	f, err := os.Create(filepath.Join(dir, tableName+".csv"))
	if err != nil {
		return nil, fmt.Errorf("csvfile: create: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(columns); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csvfile: header: %w", err)
	}
	return &Repository{f: f, w: w, columns: slices.Clone(columns)}, nil
}

// CopyFrom writes rows. columns must match the header given at open.
func (r *Repository) CopyFrom(_ context.Context, columns []string, rows [][]any) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !slices.Equal(columns, r.columns) {
		return 0, fmt.Errorf("csvfile: columns %v do not match header %v", columns, r.columns)
	}
	rec := make([]string, len(columns))
	var n int64
	for _, row := range rows {
		if len(row) != len(columns) {
			return n, fmt.Errorf("csvfile: row length %d != columns length %d", len(row), len(columns))
		}
		for i, v := range row {
			rec[i] = FormatCell(v)
		}
		if err := r.w.Write(rec); err != nil {
			return n, fmt.Errorf("csvfile: write: %w", err)
		}
		n++
	}
	r.w.Flush()
	return n, r.w.Error()
}

// Exec is a no-op; CSV output has no DDL.
func (r *Repository) Exec(context.Context, string) error { return nil }

// Close flushes and closes the file.
func (r *Repository) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.w.Flush()
	_ = r.f.Close()
}

// FormatCell renders a cell the way the source CSV does: empty for null,
// shortest round-trip text for floats.
func FormatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

func init() {
	storage.Register("csv", func(_ context.Context, cfg storage.Config) (storage.Repository, error) {
		return NewRepository(cfg.DSN, cfg.Table, cfg.Columns)
	})
}
