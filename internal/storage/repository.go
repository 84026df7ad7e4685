// Package storage contains the storage-agnostic contracts used to persist the
// star schema: a Repository per destination table, a factory keyed by
// storage kind, per-kind DDL bootstrappers and a batched loader.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Repository writes rows into one destination table.
type Repository interface {
	// CopyFrom inserts rows aligned to columns and reports how many were
	// written.
	CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error)
	// Exec runs a statement such as DDL. Backends without SQL may ignore it.
	Exec(ctx context.Context, sql string) error
	Close()
}

// Config selects and parameterizes a backend for one destination table.
type Config struct {
	Kind string
	// DSN is the connection string, or the output directory for "csv".
	DSN     string
	Table   string
	Columns []string
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) the factory for kind. Backends call it from
// init.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// New opens a Repository using the factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns a sorted snapshot of the registered kinds.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
