package storage

import (
	"context"
	"fmt"
	"sync"

	"evstar/internal/table"
)

// DDLBootstrapper creates the destination table for t, named name, through
// repo.Exec. keyColumn, when set, is the table's primary key.
type DDLBootstrapper func(ctx context.Context, repo Repository, name string, t *table.Table, keyColumn string) error

var (
	ddlMu  sync.RWMutex
	ddlFns = map[string]DDLBootstrapper{}
)

// RegisterDDL registers (or replaces) the DDLBootstrapper for kind.
func RegisterDDL(kind string, fn DDLBootstrapper) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	ddlFns[kind] = fn
}

// HasDDL reports whether kind supports table bootstrapping.
func HasDDL(kind string) bool {
	ddlMu.RLock()
	defer ddlMu.RUnlock()
	_, ok := ddlFns[kind]
	return ok
}

// EnsureTable runs the bootstrapper registered for kind.
func EnsureTable(ctx context.Context, kind string, repo Repository, name string, t *table.Table, keyColumn string) error {
	ddlMu.RLock()
	fn, ok := ddlFns[kind]
	ddlMu.RUnlock()
	if !ok {
		return fmt.Errorf("no DDL bootstrapper registered for storage.kind=%q", kind)
	}
	return fn(ctx, repo, name, t, keyColumn)
}
