package mssql

import (
	"context"
	"fmt"

	"evstar/internal/ddl"
	"evstar/internal/storage"
	"evstar/internal/table"
)

// newRepository is a test hook that points to NewRepository by default.
var newRepository = NewRepository

type wrappedRepo struct {
	*Repository
	closeFn func()
}

func (w *wrappedRepo) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

var _ storage.Repository = (*wrappedRepo)(nil)

func init() {
	storage.Register("mssql", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepository(ctx, Config{DSN: cfg.DSN, Table: cfg.Table})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})

	storage.RegisterDDL("mssql", func(ctx context.Context, repo storage.Repository, name string, t *table.Table, keyColumn string) error {
		def, err := ddl.FromTable(name, t, keyColumn, ddl.MSSQL)
		if err != nil {
			return fmt.Errorf("infer table definition: %w", err)
		}
		stmt, err := ddl.BuildCreateTableSQL(def, ddl.MSSQL)
		if err != nil {
			return err
		}
		return repo.Exec(ctx, stmt)
	})
}
