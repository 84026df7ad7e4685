package storage

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"evstar/internal/table"
)

// WriteTable streams every row of t into repo in batches of batchSize. Cells
// are passed as nil, int64, float64 or string.
func WriteTable(ctx context.Context, log *slog.Logger, repo Repository, t *table.Table, batchSize int) (int64, error) {
	cols := t.ColumnNames()
	rows := make(chan []any, batchSize)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(rows)
		for r := 0; r < t.Len(); r++ {
			row := t.Row(r)
			rec := make([]any, len(row))
			for i, v := range row {
				rec[i] = v.Any()
			}
			select {
			case rows <- rec:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	var n int64
	g.Go(func() error {
		var err error
		n, err = LoadBatches(gctx, log, cols, rows, batchSize, repo.CopyFrom)
		return err
	})

	if err := g.Wait(); err != nil {
		return n, err
	}
	if n != int64(t.Len()) {
		return n, fmt.Errorf("storage: wrote %d rows, want %d", n, t.Len())
	}
	return n, nil
}
