package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// CopyFn abstracts a backend's bulk insert. It inserts rows aligned to
// columns and returns the number reported as inserted.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// LoadBatches drains rows from in, groups them into batches of batchSize and
// calls copyFn for each non-empty batch. It returns the total reported by
// copyFn and the first error. A progress record is logged per flush.
func LoadBatches(
	ctx context.Context,
	log *slog.Logger,
	columns []string,
	in <-chan []any,
	batchSize int,
	copyFn CopyFn,
) (int64, error) {
	if batchSize <= 0 {
		return 0, fmt.Errorf("batchSize must be > 0")
	}
	if copyFn == nil {
		return 0, fmt.Errorf("copyFn must not be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	var (
		total       int64
		batches     int64
		batch       = make([][]any, 0, batchSize)
		start       = time.Now()
		lastFlushTS = start
		lastTotal   int64
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := copyFn(ctx, columns, batch)
		total += n
		batch = batch[:0]
		if err != nil {
			log.Error("loader: copy failed", slog.Int64("inserted", n), slog.Int64("total", total), slog.Any("err", err))
			return err
		}

		batches++
		now := time.Now()
		sinceLast := now.Sub(lastFlushTS)
		rps := float64(0)
		if sinceLast > 0 {
			rps = float64(total-lastTotal) / sinceLast.Seconds()
		}
		log.Debug("loader: batch",
			slog.Int64("batch", batches),
			slog.Float64("rps", rps),
			slog.Int64("inserted", n),
			slog.Int64("total", total),
			slog.Duration("elapsed", now.Sub(start).Truncate(time.Millisecond)),
		)
		lastFlushTS = now
		lastTotal = total
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return total, ctx.Err()

		case row, ok := <-in:
			if !ok {
				if err := flush(); err != nil {
					return total, err
				}
				log.Debug("loader: input closed", slog.Int64("batches", batches), slog.Int64("total", total))
				return total, nil
			}
			// Producers may reuse row slices.
			batch = append(batch, append([]any(nil), row...))
			if len(batch) >= batchSize {
				if err := flush(); err != nil {
					return total, err
				}
			}
		}
	}
}
