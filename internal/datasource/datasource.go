// Package datasource defines where the raw registration CSV comes from.
package datasource

import (
	"context"
	"io"
)

type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}
