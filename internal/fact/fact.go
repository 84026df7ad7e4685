// Package fact assembles the fact table of the star schema: one row per
// cleaned source row, carrying the measure columns, the surrogate keys of the
// composite dimensions and a sequential fact id.
package fact

import (
	"errors"
	"fmt"

	"evstar/internal/dimension"
	"evstar/internal/table"
)

// ErrRowCount is returned when the assembled table does not have exactly one
// row per source row.
var ErrRowCount = errors.New("fact row count differs from source row count")

// Spec describes the fact table layout.
type Spec struct {
	Name     string
	Measures []string // copied from the source row, in order
	IDColumn string   // sequential 1-based fact id, appended last
}

// Assemble joins every row of src to each dimension in dims and returns the
// fact table: Measures, then one key column per dimension, then IDColumn.
//
// Every row must resolve to exactly one row of every dimension; a missing or
// repeated match, or a null key, aborts with dimension.ErrAmbiguousJoin.
func Assemble(src *table.Table, spec Spec, dims ...*dimension.Dimension) (*table.Table, error) {
	if spec.IDColumn == "" {
		return nil, fmt.Errorf("fact %s: id column must not be empty", spec.Name)
	}
	measures, err := src.Indexes(spec.Measures...)
	if err != nil {
		return nil, fmt.Errorf("fact %s: %w", spec.Name, err)
	}

	keys := make([][]table.Value, len(dims))
	for i, d := range dims {
		k, err := d.Mapping(src)
		if err != nil {
			return nil, fmt.Errorf("fact %s: %w", spec.Name, err)
		}
		for r, v := range k {
			if v.IsNull() {
				return nil, fmt.Errorf("fact %s: %w", spec.Name, nullKey(src, d, r))
			}
		}
		keys[i] = k
	}

	cols := make([]table.Column, 0, len(measures)+len(dims)+1)
	for _, name := range spec.Measures {
		c, _ := src.Column(name)
		cols = append(cols, c)
	}
	for _, d := range dims {
		cols = append(cols, table.Column{Name: d.Spec().KeyColumn, Type: table.TypeInt})
	}
	cols = append(cols, table.Column{Name: spec.IDColumn, Type: table.TypeInt})
	out, err := table.New(cols...)
	if err != nil {
		return nil, fmt.Errorf("fact %s: %w", spec.Name, err)
	}

	row := make([]table.Value, len(cols))
	for r := 0; r < src.Len(); r++ {
		n := 0
		for _, m := range measures {
			row[n] = src.At(r, m)
			n++
		}
		for _, k := range keys {
			row[n] = k[r]
			n++
		}
		row[n] = table.Int(int64(r + 1))
		if err := out.Append(row...); err != nil {
			return nil, fmt.Errorf("fact %s: row %d: %w", spec.Name, r+1, err)
		}
	}

	if out.Len() != src.Len() {
		return nil, fmt.Errorf("fact %s: %w: %d != %d", spec.Name, ErrRowCount, out.Len(), src.Len())
	}
	return out, nil
}

// nullKey reports source row r, whose natural key mapped to no row of d.
func nullKey(src *table.Table, d *dimension.Dimension, r int) *dimension.JoinError {
	cols := d.Spec().Columns
	key := make([]table.Value, len(cols))
	for i, c := range cols {
		key[i] = src.Get(r, c)
	}
	return &dimension.JoinError{Dimension: d.Name(), Row: r + 1, Key: key}
}
