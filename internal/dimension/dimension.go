// Package dimension builds star-schema dimension tables: the distinct
// combinations of a set of natural-key columns, each with a 1-based surrogate
// key assigned in first-seen order, plus the join that maps source rows back
// to those keys.
//
// Joins compare natural keys value by value with null matching null. A source
// row that resolves to zero or to several dimension rows is a modeling defect
// and is reported as ErrAmbiguousJoin rather than resolved silently.
package dimension

import (
	"errors"
	"fmt"

	"github.com/zeebo/xxh3"

	"evstar/internal/table"
)

// ErrAmbiguousJoin is the sentinel for a join that did not resolve to exactly
// one dimension row.
var ErrAmbiguousJoin = errors.New("ambiguous join")

// JoinError identifies the row whose natural key failed to resolve.
type JoinError struct {
	Dimension string
	Row       int // 1-based source row; 0 for a direct Lookup
	Matches   int
	Key       []table.Value
}

func (e *JoinError) Error() string {
	key := make([]string, len(e.Key))
	for i, v := range e.Key {
		key[i] = v.String()
	}
	if e.Row > 0 {
		return fmt.Sprintf("ambiguous join: dimension %q row %d: key %q matched %d rows", e.Dimension, e.Row, key, e.Matches)
	}
	return fmt.Sprintf("ambiguous join: dimension %q: key %q matched %d rows", e.Dimension, key, e.Matches)
}

func (e *JoinError) Unwrap() error { return ErrAmbiguousJoin }

// Spec describes one dimension.
type Spec struct {
	// Name is the output table name, e.g. "dim_vehicle".
	Name string

	// Columns form the natural key, in output order.
	Columns []string

	// KeyColumn names the surrogate key column appended to the output.
	KeyColumn string

	// SkipNull leaves out tuples whose values are all null. Source rows with
	// such a tuple map to a null key instead of failing the join. Reference
	// dimensions built from a single attribute use this.
	SkipNull bool
}

// Dimension is a built dimension table plus its natural-key index.
type Dimension struct {
	spec  Spec
	tbl   *table.Table
	index map[uint64][]int // tuple hash -> dimension rows
}

// Build extracts the distinct natural-key tuples of t in first-occurrence
// order and assigns keys 1..n. Building twice from the same table yields the
// same result.
func Build(t *table.Table, spec Spec) (*Dimension, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}
	src, err := t.Indexes(spec.Columns...)
	if err != nil {
		return nil, fmt.Errorf("dimension %s: %w", spec.Name, err)
	}

	cols := make([]table.Column, 0, len(src)+1)
	for _, name := range spec.Columns {
		c, _ := t.Column(name)
		cols = append(cols, c)
	}
	cols = append(cols, table.Column{Name: spec.KeyColumn, Type: table.TypeInt})
	out, err := table.New(cols...)
	if err != nil {
		return nil, fmt.Errorf("dimension %s: %w", spec.Name, err)
	}

	d := &Dimension{spec: spec, tbl: out, index: make(map[uint64][]int)}
	tuple := make([]table.Value, len(src))
	var buf []byte
	for r := 0; r < t.Len(); r++ {
		for i, c := range src {
			tuple[i] = t.At(r, c)
		}
		if spec.SkipNull && allNull(tuple) {
			continue
		}
		var h uint64
		h, buf = hashTuple(buf[:0], tuple)
		if len(d.matches(h, tuple)) > 0 {
			continue
		}
		row := append(append(make([]table.Value, 0, len(cols)), tuple...), table.Int(int64(out.Len()+1)))
		if err := out.Append(row...); err != nil {
			return nil, fmt.Errorf("dimension %s: %w", spec.Name, err)
		}
		d.index[h] = append(d.index[h], out.Len()-1)
	}
	return d, nil
}

// Name returns the dimension's table name.
func (d *Dimension) Name() string { return d.spec.Name }

// Spec returns the dimension's definition.
func (d *Dimension) Spec() Spec { return d.spec }

// Table returns the dimension rows: natural-key columns then the key column.
func (d *Dimension) Table() *table.Table { return d.tbl }

// Len returns the number of dimension rows.
func (d *Dimension) Len() int { return d.tbl.Len() }

// Lookup resolves one natural-key tuple to its surrogate key.
func (d *Dimension) Lookup(tuple []table.Value) (table.Value, error) {
	if len(tuple) != len(d.spec.Columns) {
		return table.Null(), fmt.Errorf("dimension %s: lookup with %d values, natural key has %d",
			d.spec.Name, len(tuple), len(d.spec.Columns))
	}
	return d.resolve(tuple, 0)
}

// Mapping returns the surrogate key of every row of t, in row order.
func (d *Dimension) Mapping(t *table.Table) ([]table.Value, error) {
	src, err := t.Indexes(d.spec.Columns...)
	if err != nil {
		return nil, fmt.Errorf("dimension %s: %w", d.spec.Name, err)
	}
	out := make([]table.Value, t.Len())
	tuple := make([]table.Value, len(src))
	for r := range out {
		for i, c := range src {
			tuple[i] = t.At(r, c)
		}
		k, err := d.resolve(tuple, r+1)
		if err != nil {
			return nil, err
		}
		out[r] = k
	}
	return out, nil
}

// Attach returns a copy of t with the surrogate key column appended.
func (d *Dimension) Attach(t *table.Table) (*table.Table, error) {
	keys, err := d.Mapping(t)
	if err != nil {
		return nil, err
	}
	return t.WithColumn(table.Column{Name: d.spec.KeyColumn, Type: table.TypeInt}, keys)
}

func (d *Dimension) resolve(tuple []table.Value, row int) (table.Value, error) {
	h, _ := hashTuple(nil, tuple)
	m := d.matches(h, tuple)
	if len(m) == 1 {
		return d.tbl.At(m[0], len(d.spec.Columns)), nil
	}
	if len(m) == 0 && d.spec.SkipNull && allNull(tuple) {
		return table.Null(), nil
	}
	key := make([]table.Value, len(tuple))
	copy(key, tuple)
	return table.Null(), &JoinError{Dimension: d.spec.Name, Row: row, Matches: len(m), Key: key}
}

// matches returns the dimension rows in bucket h whose natural key equals
// tuple.
func (d *Dimension) matches(h uint64, tuple []table.Value) []int {
	var out []int
	for _, r := range d.index[h] {
		row := d.tbl.Row(r)
		eq := true
		for i, v := range tuple {
			if !row[i].Equal(v) {
				eq = false
				break
			}
		}
		if eq {
			out = append(out, r)
		}
	}
	return out
}

func (s Spec) validate() error {
	if s.Name == "" {
		return errors.New("dimension: name must not be empty")
	}
	if len(s.Columns) == 0 {
		return fmt.Errorf("dimension %s: at least one natural-key column is required", s.Name)
	}
	if s.KeyColumn == "" {
		return fmt.Errorf("dimension %s: key column must not be empty", s.Name)
	}
	for _, c := range s.Columns {
		if c == s.KeyColumn {
			return fmt.Errorf("dimension %s: key column %q is also a natural-key column", s.Name, c)
		}
	}
	return nil
}

func hashTuple(buf []byte, tuple []table.Value) (uint64, []byte) {
	for _, v := range tuple {
		buf = v.AppendKey(buf)
	}
	return xxh3.Hash(buf), buf
}

func allNull(tuple []table.Value) bool {
	for _, v := range tuple {
		if !v.IsNull() {
			return false
		}
	}
	return true
}
