// Package aggregate computes per-group summary statistics over a table.
//
// Means ignore null cells and cells equal to the 0 sentinel. Modes ignore
// null cells. Rows whose grouping key contains a null belong to no group;
// callers fall through to a global statistic for them.
package aggregate

import (
	"fmt"
	"math"

	"evstar/internal/table"
)

// GroupKey is the canonical encoding of a tuple of grouping values, usable
// as a map key.
type GroupKey string

// KeyOf encodes vals as a GroupKey.
func KeyOf(vals ...table.Value) GroupKey {
	var b []byte
	for _, v := range vals {
		b = v.AppendKey(b)
	}
	return GroupKey(b)
}

// Grouping assigns each row of a table to a group.
type Grouping struct {
	cols []int
}

// NewGrouping resolves the grouping columns against t.
func NewGrouping(t *table.Table, cols ...string) (Grouping, error) {
	idx, err := t.Indexes(cols...)
	if err != nil {
		return Grouping{}, fmt.Errorf("aggregate: %w", err)
	}
	return Grouping{cols: idx}, nil
}

// Key returns the group of row r. ok is false when any grouping value is
// null.
func (g Grouping) Key(t *table.Table, r int) (GroupKey, bool) {
	var b []byte
	for _, c := range g.cols {
		v := t.At(r, c)
		if v.IsNull() {
			return "", false
		}
		b = v.AppendKey(b)
	}
	return GroupKey(b), true
}

// Means maps each group to the mean of its eligible values. A group with no
// eligible value maps to 0, which callers must read as "no information".
type Means map[GroupKey]float64

// GroupMean returns the per-group mean of target over rows grouped by
// groupCols, excluding nulls and zeros.
func GroupMean(t *table.Table, groupCols []string, target string) (Means, error) {
	g, err := NewGrouping(t, groupCols...)
	if err != nil {
		return nil, err
	}
	ti, ok := t.Index(target)
	if !ok {
		return nil, fmt.Errorf("aggregate: %w %q", table.ErrUnknownColumn, target)
	}

	type acc struct {
		sum float64
		n   int
	}
	accs := make(map[GroupKey]*acc)
	for r := 0; r < t.Len(); r++ {
		k, ok := g.Key(t, r)
		if !ok {
			continue
		}
		a := accs[k]
		if a == nil {
			a = &acc{}
			accs[k] = a
		}
		if f, ok := eligible(t.At(r, ti)); ok {
			a.sum += f
			a.n++
		}
	}

	out := make(Means, len(accs))
	for k, a := range accs {
		if a.n == 0 {
			out[k] = 0
			continue
		}
		out[k] = a.sum / float64(a.n)
	}
	return out, nil
}

// GlobalMean returns the mean of target over all eligible values. ok is
// false when the column has none.
func GlobalMean(t *table.Table, target string) (float64, bool, error) {
	ti, ok := t.Index(target)
	if !ok {
		return 0, false, fmt.Errorf("aggregate: %w %q", table.ErrUnknownColumn, target)
	}
	var (
		sum float64
		n   int
	)
	for r := 0; r < t.Len(); r++ {
		if f, ok := eligible(t.At(r, ti)); ok {
			sum += f
			n++
		}
	}
	if n == 0 {
		return 0, false, nil
	}
	return sum / float64(n), true, nil
}

// eligible returns the numeric payload of v unless it is null, zero,
// infinite or not numeric.
func eligible(v table.Value) (float64, bool) {
	f, ok := v.Float()
	if !ok || f == 0 || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
