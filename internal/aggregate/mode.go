package aggregate

import (
	"fmt"

	"evstar/internal/table"
)

// Modes maps each group to its most frequent non-null value. Groups without
// any non-null value are absent.
type Modes map[GroupKey]table.Value

// counter tracks value frequencies in first-seen order so ties resolve to the
// value that appeared first in row order.
type counter struct {
	order  []GroupKey
	values map[GroupKey]table.Value
	counts map[GroupKey]int
}

func newCounter() *counter {
	return &counter{
		values: make(map[GroupKey]table.Value),
		counts: make(map[GroupKey]int),
	}
}

func (c *counter) add(v table.Value) {
	k := KeyOf(v)
	if _, seen := c.counts[k]; !seen {
		c.order = append(c.order, k)
		c.values[k] = v
	}
	c.counts[k]++
}

func (c *counter) mode() (table.Value, bool) {
	best, bestN := GroupKey(""), 0
	for _, k := range c.order {
		if n := c.counts[k]; n > bestN {
			best, bestN = k, n
		}
	}
	if bestN == 0 {
		return table.Null(), false
	}
	return c.values[best], true
}

// GroupMode returns the per-group mode of target over rows grouped by
// groupCols. Ties go to the value seen first in row order.
func GroupMode(t *table.Table, groupCols []string, target string) (Modes, error) {
	g, err := NewGrouping(t, groupCols...)
	if err != nil {
		return nil, err
	}
	ti, ok := t.Index(target)
	if !ok {
		return nil, fmt.Errorf("aggregate: %w %q", table.ErrUnknownColumn, target)
	}

	counters := make(map[GroupKey]*counter)
	for r := 0; r < t.Len(); r++ {
		k, ok := g.Key(t, r)
		if !ok {
			continue
		}
		v := t.At(r, ti)
		if v.IsNull() {
			continue
		}
		c := counters[k]
		if c == nil {
			c = newCounter()
			counters[k] = c
		}
		c.add(v)
	}

	out := make(Modes, len(counters))
	for k, c := range counters {
		if m, ok := c.mode(); ok {
			out[k] = m
		}
	}
	return out, nil
}

// GlobalMode returns the most frequent non-null value of target. ok is false
// when the column holds only nulls.
func GlobalMode(t *table.Table, target string) (table.Value, bool, error) {
	ti, ok := t.Index(target)
	if !ok {
		return table.Null(), false, fmt.Errorf("aggregate: %w %q", table.ErrUnknownColumn, target)
	}
	c := newCounter()
	for r := 0; r < t.Len(); r++ {
		if v := t.At(r, ti); !v.IsNull() {
			c.add(v)
		}
	}
	m, ok := c.mode()
	return m, ok, nil
}
