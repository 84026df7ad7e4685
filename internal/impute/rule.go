// Package impute repairs missing values in a table with ordered fallback
// chains.
//
// Each Rule names a column and a chain of Steps. For every cell that needs a
// value (null, or 0 when the rule treats 0 as a sentinel) the steps are tried
// top-down and the first one that yields a value wins:
//
//	base_msrp:  keep → group_mean(make,model,model_year) → global_mean
//	city:       keep → group_mode(county) → global_mode
//	county:     keep → global_mode
//
// When every step comes back empty the cell is left untouched and the miss is
// reported as a MissingDataExhausted warning.
package impute

import (
	"fmt"
	"math"
	"strings"

	"evstar/internal/aggregate"
	"evstar/internal/table"
)

// StepKind selects the statistic a Step draws its replacement from.
type StepKind int

const (
	StepGroupMean StepKind = iota + 1
	StepGlobalMean
	StepGroupMode
	StepGlobalMode
)

func (k StepKind) String() string {
	switch k {
	case StepGroupMean:
		return "group_mean"
	case StepGlobalMean:
		return "global_mean"
	case StepGroupMode:
		return "group_mode"
	case StepGlobalMode:
		return "global_mode"
	default:
		return fmt.Sprintf("step(%d)", int(k))
	}
}

// Step is one link of a fallback chain.
type Step struct {
	Kind StepKind
	Keys []string // grouping columns; group steps only
}

// GroupMean draws from the per-group mean of the rule's column.
func GroupMean(keys ...string) Step { return Step{Kind: StepGroupMean, Keys: keys} }

// GlobalMean draws from the column-wide mean.
func GlobalMean() Step { return Step{Kind: StepGlobalMean} }

// GroupMode draws from the per-group mode of the rule's column.
func GroupMode(keys ...string) Step { return Step{Kind: StepGroupMode, Keys: keys} }

// GlobalMode draws from the column-wide mode.
func GlobalMode() Step { return Step{Kind: StepGlobalMode} }

func (s Step) String() string {
	if len(s.Keys) == 0 {
		return s.Kind.String()
	}
	return s.Kind.String() + "(" + strings.Join(s.Keys, ",") + ")"
}

// Rule is the fallback chain for one column.
type Rule struct {
	Column string
	// Sentinel makes 0 count as missing for this column.
	Sentinel bool
	Chain    []Step
}

// needs reports whether v must be replaced under r.
func (r Rule) needs(v table.Value) bool {
	if v.IsNull() {
		return true
	}
	return r.Sentinel && v.IsZero()
}

// source yields a replacement for one row, or false when it has none.
type source func(t *table.Table, row int) (table.Value, bool)

// compile computes the statistic behind s over t and returns the per-row
// lookup.
func (s Step) compile(t *table.Table, col table.Column) (source, error) {
	switch s.Kind {
	case StepGroupMean:
		if col.Type == table.TypeString {
			return nil, fmt.Errorf("impute: %s on string column %q", s, col.Name)
		}
		g, err := aggregate.NewGrouping(t, s.Keys...)
		if err != nil {
			return nil, err
		}
		means, err := aggregate.GroupMean(t, s.Keys, col.Name)
		if err != nil {
			return nil, err
		}
		return func(t *table.Table, row int) (table.Value, bool) {
			k, ok := g.Key(t, row)
			if !ok {
				return table.Null(), false
			}
			m, ok := means[k]
			if !ok || m == 0 {
				return table.Null(), false
			}
			return numeric(m, col.Type), true
		}, nil

	case StepGlobalMean:
		if col.Type == table.TypeString {
			return nil, fmt.Errorf("impute: %s on string column %q", s, col.Name)
		}
		m, ok, err := aggregate.GlobalMean(t, col.Name)
		if err != nil {
			return nil, err
		}
		return func(*table.Table, int) (table.Value, bool) {
			if !ok {
				return table.Null(), false
			}
			return numeric(m, col.Type), true
		}, nil

	case StepGroupMode:
		g, err := aggregate.NewGrouping(t, s.Keys...)
		if err != nil {
			return nil, err
		}
		modes, err := aggregate.GroupMode(t, s.Keys, col.Name)
		if err != nil {
			return nil, err
		}
		return func(t *table.Table, row int) (table.Value, bool) {
			k, ok := g.Key(t, row)
			if !ok {
				return table.Null(), false
			}
			v, ok := modes[k]
			return v, ok
		}, nil

	case StepGlobalMode:
		m, ok, err := aggregate.GlobalMode(t, col.Name)
		if err != nil {
			return nil, err
		}
		return func(*table.Table, int) (table.Value, bool) { return m, ok }, nil

	default:
		return nil, fmt.Errorf("impute: unknown step %s", s)
	}
}

// numeric converts a mean to the column's value kind.
func numeric(m float64, typ table.Type) table.Value {
	if typ == table.TypeInt {
		return table.Int(int64(math.Round(m)))
	}
	return table.Float(m)
}
