package impute

import (
	"errors"
	"fmt"
	"log/slog"

	"evstar/internal/table"
)

// ErrMissingDataExhausted reports that every layer of a fallback chain came
// back empty for at least one cell.
var ErrMissingDataExhausted = errors.New("missing data exhausted")

// ExhaustedError lists the cells of one column that could not be filled.
// Rows holds the first few 1-based row numbers; Count is the full total.
type ExhaustedError struct {
	Column string
	Count  int
	Rows   []int
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("missing data exhausted: column %q: %d value(s) left unresolved (rows %v)",
		e.Column, e.Count, e.Rows)
}

func (e *ExhaustedError) Unwrap() error { return ErrMissingDataExhausted }

// defaultMaxRows bounds the row numbers kept per ExhaustedError.
const defaultMaxRows = 3

// Imputer applies Rules in order.
type Imputer struct {
	Rules []Rule

	// Strict turns exhaustion warnings into an error from Apply.
	Strict bool

	// MaxRows caps the row numbers recorded per warning (default 3).
	MaxRows int

	Logger *slog.Logger
}

// Result is the outcome of Apply.
type Result struct {
	// Table is the cleaned copy; the input is never modified.
	Table *table.Table

	// Filled counts replaced cells per column and step, e.g.
	// Filled["base_msrp"]["group_mean(make,model,model_year)"].
	Filled map[string]map[string]int

	// Warnings holds one entry per column that kept unresolved cells.
	Warnings []*ExhaustedError
}

// FilledTotal returns the number of replaced cells across all columns.
func (r *Result) FilledTotal() int {
	n := 0
	for _, steps := range r.Filled {
		for _, c := range steps {
			n += c
		}
	}
	return n
}

// Apply returns a cleaned copy of raw. Rules run in order and each one sees
// the values written by the rules before it; statistics for a rule are
// computed once, before any of its own replacements.
//
// An empty input yields an empty result. In Strict mode any exhaustion is
// returned as an error wrapping ErrMissingDataExhausted.
func (im *Imputer) Apply(raw *table.Table) (*Result, error) {
	log := im.Logger
	if log == nil {
		log = slog.Default()
	}
	maxRows := im.MaxRows
	if maxRows <= 0 {
		maxRows = defaultMaxRows
	}

	out := raw.Clone()
	res := &Result{Table: out, Filled: map[string]map[string]int{}}
	if out.Len() == 0 {
		return res, nil
	}

	for _, rule := range im.Rules {
		ci, ok := out.Index(rule.Column)
		if !ok {
			return nil, fmt.Errorf("impute: %w %q", table.ErrUnknownColumn, rule.Column)
		}
		col, _ := out.Column(rule.Column)

		// Find the cells to fill before computing anything.
		var todo []int
		for r := 0; r < out.Len(); r++ {
			if rule.needs(out.At(r, ci)) {
				todo = append(todo, r)
			}
		}
		if len(todo) == 0 {
			continue
		}

		sources := make([]source, len(rule.Chain))
		for i, s := range rule.Chain {
			src, err := s.compile(out, col)
			if err != nil {
				return nil, err
			}
			sources[i] = src
		}

		// Resolve against the pre-rule state, then write.
		type fill struct {
			row  int
			val  table.Value
			step int
		}
		fills := make([]fill, 0, len(todo))
		var missed *ExhaustedError
		for _, r := range todo {
			step := -1
			var v table.Value
			for i, src := range sources {
				if got, ok := src(out, r); ok {
					v, step = got, i
					break
				}
			}
			if step < 0 {
				if missed == nil {
					missed = &ExhaustedError{Column: rule.Column}
				}
				missed.Count++
				if len(missed.Rows) < maxRows {
					missed.Rows = append(missed.Rows, r+1)
				}
				continue
			}
			fills = append(fills, fill{row: r, val: v, step: step})
		}

		counts := res.Filled[rule.Column]
		if counts == nil {
			counts = map[string]int{}
			res.Filled[rule.Column] = counts
		}
		for _, f := range fills {
			if err := out.Set(f.row, ci, f.val); err != nil {
				return nil, fmt.Errorf("impute: row %d: %w", f.row+1, err)
			}
			counts[rule.Chain[f.step].String()]++
		}

		log.Debug("impute: rule applied",
			slog.String("column", rule.Column),
			slog.Int("candidates", len(todo)),
			slog.Int("filled", len(fills)))

		if missed != nil {
			res.Warnings = append(res.Warnings, missed)
			log.Warn("impute: fallback chain exhausted",
				slog.String("column", missed.Column),
				slog.Int("count", missed.Count),
				slog.Any("rows", missed.Rows))
		}
	}

	if im.Strict && len(res.Warnings) > 0 {
		errs := make([]error, len(res.Warnings))
		for i, w := range res.Warnings {
			errs[i] = w
		}
		return nil, errors.Join(errs...)
	}
	return res, nil
}
