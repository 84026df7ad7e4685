// Package report produces the exploration summaries for a registration
// table: descriptive statistics, dispersion metrics and a missing-values
// report. It only reads the table.
package report

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"evstar/internal/table"
)

// Summary mirrors the usual describe() output for a numeric column.
type Summary struct {
	Column string
	Count  int
	Mean   float64
	Std    float64 // sample standard deviation
	Min    float64
	Q25    float64
	Median float64
	Q75    float64
	Max    float64
}

// Dispersion holds spread metrics for a numeric column.
type Dispersion struct {
	Column string
	Std    float64
	IQR    float64
	Range  float64
}

// Describe summarizes the non-null numeric values of col. Zeros are
// included; the report shows the data as it is.
func Describe(t *table.Table, col string) (Summary, error) {
	xs, err := numbers(t, col)
	if err != nil {
		return Summary{}, err
	}
	s := Summary{Column: col, Count: len(xs)}
	if len(xs) == 0 {
		return s, nil
	}
	sort.Float64s(xs)
	s.Mean, s.Std = stat.MeanStdDev(xs, nil)
	s.Min = floats.Min(xs)
	s.Max = floats.Max(xs)
	s.Q25 = quantile(0.25, xs)
	s.Median = quantile(0.5, xs)
	s.Q75 = quantile(0.75, xs)
	return s, nil
}

// Dispersion returns the spread metrics derived from s.
func (s Summary) Dispersion() Dispersion {
	return Dispersion{Column: s.Column, Std: s.Std, IQR: s.Q75 - s.Q25, Range: s.Max - s.Min}
}

// quantile interpolates linearly between closest ranks (Hyndman-Fan type 7),
// the definition dataframe libraries default to. gonum's LinInterp is type 4
// and disagrees on small samples. xs must be sorted and non-empty.
func quantile(p float64, xs []float64) float64 {
	pos := p * float64(len(xs)-1)
	lo := int(pos)
	if lo >= len(xs)-1 {
		return xs[len(xs)-1]
	}
	return xs[lo] + (pos-float64(lo))*(xs[lo+1]-xs[lo])
}

func numbers(t *table.Table, col string) ([]float64, error) {
	vals, err := t.Values(col)
	if err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}
	xs := make([]float64, 0, len(vals))
	for _, v := range vals {
		if f, ok := v.Float(); ok {
			xs = append(xs, f)
		}
	}
	return xs, nil
}

// ColumnCount pairs a column name with a count.
type ColumnCount struct {
	Column string
	Count  int
}

// Missing is the missing-values report.
type Missing struct {
	Rows int
	// Nulls lists columns with at least one null, most nulls first.
	Nulls []ColumnCount
	// Zeros counts sentinel zeros for the given columns.
	Zeros []ColumnCount
}

// MissingValues counts nulls per column and zeros in zeroCols.
func MissingValues(t *table.Table, zeroCols ...string) (Missing, error) {
	m := Missing{Rows: t.Len()}
	for i, c := range t.Columns() {
		n := 0
		for r := 0; r < t.Len(); r++ {
			if t.At(r, i).IsNull() {
				n++
			}
		}
		if n > 0 {
			m.Nulls = append(m.Nulls, ColumnCount{Column: c.Name, Count: n})
		}
	}
	sort.SliceStable(m.Nulls, func(i, j int) bool { return m.Nulls[i].Count > m.Nulls[j].Count })

	for _, c := range zeroCols {
		vals, err := t.Values(c)
		if err != nil {
			return Missing{}, fmt.Errorf("report: %w", err)
		}
		n := 0
		for _, v := range vals {
			if v.IsZero() {
				n++
			}
		}
		m.Zeros = append(m.Zeros, ColumnCount{Column: c, Count: n})
	}
	return m, nil
}

// WriteSummaries renders summaries and their dispersion as an aligned table.
func WriteSummaries(w io.Writer, sums []Summary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "column\tcount\tmean\tstd\tmin\t25%\t50%\t75%\tmax\tIQR\trange\t")
	for _, s := range sums {
		d := s.Dispersion()
		fmt.Fprintf(tw, "%s\t%d\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t\n",
			s.Column, s.Count, s.Mean, s.Std, s.Min, s.Q25, s.Median, s.Q75, s.Max,
			d.IQR, d.Range)
	}
	return tw.Flush()
}

// WriteMissing renders a missing-values report.
func WriteMissing(w io.Writer, m Missing) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Missing values per column:")
	for _, c := range m.Nulls {
		fmt.Fprintf(tw, "  %s\t%d\n", c.Column, c.Count)
	}
	for _, z := range m.Zeros {
		fmt.Fprintf(tw, "Number of 0 values in %q:\t%d\n", z.Column, z.Count)
	}
	fmt.Fprintf(tw, "Total rows:\t%d\n", m.Rows)
	return tw.Flush()
}
