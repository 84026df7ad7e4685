package schema

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"evstar/internal/table"
)

// ErrSchemaMismatch is the sentinel for input that does not fit the expected
// schema: a missing column or a cell that cannot hold its declared type.
var ErrSchemaMismatch = errors.New("schema mismatch")

// MismatchError describes one schema violation. Row is the 1-based data row
// (header excluded), or 0 for column-level problems.
type MismatchError struct {
	Column string
	Row    int
	Reason string
}

func (e *MismatchError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("schema mismatch: column %q row %d: %s", e.Column, e.Row, e.Reason)
	}
	return fmt.Sprintf("schema mismatch: column %q: %s", e.Column, e.Reason)
}

func (e *MismatchError) Unwrap() error { return ErrSchemaMismatch }

// Validate checks that raw carries every expected column. All missing
// columns are reported together.
func Validate(raw *table.Table) error {
	var errs []error
	for _, c := range Columns {
		if _, ok := raw.Index(c.Name); !ok {
			errs = append(errs, &MismatchError{Column: c.Name, Reason: "column not present in input"})
		}
	}
	return errors.Join(errs...)
}

// Coerce converts a table of string cells (as produced by the CSV parser)
// into a typed table following Columns. Extra columns are kept as strings.
// The first cell that cannot be converted aborts with a *MismatchError.
func Coerce(raw *table.Table) (*table.Table, error) {
	if err := Validate(raw); err != nil {
		return nil, err
	}
	src := raw.Columns()
	cols := make([]table.Column, len(src))
	for i, c := range src {
		cols[i] = table.Column{Name: c.Name, Type: TypeOf(c.Name)}
	}
	out, err := table.New(cols...)
	if err != nil {
		return nil, err
	}

	vals := make([]table.Value, len(cols))
	for r := 0; r < raw.Len(); r++ {
		for i, c := range cols {
			v, err := coerceCell(raw.At(r, i), c.Type)
			if err != nil {
				return nil, &MismatchError{Column: c.Name, Row: r + 1, Reason: err.Error()}
			}
			vals[i] = v
		}
		if err := out.Append(vals...); err != nil {
			return nil, &MismatchError{Row: r + 1, Reason: err.Error()}
		}
	}
	return out, nil
}

// missingTokens are the cell texts read as missing in every column.
var missingTokens = map[string]bool{
	"#N/A": true, "#N/A N/A": true, "#NA": true, "-1.#IND": true, "-1.#QNAN": true,
	"-NaN": true, "-nan": true, "1.#IND": true, "1.#QNAN": true, "<NA>": true,
	"N/A": true, "NA": true, "NULL": true, "NaN": true, "None": true,
	"n/a": true, "nan": true, "null": true,
}

func coerceCell(v table.Value, typ table.Type) (table.Value, error) {
	s, ok := v.Str()
	if !ok {
		if typ.Accepts(v) {
			return v, nil
		}
		return v, fmt.Errorf("cannot convert %s to %s", v.Kind(), typ)
	}
	s = strings.TrimSpace(s)
	if s == "" || missingTokens[s] {
		return table.Null(), nil
	}
	switch typ {
	case table.TypeInt:
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return table.Int(i), nil
		}
		// Exports sometimes render integer columns as "98122.0".
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f != math.Trunc(f) || f >= math.MaxInt64 || f < math.MinInt64 {
			return v, fmt.Errorf("%q is not an integer", s)
		}
		return table.Int(int64(f)), nil
	case table.TypeFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsInf(f, 0) {
			return v, fmt.Errorf("%q is not a finite number", s)
		}
		// Spellings of NaN outside missingTokens still come back as Null.
		return table.Float(f), nil
	default:
		return table.String(s), nil
	}
}
