package table

import (
	"errors"
	"fmt"
)

// Type is the declared type of a column.
type Type uint8

const (
	TypeString Type = iota
	TypeInt
	TypeFloat
)

func (t Type) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	default:
		return "string"
	}
}

// Accepts reports whether v may be stored in a column of type t. Null is
// accepted by every type.
func (t Type) Accepts(v Value) bool {
	switch v.Kind() {
	case KindNull:
		return true
	case KindInt:
		return t == TypeInt
	case KindFloat:
		return t == TypeFloat
	default:
		return t == TypeString
	}
}

// Column names a column and its declared type.
type Column struct {
	Name string
	Type Type
}

// ErrUnknownColumn is returned when a column name is not part of the schema.
var ErrUnknownColumn = errors.New("unknown column")

// Table is an ordered sequence of rows sharing one fixed column schema.
//
// Every row holds exactly len(Columns()) values and every non-null value
// matches its column's Type; Append and Set enforce this.
type Table struct {
	cols []Column
	idx  map[string]int
	rows [][]Value
}

// New builds an empty table. Column names must be unique and non-empty.
func New(cols ...Column) (*Table, error) {
	idx := make(map[string]int, len(cols))
	for i, c := range cols {
		if c.Name == "" {
			return nil, fmt.Errorf("table: column %d has an empty name", i)
		}
		if _, dup := idx[c.Name]; dup {
			return nil, fmt.Errorf("table: duplicate column %q", c.Name)
		}
		idx[c.Name] = i
	}
	cp := make([]Column, len(cols))
	copy(cp, cols)
	return &Table{cols: cp, idx: idx}, nil
}

// MustNew is New for statically known schemas; it panics on error.
func MustNew(cols ...Column) *Table {
	t, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return t
}

// Columns returns a copy of the schema.
func (t *Table) Columns() []Column {
	cp := make([]Column, len(t.cols))
	copy(cp, t.cols)
	return cp
}

// ColumnNames returns the column names in schema order.
func (t *Table) ColumnNames() []string {
	out := make([]string, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.Name
	}
	return out
}

// Index returns the position of the named column.
func (t *Table) Index(name string) (int, bool) {
	i, ok := t.idx[name]
	return i, ok
}

// Indexes resolves several column names at once.
func (t *Table) Indexes(names ...string) ([]int, error) {
	out := make([]int, len(names))
	for i, n := range names {
		j, ok := t.idx[n]
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrUnknownColumn, n)
		}
		out[i] = j
	}
	return out, nil
}

// Column returns the schema entry of the named column.
func (t *Table) Column(name string) (Column, bool) {
	i, ok := t.idx[name]
	if !ok {
		return Column{}, false
	}
	return t.cols[i], true
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Append adds one row. vals must be aligned to the schema.
func (t *Table) Append(vals ...Value) error {
	if len(vals) != len(t.cols) {
		return fmt.Errorf("table: row has %d values, schema has %d columns", len(vals), len(t.cols))
	}
	for i, v := range vals {
		if !t.cols[i].Type.Accepts(v) {
			return fmt.Errorf("table: column %q (%s) cannot hold %s value %q",
				t.cols[i].Name, t.cols[i].Type, v.Kind(), v.String())
		}
	}
	row := make([]Value, len(vals))
	copy(row, vals)
	t.rows = append(t.rows, row)
	return nil
}

// Row returns row i. The slice is shared with the table and must be treated
// as read-only; use Set to modify cells.
func (t *Table) Row(i int) []Value { return t.rows[i] }

// At returns the cell at (row, col).
func (t *Table) At(row, col int) Value { return t.rows[row][col] }

// Get returns the cell at row for the named column; Null if the column does
// not exist.
func (t *Table) Get(row int, name string) Value {
	i, ok := t.idx[name]
	if !ok {
		return Null()
	}
	return t.rows[row][i]
}

// Set replaces the cell at (row, col).
func (t *Table) Set(row, col int, v Value) error {
	if !t.cols[col].Type.Accepts(v) {
		return fmt.Errorf("table: column %q (%s) cannot hold %s value %q",
			t.cols[col].Name, t.cols[col].Type, v.Kind(), v.String())
	}
	t.rows[row][col] = v
	return nil
}

// Values returns a copy of one column.
func (t *Table) Values(name string) ([]Value, error) {
	i, ok := t.idx[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownColumn, name)
	}
	out := make([]Value, len(t.rows))
	for r, row := range t.rows {
		out[r] = row[i]
	}
	return out, nil
}

// Clone returns a deep copy of t.
func (t *Table) Clone() *Table {
	c, _ := New(t.cols...)
	c.rows = make([][]Value, len(t.rows))
	for i, row := range t.rows {
		cp := make([]Value, len(row))
		copy(cp, row)
		c.rows[i] = cp
	}
	return c
}

// Project returns a new table holding only the named columns, in the given
// order.
func (t *Table) Project(names ...string) (*Table, error) {
	pos, err := t.Indexes(names...)
	if err != nil {
		return nil, err
	}
	cols := make([]Column, len(pos))
	for i, p := range pos {
		cols[i] = t.cols[p]
	}
	out, err := New(cols...)
	if err != nil {
		return nil, err
	}
	out.rows = make([][]Value, len(t.rows))
	for r, row := range t.rows {
		nr := make([]Value, len(pos))
		for i, p := range pos {
			nr[i] = row[p]
		}
		out.rows[r] = nr
	}
	return out, nil
}

// WithColumn returns a new table with col appended, populated from vals.
// len(vals) must equal t.Len().
func (t *Table) WithColumn(col Column, vals []Value) (*Table, error) {
	if len(vals) != len(t.rows) {
		return nil, fmt.Errorf("table: column %q has %d values for %d rows", col.Name, len(vals), len(t.rows))
	}
	cols := append(t.Columns(), col)
	out, err := New(cols...)
	if err != nil {
		return nil, err
	}
	out.rows = make([][]Value, len(t.rows))
	for r, row := range t.rows {
		if !col.Type.Accepts(vals[r]) {
			return nil, fmt.Errorf("table: row %d: column %q (%s) cannot hold %s value",
				r, col.Name, col.Type, vals[r].Kind())
		}
		nr := make([]Value, len(row)+1)
		copy(nr, row)
		nr[len(row)] = vals[r]
		out.rows[r] = nr
	}
	return out, nil
}

// Records returns the rows as [][]any for bulk loaders. Null becomes nil.
func (t *Table) Records() [][]any {
	out := make([][]any, len(t.rows))
	for r, row := range t.rows {
		rec := make([]any, len(row))
		for i, v := range row {
			rec[i] = v.Any()
		}
		out[r] = rec
	}
	return out
}

// Strings returns the rows rendered with Value.String, for text writers.
func (t *Table) Strings() [][]string {
	out := make([][]string, len(t.rows))
	for r, row := range t.rows {
		rec := make([]string, len(row))
		for i, v := range row {
			rec[i] = v.String()
		}
		out[r] = rec
	}
	return out
}
