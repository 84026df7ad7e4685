package table

import (
	"bytes"
	"errors"
	"math"
	"testing"
)

func TestNew_RejectsDuplicateAndEmptyNames(t *testing.T) {
	t.Parallel()

	if _, err := New(Column{Name: "a"}, Column{Name: "a"}); err == nil {
		t.Fatalf("expected duplicate column error")
	}
	if _, err := New(Column{Name: ""}); err == nil {
		t.Fatalf("expected empty name error")
	}
}

func TestAppend_EnforcesSchema(t *testing.T) {
	t.Parallel()

	tb := MustNew(Column{Name: "make"}, Column{Name: "year", Type: TypeInt})

	cases := []struct {
		name    string
		vals    []Value
		wantErr bool
	}{
		{"aligned", []Value{String("TESLA"), Int(2020)}, false},
		{"null_allowed", []Value{Null(), Null()}, false},
		{"short_row", []Value{String("TESLA")}, true},
		{"wrong_kind", []Value{String("TESLA"), Float(2020)}, true},
	}
	for _, c := range cases {
		err := tb.Append(c.vals...)
		if (err != nil) != c.wantErr {
			t.Fatalf("%s: err=%v wantErr=%v", c.name, err, c.wantErr)
		}
	}
	if tb.Len() != 2 {
		t.Fatalf("Len = %d, want 2", tb.Len())
	}
}

func TestValueEqualAndKey(t *testing.T) {
	t.Parallel()

	pairs := []struct {
		a, b Value
		want bool
	}{
		{Null(), Null(), true},
		{Int(7), Int(7), true},
		{Int(7), Float(7), false},
		{Float(0), Float(-0.0), true},
		{String("A"), String("A"), true},
		{String(""), Null(), false},
		{Float(math.NaN()), Null(), true},
	}
	for i, p := range pairs {
		if got := p.a.Equal(p.b); got != p.want {
			t.Fatalf("case %d: Equal = %v, want %v", i, got, p.want)
		}
		sameKey := bytes.Equal(p.a.AppendKey(nil), p.b.AppendKey(nil))
		if sameKey != p.want {
			t.Fatalf("case %d: key equality = %v, want %v", i, sameKey, p.want)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	t.Parallel()

	tb := MustNew(Column{Name: "price", Type: TypeFloat})
	if err := tb.Append(Float(0)); err != nil {
		t.Fatal(err)
	}
	c := tb.Clone()
	if err := c.Set(0, 0, Float(35000)); err != nil {
		t.Fatal(err)
	}
	if got := tb.At(0, 0); !got.Equal(Float(0)) {
		t.Fatalf("original mutated: %v", got)
	}
}

func TestProjectAndWithColumn(t *testing.T) {
	t.Parallel()

	tb := MustNew(Column{Name: "a"}, Column{Name: "b"}, Column{Name: "c"})
	_ = tb.Append(String("a1"), String("b1"), String("c1"))
	_ = tb.Append(String("a2"), String("b2"), String("c2"))

	p, err := tb.Project("c", "a")
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if got := p.ColumnNames(); got[0] != "c" || got[1] != "a" {
		t.Fatalf("Project columns = %v", got)
	}
	if got := p.Get(1, "c").String(); got != "c2" {
		t.Fatalf("Project cell = %q", got)
	}

	if _, err := tb.Project("missing"); !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("Project(missing) err = %v", err)
	}

	w, err := tb.WithColumn(Column{Name: "id", Type: TypeInt}, []Value{Int(1), Int(2)})
	if err != nil {
		t.Fatalf("WithColumn: %v", err)
	}
	if got := w.Get(1, "id"); !got.Equal(Int(2)) {
		t.Fatalf("WithColumn cell = %v", got)
	}
	if _, err := tb.WithColumn(Column{Name: "id", Type: TypeInt}, []Value{Int(1)}); err == nil {
		t.Fatalf("expected length mismatch error")
	}
}

func TestRecordsAndStrings(t *testing.T) {
	t.Parallel()

	tb := MustNew(Column{Name: "n", Type: TypeFloat}, Column{Name: "s"})
	_ = tb.Append(Float(125), Null())

	rec := tb.Records()[0]
	if rec[0] != float64(125) || rec[1] != nil {
		t.Fatalf("Records = %#v", rec)
	}
	str := tb.Strings()[0]
	if str[0] != "125" || str[1] != "" {
		t.Fatalf("Strings = %#v", str)
	}
}
