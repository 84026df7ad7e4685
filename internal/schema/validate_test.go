package schema

import (
	"errors"
	"math"
	"testing"

	"evstar/internal/table"
)

func rawTable(t *testing.T, drop string, cells map[string]string) *table.Table {
	t.Helper()
	var cols []table.Column
	for _, c := range Columns {
		if c.Name == drop {
			continue
		}
		cols = append(cols, table.Column{Name: c.Name})
	}
	tb := table.MustNew(cols...)
	row := make([]table.Value, len(cols))
	for i, c := range cols {
		if s, ok := cells[c.Name]; ok {
			row[i] = table.String(s)
		}
	}
	if err := tb.Append(row...); err != nil {
		t.Fatalf("append: %v", err)
	}
	return tb
}

func TestValidate_MissingColumn(t *testing.T) {
	t.Parallel()

	err := Validate(rawTable(t, BaseMSRP, nil))
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("err = %v, want ErrSchemaMismatch", err)
	}
	var me *MismatchError
	if !errors.As(err, &me) || me.Column != BaseMSRP {
		t.Fatalf("err = %#v, want MismatchError for %s", err, BaseMSRP)
	}
}

func TestCoerce_TypesCells(t *testing.T) {
	t.Parallel()

	raw := rawTable(t, "", map[string]string{
		Make:         "TESLA",
		ModelYear:    "2020",
		BaseMSRP:     "0",
		PostalCode:   "98122.0",
		DOLVehicleID: " 123 ",
	})
	got, err := Coerce(raw)
	if err != nil {
		t.Fatalf("Coerce: %v", err)
	}
	checks := map[string]table.Value{
		Make:          table.String("TESLA"),
		ModelYear:     table.Int(2020),
		BaseMSRP:      table.Float(0),
		PostalCode:    table.Int(98122),
		DOLVehicleID:  table.Int(123),
		ElectricRange: table.Null(),
	}
	for col, want := range checks {
		if v := got.Get(0, col); !v.Equal(want) {
			t.Fatalf("%s = %v (%s), want %v", col, v, v.Kind(), want)
		}
	}
}

func TestCoerce_BadCellIsSchemaMismatch(t *testing.T) {
	t.Parallel()

	_, err := Coerce(rawTable(t, "", map[string]string{ModelYear: "twenty"}))
	var me *MismatchError
	if !errors.As(err, &me) {
		t.Fatalf("err = %v, want *MismatchError", err)
	}
	if me.Column != ModelYear || me.Row != 1 {
		t.Fatalf("got column=%q row=%d", me.Column, me.Row)
	}
}

func TestCoerce_MissingTokensBecomeNull(t *testing.T) {
	t.Parallel()

	for _, tok := range []string{"NaN", "nan", "NA", "N/A", "null", "NULL", "None", "#N/A", "<NA>", " NaN "} {
		raw := rawTable(t, "", map[string]string{
			BaseMSRP:     tok,
			ModelYear:    tok,
			City:         tok,
			DOLVehicleID: tok,
		})
		got, err := Coerce(raw)
		if err != nil {
			t.Fatalf("%q: Coerce: %v", tok, err)
		}
		for _, col := range []string{BaseMSRP, ModelYear, City, DOLVehicleID} {
			if v := got.Get(0, col); !v.IsNull() {
				t.Fatalf("%q: %s = %v (%s), want null", tok, col, v, v.Kind())
			}
		}
	}
}

func TestCoerce_RejectsNonFinite(t *testing.T) {
	t.Parallel()

	cases := []struct {
		col, cell string
	}{
		{BaseMSRP, "Inf"},
		{ElectricRange, "-Infinity"},
		{PostalCode, "inf"},
		{DOLVehicleID, "9223372036854775808.0"},
		{DOLVehicleID, "-9223372036854777856.0"},
	}
	for _, c := range cases {
		_, err := Coerce(rawTable(t, "", map[string]string{c.col: c.cell}))
		var me *MismatchError
		if !errors.As(err, &me) || me.Column != c.col {
			t.Fatalf("%s=%q: err = %v, want *MismatchError", c.col, c.cell, err)
		}
	}

	got, err := Coerce(rawTable(t, "", map[string]string{DOLVehicleID: "-9223372036854775808.0"}))
	if err != nil {
		t.Fatalf("Coerce: %v", err)
	}
	if v := got.Get(0, DOLVehicleID); !v.Equal(table.Int(math.MinInt64)) {
		t.Fatalf("dol_vehicle_id = %v, want MinInt64", v)
	}
}

func TestIsSentinelColumn(t *testing.T) {
	t.Parallel()

	for _, c := range []string{BaseMSRP, ElectricRange} {
		if !IsSentinelColumn(c) {
			t.Fatalf("%s should use the 0 sentinel", c)
		}
	}
	for _, c := range []string{ModelYear, LegislativeDistrict, PostalCode} {
		if IsSentinelColumn(c) {
			t.Fatalf("%s must keep legitimate zeros", c)
		}
	}
}
