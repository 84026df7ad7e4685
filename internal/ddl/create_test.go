package ddl

import (
	"errors"
	"strings"
	"testing"

	"evstar/internal/table"
)

func dimVehicle() *table.Table {
	return table.MustNew(
		table.Column{Name: "make"},
		table.Column{Name: "model_year", Type: table.TypeInt},
		table.Column{Name: "base_msrp", Type: table.TypeFloat},
		table.Column{Name: "vehicle_id", Type: table.TypeInt},
	)
}

func TestBuildCreateTableSQL_Dialects(t *testing.T) {
	t.Parallel()

	cases := []struct {
		d    Dialect
		want string
	}{
		{SQLite, "CREATE TABLE IF NOT EXISTS \"main\".\"dim_vehicle\" (\n  \"make\" TEXT,\n  \"model_year\" INTEGER,\n  \"base_msrp\" REAL,\n  \"vehicle_id\" INTEGER NOT NULL,\n  PRIMARY KEY (\"vehicle_id\")\n);"},
		{Postgres, "CREATE TABLE IF NOT EXISTS \"main\".\"dim_vehicle\" (\n  \"make\" TEXT,\n  \"model_year\" BIGINT,\n  \"base_msrp\" DOUBLE PRECISION,\n  \"vehicle_id\" BIGINT NOT NULL,\n  PRIMARY KEY (\"vehicle_id\")\n);"},
		{MySQL, "CREATE TABLE IF NOT EXISTS `main`.`dim_vehicle` (\n  `make` VARCHAR(512),\n  `model_year` BIGINT,\n  `base_msrp` DOUBLE,\n  `vehicle_id` BIGINT NOT NULL,\n  PRIMARY KEY (`vehicle_id`)\n);"},
	}
	for _, c := range cases {
		def, err := FromTable("main.dim_vehicle", dimVehicle(), "vehicle_id", c.d)
		if err != nil {
			t.Fatalf("%s FromTable: %v", c.d.Name, err)
		}
		got, err := BuildCreateTableSQL(def, c.d)
		if err != nil {
			t.Fatalf("%s Build: %v", c.d.Name, err)
		}
		if got != c.want {
			t.Fatalf("%s:\n got: %s\nwant: %s", c.d.Name, got, c.want)
		}
	}
}

func TestBuildCreateTableSQL_MSSQLGuard(t *testing.T) {
	t.Parallel()

	def, err := FromTable("dbo.dim_vehicle", dimVehicle(), "", MSSQL)
	if err != nil {
		t.Fatal(err)
	}
	got, err := BuildCreateTableSQL(def, MSSQL)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(got, "IF OBJECT_ID(N'dbo.dim_vehicle', N'U') IS NULL\nBEGIN\nCREATE TABLE [dbo].[dim_vehicle] (") {
		t.Fatalf("unexpected prefix:\n%s", got)
	}
	if !strings.Contains(got, "[make] NVARCHAR(MAX),") || !strings.HasSuffix(got, "\nEND") {
		t.Fatalf("unexpected body:\n%s", got)
	}
	if strings.Contains(got, "PRIMARY KEY") {
		t.Fatalf("no key column was requested:\n%s", got)
	}
}

func TestBuildCreateTableSQL_Errors(t *testing.T) {
	t.Parallel()

	cases := []TableDef{
		{FQN: "", Columns: []ColumnDef{{Name: "a", SQLType: "TEXT"}}},
		{FQN: "t"},
		{FQN: "t", Columns: []ColumnDef{{Name: " ", SQLType: "TEXT"}}},
		{FQN: "t", Columns: []ColumnDef{{Name: "a"}}},
	}
	for i, def := range cases {
		if _, err := BuildCreateTableSQL(def, SQLite); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}

func TestFromTable_UnknownKey(t *testing.T) {
	t.Parallel()

	_, err := FromTable("dim_vehicle", dimVehicle(), "nope", Postgres)
	if !errors.Is(err, table.ErrUnknownColumn) {
		t.Fatalf("err = %v, want ErrUnknownColumn", err)
	}
	if _, err := FromTable("", dimVehicle(), "", Postgres); err == nil {
		t.Fatalf("expected missing name error")
	}
}

func TestQuoteEscapes(t *testing.T) {
	t.Parallel()

	if got := SQLite.QuoteIdent(`a"b`); got != `"a""b"` {
		t.Fatalf("sqlite = %s", got)
	}
	if got := MSSQL.QuoteIdent("a]b"); got != "[a]]b]" {
		t.Fatalf("mssql = %s", got)
	}
	if got := MySQL.QuoteIdent("a`b"); got != "`a``b`" {
		t.Fatalf("mysql = %s", got)
	}
}
