package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"evstar/internal/storage"
	"evstar/internal/table"
)

func dimEVType(t *testing.T) *table.Table {
	t.Helper()
	tb := table.MustNew(table.Column{Name: "ev_type"}, table.Column{Name: "ev_type_id", Type: table.TypeInt})
	for i, v := range []string{"Battery Electric Vehicle (BEV)", "Plug-in Hybrid Electric Vehicle (PHEV)"} {
		if err := tb.Append(table.String(v), table.Int(int64(i+1))); err != nil {
			t.Fatal(err)
		}
	}
	return tb
}

func TestFactoryDDLAndWrite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "evstar.db")
	tb := dimEVType(t)

	repo, err := storage.New(ctx, storage.Config{Kind: "sqlite", DSN: dsn, Table: "dim_ev_type", Columns: tb.ColumnNames()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer repo.Close()

	if err := storage.EnsureTable(ctx, "sqlite", repo, "dim_ev_type", tb, "ev_type_id"); err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}
	// Idempotent.
	if err := storage.EnsureTable(ctx, "sqlite", repo, "dim_ev_type", tb, "ev_type_id"); err != nil {
		t.Fatalf("EnsureTable again: %v", err)
	}

	n, err := storage.WriteTable(ctx, nil, repo, tb, 1)
	if err != nil || n != 2 {
		t.Fatalf("WriteTable = %d, %v", n, err)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	var name string
	if err := db.QueryRowContext(ctx, `SELECT ev_type FROM dim_ev_type WHERE ev_type_id = 2`).Scan(&name); err != nil {
		t.Fatalf("query: %v", err)
	}
	if name != "Plug-in Hybrid Electric Vehicle (PHEV)" {
		t.Fatalf("ev_type = %q", name)
	}

	// Primary key rejects a duplicate surrogate key.
	if _, err := repo.CopyFrom(ctx, tb.ColumnNames(), [][]any{{"dup", int64(1)}}); err == nil {
		t.Fatal("expected primary key violation")
	}
}

func TestCopyFrom_NullsAndRowLength(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r, closeFn, err := NewRepository(ctx, Config{DSN: ":memory:", Table: "fact_vehicle"})
	if err != nil {
		t.Fatal(err)
	}
	defer closeFn()

	if err := r.Exec(ctx, `CREATE TABLE fact_vehicle (vin TEXT, base_msrp REAL)`); err != nil {
		t.Fatal(err)
	}
	if n, err := r.CopyFrom(ctx, []string{"vin", "base_msrp"}, [][]any{{"5YJ3E1EA1K", nil}}); err != nil || n != 1 {
		t.Fatalf("CopyFrom = %d, %v", n, err)
	}
	if _, err := r.CopyFrom(ctx, []string{"vin", "base_msrp"}, [][]any{{"x"}}); err == nil {
		t.Fatal("expected row length error")
	}

	var msrp sql.NullFloat64
	if err := r.db.QueryRowContext(ctx, `SELECT base_msrp FROM fact_vehicle`).Scan(&msrp); err != nil {
		t.Fatal(err)
	}
	if msrp.Valid {
		t.Fatalf("base_msrp = %v, want NULL", msrp.Float64)
	}
}

func TestNewRepository_Validation(t *testing.T) {
	t.Parallel()

	if _, _, err := NewRepository(context.Background(), Config{Table: "t"}); err == nil {
		t.Fatal("expected empty DSN error")
	}
	if _, _, err := NewRepository(context.Background(), Config{DSN: ":memory:"}); err == nil {
		t.Fatal("expected empty table error")
	}
}
