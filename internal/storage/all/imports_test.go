package all

import (
	"reflect"
	"testing"

	"evstar/internal/storage"
)

func TestAllKindsRegistered(t *testing.T) {
	t.Parallel()

	want := []string{"csv", "mssql", "mysql", "postgres", "sqlite"}
	if got := storage.ListKinds(); !reflect.DeepEqual(got, want) {
		t.Fatalf("ListKinds = %v, want %v", got, want)
	}
	for _, k := range want[1:] {
		if !storage.HasDDL(k) {
			t.Fatalf("%s has no DDL bootstrapper", k)
		}
	}
	if storage.HasDDL("csv") {
		t.Fatal("csv should not bootstrap tables")
	}
}
