// Package ddl models simple CREATE TABLE statements and renders them for the
// supported SQL backends.
package ddl

import (
	"fmt"
	"strings"

	"evstar/internal/table"
)

// BuildCreateTableSQL renders an idempotent CREATE TABLE statement for d:
//
//	CREATE TABLE IF NOT EXISTS "table" (
//	  "col1" TYPE [NOT NULL],
//	  "col2" TYPE,
//	  PRIMARY KEY ("pk")
//	);
//
// Each column must have a non-empty Name and SQLType.
func BuildCreateTableSQL(t TableDef, d Dialect) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("%s ddl: table FQN must not be empty", d.Name)
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("%s ddl: at least one column is required", d.Name)
	}

	cols := make([]string, 0, len(t.Columns)+1)
	pks := make([]string, 0, 1)

	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("%s ddl: column with empty name in table %s", d.Name, fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("%s ddl: column %s missing SQLType", d.Name, name)
		}

		var sb strings.Builder
		sb.WriteString(d.quoteIdent(name))
		sb.WriteByte(' ')
		sb.WriteString(typ)
		if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}
		cols = append(cols, sb.String())

		if c.PrimaryKey {
			pks = append(pks, d.quoteIdent(name))
		}
	}
	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	create := fmt.Sprintf("CREATE TABLE %s (\n  %s\n);", d.QuoteFQN(fqn), strings.Join(cols, ",\n  "))
	return d.guard(fqn, create), nil
}

// FromTable derives a TableDef from a table's columns. keyColumn, when
// non-empty, becomes a NOT NULL primary key; every other column is nullable.
func FromTable(name string, t *table.Table, keyColumn string, d Dialect) (TableDef, error) {
	if strings.TrimSpace(name) == "" {
		return TableDef{}, fmt.Errorf("%s ddl: missing table name", d.Name)
	}
	if keyColumn != "" {
		if _, err := t.Indexes(keyColumn); err != nil {
			return TableDef{}, fmt.Errorf("%s ddl: key column: %w", d.Name, err)
		}
	}
	cols := t.Columns()
	defs := make([]ColumnDef, len(cols))
	for i, c := range cols {
		pk := c.Name == keyColumn
		defs[i] = ColumnDef{
			Name:       c.Name,
			SQLType:    d.mapType(c.Type),
			Nullable:   !pk,
			PrimaryKey: pk,
		}
	}
	return TableDef{FQN: name, Columns: defs}, nil
}
