package ddl

import (
	"strings"

	"evstar/internal/table"
)

// Dialect captures the per-backend differences in DDL: identifier quoting,
// type mapping and how "create if missing" is spelled.
type Dialect struct {
	Name string

	quoteIdent func(string) string
	mapType    func(table.Type) string
	// guard wraps a plain CREATE TABLE so it is a no-op when the table exists.
	guard func(fqn, create string) string
}

// QuoteFQN quotes each dotted segment of a possibly schema-qualified name.
func (d Dialect) QuoteFQN(fqn string) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, d.quoteIdent(p))
	}
	return strings.Join(out, ".")
}

// QuoteIdent quotes a single identifier.
func (d Dialect) QuoteIdent(id string) string { return d.quoteIdent(id) }

// MapType returns the SQL type used for a column type.
func (d Dialect) MapType(t table.Type) string { return d.mapType(t) }

func ansiIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

func ifNotExists(_ string, create string) string {
	return strings.Replace(create, "CREATE TABLE ", "CREATE TABLE IF NOT EXISTS ", 1)
}

var (
	// SQLite uses type affinities: INTEGER, REAL, TEXT.
	SQLite = Dialect{
		Name:       "sqlite",
		quoteIdent: ansiIdent,
		mapType: func(t table.Type) string {
			switch t {
			case table.TypeInt:
				return "INTEGER"
			case table.TypeFloat:
				return "REAL"
			default:
				return "TEXT"
			}
		},
		guard: ifNotExists,
	}

	Postgres = Dialect{
		Name:       "postgres",
		quoteIdent: ansiIdent,
		mapType: func(t table.Type) string {
			switch t {
			case table.TypeInt:
				return "BIGINT"
			case table.TypeFloat:
				return "DOUBLE PRECISION"
			default:
				return "TEXT"
			}
		},
		guard: ifNotExists,
	}

	// MSSQL has no CREATE TABLE IF NOT EXISTS; the statement is wrapped in an
	// OBJECT_ID check instead.
	MSSQL = Dialect{
		Name:       "mssql",
		quoteIdent: func(id string) string { return `[` + strings.ReplaceAll(id, `]`, `]]`) + `]` },
		mapType: func(t table.Type) string {
			switch t {
			case table.TypeInt:
				return "BIGINT"
			case table.TypeFloat:
				return "FLOAT"
			default:
				return "NVARCHAR(MAX)"
			}
		},
		guard: func(fqn, create string) string {
			lit := strings.ReplaceAll(fqn, "'", "''")
			return "IF OBJECT_ID(N'" + lit + "', N'U') IS NULL\nBEGIN\n" + create + "\nEND"
		},
	}

	// MySQL cannot index TEXT without a prefix length, so strings that may be
	// part of a key use VARCHAR.
	MySQL = Dialect{
		Name:       "mysql",
		quoteIdent: func(id string) string { return "`" + strings.ReplaceAll(id, "`", "``") + "`" },
		mapType: func(t table.Type) string {
			switch t {
			case table.TypeInt:
				return "BIGINT"
			case table.TypeFloat:
				return "DOUBLE"
			default:
				return "VARCHAR(512)"
			}
		},
		guard: ifNotExists,
	}
)
