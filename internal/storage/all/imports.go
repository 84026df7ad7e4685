// Package all registers every built-in storage backend with the storage
// factory. Import it for side effects:
//
//	import _ "evstar/internal/storage/all"
//
// Kinds made available: csv, sqlite, postgres, mssql, mysql.
package all

import (
	_ "evstar/internal/storage/csvfile"
	_ "evstar/internal/storage/mssql"
	_ "evstar/internal/storage/mysql"
	_ "evstar/internal/storage/postgres"
	_ "evstar/internal/storage/sqlite"
)
