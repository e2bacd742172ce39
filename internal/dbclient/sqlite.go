package dbclient

import (
	"maileditor/internal/domain"

	_ "modernc.org/sqlite"
)

var sqliteDialect = dialect{
	driver:      "sqlite",
	placeholder: func(int) string { return "?" },
	upsert:      postgresDialect.upsert,
	createTable: `CREATE TABLE IF NOT EXISTS email_templates (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		subject TEXT NOT NULL DEFAULT '',
		block_count INTEGER NOT NULL DEFAULT 0,
		document_json TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
}

// sqliteDSN opens an external SQLite file, e.g. a shared template library.
func sqliteDSN(conn *domain.DatabaseConnection) string {
	return conn.Host + "?_journal_mode=WAL&_busy_timeout=5000"
}
