package dbclient

import (
	"fmt"
	"strconv"

	"maileditor/internal/domain"

	_ "github.com/lib/pq"
)

var postgresDialect = dialect{
	driver:      "postgres",
	placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	upsert: `ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name,
		subject = EXCLUDED.subject,
		block_count = EXCLUDED.block_count,
		document_json = EXCLUDED.document_json,
		updated_at = EXCLUDED.updated_at`,
	createTable: `CREATE TABLE IF NOT EXISTS email_templates (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		subject TEXT NOT NULL DEFAULT '',
		block_count INTEGER NOT NULL DEFAULT 0,
		document_json TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
}

// buildPostgresDSN constructs a Postgres connection string from a DatabaseConnection.
func buildPostgresDSN(conn *domain.DatabaseConnection, password string) string {
	port := conn.Port
	if port == 0 {
		port = 5432
	}
	sslMode := conn.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		conn.Host, port, conn.Username, password, conn.Database, sslMode,
	)
}
