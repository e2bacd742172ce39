package dbclient

import (
	"fmt"

	"maileditor/internal/domain"

	_ "github.com/go-sql-driver/mysql"
)

var mysqlDialect = dialect{
	driver:      "mysql",
	placeholder: func(int) string { return "?" },
	upsert: `ON DUPLICATE KEY UPDATE
		name = VALUES(name),
		subject = VALUES(subject),
		block_count = VALUES(block_count),
		document_json = VALUES(document_json),
		updated_at = VALUES(updated_at)`,
	createTable: `CREATE TABLE IF NOT EXISTS email_templates (
		id VARCHAR(64) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		subject VARCHAR(998) NOT NULL DEFAULT '',
		block_count INT NOT NULL DEFAULT 0,
		document_json LONGTEXT NOT NULL,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL
	) CHARACTER SET utf8mb4`,
}

// buildMySQLDSN constructs a MySQL DSN from a DatabaseConnection.
func buildMySQLDSN(conn *domain.DatabaseConnection, password string) string {
	port := conn.Port
	if port == 0 {
		port = 3306
	}
	// user:password@tcp(host:port)/dbname?parseTime=true
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
		conn.Username, password, conn.Host, port, conn.Database,
	)
	if conn.SSLMode == "require" {
		dsn += "&tls=true"
	}
	return dsn
}
