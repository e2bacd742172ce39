package domain

// DatabaseDriver represents the engine a template store persists to.
type DatabaseDriver string

const (
	DatabaseDriverMySQL    DatabaseDriver = "mysql"
	DatabaseDriverPostgres DatabaseDriver = "postgres"
	DatabaseDriverMongoDB  DatabaseDriver = "mongodb"
	DatabaseDriverSQLite   DatabaseDriver = "sqlite"
)

// DatabaseConnection holds the metadata for connecting to a template database.
// The password is resolved separately (env or keychain).
type DatabaseConnection struct {
	Name     string         `json:"name"`
	Driver   DatabaseDriver `json:"driver"`
	Host     string         `json:"host"`     // hostname, or a full mongodb:// URI
	Port     int            `json:"port"`     // 0 selects the driver default
	Database string         `json:"database"` // db name
	Username string         `json:"username"`
	SSLMode  string         `json:"sslMode"`
}
