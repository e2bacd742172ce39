package dbclient

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"maileditor/internal/domain"
)

// Store is a remote template store: the domain contract plus connection
// lifecycle.
type Store interface {
	domain.TemplateStore

	// Ping verifies connectivity.
	Ping(ctx context.Context) error

	// Migrate creates the templates table or collection indexes if missing.
	Migrate(ctx context.Context) error

	Close() error
}

// NewTemplateStore opens a template store for the given connection.
// The password is provided separately (env or keychain).
func NewTemplateStore(conn *domain.DatabaseConnection, password string, log zerolog.Logger) (Store, error) {
	log = log.With().Str("driver", string(conn.Driver)).Str("db", conn.Name).Logger()
	switch conn.Driver {
	case domain.DatabaseDriverSQLite:
		return newSQLStore(sqliteDialect, sqliteDSN(conn), log)
	case domain.DatabaseDriverMySQL:
		return newSQLStore(mysqlDialect, buildMySQLDSN(conn, password), log)
	case domain.DatabaseDriverPostgres:
		return newSQLStore(postgresDialect, buildPostgresDSN(conn, password), log)
	case domain.DatabaseDriverMongoDB:
		return newMongoStore(conn, password, log)
	default:
		return nil, &domain.ValidationError{Field: "driver", Message: fmt.Sprintf("unsupported driver: %s", conn.Driver)}
	}
}
