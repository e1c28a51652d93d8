package database

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Open connects to the database named by dsn. postgres:// and postgresql://
// URLs use lib/pq; sqlite:// URLs, file: URIs and ":memory:" use the pure-Go
// sqlite driver.
func Open(dsn string) (*sqlx.DB, error) {
	driver, source, err := driverFor(dsn)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Connect(driver, source)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "sqlite" {
		// an in-memory database exists per connection
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

func driverFor(dsn string) (string, string, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "postgres", dsn, nil
	case strings.HasPrefix(dsn, "sqlite://"):
		return "sqlite", strings.TrimPrefix(dsn, "sqlite://"), nil
	case strings.HasPrefix(dsn, "file:"), dsn == ":memory:":
		return "sqlite", dsn, nil
	default:
		return "", "", fmt.Errorf("unsupported database url %q", dsn)
	}
}
