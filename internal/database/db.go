package database

import (
	"context"
	"database/sql"
	"log/slog"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// DB wraps the sql.DB connection
type DB struct {
	Conn   *sql.DB
	Driver string
}

// New opens a connection for driver ("sqlite3" or "postgres") and runs migrations
func New(ctx context.Context, driver, dsn string, log *slog.Logger) (*DB, error) {
	if log == nil {
		log = slog.Default()
	}
	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	if driver == "sqlite3" {
		// one writer at a time keeps sqlite from returning SQLITE_BUSY
		conn.SetMaxOpenConns(1)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}

	db := &DB{Conn: conn, Driver: driver}

	if err := db.runMigrations(ctx); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "failed to run migrations")
	}

	log.Info("database initialized", slog.String("driver", driver))
	return db, nil
}

// runMigrations creates the document and blob tables
func (db *DB) runMigrations(ctx context.Context) error {
	blobType := "BLOB"
	if db.Driver == "postgres" {
		blobType = "BYTEA"
	}
	schema := `
CREATE TABLE IF NOT EXISTS documents (
    collection TEXT NOT NULL,
    id TEXT NOT NULL,
    owner_id TEXT NOT NULL,
    data TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (collection, id)
);

CREATE INDEX IF NOT EXISTS idx_documents_owner ON documents(collection, owner_id);

CREATE TABLE IF NOT EXISTS blobs (
    path TEXT PRIMARY KEY,
    content_type TEXT NOT NULL,
    data ` + blobType + ` NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
`
	if _, err := db.Conn.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "failed to execute schema")
	}
	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.Conn.Close()
}
