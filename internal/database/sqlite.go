package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// SQLiteDriverName is the database/sql driver registered by mattn/go-sqlite3.
const SQLiteDriverName = "sqlite3"

// SQLiteDSN builds a go-sqlite3 connection string with WAL journaling,
// foreign keys and a busy timeout.
func SQLiteDSN(path string) string {
	params := url.Values{}
	params.Set("_journal_mode", "WAL")
	params.Set("_foreign_keys", "on")
	params.Set("_busy_timeout", "5000")
	return "file:" + path + "?" + params.Encode()
}

// OpenSQLite opens the SQLite store at path. The pool is limited to one
// connection so calls are serialized.
func OpenSQLite(ctx context.Context, path string, logger zerolog.Logger) (*sql.DB, error) {
	db, err := sql.Open(SQLiteDriverName, SQLiteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	logger.Info().Str("path", path).Msg("sqlite database opened")
	return db, nil
}
