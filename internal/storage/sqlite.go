package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/ncruces/go-sqlite3/driver" // SQLite driver (pure Go)
	_ "github.com/ncruces/go-sqlite3/embed"  // Embed SQLite WASM binary

	"github.com/voidtab/voidtab/internal/logging"
)

const kvSchema = `
CREATE TABLE IF NOT EXISTS kv (
	area  TEXT NOT NULL,
	key   TEXT NOT NULL,
	value BLOB NOT NULL,
	updated_at INTEGER NOT NULL DEFAULT (unixepoch()),
	PRIMARY KEY (area, key)
);
`

// SQLiteKV stores both areas in a single database file. It cannot observe
// writes from other processes, so OnChanged is a no-op, mirroring the
// optionality of the change feed in the storage port.
type SQLiteKV struct {
	db *sql.DB
}

// NewSQLiteKV opens (creating if needed) the sqlite-backed storage.
func NewSQLiteKV(ctx context.Context, dbPath string) (*SQLiteKV, error) {
	const dbDirPerm = 0o750
	log := logging.FromContext(ctx)

	if dbPath == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), dbDirPerm); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection avoids lock contention; this store sees very
	// few concurrent queries.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	if _, err := db.ExecContext(ctx, kvSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create kv schema: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("storage database opened")

	return &SQLiteKV{db: db}, nil
}

// Get returns the stored value for key in the given area.
func (kv *SQLiteKV) Get(ctx context.Context, key string, area Area) ([]byte, bool, error) {
	var value []byte
	err := kv.db.QueryRowContext(ctx,
		"SELECT value FROM kv WHERE area = ? AND key = ?", string(area), key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s/%s: %w", area, key, err)
	}
	return value, true, nil
}

// Set stores value under key in the given area.
func (kv *SQLiteKV) Set(ctx context.Context, key string, value []byte, area Area) error {
	_, err := kv.db.ExecContext(ctx, `
		INSERT INTO kv (area, key, value, updated_at) VALUES (?, ?, ?, unixepoch())
		ON CONFLICT (area, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		string(area), key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to write %s/%s: %w", area, key, err)
	}
	return nil
}

// Remove deletes key from the given area.
func (kv *SQLiteKV) Remove(ctx context.Context, key string, area Area) error {
	if _, err := kv.db.ExecContext(ctx,
		"DELETE FROM kv WHERE area = ? AND key = ?", string(area), key,
	); err != nil {
		return fmt.Errorf("failed to remove %s/%s: %w", area, key, err)
	}
	return nil
}

// OnChanged returns a no-op unsubscribe; sqlite storage has no external
// change feed.
func (kv *SQLiteKV) OnChanged(ChangeHandler) (func(), error) {
	return func() {}, nil
}

// Close closes the database.
func (kv *SQLiteKV) Close() error {
	return kv.db.Close()
}
