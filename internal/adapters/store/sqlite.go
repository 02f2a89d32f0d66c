// Package store persists bookmark records and capture batches in SQLite.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// SQLiteStore implements the record and batch ports of the use cases.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// Open initializes the database at dir/xknowledge.db.
// Tests pass t.TempDir() instead of the configured data directory.
func Open(dir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dir, "xknowledge.db")
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	_ = os.Chmod(dbPath, 0o600)

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func migrate(db *sql.DB) error {
	version, err := userVersion(db)
	if err != nil {
		return err
	}

	// 0 -> 1: records and capture batches
	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS capture_batches (
		  id            TEXT PRIMARY KEY,
		  source_url    TEXT,
		  payload_count INTEGER NOT NULL,
		  extracted     INTEGER NOT NULL,
		  inserted      INTEGER NOT NULL,
		  received_at   INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS records (
		  id             TEXT PRIMARY KEY,
		  author_name    TEXT NOT NULL,
		  author_handle  TEXT NOT NULL,
		  author_avatar  TEXT NOT NULL,
		  text           TEXT NOT NULL,
		  media_json     TEXT NOT NULL,
		  created_at     TEXT NOT NULL,
		  reply_count    INTEGER NOT NULL DEFAULT 0,
		  retweet_count  INTEGER NOT NULL DEFAULT 0,
		  like_count     INTEGER NOT NULL DEFAULT 0,
		  bookmark_count INTEGER NOT NULL DEFAULT 0,
		  analysis_json  TEXT,
		  captured_at    INTEGER NOT NULL,
		  batch_id       TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_records_captured
		ON records(captured_at DESC);

		CREATE INDEX IF NOT EXISTS idx_records_handle
		ON records(author_handle COLLATE NOCASE);

		CREATE INDEX IF NOT EXISTS idx_records_pending
		ON records(captured_at DESC)
		WHERE analysis_json IS NULL;
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := setUserVersion(db, 1); err != nil {
			return err
		}
	}

	return nil
}

func verifyWALMode(db *sql.DB) error {
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

func userVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

func setUserVersion(db *sql.DB, version int) error {
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version)); err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}
