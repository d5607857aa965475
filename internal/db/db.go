package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/snagforge/snag/internal/config"
	_ "modernc.org/sqlite"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// Init initializes the SQLite database at baseDir/snag.db.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.snag.
func Init(baseDir string) (*sql.DB, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	// Explicit chmod (best-effort, may not work on all platforms)
	_ = os.Chmod(baseDir, 0700)

	// Open database with pragmas in connection string (applies to all connections)
	dbPath := filepath.Join(baseDir, "snag.db")
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}

	// Run migrations (this creates the file if it doesn't exist)
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	// Set file permissions after file exists (best-effort)
	_ = os.Chmod(dbPath, 0600)

	return db, nil
}

// ConfigurePool applies connection pool settings from config.
// Only sets limits if explicitly configured (non-zero values).
func ConfigurePool(db *sql.DB, cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.DBMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}

	// Migration 0 -> 1: Initial schema (v1)
	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS sessions (
		  id                    TEXT PRIMARY KEY,
		  status                TEXT NOT NULL CHECK(status IN ('active','ended','reviewed','synced')),
		  started_at            INTEGER NOT NULL,
		  ended_at              INTEGER,
		  folder_path           TEXT NOT NULL,
		  notes                 TEXT NOT NULL DEFAULT '',
		  original_capture_path TEXT,
		  bug_seq               INTEGER NOT NULL DEFAULT 0
		);

		-- Storage-level guarantee that at most one session is active.
		CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_single_active
		ON sessions(status)
		WHERE status = 'active';

		CREATE TABLE IF NOT EXISTS bugs (
		  id          TEXT PRIMARY KEY,
		  session_id  TEXT NOT NULL REFERENCES sessions(id),
		  seq         INTEGER NOT NULL,
		  display_id  TEXT NOT NULL,
		  type        TEXT NOT NULL CHECK(type IN ('bug','feature','feedback')),
		  status      TEXT NOT NULL CHECK(status IN ('capturing','captured','reviewed','ready')),
		  notes       TEXT NOT NULL DEFAULT '',
		  description TEXT NOT NULL DEFAULT '',
		  folder_path TEXT NOT NULL,
		  created_at  INTEGER NOT NULL,
		  updated_at  INTEGER NOT NULL,
		  UNIQUE(session_id, seq)
		);

		-- Storage-level guarantee that at most one bug per session is capturing.
		CREATE UNIQUE INDEX IF NOT EXISTS idx_bugs_single_capturing
		ON bugs(session_id)
		WHERE status = 'capturing';

		CREATE INDEX IF NOT EXISTS idx_bugs_session
		ON bugs(session_id, seq);

		CREATE TABLE IF NOT EXISTS captures (
		  id         TEXT PRIMARY KEY,
		  session_id TEXT NOT NULL REFERENCES sessions(id),
		  bug_id     TEXT REFERENCES bugs(id),
		  file_path  TEXT NOT NULL,
		  file_type  TEXT NOT NULL CHECK(file_type IN ('screenshot','video')),
		  created_at INTEGER NOT NULL,
		  is_console INTEGER NOT NULL DEFAULT 0,
		  UNIQUE(session_id, file_path)
		);

		CREATE INDEX IF NOT EXISTS idx_captures_bug
		ON captures(bug_id)
		WHERE bug_id IS NOT NULL;

		CREATE INDEX IF NOT EXISTS idx_captures_unsorted
		ON captures(session_id)
		WHERE bug_id IS NULL;
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := SetUserVersion(db, 1); err != nil {
			return err
		}
	}

	// Future migrations go here:
	// if version < 2 { ... }

	return nil
}

// verifyWALMode checks that WAL mode is active (set via connection string).
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

// GetUserVersion returns the current schema version (user_version pragma).
func GetUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion sets the schema version (user_version pragma).
func SetUserVersion(db *sql.DB, version int) error {
	_, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version))
	if err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}
