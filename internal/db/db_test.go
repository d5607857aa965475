package db

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInit_CreatesDatabase(t *testing.T) {
	tmpDir := t.TempDir()

	database, err := Init(tmpDir)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer database.Close()

	if _, err := os.Stat(filepath.Join(tmpDir, "snag.db")); err != nil {
		t.Errorf("database file not created: %v", err)
	}

	version, err := GetUserVersion(database)
	if err != nil {
		t.Fatalf("GetUserVersion failed: %v", err)
	}
	if version != CurrentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, CurrentSchemaVersion)
	}
}

func TestInit_WALMode(t *testing.T) {
	tmpDir := t.TempDir()

	database, err := Init(tmpDir)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer database.Close()

	var mode string
	if err := database.QueryRow("PRAGMA journal_mode;").Scan(&mode); err != nil {
		t.Fatalf("journal_mode query failed: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want %q", mode, "wal")
	}
}

func TestInit_Idempotent(t *testing.T) {
	tmpDir := t.TempDir()

	database, err := Init(tmpDir)
	if err != nil {
		t.Fatalf("first Init failed: %v", err)
	}
	database.Close()

	// Re-opening an existing database must not re-run migrations
	database, err = Init(tmpDir)
	if err != nil {
		t.Fatalf("second Init failed: %v", err)
	}
	defer database.Close()

	version, err := GetUserVersion(database)
	if err != nil {
		t.Fatalf("GetUserVersion failed: %v", err)
	}
	if version != CurrentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, CurrentSchemaVersion)
	}
}
