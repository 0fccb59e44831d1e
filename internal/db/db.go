package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hpungsan/pulse/internal/config"
	_ "modernc.org/sqlite"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// Init initializes the SQLite database at baseDir/pulse.db.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.pulse.
func Init(baseDir string) (*sql.DB, error) {
	// Create base directory with restricted permissions
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	// Explicit chmod (best-effort, may not work on all platforms)
	_ = os.Chmod(baseDir, 0700)

	// Open database with pragmas in connection string (applies to all connections)
	dbPath := filepath.Join(baseDir, "pulse.db")
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify WAL mode is active
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
		CREATE TABLE IF NOT EXISTS documents (
		  id                TEXT PRIMARY KEY,
		  title             TEXT NOT NULL,
		  description       TEXT NOT NULL DEFAULT '',
		  duration_seconds  INTEGER NOT NULL DEFAULT 0,
		  published_at      INTEGER NOT NULL DEFAULT 0,
		  view_count        INTEGER NOT NULL DEFAULT 0,
		  like_count        INTEGER NOT NULL DEFAULT 0,
		  thumbnail_url     TEXT NOT NULL DEFAULT '',
		  raw_payload       TEXT NOT NULL DEFAULT '',
		  transcript_status TEXT NOT NULL DEFAULT 'pending',
		  transcript_error  TEXT,
		  created_at        INTEGER NOT NULL,
		  updated_at        INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_documents_status
		ON documents(transcript_status, published_at DESC);

		CREATE TABLE IF NOT EXISTS transcripts (
		  document_id TEXT PRIMARY KEY REFERENCES documents(id) ON DELETE CASCADE,
		  full_text   TEXT NOT NULL,
		  language    TEXT NOT NULL DEFAULT 'en',
		  confidence  REAL NOT NULL DEFAULT 0,
		  word_count  INTEGER NOT NULL DEFAULT 0,
		  created_at  INTEGER NOT NULL,
		  updated_at  INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS transcript_segments (
		  document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		  seq         INTEGER NOT NULL,
		  start_time  REAL NOT NULL,
		  end_time    REAL NOT NULL,
		  text        TEXT NOT NULL,
		  PRIMARY KEY (document_id, seq),
		  CHECK (end_time >= start_time)
		);

		CREATE TABLE IF NOT EXISTS topics (
		  id            INTEGER PRIMARY KEY,
		  name          TEXT NOT NULL UNIQUE,
		  description   TEXT NOT NULL DEFAULT '',
		  keywords_json TEXT NOT NULL DEFAULT '[]'
		);

		CREATE TABLE IF NOT EXISTS acquisition_jobs (
		  id          TEXT PRIMARY KEY,
		  kind        TEXT NOT NULL,
		  requested   INTEGER NOT NULL DEFAULT 0,
		  succeeded   INTEGER NOT NULL DEFAULT 0,
		  skipped     INTEGER NOT NULL DEFAULT 0,
		  unavailable INTEGER NOT NULL DEFAULT 0,
		  failed      INTEGER NOT NULL DEFAULT 0,
		  words       INTEGER NOT NULL DEFAULT 0,
		  started_at  INTEGER NOT NULL,
		  finished_at INTEGER
		);

		CREATE VIRTUAL TABLE IF NOT EXISTS documents_fts USING fts5(
		  doc_id UNINDEXED,
		  title,
		  description,
		  transcript,
		  tokenize = 'porter unicode61'
		);
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
