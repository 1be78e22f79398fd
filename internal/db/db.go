package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// Open opens the DB at path, creates dir if needed, runs migrations.
func Open(path string) (*sql.DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			return nil, fmt.Errorf("ping failed: %v, close failed: %w", err, closeErr)
		}
		return nil, err
	}
	if err := migrate(conn); err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			return nil, fmt.Errorf("migrate failed: %v, close failed: %w", err, closeErr)
		}
		return nil, err
	}
	return conn, nil
}

func migrate(conn *sql.DB) error {
	if _, err := conn.Exec(schema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	if err := migrateArchives(conn); err != nil {
		return fmt.Errorf("migrate archives: %w", err)
	}
	if err := migrateUploads(conn); err != nil {
		return fmt.Errorf("migrate uploads: %w", err)
	}
	return nil
}

func migrateArchives(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE TABLE IF NOT EXISTS archives (
			sha256 TEXT PRIMARY KEY,
			storage_path TEXT NOT NULL,
			source_path TEXT NOT NULL,
			byte_len INTEGER NOT NULL,
			compression TEXT DEFAULT 'zstd',
			created_at REAL NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_archives_source ON archives(source_path);
	`)
	return err
}

func migrateUploads(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE TABLE IF NOT EXISTS uploads (
			upload_id INTEGER PRIMARY KEY AUTOINCREMENT,
			key TEXT NOT NULL,
			remote TEXT NOT NULL,
			source_path TEXT NOT NULL,
			byte_len INTEGER NOT NULL,
			encrypted INTEGER NOT NULL DEFAULT 0,
			created_at REAL NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_uploads_key ON uploads(key);
	`)
	return err
}

const schema = `
PRAGMA journal_mode=WAL;

CREATE TABLE IF NOT EXISTS runs (
  run_id TEXT PRIMARY KEY,
  input_path TEXT NOT NULL,
  output_path TEXT NOT NULL,
  topics_json TEXT NOT NULL,
  start_sec INTEGER NOT NULL,
  start_nsec INTEGER NOT NULL,
  end_sec INTEGER NOT NULL,
  end_nsec INTEGER NOT NULL,
  status TEXT NOT NULL,
  error TEXT,
  elapsed_ms INTEGER NOT NULL,
  size_before INTEGER NOT NULL,
  size_after INTEGER NOT NULL,
  created_at REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
CREATE INDEX IF NOT EXISTS idx_runs_input ON runs(input_path);
`
