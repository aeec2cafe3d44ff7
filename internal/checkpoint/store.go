// Package checkpoint persists, per tracked file and fingerprint strategy,
// the byte offset a line scanner has consumed up to, so a restart resumes
// instead of re-reading from the beginning.
package checkpoint

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// Store saves and loads per-file offsets.
type Store interface {
	// Save persists the offset for fileID under strategy, tagged with the
	// current run's ID.
	Save(fileID, strategy, path string, offset int64) error
	// Load retrieves the last saved offset for fileID under strategy.
	Load(fileID, strategy string) (int64, bool, error)
	// Delete removes a file's checkpoint, e.g. once it has rotated out.
	Delete(fileID, strategy string) error
	// RunID returns the identifier this Store instance stamps onto every
	// Save call, distinguishing concurrent or successive process runs.
	RunID() string
	Close() error
}

type sqliteStore struct {
	db    *sql.DB
	runID string
}

func isBusyError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "SQLITE_BUSY") || strings.Contains(err.Error(), "database is locked")
}

func (s *sqliteStore) execWithRetry(query string, args ...any) (sql.Result, error) {
	var (
		res sql.Result
		err error
	)
	for attempt := 0; attempt < 5; attempt++ {
		res, err = s.db.Exec(query, args...)
		if err == nil {
			return res, nil
		}
		if !isBusyError(err) {
			return nil, err
		}
		time.Sleep(time.Duration(50*(attempt+1)) * time.Millisecond)
	}
	return nil, err
}

// Open creates (or reopens) a SQLite-backed Store at dbPath, running
// migrations and minting a fresh run ID for this process.
func Open(dbPath string) (Store, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory for database: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, _ = db.Exec("PRAGMA busy_timeout = 2000")
	_, _ = db.Exec("PRAGMA journal_mode = WAL")

	initMigrations()
	if err := goose.SetDialect("sqlite3"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set dialect: %w", err)
	}
	goose.SetTableName("linescan_db_version")

	if err := goose.Up(db, "migrations"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &sqliteStore{db: db, runID: uuid.NewString()}, nil
}

func (s *sqliteStore) RunID() string { return s.runID }

func (s *sqliteStore) Save(fileID, strategy, path string, offset int64) error {
	_, err := s.execWithRetry(
		`INSERT INTO offsets (id, strategy, path, offset, run_id, updated_at)
		 VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(id, strategy) DO UPDATE SET
		 offset = excluded.offset,
		 path = excluded.path,
		 run_id = excluded.run_id,
		 updated_at = CURRENT_TIMESTAMP`,
		fileID, strategy, path, offset, s.runID)
	if err != nil {
		return fmt.Errorf("failed to save offset: %w", err)
	}
	return nil
}

func (s *sqliteStore) Load(fileID, strategy string) (int64, bool, error) {
	row := s.db.QueryRow(`SELECT offset FROM offsets WHERE id = ? AND strategy = ?`, fileID, strategy)

	var offset int64
	if err := row.Scan(&offset); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to load offset: %w", err)
	}
	return offset, true, nil
}

func (s *sqliteStore) Delete(fileID, strategy string) error {
	_, err := s.execWithRetry(`DELETE FROM offsets WHERE id = ? AND strategy = ?`, fileID, strategy)
	if err != nil {
		return fmt.Errorf("failed to delete offset: %w", err)
	}
	return nil
}

func (s *sqliteStore) Close() error { return s.db.Close() }
