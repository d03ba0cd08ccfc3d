// Package store persists the build index: a content-hash record per page
// for incremental builds, plus the history of build runs.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store manages the folio build index database.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// PageRecord is one indexed content page.
type PageRecord struct {
	SourcePath  string
	Permalink   string
	Title       string
	Layout      string
	ContentHash string
	UpdatedAt   time.Time
}

// BuildRecord is one build run.
type BuildRecord struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Built      int
	Skipped    int
	Failed     int
}

// NewStore creates or opens the build index at dbPath.
func NewStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// initSchema creates the database schema.
func (s *Store) initSchema() error {
	schema := `
	-- Page index table
	CREATE TABLE IF NOT EXISTS pages (
		source_path TEXT PRIMARY KEY,
		permalink TEXT NOT NULL,
		title TEXT,
		layout TEXT,
		content_hash TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_pages_permalink ON pages(permalink);

	-- Build history table
	CREATE TABLE IF NOT EXISTS builds (
		id TEXT PRIMARY KEY,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		pages_built INTEGER NOT NULL,
		pages_skipped INTEGER NOT NULL,
		pages_failed INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_builds_started ON builds(started_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// UpsertPage records or refreshes one page index entry.
func (s *Store) UpsertPage(rec PageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(`
		INSERT INTO pages (source_path, permalink, title, layout, content_hash, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_path) DO UPDATE SET
			permalink = excluded.permalink,
			title = excluded.title,
			layout = excluded.layout,
			content_hash = excluded.content_hash,
			updated_at = excluded.updated_at`,
		rec.SourcePath, rec.Permalink, rec.Title, rec.Layout, rec.ContentHash, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert page %s: %w", rec.SourcePath, err)
	}
	return nil
}

// HashFor returns the recorded content hash for a source path.
// The second return is false when the page has never been indexed.
func (s *Store) HashFor(sourcePath string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var hash string
	err := s.db.QueryRow(`SELECT content_hash FROM pages WHERE source_path = ?`, sourcePath).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query hash for %s: %w", sourcePath, err)
	}
	return hash, true, nil
}

// SourceForPermalink returns which source file owns a permalink, if any.
func (s *Store) SourceForPermalink(permalink string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var src string
	err := s.db.QueryRow(`SELECT source_path FROM pages WHERE permalink = ?`, permalink).Scan(&src)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query permalink %s: %w", permalink, err)
	}
	return src, true, nil
}

// DeletePage removes a page from the index, e.g. after its source file
// is deleted.
func (s *Store) DeletePage(sourcePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`DELETE FROM pages WHERE source_path = ?`, sourcePath)
	if err != nil {
		return fmt.Errorf("failed to delete page %s: %w", sourcePath, err)
	}
	return nil
}

// Pages returns every indexed page ordered by permalink.
func (s *Store) Pages() ([]PageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT source_path, permalink, title, layout, content_hash, updated_at
		FROM pages ORDER BY permalink`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	defer rows.Close()

	var out []PageRecord
	for rows.Next() {
		var rec PageRecord
		if err := rows.Scan(&rec.SourcePath, &rec.Permalink, &rec.Title, &rec.Layout, &rec.ContentHash, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan page row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// RecordBuild appends one build run to the history.
func (s *Store) RecordBuild(b BuildRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO builds (id, started_at, finished_at, pages_built, pages_skipped, pages_failed)
		VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.StartedAt, b.FinishedAt, b.Built, b.Skipped, b.Failed)
	if err != nil {
		return fmt.Errorf("failed to record build %s: %w", b.ID, err)
	}
	return nil
}

// RecentBuilds returns the most recent build runs, newest first.
func (s *Store) RecentBuilds(limit int) ([]BuildRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, started_at, finished_at, pages_built, pages_skipped, pages_failed
		FROM builds ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list builds: %w", err)
	}
	defer rows.Close()

	var out []BuildRecord
	for rows.Next() {
		var b BuildRecord
		if err := rows.Scan(&b.ID, &b.StartedAt, &b.FinishedAt, &b.Built, &b.Skipped, &b.Failed); err != nil {
			return nil, fmt.Errorf("failed to scan build row: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
