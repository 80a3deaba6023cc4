package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/glebarez/go-sqlite"
)

// ErrStorageUnavailable wraps any cache read/write failure. Callers treat it
// as non-fatal: a fetch proceeds without caching rather than aborting.
var ErrStorageUnavailable = errors.New("storage unavailable")

// Run is one completed research run.
type Run struct {
	ID        int64
	Query     string
	Report    string
	CreatedAt time.Time
}

// Store persists fetched page content and completed runs in a single
// sqlite database. Content rows are keyed by URL and never expire.
type Store struct {
	DB *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	queries := []string{
		`CREATE TABLE IF NOT EXISTS cache (
			url TEXT PRIMARY KEY,
			content TEXT,
			fetched_at REAL
		);`,
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			query TEXT,
			report TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
	}
	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return nil, err
		}
	}

	return &Store{DB: db}, nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}

// GetContent returns the cached page text for url, or ok=false when absent.
func (s *Store) GetContent(url string) (string, bool, error) {
	var content string
	err := s.DB.QueryRow(`SELECT content FROM cache WHERE url = ?`, url).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return content, true, nil
}

// SetContent upserts the row for url with the current time. A re-fetch
// overwrites the prior entry; there is exactly one row per URL.
func (s *Store) SetContent(url, content string) error {
	_, err := s.DB.Exec(
		`INSERT OR REPLACE INTO cache (url, content, fetched_at) VALUES (?, ?, ?)`,
		url, content, float64(time.Now().UnixNano())/1e9,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// AddRun records a completed research run.
func (s *Store) AddRun(query, report string) error {
	_, err := s.DB.Exec(`INSERT INTO runs (query, report) VALUES (?, ?)`, query, report)
	return err
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(limit int) ([]Run, error) {
	rows, err := s.DB.Query(
		`SELECT id, query, report, created_at FROM runs ORDER BY created_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Query, &r.Report, &r.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
