package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BenjaminSRussell/simplefetch/internal/types"
	_ "github.com/mattn/go-sqlite3"
)

// Index records every fetch attempt in SQLite for later querying
type Index struct {
	db *sql.DB
}

// OpenIndex opens or creates the index database at dbPath
func OpenIndex(dbPath string) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS fetches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		url TEXT NOT NULL,
		final_url TEXT,
		host TEXT,
		file_path TEXT,
		title TEXT,
		link_count INTEGER,
		image_count INTEGER,
		fetched_at INTEGER NOT NULL,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_fetches_url ON fetches(url);
	CREATE INDEX IF NOT EXISTS idx_fetches_run ON fetches(run_id);
	CREATE INDEX IF NOT EXISTS idx_fetches_fetched_at ON fetches(fetched_at);
	`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Index{db: db}, nil
}

// RecordFetch appends one attempt
func (i *Index) RecordFetch(result types.PageResult) error {
	query := `
		INSERT INTO fetches
		(run_id, url, final_url, host, file_path, title, link_count, image_count, fetched_at, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := i.db.Exec(query,
		result.RunID,
		result.URL,
		result.FinalURL,
		result.Host,
		result.FilePath,
		result.Title,
		result.LinkCount,
		result.ImageCount,
		result.FetchedAt.Unix(),
		result.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to record fetch: %w", err)
	}

	return nil
}

// RunStats returns the tally of one run
func (i *Index) RunStats(runID string) (types.Results, error) {
	var stats types.Results

	err := i.db.QueryRow(`
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN error = '' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN error != '' THEN 1 ELSE 0 END), 0)
		FROM fetches WHERE run_id = ?`, runID).Scan(&stats.Total, &stats.Success, &stats.Failure)
	if err != nil {
		return types.Results{}, err
	}

	return stats, nil
}

// Close closes the database connection
func (i *Index) Close() error {
	return i.db.Close()
}
