package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Entry is the persisted state of one URL
type Entry struct {
	LastFetchedAt int64 `json:"last_fetched_at"`
}

// Record maps a URL to its entry
type Record map[string]Entry

// Store reads and rewrites the history file. It is not safe for use by
// concurrent processes; the whole file is replaced on every save.
type Store struct {
	path string
}

// New creates a store backed by the JSON file at path
func New(path string) *Store {
	return &Store{path: path}
}

// Check fails when the path exists but is not a regular file
func (s *Store) Check() error {
	info, err := os.Stat(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat history file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("history data file is NOT a file. path:%s", s.path)
	}
	return nil
}

// Load reads the history file. A missing file yields an empty record.
func (s *Store) Load() (Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Record{}, nil
		}
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}

	record := Record{}
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal history file: %w", err)
	}
	if record == nil {
		record = Record{}
	}

	return record, nil
}

// Save replaces the history file with record
func (s *Store) Save(record Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp history file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace history file: %w", err)
	}

	return nil
}

// RecordFetch stores at as the last fetch time of url and returns the
// previous one. seen is false on the first visit. Nothing is written when
// the existing file cannot be read.
func (s *Store) RecordFetch(url string, at time.Time) (prev time.Time, seen bool, err error) {
	record, err := s.Load()
	if err != nil {
		return time.Time{}, false, err
	}

	if entry, ok := record[url]; ok {
		prev, seen = time.Unix(entry.LastFetchedAt, 0), true
	}

	record[url] = Entry{LastFetchedAt: at.Unix()}
	if err := s.Save(record); err != nil {
		return time.Time{}, false, err
	}

	return prev, seen, nil
}

// LastFetched returns the recorded fetch time of url
func (s *Store) LastFetched(url string) (time.Time, bool, error) {
	record, err := s.Load()
	if err != nil {
		return time.Time{}, false, err
	}

	entry, ok := record[url]
	if !ok {
		return time.Time{}, false, nil
	}
	return time.Unix(entry.LastFetchedAt, 0), true, nil
}
