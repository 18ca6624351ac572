// Package storage persists counseling records as JSON files.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/theramind/theramind/pkg/types"
)

var (
	ErrNotFound = errors.New("record not found")
)

// Store keeps one JSON file per counseling record under a base directory.
// Writes are atomic (temp file then rename) and guarded by a per-file flock
// so concurrent processes cannot interleave partial records.
type Store struct {
	dir   string
	mu    sync.Mutex
	locks map[string]*FileLock
}

// New creates a Store rooted at dir.
func New(dir string) *Store {
	return &Store{
		dir:   dir,
		locks: make(map[string]*FileLock),
	}
}

// Dir returns the base directory.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) recordPath(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// SaveRecord writes a counseling record durably. The record file is replaced
// in a single rename so readers never observe a partial write.
func (s *Store) SaveRecord(ctx context.Context, rec *types.CounselingRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("record has no id")
	}
	path := s.recordPath(rec.ID)

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create records directory: %w", err)
	}

	lock := s.getLock(path)
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	defer lock.Unlock()

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename file: %w", err)
	}

	return nil
}

// LoadRecord reads a counseling record by id.
func (s *Store) LoadRecord(ctx context.Context, id string) (*types.CounselingRecord, error) {
	data, err := os.ReadFile(s.recordPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read record: %w", err)
	}

	var rec types.CounselingRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	if rec.ID == "" {
		rec.ID = id
	}
	return &rec, nil
}

// ListRecords returns the ids of all stored records, newest first. Record
// ids embed their creation timestamp so lexical order is chronological.
func (s *Store) ListRecords(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read records directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))
	return ids, nil
}

// LatestRecord loads the most recently created record, or ErrNotFound when
// the store is empty.
func (s *Store) LatestRecord(ctx context.Context) (*types.CounselingRecord, error) {
	ids, err := s.ListRecords(ctx)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, ErrNotFound
	}
	return s.LoadRecord(ctx, ids[0])
}

// DeleteRecord removes a stored record. Deleting a missing record is not an
// error.
func (s *Store) DeleteRecord(ctx context.Context, id string) error {
	path := s.recordPath(id)

	lock := s.getLock(path)
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	defer lock.Unlock()

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}

// Exists reports whether a record with the given id is stored.
func (s *Store) Exists(ctx context.Context, id string) bool {
	_, err := os.Stat(s.recordPath(id))
	return err == nil
}

// getLock returns the file lock for a path.
func (s *Store) getLock(path string) *FileLock {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[path]
	if !ok {
		lock = NewFileLock(path)
		s.locks[path] = lock
	}
	return lock
}
