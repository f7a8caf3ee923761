package progress

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// fileFormat is the on-disk layout of a FileStore: completed
// exercise IDs keyed by lesson ID.
type fileFormat struct {
	Version   int                 `json:"version"`
	Completed map[string][]string `json:"completed"`
}

// FileStore persists progress as a JSON file. Every change
// rewrites the whole file through a temporary file and a rename,
// so readers never observe a partial write.
type FileStore struct {
	mu        sync.RWMutex
	path      string
	completed map[string]map[string]bool
}

var _ Store = (*FileStore)(nil)

// OpenFileStore loads the progress file at path. A missing file
// yields an empty store; it is created on the first change.
func OpenFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		path:      path,
		completed: make(map[string]map[string]bool),
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read progress file %s: %w", path, err)
	}

	var f fileFormat
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse progress file %s: %w", path, err)
	}
	for lesson, ids := range f.Completed {
		for _, id := range ids {
			markIn(s.completed, lesson, id)
		}
	}
	return s, nil
}

// Path returns the file backing the store.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) MarkCompleted(lessonID, exerciseID string) error {
	if lessonID == "" || exerciseID == "" {
		return ErrInvalidKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.completed[lessonID][exerciseID] {
		return nil
	}
	markIn(s.completed, lessonID, exerciseID)
	if err := s.save(); err != nil {
		delete(s.completed[lessonID], exerciseID)
		return err
	}
	return nil
}

func (s *FileStore) IsCompleted(lessonID, exerciseID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.completed[lessonID][exerciseID]
}

func (s *FileStore) Completed(lessonID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.completed[lessonID])
}

// save writes the store. Callers hold s.mu.
func (s *FileStore) save() error {
	f := fileFormat{
		Version:   1,
		Completed: make(map[string][]string, len(s.completed)),
	}
	for lesson, set := range s.completed {
		if len(set) > 0 {
			f.Completed[lesson] = sortedKeys(set)
		}
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create progress directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".progress-*.json")
	if err != nil {
		return fmt.Errorf("create temp progress file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write progress: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close progress: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace progress file: %w", err)
	}
	return nil
}
