package progress

import "sync"

// MemoryStore keeps progress in memory. Progress is lost when
// the process exits.
type MemoryStore struct {
	mu        sync.RWMutex
	completed map[string]map[string]bool
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		completed: make(map[string]map[string]bool),
	}
}

func (s *MemoryStore) MarkCompleted(lessonID, exerciseID string) error {
	if lessonID == "" || exerciseID == "" {
		return ErrInvalidKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	markIn(s.completed, lessonID, exerciseID)
	return nil
}

func (s *MemoryStore) IsCompleted(lessonID, exerciseID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.completed[lessonID][exerciseID]
}

func (s *MemoryStore) Completed(lessonID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.completed[lessonID])
}

func markIn(m map[string]map[string]bool, lessonID, exerciseID string) {
	set, ok := m[lessonID]
	if !ok {
		set = make(map[string]bool)
		m[lessonID] = set
	}
	set[exerciseID] = true
}
