package history

import (
	"context"
	"sync"

	"github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/agent/contract"
)

// MemoryStore keeps the last capacity entries in process.
type MemoryStore struct {
	mu       sync.RWMutex
	entries  []contract.HistoryEntry
	capacity int
}

var _ contract.HistoryStore = (*MemoryStore)(nil)

func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = 1000
	}
	return &MemoryStore{capacity: capacity}
}

func (s *MemoryStore) Record(_ context.Context, entry contract.HistoryEntry) error {
	entry.Tools = append([]string(nil), entry.Tools...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	if over := len(s.entries) - s.capacity; over > 0 {
		s.entries = append(s.entries[:0:0], s.entries[over:]...)
	}
	return nil
}

func (s *MemoryStore) Recent(_ context.Context, username string, limit int) ([]contract.HistoryEntry, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]contract.HistoryEntry, 0, limit)
	for i := len(s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if s.entries[i].Username == username {
			out = append(out, s.entries[i])
		}
	}
	return out, nil
}
