package usage

import (
	"context"
	"sync"
)

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]Record
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]Record)}
}

func (s *MemoryStore) Get(ctx context.Context, userID string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	s.mu.RLock()
	rec, ok := s.data[userID]
	s.mu.RUnlock()
	if !ok {
		return Record{}, ErrRecordNotFound
	}
	return rec.Clone(), nil
}

func (s *MemoryStore) Update(ctx context.Context, userID string, fn Mutator) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.data[userID]
	rec := current.Clone()
	write, err := fn(&rec, exists)
	if err != nil {
		return Record{}, err
	}
	if !write {
		return rec, nil
	}
	rec.UserID = userID
	s.data[userID] = rec.Clone()
	return rec, nil
}
