package knowledge

import (
	"context"
	"sync"
)

// MemoryStore keeps documents in process memory; they are lost on restart.
type MemoryStore struct {
	mu   sync.RWMutex
	docs []Document
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(_ context.Context, doc Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.docs = append(s.docs, doc)
	return nil
}

func (s *MemoryStore) Search(_ context.Context, query string, limit int) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Rank(s.docs, query, limit), nil
}

// Len returns the number of stored documents
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}
