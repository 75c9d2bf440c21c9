package index

import (
	"context"
	"sync"
)

// MemoryStore keeps records in process. It is rebuilt on every start.
type MemoryStore struct {
	mu          sync.RWMutex
	fingerprint string
	records     []Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Name() string {
	return "memory"
}

func (s *MemoryStore) Replace(_ context.Context, fingerprint string, records []Record) error {
	next := make([]Record, len(records))
	copy(next, records)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fingerprint = fingerprint
	s.records = next
	return nil
}

func (s *MemoryStore) Fingerprint(context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fingerprint, nil
}

func (s *MemoryStore) Count(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

func (s *MemoryStore) Search(_ context.Context, vector []float32, limit int) ([]Candidate, error) {
	s.mu.RLock()
	records := s.records
	s.mu.RUnlock()
	return RankByCosine(records, vector, limit)
}
