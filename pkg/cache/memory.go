package cache

import (
	"context"
	"sync"
)

// MemoryStore keeps the persisted document in process memory.
type MemoryStore struct {
	mu   sync.Mutex
	data []byte
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns the last saved fields or ErrNotFound.
func (s *MemoryStore) Load(_ context.Context) (fields PersistedFields, err error) {
	defer func() { observe("memory", "load", err) }()

	s.mu.Lock()
	data := s.data
	s.mu.Unlock()

	if data == nil {
		return PersistedFields{}, ErrNotFound
	}
	return decode(data)
}

// Save stores a copy of fields.
func (s *MemoryStore) Save(_ context.Context, fields PersistedFields) (err error) {
	defer func() { observe("memory", "save", err) }()

	data, err := encode(fields)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.data = data
	s.mu.Unlock()

	StoreSize.WithLabelValues("memory").Set(float64(len(data)))
	return nil
}

// Delete drops the stored document.
func (s *MemoryStore) Delete(_ context.Context) error {
	s.mu.Lock()
	s.data = nil
	s.mu.Unlock()
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}
