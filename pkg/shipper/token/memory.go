package token

import (
	"context"
	"sync"
)

// MemoryStore keeps tokens in process memory. Tokens are not shared with
// other processes.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Token
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Token)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (Token, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tok, ok := s.entries[key]
	return tok, ok, nil
}

func (s *MemoryStore) Put(_ context.Context, key string, tok Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = tok
	return nil
}

func (s *MemoryStore) All(_ context.Context) (map[string]Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Token, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out, nil
}

// NopLocker grants the lock immediately.
type NopLocker struct{}

func (NopLocker) Lock(context.Context) (func(), error) {
	return func() {}, nil
}
