package sdk

import "sync"

// TokenStore is the durable slot holding at most one bearer token.
// Get returns "" when the slot is empty. Clear on an empty slot is a no-op.
type TokenStore interface {
	Get() (string, error)
	Set(token string) error
	Clear() error
}

// MemoryTokenStore is a process-local TokenStore. It does not survive a
// restart and is meant for tests and ephemeral sessions.
type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
}

var _ TokenStore = (*MemoryTokenStore)(nil)

// NewMemoryTokenStore returns a store holding token ("" for empty).
func NewMemoryTokenStore(token string) *MemoryTokenStore {
	return &MemoryTokenStore{token: token}
}

func (s *MemoryTokenStore) Get() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *MemoryTokenStore) Set(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryTokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}
