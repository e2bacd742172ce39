package secret

import (
	"fmt"
	"sync"

	"maileditor/internal/domain"
)

// SecretStore holds sensitive values such as template database passwords.
type SecretStore interface {
	// Set stores a secret value under the given key.
	Set(key string, value []byte) error

	// Get returns the value for key, or an empty slice and nil error when
	// the key does not exist.
	Get(key string) ([]byte, error)

	Delete(key string) error
}

// KeyFor is the secret key of a template database connection.
func KeyFor(conn *domain.DatabaseConnection) string {
	return fmt.Sprintf("%s/%s@%s", conn.Driver, conn.Username, conn.Host)
}

// Password resolves the password of conn: an explicit value wins, otherwise
// the store is consulted. A nil store yields an empty password.
func Password(explicit string, store SecretStore, conn *domain.DatabaseConnection) (string, error) {
	if explicit != "" || store == nil {
		return explicit, nil
	}
	v, err := store.Get(KeyFor(conn))
	if err != nil {
		return "", fmt.Errorf("read password for %s: %w", conn.Name, err)
	}
	return string(v), nil
}

// MemoryStore keeps secrets in process memory.
type MemoryStore struct {
	mu sync.Mutex
	m  map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{m: make(map[string][]byte)}
}

func (s *MemoryStore) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = append([]byte(nil), value...)
	return nil
}

func (s *MemoryStore) Get(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.m[key]...), nil
}

func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}
