package accounts

import (
	"context"
	"strings"
	"sync"

	"github.com/harrylevesque/phishaware/internal/models"
)

// MemoryStore keeps accounts in a map. Used in tests and the memory driver.
type MemoryStore struct {
	mu      sync.RWMutex
	byEmail map[string]models.Account
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byEmail: map[string]models.Account{}}
}

func (s *MemoryStore) FindByEmail(_ context.Context, email string) (models.Account, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byEmail[strings.ToLower(email)]
	return a, ok, nil
}

func (s *MemoryStore) Insert(_ context.Context, a models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(a.Email)
	if _, ok := s.byEmail[key]; ok {
		return models.ErrEmailTaken
	}
	s.byEmail[key] = a
	return nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byEmail), nil
}

func (s *MemoryStore) Close() error { return nil }
