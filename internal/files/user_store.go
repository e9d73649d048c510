package files

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/harrylevesque/phishaware/internal/crypto"
	"github.com/harrylevesque/phishaware/internal/models"
)

const (
	accountsFile       = "accounts.json"
	accountsSealedFile = "accounts.json.enc"
)

// AccountFile keeps the whole account collection in one JSON file. When a
// key is given the file is sealed with AES-GCM.
type AccountFile struct {
	mu       sync.RWMutex
	path     string
	key      []byte
	accounts []models.Account
}

// NewAccountFile opens (or creates on first insert) the collection under dir.
// A nil key stores plaintext JSON.
func NewAccountFile(dir string, key []byte) (*AccountFile, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	name := accountsFile
	if key != nil {
		name = accountsSealedFile
	}
	s := &AccountFile{path: filepath.Join(dir, name), key: key}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the backing file.
func (s *AccountFile) Path() string { return s.path }

func (s *AccountFile) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.accounts = nil
			return nil
		}
		return err
	}
	if s.key != nil {
		blob, err = crypto.DecryptAESGCM(s.key, blob)
		if err != nil {
			return err
		}
	}
	var loaded []models.Account
	if err := json.Unmarshal(blob, &loaded); err != nil {
		return err
	}
	s.accounts = loaded
	return nil
}

func (s *AccountFile) saveLocked() error {
	plain, err := json.MarshalIndent(s.accounts, "", "  ")
	if err != nil {
		return err
	}
	out := plain
	if s.key != nil {
		out, err = crypto.EncryptAESGCM(s.key, plain)
		if err != nil {
			return err
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// FindByEmail returns the account whose email matches, ignoring case.
func (s *AccountFile) FindByEmail(_ context.Context, email string) (models.Account, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.accounts {
		if strings.EqualFold(a.Email, email) {
			return a, true, nil
		}
	}
	return models.Account{}, false, nil
}

// Insert appends a and persists the collection.
func (s *AccountFile) Insert(_ context.Context, a models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.accounts {
		if strings.EqualFold(existing.Email, a.Email) {
			return models.ErrEmailTaken
		}
	}
	s.accounts = append(s.accounts, a)
	if err := s.saveLocked(); err != nil {
		s.accounts = s.accounts[:len(s.accounts)-1]
		return err
	}
	return nil
}

// Count returns the number of stored accounts.
func (s *AccountFile) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts), nil
}

// Close is a no-op; every insert is already flushed.
func (s *AccountFile) Close() error { return nil }
