// Package accounts is the credential store adapter: lookup by email and
// insert, over a file, SQLite or memory backend.
package accounts

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/harrylevesque/phishaware/internal/config"
	"github.com/harrylevesque/phishaware/internal/crypto"
	"github.com/harrylevesque/phishaware/internal/files"
	"github.com/harrylevesque/phishaware/internal/models"
)

// Store is the credential collection keyed by email.
type Store interface {
	FindByEmail(ctx context.Context, email string) (models.Account, bool, error)
	Insert(ctx context.Context, a models.Account) error
	Count(ctx context.Context) (int, error)
	Close() error
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*files.AccountFile)(nil)
)

// Open builds the store named by cfg.Driver. masterKey is only needed for the
// file driver with encryption on.
func Open(ctx context.Context, cfg config.StoreConfig, masterKey []byte) (Store, error) {
	switch cfg.Driver {
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(ctx, filepath.Join(cfg.Dir, "accounts.db"))
	case "file":
		var key []byte
		if cfg.Encrypt {
			if masterKey == nil {
				return nil, fmt.Errorf("file store encryption needs a master key")
			}
			k, err := crypto.DeriveKey(masterKey, crypto.InfoStoreKey, 32)
			if err != nil {
				return nil, err
			}
			key = k
		}
		return files.NewAccountFile(cfg.Dir, key)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
