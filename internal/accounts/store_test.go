package accounts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrylevesque/phishaware/internal/config"
	"github.com/harrylevesque/phishaware/internal/crypto"
	"github.com/harrylevesque/phishaware/internal/models"
)

func openAll(t *testing.T) map[string]Store {
	t.Helper()
	ctx := context.Background()
	master := crypto.GenerateMasterKey()

	stores := map[string]Store{}
	for _, driver := range []string{"memory", "file", "sqlite"} {
		s, err := Open(ctx, config.StoreConfig{Driver: driver, Dir: t.TempDir(), Encrypt: true}, master)
		require.NoError(t, err, driver)
		t.Cleanup(func() { _ = s.Close() })
		stores[driver] = s
	}
	return stores
}

func TestStores_InsertFindCount(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2026, 10, 15, 8, 30, 0, 0, time.UTC)

	for name, s := range openAll(t) {
		t.Run(name, func(t *testing.T) {
			acct := models.Account{
				ID:        "id-1",
				Email:     "a@x.com",
				Password:  "sz1",
				Scheme:    models.SchemeCaesar,
				Provider:  models.ProviderPassword,
				CreatedAt: created,
			}
			require.NoError(t, s.Insert(ctx, acct))

			got, ok, err := s.FindByEmail(ctx, "a@x.com")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, acct, got)

			dup := acct
			dup.ID = "id-2"
			dup.Email = "A@X.COM"
			assert.ErrorIs(t, s.Insert(ctx, dup), models.ErrEmailTaken)

			n, err := s.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, n)

			_, ok, err = s.FindByEmail(ctx, "b@x.com")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestOpen_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := Open(ctx, config.StoreConfig{Driver: "firestore"}, nil)
	assert.Error(t, err)

	_, err = Open(ctx, config.StoreConfig{Driver: "file", Dir: t.TempDir(), Encrypt: true}, nil)
	assert.Error(t, err)

	s, err := Open(ctx, config.StoreConfig{Driver: "file", Dir: t.TempDir()}, nil)
	require.NoError(t, err)
	assert.NoError(t, s.Close())
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := t.TempDir() + "/accounts.db"

	s, err := NewSQLiteStore(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Insert(ctx, models.Account{ID: "1", Email: "a@x.com", Password: "p", Scheme: models.SchemeBcrypt, Provider: models.ProviderGoogle, CreatedAt: time.Unix(1700000000, 0).UTC()}))
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	got, ok, err := s.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.ProviderGoogle, got.Provider)
	assert.Equal(t, int64(1700000000), got.CreatedAt.Unix())
}
