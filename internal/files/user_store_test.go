package files

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrylevesque/phishaware/internal/crypto"
	"github.com/harrylevesque/phishaware/internal/models"
)

func sampleAccount(email string) models.Account {
	return models.Account{
		ID:        "acct-" + email,
		Email:     email,
		Password:  "sz1",
		Scheme:    models.SchemeCaesar,
		Provider:  models.ProviderPassword,
		CreatedAt: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestAccountFile_SealedRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	key := crypto.GenerateMasterKey()

	s, err := NewAccountFile(dir, key)
	require.NoError(t, err)
	require.NoError(t, s.Insert(ctx, sampleAccount("a@x.com")))

	raw, err := os.ReadFile(filepath.Join(dir, accountsSealedFile))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "a@x.com")

	reopened, err := NewAccountFile(dir, key)
	require.NoError(t, err)
	got, ok, err := reopened.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sampleAccount("a@x.com"), got)

	_, err = NewAccountFile(dir, crypto.GenerateMasterKey())
	assert.Error(t, err, "wrong key must not open the collection")
}

func TestAccountFile_PlaintextAndDuplicates(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := NewAccountFile(dir, nil)
	require.NoError(t, err)
	require.NoError(t, s.Insert(ctx, sampleAccount("a@x.com")))
	assert.ErrorIs(t, s.Insert(ctx, sampleAccount("A@X.com")), models.ErrEmailTaken)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	raw, err := os.ReadFile(filepath.Join(dir, accountsFile))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"email": "a@x.com"`)

	found, ok, err := s.FindByEmail(ctx, "A@X.COM")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a@x.com", found.Email)

	_, ok, err = s.FindByEmail(ctx, "missing@x.com")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMasterKey_WriteAndRead(t *testing.T) {
	t.Setenv(MasterKeyEnv, "")
	path := filepath.Join(t.TempDir(), "keys", "master.key")
	key := crypto.GenerateMasterKey()

	require.NoError(t, WriteMasterKey(path, key, false))
	assert.ErrorIs(t, WriteMasterKey(path, key, false), ErrMasterKeyExists)

	got, err := ReadMasterKey(path)
	require.NoError(t, err)
	assert.Equal(t, key, got)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestMasterKey_EnvWinsAndValidates(t *testing.T) {
	t.Setenv(MasterKeyEnv, "abcd")
	_, err := ReadMasterKey("does-not-matter")
	assert.Error(t, err)

	t.Setenv(MasterKeyEnv, "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff")
	key, err := ReadMasterKey(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Len(t, key, 32)
}
