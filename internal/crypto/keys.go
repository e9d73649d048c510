package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

// HKDF info labels for keys derived from the master key.
const (
	InfoStoreKey      = "account-store"
	InfoSessionHash   = "session-hash"
	InfoSessionCipher = "session-block"
)

// DeriveKey derives an n-byte subkey from the master key using HKDF-SHA256.
func DeriveKey(master []byte, info string, n int) ([]byte, error) {
	h := hkdf.New(sha256.New, master, nil, []byte(info))
	out := make([]byte, n)
	if _, err := io.ReadFull(h, out); err != nil {
		return nil, err
	}
	return out, nil
}

// GenerateMasterKey returns a fresh random 32-byte key.
func GenerateMasterKey() []byte {
	return MustRandom(32)
}

// MustRandom returns n random bytes or panics.
func MustRandom(n int) []byte {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		panic(err)
	}
	return b
}
