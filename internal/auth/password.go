package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/harrylevesque/phishaware/internal/crypto"
	"github.com/harrylevesque/phishaware/internal/models"
)

// PasswordScheme turns a plaintext password into its stored form and checks
// a candidate against it.
type PasswordScheme interface {
	Name() string
	Obfuscate(password string) (string, error)
	Verify(stored, password string) bool
}

// CaesarScheme stores the password rotated by a fixed shift. It offers no
// real protection and exists for compatibility with existing records.
type CaesarScheme struct {
	Shift int
}

func (CaesarScheme) Name() string { return models.SchemeCaesar }

func (c CaesarScheme) Obfuscate(password string) (string, error) {
	return crypto.CaesarEncode(password, c.Shift), nil
}

func (c CaesarScheme) Verify(stored, password string) bool {
	return crypto.CaesarEncode(password, c.Shift) == stored
}

// BcryptScheme stores a bcrypt hash. bcrypt only reads the first 72 bytes,
// so longer passwords are rejected.
type BcryptScheme struct {
	Cost int
}

func (BcryptScheme) Name() string { return models.SchemeBcrypt }

func (b BcryptScheme) Obfuscate(password string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", invalid("Password is too long.")
	}
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (BcryptScheme) Verify(stored, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
}

func newSchemes(defaultName string, shift, cost int) (PasswordScheme, map[string]PasswordScheme, error) {
	all := map[string]PasswordScheme{
		models.SchemeCaesar: CaesarScheme{Shift: shift},
		models.SchemeBcrypt: BcryptScheme{Cost: cost},
	}
	def, ok := all[defaultName]
	if !ok {
		return nil, nil, fmt.Errorf("unknown password scheme %q", defaultName)
	}
	return def, all, nil
}
