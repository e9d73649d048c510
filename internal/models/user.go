package models

import (
	"errors"
	"time"
)

// ErrEmailTaken is returned by account stores when an insert collides with
// an existing email.
var ErrEmailTaken = errors.New("email already registered")

// Password schemes an Account can be stored under.
const (
	SchemeCaesar = "caesar"
	SchemeBcrypt = "bcrypt"
)

// Identity providers an Account can be created through.
const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"
)

// Account is a credential record, keyed by Email.
type Account struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	Scheme    string    `json:"scheme"`
	Provider  string    `json:"provider"`
	CreatedAt time.Time `json:"created_at"`
}
