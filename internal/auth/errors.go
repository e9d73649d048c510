package auth

import (
	"errors"

	"github.com/harrylevesque/phishaware/internal/utils"
)

var (
	ErrDuplicateAccount   = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNoProviderAccount  = errors.New("no account for provider identity")
	ErrOAuthState         = errors.New("oauth state mismatch")
)

// Failure messages shown when the store or provider cannot be reached.
const (
	MsgRegisterFailed       = "Failed to register. Please try again."
	MsgProviderSignInFailed = "Failed to sign in with Google. Please try again."
	MsgProviderSignUpFailed = "Failed to sign up with Google. Please try again."
)

// ValidationError is a form-level problem shown next to the form.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func invalid(msg string) error { return &ValidationError{Msg: msg} }

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Message returns the text a user sees for err. fallback is used for remote
// and unexpected failures.
func Message(err error, fallback string) string {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return ve.Msg
	case errors.Is(err, ErrDuplicateAccount):
		return "Email already registered. Please use a different email."
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid email or password."
	case errors.Is(err, ErrNoProviderAccount):
		return "No account found for this Google account. Please register first."
	case fallback != "":
		return fallback
	default:
		return utils.GenericRemoteMessage
	}
}
