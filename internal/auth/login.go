package auth

import (
	"context"

	"go.uber.org/zap"

	"github.com/harrylevesque/phishaware/internal/models"
	"github.com/harrylevesque/phishaware/internal/utils"
)

// Login checks the credentials and sets the session flag on success. The
// flag is never touched on failure.
func (s *Service) Login(ctx context.Context, sess Session, email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return invalid("Please fill out both fields.")
	}

	acct, ok, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return utils.Remote("lookup account", err)
	}
	if !ok {
		return ErrInvalidCredentials
	}
	scheme, known := s.schemes[acct.Scheme]
	if !known {
		// Records written before schemes existed are caesar.
		scheme = s.schemes[models.SchemeCaesar]
	}
	if !scheme.Verify(acct.Password, password) {
		s.logger.Debug("login rejected", zap.String("email", email))
		return ErrInvalidCredentials
	}

	if err := sess.Login(email); err != nil {
		return err
	}
	s.logger.Info("login", zap.String("email", email))
	return nil
}

// Logout clears the session flag.
func (s *Service) Logout(sess Session) error {
	email := sess.Email()
	if err := sess.Logout(); err != nil {
		return err
	}
	if email != "" {
		s.logger.Info("logout", zap.String("email", email))
	}
	return nil
}
