// Package auth implements registration, login, provider sign-in and the
// session gate in front of the protected screens.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harrylevesque/phishaware/internal/accounts"
	"github.com/harrylevesque/phishaware/internal/config"
	"github.com/harrylevesque/phishaware/internal/models"
	"github.com/harrylevesque/phishaware/internal/utils"
)

// Service owns the credential flows.
type Service struct {
	store   accounts.Store
	scheme  PasswordScheme
	schemes map[string]PasswordScheme
	logger  *zap.Logger
	now     func() time.Time
}

// NewService builds a Service that obfuscates new passwords with the
// configured scheme. A nil logger discards output.
func NewService(store accounts.Store, cfg config.AuthConfig, logger *zap.Logger) (*Service, error) {
	def, all, err := newSchemes(cfg.PasswordScheme, cfg.CaesarShift, cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:   store,
		scheme:  def,
		schemes: all,
		logger:  logger,
		now:     time.Now,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account after checking the form and the store for an
// existing email.
func (s *Service) Register(ctx context.Context, email, password, confirm string) (models.Account, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" || confirm == "" {
		return models.Account{}, invalid("Please fill out all fields.")
	}
	if password != confirm {
		return models.Account{}, invalid("Passwords do not match.")
	}

	acct, err := s.insert(ctx, email, password, s.scheme, models.ProviderPassword)
	if err != nil {
		return models.Account{}, err
	}
	s.logger.Info("account registered", zap.String("email", email), zap.String("scheme", acct.Scheme))
	return acct, nil
}

func (s *Service) insert(ctx context.Context, email, password string, scheme PasswordScheme, provider string) (models.Account, error) {
	_, exists, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return models.Account{}, utils.Remote("lookup account", err)
	}
	if exists {
		return models.Account{}, ErrDuplicateAccount
	}

	stored, err := scheme.Obfuscate(password)
	if err != nil {
		return models.Account{}, err
	}
	acct := models.Account{
		ID:        uuid.NewString(),
		Email:     email,
		Password:  stored,
		Scheme:    scheme.Name(),
		Provider:  provider,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.Insert(ctx, acct); err != nil {
		if errors.Is(err, models.ErrEmailTaken) {
			return models.Account{}, ErrDuplicateAccount
		}
		return models.Account{}, utils.Remote("insert account", err)
	}
	return acct, nil
}
