package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/harrylevesque/phishaware/internal/config"
	"github.com/harrylevesque/phishaware/internal/models"
	"github.com/harrylevesque/phishaware/internal/utils"
)

// Provider intents.
const (
	IntentSignIn = "signin"
	IntentSignUp = "signup"
)

const (
	keyOAuthState  = "oauth_state"
	keyOAuthIntent = "oauth_intent"

	providerPlaceholderPassword = "google_default_password"
)

// IdentityProvider runs the redirect half of an OAuth2 flow and returns the
// verified email of the signed-in user.
type IdentityProvider interface {
	Name() string
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (string, error)
}

// GoogleProvider signs users in with a Google account.
type GoogleProvider struct {
	conf        *oauth2.Config
	userInfoURL string
}

func NewGoogleProvider(c config.OAuthClient) *GoogleProvider {
	return &GoogleProvider{
		conf: &oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			RedirectURL:  c.RedirectURL,
			Scopes:       []string{"openid", "email"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: "https://openidconnect.googleapis.com/v1/userinfo",
	}
}

func (g *GoogleProvider) Name() string { return models.ProviderGoogle }

func (g *GoogleProvider) AuthCodeURL(state string) string {
	return g.conf.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

func (g *GoogleProvider) Exchange(ctx context.Context, code string) (string, error) {
	tok, err := g.conf.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("exchange code: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := g.conf.Client(ctx, tok).Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch userinfo: status %d", resp.StatusCode)
	}
	var info struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", fmt.Errorf("decode userinfo: %w", err)
	}
	if info.Email == "" || !info.EmailVerified {
		return "", errors.New("provider returned no verified email")
	}
	return info.Email, nil
}

// BeginProvider stores a fresh state and the intent in the session and
// returns the provider's consent URL.
func (s *Service) BeginProvider(sess Session, p IdentityProvider, intent string) (string, error) {
	if intent != IntentSignUp {
		intent = IntentSignIn
	}
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	state := base64.RawURLEncoding.EncodeToString(b)
	if err := sess.Set(keyOAuthIntent, intent); err != nil {
		return "", err
	}
	if err := sess.Set(keyOAuthState, state); err != nil {
		return "", err
	}
	return p.AuthCodeURL(state), nil
}

// CompleteProvider checks the callback state, exchanges the code and signs
// the user in or up depending on the stored intent, which it returns.
func (s *Service) CompleteProvider(ctx context.Context, sess Session, p IdentityProvider, state, code string) (string, error) {
	want, _ := sess.Get(keyOAuthState)
	intent, _ := sess.Get(keyOAuthIntent)
	in, _ := intent.(string)
	if in == "" {
		in = IntentSignIn
	}
	if ws, ok := want.(string); !ok || ws == "" || ws != state {
		return in, ErrOAuthState
	}
	if err := sess.Set(keyOAuthState, ""); err != nil {
		return in, err
	}

	email, err := p.Exchange(ctx, code)
	if err != nil {
		return in, utils.Remote(p.Name()+" exchange", err)
	}
	if in == IntentSignUp {
		return in, s.SignUpWithProvider(ctx, sess, p.Name(), email)
	}
	return in, s.SignInWithProvider(ctx, sess, email)
}

// SignInWithProvider sets the session flag for an email the provider has
// verified, provided an account already exists for it.
func (s *Service) SignInWithProvider(ctx context.Context, sess Session, email string) error {
	email = normalizeEmail(email)
	_, ok, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return utils.Remote("lookup account", err)
	}
	if !ok {
		return ErrNoProviderAccount
	}
	if err := sess.Login(email); err != nil {
		return err
	}
	s.logger.Info("provider sign-in", zap.String("email", email))
	return nil
}

// SignUpWithProvider creates a placeholder-password account if none exists
// and sets the session flag.
func (s *Service) SignUpWithProvider(ctx context.Context, sess Session, provider, email string) error {
	email = normalizeEmail(email)
	_, err := s.insert(ctx, email, providerPlaceholderPassword, s.scheme, provider)
	if err != nil && !errors.Is(err, ErrDuplicateAccount) {
		return err
	}
	if err := sess.Login(email); err != nil {
		return err
	}
	s.logger.Info("provider sign-up", zap.String("email", email), zap.String("provider", provider))
	return nil
}
