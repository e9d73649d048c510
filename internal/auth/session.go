package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"github.com/harrylevesque/phishaware/internal/config"
	"github.com/harrylevesque/phishaware/internal/crypto"
)

// Keys reserved in the session values.
const (
	keyLoggedIn = "logged_in"
	keyEmail    = "email"
)

// Session is the per-visitor state carried between requests. Login and
// Logout only touch the logged-in flag and the email; other keys belong to
// callers.
type Session interface {
	IsAuthenticated() bool
	Email() string
	Login(email string) error
	Logout() error
	Get(key string) (any, bool)
	Set(key string, v any) error
}

// Sessions loads cookie-backed sessions for each request.
type Sessions struct {
	store  sessions.Store
	name   string
	logger *zap.Logger
}

// NewSessions builds a signed and encrypted cookie store with keys derived
// from the master key.
func NewSessions(master []byte, cfg config.SessionConfig, logger *zap.Logger) (*Sessions, error) {
	hashKey, err := crypto.DeriveKey(master, crypto.InfoSessionHash, 64)
	if err != nil {
		return nil, err
	}
	blockKey, err := crypto.DeriveKey(master, crypto.InfoSessionCipher, 32)
	if err != nil {
		return nil, err
	}
	store := sessions.NewCookieStore(hashKey, blockKey)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sessions{store: store, name: cfg.CookieName, logger: logger}, nil
}

// Middleware attaches the visitor's session to the request context. A cookie
// that fails to decode yields a fresh session.
func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := s.store.Get(r, s.name)
		if err != nil {
			s.logger.Debug("discarding session cookie", zap.Error(err))
		}
		cs := &cookieSession{r: r, w: w, raw: raw}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), cs)))
	})
}

type cookieSession struct {
	r   *http.Request
	w   http.ResponseWriter
	raw *sessions.Session
}

func (c *cookieSession) IsAuthenticated() bool {
	v, ok := c.raw.Values[keyLoggedIn].(bool)
	return ok && v
}

func (c *cookieSession) Email() string {
	v, _ := c.raw.Values[keyEmail].(string)
	return v
}

func (c *cookieSession) Login(email string) error {
	c.raw.Values[keyLoggedIn] = true
	c.raw.Values[keyEmail] = email
	return c.raw.Save(c.r, c.w)
}

func (c *cookieSession) Logout() error {
	delete(c.raw.Values, keyLoggedIn)
	delete(c.raw.Values, keyEmail)
	return c.raw.Save(c.r, c.w)
}

func (c *cookieSession) Get(key string) (any, bool) {
	v, ok := c.raw.Values[key]
	return v, ok
}

func (c *cookieSession) Set(key string, v any) error {
	c.raw.Values[key] = v
	return c.raw.Save(c.r, c.w)
}

// MemorySession is a Session held in memory.
type MemorySession struct {
	mu     sync.Mutex
	values map[string]any
}

func NewMemorySession() *MemorySession {
	return &MemorySession{values: map[string]any{}}
}

func (m *MemorySession) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[keyLoggedIn].(bool)
	return ok && v
}

func (m *MemorySession) Email() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, _ := m.values[keyEmail].(string)
	return v
}

func (m *MemorySession) Login(email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[keyLoggedIn] = true
	m.values[keyEmail] = email
	return nil
}

func (m *MemorySession) Logout() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, keyLoggedIn)
	delete(m.values, keyEmail)
	return nil
}

func (m *MemorySession) Get(key string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *MemorySession) Set(key string, v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = v
	return nil
}

type ctxKey string

const sessionContextKey ctxKey = "phishaware.auth.session"

// WithSession returns ctx carrying sess.
func WithSession(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}

// SessionFromContext returns the session attached by Sessions.Middleware.
func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionContextKey).(Session)
	return s, ok
}

func authenticated(r *http.Request) (Session, bool) {
	sess, ok := SessionFromContext(r.Context())
	if !ok || !sess.IsAuthenticated() {
		return nil, false
	}
	return sess, true
}

// RequirePage redirects visitors without the logged-in flag to /login before
// next runs.
func RequirePage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := authenticated(r); !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAPI answers 401 JSON for visitors without the logged-in flag.
func RequireAPI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := authenticated(r); !ok {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
