// Package config loads the server configuration from YAML with environment
// overrides. A missing file yields the defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Auth      AuthConfig      `yaml:"auth"`
	Session   SessionConfig   `yaml:"session"`
	Detect    DetectConfig    `yaml:"detect"`
	Assistant AssistantConfig `yaml:"assistant"`
	OAuth     OAuthConfig     `yaml:"oauth"`
	Learn     LearnConfig     `yaml:"learn"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	TLSCert         string        `yaml:"tls_cert"`
	TLSKey          string        `yaml:"tls_key"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StoreConfig selects the credential store.
type StoreConfig struct {
	Driver        string `yaml:"driver"` // file, sqlite, memory
	Dir           string `yaml:"dir"`
	Encrypt       bool   `yaml:"encrypt"`
	MasterKeyPath string `yaml:"master_key_path"`
}

// AuthConfig configures password handling.
type AuthConfig struct {
	PasswordScheme string `yaml:"password_scheme"` // caesar, bcrypt
	CaesarShift    int    `yaml:"caesar_shift"`
	BcryptCost     int    `yaml:"bcrypt_cost"`
}

// SessionConfig configures the session cookie.
type SessionConfig struct {
	CookieName string        `yaml:"cookie_name"`
	MaxAge     time.Duration `yaml:"max_age"`
	Secure     bool          `yaml:"secure"`
}

// DetectConfig points at the hosted inference endpoints.
type DetectConfig struct {
	ImageURL       string        `yaml:"image_url"`
	TextURL        string        `yaml:"text_url"`
	Token          string        `yaml:"token"`
	Timeout        time.Duration `yaml:"timeout"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
}

// AssistantConfig configures the generative model.
type AssistantConfig struct {
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// OAuthConfig holds identity provider credentials.
type OAuthConfig struct {
	Google OAuthClient `yaml:"google"`
}

// OAuthClient is a single OAuth2 client registration.
type OAuthClient struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
}

// Enabled reports whether the client is usable.
func (c OAuthClient) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RedirectURL != ""
}

// LearnConfig configures the quiz and video screens.
type LearnConfig struct {
	QuestionsPath string   `yaml:"questions_path"`
	Watch         bool     `yaml:"watch"`
	Videos        []string `yaml:"videos"`
	HomeVideo     string   `yaml:"home_video"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Store: StoreConfig{
			Driver:        "file",
			Dir:           "data",
			Encrypt:       true,
			MasterKeyPath: "master.key",
		},
		Auth: AuthConfig{
			PasswordScheme: "caesar",
			CaesarShift:    3,
			BcryptCost:     10,
		},
		Session: SessionConfig{
			CookieName: "phishaware_session",
			MaxAge:     7 * 24 * time.Hour,
		},
		Detect: DetectConfig{
			ImageURL:       "https://api-inference.huggingface.co/models/umm-maybe/AI-image-detector",
			TextURL:        "https://api-inference.huggingface.co/models/openai-community/roberta-base-openai-detector",
			Timeout:        30 * time.Second,
			MaxUploadBytes: 10 << 20,
		},
		Assistant: AssistantConfig{
			Model:   "gemini-2.0-flash",
			Timeout: 60 * time.Second,
		},
		Learn: LearnConfig{
			Videos: []string{
				"https://www.youtube.com/embed/gSQgbCo6PAg",
				"https://www.youtube.com/embed/WFc6t-c892A",
			},
			HomeVideo: "https://www.youtube.com/embed/dQw4w9WgXcQ",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty or missing path is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	setString(&c.Server.Addr, "PHISHAWARE_ADDR")
	setString(&c.Store.Driver, "PHISHAWARE_STORE_DRIVER")
	setString(&c.Store.Dir, "PHISHAWARE_DATA_DIR")
	setString(&c.Auth.PasswordScheme, "PHISHAWARE_PASSWORD_SCHEME")
	setString(&c.Logging.Level, "PHISHAWARE_LOG_LEVEL")
	setString(&c.Detect.Token, "HF_API_TOKEN")
	setString(&c.Assistant.APIKey, "GEMINI_API_KEY")
	setString(&c.OAuth.Google.ClientID, "GOOGLE_CLIENT_ID")
	setString(&c.OAuth.Google.ClientSecret, "GOOGLE_CLIENT_SECRET")
	setString(&c.OAuth.Google.RedirectURL, "GOOGLE_REDIRECT_URL")
	if v, ok := lookupBool("PHISHAWARE_COOKIE_SECURE"); ok {
		c.Session.Secure = v
	}
	if v, ok := lookupBool("PHISHAWARE_STORE_ENCRYPT"); ok {
		c.Store.Encrypt = v
	}
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func lookupBool(key string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}

// Validate rejects unknown driver or scheme names and nonsensical sizes.
func (c *Config) Validate() error {
	var errs []error
	switch c.Store.Driver {
	case "file", "sqlite", "memory":
	default:
		errs = append(errs, fmt.Errorf("store.driver %q: want file, sqlite or memory", c.Store.Driver))
	}
	if c.Store.Driver != "memory" && c.Store.Dir == "" {
		errs = append(errs, errors.New("store.dir is required"))
	}
	switch c.Auth.PasswordScheme {
	case "caesar", "bcrypt":
	default:
		errs = append(errs, fmt.Errorf("auth.password_scheme %q: want caesar or bcrypt", c.Auth.PasswordScheme))
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("auth.bcrypt_cost %d out of range", c.Auth.BcryptCost))
	}
	if c.Session.CookieName == "" {
		errs = append(errs, errors.New("session.cookie_name is required"))
	}
	if c.Detect.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("detect.max_upload_bytes must be positive"))
	}
	if (c.Server.TLSCert == "") != (c.Server.TLSKey == "") {
		errs = append(errs, errors.New("server.tls_cert and server.tls_key must be set together"))
	}
	return errors.Join(errs...)
}
