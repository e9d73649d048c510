// Package api serves the screens and the JSON API.
package api

import (
	"context"
	"fmt"
	"html/template"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/harrylevesque/phishaware/internal/assist"
	"github.com/harrylevesque/phishaware/internal/auth"
	"github.com/harrylevesque/phishaware/internal/config"
	"github.com/harrylevesque/phishaware/internal/detect"
	"github.com/harrylevesque/phishaware/internal/learn"
)

// Detector classifies uploads. *detect.Client satisfies it.
type Detector interface {
	DetectImage(ctx context.Context, data []byte) ([]detect.Prediction, error)
	DetectText(ctx context.Context, text string) ([]detect.Prediction, error)
}

// Asker answers assistant prompts. *assist.Assistant satisfies it.
type Asker interface {
	Ask(ctx context.Context, prompt string) (assist.Reply, error)
}

// Deps is everything the router needs. Assistant may be nil; Providers may
// be empty.
type Deps struct {
	Config    *config.Config
	Auth      *auth.Service
	Sessions  *auth.Sessions
	Detector  Detector
	Assistant Asker
	Bank      *learn.Bank
	Progress  *learn.Progress
	Providers map[string]auth.IdentityProvider
	Logger    *zap.Logger
}

type Server struct {
	cfg       *config.Config
	auth      *auth.Service
	detector  Detector
	assistant Asker
	bank      *learn.Bank
	progress  *learn.Progress
	carousel  learn.Carousel
	providers map[string]auth.IdentityProvider
	logger    *zap.Logger
	pages     map[string]*template.Template
}

// NewRouter wires every route.
func NewRouter(d Deps) (*mux.Router, error) {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	pages, err := parsePages()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	s := &Server{
		cfg:       d.Config,
		auth:      d.Auth,
		detector:  d.Detector,
		assistant: d.Assistant,
		bank:      d.Bank,
		progress:  d.Progress,
		carousel:  learn.NewCarousel(d.Config.Learn.Videos),
		providers: d.Providers,
		logger:    d.Logger,
		pages:     pages,
	}

	r := mux.NewRouter()
	r.Use(withRequestID, withAccessLog(s.logger), withRecover(s.logger), d.Sessions.Middleware)

	r.HandleFunc("/health", s.health).Methods("GET")
	r.HandleFunc("/time", s.serverTime).Methods("GET")

	r.HandleFunc("/login", s.loginPage).Methods("GET")
	r.HandleFunc("/login", s.loginSubmit).Methods("POST")
	r.HandleFunc("/register", s.registerPage).Methods("GET")
	r.HandleFunc("/register", s.registerSubmit).Methods("POST")
	r.HandleFunc("/logout", s.logoutSubmit).Methods("POST")
	if len(s.providers) > 0 {
		r.HandleFunc("/auth/{provider}/login", s.providerBegin).Methods("GET")
		r.HandleFunc("/auth/{provider}/callback", s.providerCallback).Methods("GET")
	}

	page := func(h http.HandlerFunc) http.Handler { return auth.RequirePage(h) }
	r.Handle("/", page(s.dashboardPage)).Methods("GET")
	r.Handle("/home", page(s.homePage)).Methods("GET")
	r.Handle("/learn", page(s.learnPage)).Methods("GET")
	r.Handle("/learn/answer", page(s.learnAnswer)).Methods("POST")
	r.Handle("/learn/next", page(s.learnNext)).Methods("POST")
	r.Handle("/learn/reset", page(s.learnReset)).Methods("POST")
	r.Handle("/learn/video/{dir}", page(s.learnVideo)).Methods("POST")
	r.Handle("/detect", page(s.detectPage)).Methods("GET")
	r.Handle("/detect", page(s.detectSubmit)).Methods("POST")
	r.Handle("/assistant", page(s.assistantSubmit)).Methods("POST")
	r.Handle("/ui/toggle/{field}", page(s.toggleUI)).Methods("POST")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/register", s.apiRegister).Methods("POST")
	api.HandleFunc("/login", s.apiLogin).Methods("POST")
	api.HandleFunc("/logout", s.apiLogout).Methods("POST")
	api.HandleFunc("/session", s.apiSession).Methods("GET")

	gated := api.NewRoute().Subrouter()
	gated.Use(auth.RequireAPI)
	gated.HandleFunc("/detect", s.apiDetect).Methods("POST")
	gated.HandleFunc("/assistant", s.apiAssistant).Methods("POST")
	gated.HandleFunc("/quiz", s.apiQuiz).Methods("GET")
	gated.HandleFunc("/quiz/answer", s.apiQuizAnswer).Methods("POST")
	gated.HandleFunc("/quiz/next", s.apiQuizNext).Methods("POST")
	gated.HandleFunc("/quiz/reset", s.apiQuizReset).Methods("POST")

	return r, nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = fmt.Fprintln(w, "OK")
}

// serverTime returns the current server time in RFC3339 format.
func (s *Server) serverTime(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"time": nowRFC3339()})
}
