package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/harrylevesque/phishaware/internal/auth"
)

func (s *Server) provider(r *http.Request) (auth.IdentityProvider, bool) {
	p, ok := s.providers[mux.Vars(r)["provider"]]
	return p, ok
}

// GET /auth/{provider}/login?intent=signin|signup
func (s *Server) providerBegin(w http.ResponseWriter, r *http.Request) {
	p, ok := s.provider(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	consent, err := s.auth.BeginProvider(sessionOf(r), p, r.URL.Query().Get("intent"))
	if err != nil {
		s.logFailure(r, "provider begin", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, consent, http.StatusFound)
}

// GET /auth/{provider}/callback
func (s *Server) providerCallback(w http.ResponseWriter, r *http.Request) {
	p, ok := s.provider(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	intent, err := s.auth.CompleteProvider(r.Context(), sessionOf(r), p, q.Get("state"), q.Get("code"))
	if err == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	s.logFailure(r, "provider callback", err)
	page, title, fallback := "login", "Login", auth.MsgProviderSignInFailed
	if intent == auth.IntentSignUp {
		page, title, fallback = "register", "Register", auth.MsgProviderSignUpFailed
	}
	d := s.basePage(r, title)
	d.Error = messageFor(err, fallback)
	s.render(w, r, statusFor(err), page, d)
}
