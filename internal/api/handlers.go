package api

import (
	"net/http"

	"github.com/harrylevesque/phishaware/internal/assist"
	"github.com/harrylevesque/phishaware/internal/auth"
	"github.com/harrylevesque/phishaware/internal/ui"
)

func (s *Server) apiFail(w http.ResponseWriter, r *http.Request, op string, err error, fallback string) {
	s.logFailure(r, op, err)
	writeErr(w, statusFor(err), messageFor(err, fallback))
}

// POST /api/register
func (s *Server) apiRegister(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email           string `json:"email"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirm_password"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	acct, err := s.auth.Register(r.Context(), in.Email, in.Password, in.ConfirmPassword)
	if err != nil {
		s.apiFail(w, r, "register", err, auth.MsgRegisterFailed)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"ok": true,
		"user": map[string]any{
			"id":    acct.ID,
			"email": acct.Email,
		},
	})
}

// POST /api/login
func (s *Server) apiLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	sess := sessionOf(r)
	if err := s.auth.Login(r.Context(), sess, in.Email, in.Password); err != nil {
		s.apiFail(w, r, "login", err, "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "email": sess.Email()})
}

// POST /api/logout
func (s *Server) apiLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Logout(sessionOf(r)); err != nil {
		s.apiFail(w, r, "logout", err, "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// GET /api/session
func (s *Server) apiSession(w http.ResponseWriter, r *http.Request) {
	sess := sessionOf(r)
	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": sess.IsAuthenticated(),
		"email":         sess.Email(),
		"ui":            ui.Load(sess),
	})
}

// POST /api/detect
func (s *Server) apiDetect(w http.ResponseWriter, r *http.Request) {
	in, err := s.readDetectInput(w, r)
	if err != nil {
		s.apiFail(w, r, "detect", err, "")
		return
	}
	view, err := s.runDetect(r.Context(), in)
	if err != nil {
		s.apiFail(w, r, "detect", err, "")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) ask(r *http.Request, prompt string) (assist.Reply, error) {
	if s.assistant == nil {
		return assist.Reply{}, errAssistantDisabled
	}
	return s.assistant.Ask(r.Context(), prompt)
}

// POST /api/assistant
func (s *Server) apiAssistant(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Prompt string `json:"prompt"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	reply, err := s.ask(r, in.Prompt)
	if err != nil {
		s.apiFail(w, r, "assistant", err, "")
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

// GET /api/quiz
func (s *Server) apiQuiz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.quizFor(sessionOf(r).Email()))
}

// POST /api/quiz/answer
func (s *Server) apiQuizAnswer(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Option *int `json:"option"`
	}
	if err := decodeJSON(r, &in); err != nil || in.Option == nil {
		writeErr(w, http.StatusBadRequest, messageFor(errBadOption, ""))
		return
	}
	view, err := s.answer(sessionOf(r).Email(), *in.Option)
	if err != nil {
		s.apiFail(w, r, "quiz answer", err, "")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// POST /api/quiz/next
func (s *Server) apiQuizNext(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.next(sessionOf(r).Email()))
}

// POST /api/quiz/reset
func (s *Server) apiQuizReset(w http.ResponseWriter, r *http.Request) {
	email := sessionOf(r).Email()
	s.progress.Reset(email)
	writeJSON(w, http.StatusOK, s.quizFor(email))
}
