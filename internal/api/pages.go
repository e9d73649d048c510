package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/harrylevesque/phishaware/internal/auth"
	"github.com/harrylevesque/phishaware/internal/ui"
)

func sessionOf(r *http.Request) auth.Session {
	sess, _ := auth.SessionFromContext(r.Context())
	return sess
}

// logFailure records errors that end in a 5xx.
func (s *Server) logFailure(r *http.Request, op string, err error) {
	if statusFor(err) < http.StatusInternalServerError {
		return
	}
	s.logger.Error(op+" failed",
		zap.String("request_id", RequestIDFromContext(r.Context())),
		zap.Error(err),
	)
}

func (s *Server) loginPage(w http.ResponseWriter, r *http.Request) {
	d := s.basePage(r, "Login")
	if r.URL.Query().Get("registered") == "1" {
		d.Notice = "Registration Successful! Please log in."
	}
	s.render(w, r, http.StatusOK, "login", d)
}

func (s *Server) loginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	email := r.PostFormValue("email")
	err := s.auth.Login(r.Context(), sessionOf(r), email, r.PostFormValue("password"))
	if err != nil {
		s.logFailure(r, "login", err)
		d := s.basePage(r, "Login")
		d.Error = messageFor(err, "")
		d.FormEmail = email
		s.render(w, r, statusFor(err), "login", d)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) registerPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "register", s.basePage(r, "Register"))
}

func (s *Server) registerSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	email := r.PostFormValue("email")
	_, err := s.auth.Register(r.Context(), email, r.PostFormValue("password"), r.PostFormValue("confirm_password"))
	if err != nil {
		s.logFailure(r, "register", err)
		d := s.basePage(r, "Register")
		d.Error = messageFor(err, auth.MsgRegisterFailed)
		d.FormEmail = email
		s.render(w, r, statusFor(err), "register", d)
		return
	}
	http.Redirect(w, r, "/login?registered=1", http.StatusSeeOther)
}

func (s *Server) logoutSubmit(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Logout(sessionOf(r)); err != nil {
		s.logFailure(r, "logout", err)
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) dashboardPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "dashboard", s.basePage(r, "Home"))
}

func (s *Server) homePage(w http.ResponseWriter, r *http.Request) {
	d := s.basePage(r, "Learn How to Protect Yourself")
	d.HomeVideo = s.cfg.Learn.HomeVideo
	s.render(w, r, http.StatusOK, "home", d)
}

func (s *Server) learnData(r *http.Request) pageData {
	sess := sessionOf(r)
	d := s.basePage(r, "Learn")
	q := s.quizFor(sess.Email())
	d.Quiz = &q
	d.VideoIndex = s.videoIndex(sess)
	d.VideoTotal = s.carousel.Len()
	d.Video = s.carousel.At(d.VideoIndex)
	return d
}

func (s *Server) learnPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "learn", s.learnData(r))
}

func (s *Server) learnAnswer(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	opt, err := strconv.Atoi(r.PostFormValue("option"))
	if err == nil {
		_, err = s.answer(sessionOf(r).Email(), opt)
	}
	if err != nil {
		d := s.learnData(r)
		d.Error = messageFor(errBadOption, "")
		s.render(w, r, http.StatusBadRequest, "learn", d)
		return
	}
	http.Redirect(w, r, "/learn", http.StatusSeeOther)
}

func (s *Server) learnNext(w http.ResponseWriter, r *http.Request) {
	s.next(sessionOf(r).Email())
	http.Redirect(w, r, "/learn", http.StatusSeeOther)
}

func (s *Server) learnReset(w http.ResponseWriter, r *http.Request) {
	s.progress.Reset(sessionOf(r).Email())
	http.Redirect(w, r, "/learn", http.StatusSeeOther)
}

func (s *Server) learnVideo(w http.ResponseWriter, r *http.Request) {
	sess := sessionOf(r)
	cur := s.videoIndex(sess)
	var next int
	switch mux.Vars(r)["dir"] {
	case "next":
		next = s.carousel.Next(cur)
	case "prev":
		next = s.carousel.Prev(cur)
	default:
		http.NotFound(w, r)
		return
	}
	if err := sess.Set(keyVideoIndex, next); err != nil {
		s.logFailure(r, "save video index", err)
	}
	http.Redirect(w, r, "/learn", http.StatusSeeOther)
}

func (s *Server) detectPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "detect", s.basePage(r, "Detect"))
}

func (s *Server) detectSubmit(w http.ResponseWriter, r *http.Request) {
	d := s.basePage(r, "Detect")
	in, err := s.readDetectInput(w, r)
	if err == nil {
		d.Detect, err = s.runDetect(r.Context(), in)
	}
	if err != nil {
		s.logFailure(r, "detect", err)
		d.Error = messageFor(err, "")
		s.render(w, r, statusFor(err), "detect", d)
		return
	}
	s.render(w, r, http.StatusOK, "detect", d)
}

func (s *Server) assistantSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	d := s.basePage(r, "Home")
	d.Prompt = r.PostFormValue("prompt")
	reply, err := s.ask(r, d.Prompt)
	if err != nil {
		s.logFailure(r, "assistant", err)
		d.Error = messageFor(err, "")
		s.render(w, r, statusFor(err), "dashboard", d)
		return
	}
	d.Reply = &reply
	s.render(w, r, http.StatusOK, "dashboard", d)
}

func (s *Server) toggleUI(w http.ResponseWriter, r *http.Request) {
	sess := sessionOf(r)
	next, err := ui.Load(sess).Toggle(mux.Vars(r)["field"])
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := ui.Save(sess, next); err != nil {
		s.logFailure(r, "save ui state", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, back(r), http.StatusSeeOther)
}
