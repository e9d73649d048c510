package api

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/harrylevesque/phishaware/internal/assist"
	"github.com/harrylevesque/phishaware/internal/auth"
	"github.com/harrylevesque/phishaware/internal/detect"
	"github.com/harrylevesque/phishaware/internal/learn"
	"github.com/harrylevesque/phishaware/internal/models"
	"github.com/harrylevesque/phishaware/internal/ui"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"login", "register", "dashboard", "home", "learn", "detect"}

var templateFuncs = template.FuncMap{
	"percent": func(f float64) string { return fmt.Sprintf("%.0f%%", f*100) },
	"inc":     func(i int) int { return i + 1 },
}

func parsePages() (map[string]*template.Template, error) {
	out := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(templateFuncs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, err
		}
		out[name] = t
	}
	return out, nil
}

// pageData is the model for every screen. Fields a screen does not use stay
// zero.
type pageData struct {
	Title         string
	Email         string
	LoggedIn      bool
	UI            ui.State
	Error         string
	Notice        string
	FormEmail     string
	GoogleEnabled bool

	HomeVideo  string
	Video      string
	VideoIndex int
	VideoTotal int
	Quiz       *quizView

	Detect *detectView

	AssistantEnabled bool
	Prompt           string
	Reply            *assist.Reply
}

type quizView struct {
	Index    int             `json:"index"`
	Total    int             `json:"total"`
	Question *learn.Question `json:"question,omitempty"`
	Selected int             `json:"selected"`
	Finished bool            `json:"finished"`
	Correct  int             `json:"correct"`
}

type detectView struct {
	Kind        string              `json:"kind"`
	Source      string              `json:"source"`
	Predictions []detect.Prediction `json:"predictions"`
}

// Top returns the most likely prediction.
func (d *detectView) Top() detect.Prediction {
	if d == nil || len(d.Predictions) == 0 {
		return detect.Prediction{}
	}
	return d.Predictions[0]
}

func (s *Server) basePage(r *http.Request, title string) pageData {
	d := pageData{
		Title:            title,
		GoogleEnabled:    s.providers[models.ProviderGoogle] != nil,
		AssistantEnabled: s.assistant != nil,
	}
	if sess, ok := auth.SessionFromContext(r.Context()); ok {
		d.LoggedIn = sess.IsAuthenticated()
		d.Email = sess.Email()
		d.UI = ui.Load(sess)
	}
	return d
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data pageData) {
	t, ok := s.pages[name]
	if !ok {
		http.Error(w, "unknown page", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		s.logger.Error("render failed",
			zap.String("request_id", RequestIDFromContext(r.Context())),
			zap.String("page", name),
			zap.Error(err),
		)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// back returns the same-site path the request came from, or "/".
func back(r *http.Request) string {
	ref := r.Header.Get("Referer")
	if ref == "" {
		return "/"
	}
	u, err := url.Parse(ref)
	if err != nil || (u.Host != "" && u.Host != r.Host) || !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(u.Path, "//") {
		return "/"
	}
	if u.RawQuery != "" {
		return u.Path + "?" + u.RawQuery
	}
	return u.Path
}

func nowRFC3339() string { return time.Now().Format(time.RFC3339) }
