package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/harrylevesque/phishaware/internal/accounts"
	"github.com/harrylevesque/phishaware/internal/assist"
	"github.com/harrylevesque/phishaware/internal/auth"
	"github.com/harrylevesque/phishaware/internal/config"
	"github.com/harrylevesque/phishaware/internal/crypto"
	"github.com/harrylevesque/phishaware/internal/detect"
	"github.com/harrylevesque/phishaware/internal/learn"
	"github.com/harrylevesque/phishaware/internal/utils"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// started by go.opencensus.io/stats/view init, imported through genai
		goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"),
	)
}

type fakeDetector struct {
	images [][]byte
	texts  []string
	err    error
}

func (f *fakeDetector) DetectImage(_ context.Context, data []byte) ([]detect.Prediction, error) {
	f.images = append(f.images, data)
	if f.err != nil {
		return nil, f.err
	}
	return []detect.Prediction{{Label: "artificial", Score: 0.92}, {Label: "human", Score: 0.08}}, nil
}

func (f *fakeDetector) DetectText(_ context.Context, text string) ([]detect.Prediction, error) {
	f.texts = append(f.texts, text)
	if f.err != nil {
		return nil, f.err
	}
	return []detect.Prediction{{Label: "Real", Score: 0.7}, {Label: "Fake", Score: 0.3}}, nil
}

type fakeAsker struct{}

func (fakeAsker) Ask(_ context.Context, prompt string) (assist.Reply, error) {
	if strings.TrimSpace(prompt) == "" {
		return assist.Reply{}, assist.ErrEmptyPrompt
	}
	return assist.Format("**Tip:** check the sender.\nNever share codes."), nil
}

type fakeProvider struct{ email string }

func (fakeProvider) Name() string { return "google" }

func (fakeProvider) AuthCodeURL(state string) string {
	return "https://accounts.example/o?state=" + url.QueryEscape(state)
}

func (f fakeProvider) Exchange(context.Context, string) (string, error) { return f.email, nil }

type testEnv struct {
	router   *mux.Router
	store    *accounts.MemoryStore
	detector *fakeDetector
}

func newTestEnv(t *testing.T, withAssistant bool) *testEnv {
	t.Helper()
	return newTestEnvWith(t, config.Default(), withAssistant)
}

func newTestEnvWith(t *testing.T, cfg *config.Config, withAssistant bool) *testEnv {
	t.Helper()
	cfg.Detect.MaxUploadBytes = 1 << 10

	store := accounts.NewMemoryStore()
	svc, err := auth.NewService(store, cfg.Auth, nil)
	require.NoError(t, err)
	sessions, err := auth.NewSessions(crypto.GenerateMasterKey(), cfg.Session, nil)
	require.NoError(t, err)

	det := &fakeDetector{}
	deps := Deps{
		Config:    cfg,
		Auth:      svc,
		Sessions:  sessions,
		Detector:  det,
		Bank:      learn.NewBank(learn.DefaultQuestions(), nil),
		Progress:  learn.NewProgress(),
		Providers: map[string]auth.IdentityProvider{"google": fakeProvider{email: "g@x.com"}},
	}
	if withAssistant {
		deps.Assistant = fakeAsker{}
	}
	r, err := NewRouter(deps)
	require.NoError(t, err)
	return &testEnv{router: r, store: store, detector: det}
}

// browser replays cookies between requests against the router.
type browser struct {
	t       *testing.T
	h       http.Handler
	cookies map[string]*http.Cookie
}

func (e *testEnv) browser(t *testing.T) *browser {
	return &browser{t: t, h: e.router, cookies: map[string]*http.Cookie{}}
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	b.h.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c
	}
	return rec
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (b *browser) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func (b *browser) postJSON(path string, v any) *httptest.ResponseRecorder {
	body, err := json.Marshal(v)
	require.NoError(b.t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return b.do(req)
}

func (b *browser) postFile(path, name, contentType string, data []byte) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+name+`"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(b.t, err)
	_, err = part.Write(data)
	require.NoError(b.t, err)
	require.NoError(b.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return b.do(req)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (b *browser) signIn(email, password string) {
	b.t.Helper()
	rec := b.postJSON("/api/register", map[string]string{"email": email, "password": password, "confirm_password": password})
	require.Equal(b.t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = b.postJSON("/api/login", map[string]string{"email": email, "password": password})
	require.Equal(b.t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestOps(t *testing.T) {
	b := newTestEnv(t, false).browser(t)

	rec := b.get("/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK\n", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec = b.get("/time")
	require.Equal(t, http.StatusOK, rec.Code)
	_, err := time.Parse(time.RFC3339, decode(t, rec)["time"].(string))
	assert.NoError(t, err)
}

func TestPages_GateRedirectsToLogin(t *testing.T) {
	b := newTestEnv(t, false).browser(t)
	for _, path := range []string{"/", "/home", "/learn", "/detect"} {
		rec := b.get(path)
		assert.Equal(t, http.StatusSeeOther, rec.Code, path)
		assert.Equal(t, "/login", rec.Header().Get("Location"), path)
	}
	rec := b.postForm("/ui/toggle/dark_mode", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestPages_RegisterLoginLogout(t *testing.T) {
	env := newTestEnv(t, false)
	b := env.browser(t)

	rec := b.get("/login")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Sign in with Google")

	rec = b.postForm("/register", url.Values{"email": {"a@x.com"}, "password": {"pw1"}, "confirm_password": {"pw2"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Passwords do not match.")

	rec = b.postForm("/register", url.Values{"email": {"a@x.com"}, "password": {"pw1"}, "confirm_password": {"pw1"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?registered=1", rec.Header().Get("Location"))

	rec = b.postForm("/register", url.Values{"email": {"a@x.com"}, "password": {"pw1"}, "confirm_password": {"pw1"}})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "Email already registered. Please use a different email.")

	rec = b.postForm("/login", url.Values{"email": {"a@x.com"}, "password": {"nope"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid email or password.")
	assert.Equal(t, http.StatusSeeOther, b.get("/").Code)

	rec = b.postForm("/login", url.Values{"email": {"a@x.com"}, "password": {"pw1"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	rec = b.get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Welcome to the Homepage!")

	rec = b.postForm("/logout", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, http.StatusSeeOther, b.get("/").Code)
}

func TestPages_UIToggle(t *testing.T) {
	b := newTestEnv(t, false).browser(t)
	b.signIn("a@x.com", "pw1")

	req := httptest.NewRequest(http.MethodPost, "/ui/toggle/dark_mode", nil)
	req.Header.Set("Referer", "http://example.com/learn")
	rec := b.do(req)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/learn", rec.Header().Get("Location"))

	rec = b.get("/")
	assert.Contains(t, rec.Body.String(), `class="dark"`)
	assert.Contains(t, rec.Body.String(), "Light Mode")

	assert.Equal(t, http.StatusNotFound, b.postForm("/ui/toggle/sidebar", nil).Code)

	sess := decode(t, b.get("/api/session"))
	assert.Equal(t, true, sess["authenticated"])
	assert.Equal(t, true, sess["ui"].(map[string]any)["dark_mode"])
}

func TestPages_QuizFlow(t *testing.T) {
	b := newTestEnv(t, false).browser(t)
	b.signIn("a@x.com", "pw1")

	rec := b.get("/learn")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "What is phishing?")

	assert.Equal(t, http.StatusBadRequest, b.postForm("/learn/answer", url.Values{"option": {"9"}}).Code)

	for _, opt := range []string{"1", "1", "1", "2", "1"} {
		require.Equal(t, http.StatusSeeOther, b.postForm("/learn/answer", url.Values{"option": {opt}}).Code)
		require.Equal(t, http.StatusSeeOther, b.postForm("/learn/next", nil).Code)
	}
	rec = b.get("/learn")
	assert.Contains(t, rec.Body.String(), "You got 5 out of 5 correct!")

	b.postForm("/learn/reset", nil)
	assert.Contains(t, b.get("/learn").Body.String(), "Question 1 of 5")
}

func TestPages_VideoCarousel(t *testing.T) {
	b := newTestEnv(t, false).browser(t)
	b.signIn("a@x.com", "pw1")

	assert.Contains(t, b.get("/learn").Body.String(), "gSQgbCo6PAg")
	b.postForm("/learn/video/next", nil)
	assert.Contains(t, b.get("/learn").Body.String(), "WFc6t-c892A")
	b.postForm("/learn/video/next", nil)
	assert.Contains(t, b.get("/learn").Body.String(), "gSQgbCo6PAg")
	b.postForm("/learn/video/prev", nil)
	assert.Contains(t, b.get("/learn").Body.String(), "WFc6t-c892A")
	assert.Equal(t, http.StatusNotFound, b.postForm("/learn/video/sideways", nil).Code)
}

func TestPages_Detect(t *testing.T) {
	env := newTestEnv(t, false)
	b := env.browser(t)
	b.signIn("a@x.com", "pw1")

	rec := b.postForm("/detect", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Please upload a file to detect.")

	rec = b.postFile("/detect", "cat.png", "image/png", []byte("\x89PNG\r\n\x1a\nfake"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "artificial")
	assert.Contains(t, rec.Body.String(), "92%")
	require.Len(t, env.detector.images, 1)

	rec = b.postFile("/detect", "note.txt", "text/plain", []byte("hello there"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"hello there"}, env.detector.texts)

	rec = b.postFile("/detect", "doc.pdf", "application/pdf", []byte("%PDF-1.4"))
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	rec = b.postFile("/detect", "latin1.txt", "text/plain", []byte("caf\xe9"))
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Len(t, env.detector.texts, 1)

	rec = b.postFile("/detect", "big.txt", "text/plain", bytes.Repeat([]byte("a"), 4<<10))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	env.detector.err = utils.Remote("detect image", errors.New("503"))
	rec = b.postFile("/detect", "cat.png", "image/png", []byte("\x89PNG\r\n\x1a\nfake"))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), utils.GenericRemoteMessage)
}

func TestPages_Assistant(t *testing.T) {
	b := newTestEnv(t, true).browser(t)
	b.signIn("a@x.com", "pw1")

	rec := b.postForm("/assistant", url.Values{"prompt": {"how do I spot phishing?"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<p>Tip: check the sender.</p>")

	rec = b.postForm("/assistant", url.Values{"prompt": {"  "}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	disabled := newTestEnv(t, false).browser(t)
	disabled.signIn("a@x.com", "pw1")
	assert.Equal(t, http.StatusServiceUnavailable, disabled.postForm("/assistant", url.Values{"prompt": {"hi"}}).Code)
}

func TestOAuth_SignUpThenSignIn(t *testing.T) {
	env := newTestEnv(t, false)
	b := env.browser(t)

	rec := b.get("/auth/google/login?intent=signup")
	require.Equal(t, http.StatusFound, rec.Code)
	consent, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	state := consent.Query().Get("state")
	require.NotEmpty(t, state)

	rec = b.get("/auth/google/callback?code=c&state=" + url.QueryEscape(state))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, http.StatusOK, b.get("/").Code)

	n, _ := env.store.Count(context.Background())
	assert.Equal(t, 1, n)

	rec = b.get("/auth/google/callback?code=c&state=stale")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, http.StatusNotFound, b.get("/auth/github/login").Code)
}

func TestOAuth_SignInWithoutAccount(t *testing.T) {
	b := newTestEnv(t, false).browser(t)

	rec := b.get("/auth/google/login")
	consent, _ := url.Parse(rec.Header().Get("Location"))
	rec = b.get("/auth/google/callback?code=c&state=" + url.QueryEscape(consent.Query().Get("state")))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "No account found for this Google account. Please register first.")
	assert.Equal(t, http.StatusSeeOther, b.get("/").Code)
}

func TestAPI_AuthFlow(t *testing.T) {
	b := newTestEnv(t, false).browser(t)

	rec := b.get("/api/quiz")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", decode(t, rec)["error"])

	rec = b.postJSON("/api/register", map[string]string{"email": "a@x.com", "password": "pw1", "confirm_password": "pw1"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "a@x.com", decode(t, rec)["user"].(map[string]any)["email"])

	rec = b.postJSON("/api/register", map[string]string{"email": "a@x.com", "password": "pw1", "confirm_password": "pw1"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = b.postJSON("/api/login", map[string]string{"email": "a@x.com", "password": "bad"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, false, decode(t, b.get("/api/session"))["authenticated"])

	rec = b.postJSON("/api/login", map[string]string{"email": "", "password": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Please fill out both fields.", decode(t, rec)["error"])

	rec = b.postJSON("/api/login", map[string]string{"email": "a@x.com", "password": "pw1"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a@x.com", decode(t, b.get("/api/session"))["email"])

	require.Equal(t, http.StatusOK, b.postJSON("/api/logout", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, b.get("/api/quiz").Code)
}

func TestAPI_RegisterBcryptLongPassword(t *testing.T) {
	cfg := config.Default()
	cfg.Auth.PasswordScheme = "bcrypt"
	cfg.Auth.BcryptCost = 4
	b := newTestEnvWith(t, cfg, false).browser(t)

	long := strings.Repeat("x", 80)
	rec := b.postJSON("/api/register", map[string]string{"email": "a@x.com", "password": long, "confirm_password": long})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Password is too long.", decode(t, rec)["error"])

	rec = b.postJSON("/api/register", map[string]string{"email": "a@x.com", "password": "pw1", "confirm_password": "pw1"})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = b.postJSON("/api/login", map[string]string{"email": "a@x.com", "password": "pw1"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPI_Quiz(t *testing.T) {
	b := newTestEnv(t, false).browser(t)
	b.signIn("a@x.com", "pw1")

	q := decode(t, b.get("/api/quiz"))
	assert.Equal(t, float64(5), q["total"])
	question := q["question"].(map[string]any)
	assert.Equal(t, "What is phishing?", question["prompt"])
	assert.NotContains(t, question, "correct")

	assert.Equal(t, http.StatusBadRequest, b.postJSON("/api/quiz/answer", map[string]any{}).Code)
	assert.Equal(t, http.StatusBadRequest, b.postJSON("/api/quiz/answer", map[string]any{"option": 7}).Code)

	q = decode(t, b.postJSON("/api/quiz/answer", map[string]any{"option": 1}))
	assert.Equal(t, float64(1), q["selected"])

	for i := 0; i < 5; i++ {
		q = decode(t, b.postJSON("/api/quiz/next", nil))
	}
	assert.Equal(t, true, q["finished"])
	assert.Equal(t, float64(1), q["correct"])

	q = decode(t, b.postJSON("/api/quiz/reset", nil))
	assert.Equal(t, false, q["finished"])
	assert.Equal(t, float64(0), q["index"])
}

func TestAPI_DetectAndAssistant(t *testing.T) {
	env := newTestEnv(t, true)
	b := env.browser(t)
	b.signIn("a@x.com", "pw1")

	rec := b.postJSON("/api/detect", map[string]string{"text": "Your account is locked, click here"})
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, "text", out["kind"])
	preds := out["predictions"].([]any)
	assert.Equal(t, "Real", preds[0].(map[string]any)["label"])

	rec = b.postJSON("/api/detect", map[string]string{"text": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Please upload a file to detect.", decode(t, rec)["error"])

	rec = b.postJSON("/api/assistant", map[string]string{"prompt": "what is smishing?"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"Tip: check the sender.", "Never share codes."}, decode(t, rec)["paragraphs"])

	rec = b.postJSON("/api/assistant", map[string]string{"prompt": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBack(t *testing.T) {
	for ref, want := range map[string]string{
		"":                            "/",
		"http://example.com/learn?x=1": "/learn?x=1",
		"http://evil.com/learn":        "/",
		"http://example.com//evil.com": "/",
		"/detect":                      "/detect",
	} {
		req := httptest.NewRequest(http.MethodPost, "/ui/toggle/dark_mode", nil)
		if ref != "" {
			req.Header.Set("Referer", ref)
		}
		assert.Equal(t, want, back(req), ref)
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadGateway, statusFor(utils.Remote("x", io.EOF)))
	assert.Equal(t, http.StatusInternalServerError, statusFor(io.EOF))
	assert.Equal(t, http.StatusConflict, statusFor(auth.ErrDuplicateAccount))
}
