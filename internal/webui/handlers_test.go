package webui

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"matchdash/internal/apiclient"
	"matchdash/internal/auth"
	"matchdash/internal/dashboard"
	"matchdash/internal/domain"
	"matchdash/internal/service"
	"matchdash/internal/store/memory"
)

type stubBackend struct {
	users    []domain.User
	received []domain.InterestRequest
	room     domain.ChatRoom
	sendErr  error
}

func (b *stubBackend) ListUsers(context.Context) ([]domain.User, error) { return b.users, nil }

func (b *stubBackend) ListReceivedInterests(context.Context) ([]domain.InterestRequest, error) {
	return b.received, nil
}

func (b *stubBackend) ListSentInterests(context.Context) ([]domain.InterestRequest, error) {
	return nil, nil
}

func (b *stubBackend) SendInterest(context.Context, int64) error { return b.sendErr }

func (b *stubBackend) HandleInterest(context.Context, int64, domain.InterestStatus) error {
	return nil
}

func (b *stubBackend) CreateOrGetChatRoom(context.Context, int64) (domain.ChatRoom, error) {
	return b.room, nil
}

type stubAuthenticator struct {
	token string
}

func (s stubAuthenticator) Login(_ context.Context, username, password string) (string, error) {
	if s.token == "" || password != "secret" {
		return "", domain.ErrInvalidCredentials
	}
	return s.token, nil
}

type testApp struct {
	h          http.Handler
	store      *memory.SessionsStore
	dashboards *dashboard.Registry
	codec      auth.CookieCodec
}

func newTestAppEnv(t *testing.T, backend *stubBackend) *testApp {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sealer, err := auth.NewTokenSealer([]byte("0123456789abcdef0123456789abcdef"))
	if err != nil {
		t.Fatalf("NewTokenSealer: %v", err)
	}
	registry := dashboard.NewRegistry(func(domain.Session) dashboard.Backend { return backend }, dashboard.Options{Logger: logger})
	t.Cleanup(registry.Close)

	ta := &testApp{
		store:      memory.NewSessionsStore(),
		dashboards: registry,
		codec:      auth.NewCookieCodec([]byte("cookie-secret-cookie-secret-0123")),
	}
	ta.h = New(Opts{
		Logger: logger,
		Sessions: &service.SessionService{
			Sessions:      ta.store,
			Authenticator: stubAuthenticator{token: "tok-login"},
			Sealer:        sealer,
			SessionTTL:    time.Hour,
		},
		Dashboards:  registry,
		CookieCodec: ta.codec,
		SessionTTL:  time.Hour,
		ChatURL:     "https://chat.example/rooms/{room}",
	})
	return ta
}

func newTestApp(t *testing.T, backend *stubBackend) http.Handler {
	t.Helper()
	return newTestAppEnv(t, backend).h
}

func postForm(t *testing.T, h http.Handler, cookie *http.Cookie, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func get(t *testing.T, h http.Handler, cookie *http.Cookie, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func sessionCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == auth.SessionCookieName && c.Value != "" {
			return c
		}
	}
	t.Fatalf("no session cookie in response")
	return nil
}

func signIn(t *testing.T, h http.Handler) *http.Cookie {
	t.Helper()
	rr := postForm(t, h, nil, "/app/session", url.Values{"token": {"tok-1"}, "username": {"ann"}})
	if rr.Code != http.StatusFound || rr.Header().Get("Location") != "/app/" {
		t.Fatalf("session hand-off = %d %q", rr.Code, rr.Header().Get("Location"))
	}
	return sessionCookie(t, rr)
}

func TestHomeRedirectsWithoutSession(t *testing.T) {
	h := newTestApp(t, &stubBackend{})

	rr := get(t, h, nil, "/app/")
	if rr.Code != http.StatusFound || rr.Header().Get("Location") != "/app/login" {
		t.Fatalf("got %d %q", rr.Code, rr.Header().Get("Location"))
	}

	rr = get(t, h, nil, "/app")
	if rr.Code != http.StatusFound || rr.Header().Get("Location") != "/app/" {
		t.Fatalf("/app got %d %q", rr.Code, rr.Header().Get("Location"))
	}
}

func TestLoginPage(t *testing.T) {
	h := newTestApp(t, &stubBackend{})

	rr := get(t, h, nil, "/app/login?notice=session_expired")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, `action="/app/login"`) || !strings.Contains(body, "Your session has expired") {
		t.Fatalf("unexpected body: %s", body)
	}
}

func TestLoginPost(t *testing.T) {
	h := newTestApp(t, &stubBackend{})

	rr := postForm(t, h, nil, "/app/login", url.Values{"username": {"ann"}, "password": {"wrong"}})
	if rr.Code != http.StatusUnauthorized || !strings.Contains(rr.Body.String(), "Invalid username or password") {
		t.Fatalf("bad credentials = %d %s", rr.Code, rr.Body.String())
	}

	rr = postForm(t, h, nil, "/app/login", url.Values{"username": {"ann"}})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("missing password = %d", rr.Code)
	}

	rr = postForm(t, h, nil, "/app/login", url.Values{"username": {"ann"}, "password": {"secret"}})
	if rr.Code != http.StatusFound || rr.Header().Get("Location") != "/app/" {
		t.Fatalf("login = %d %q", rr.Code, rr.Header().Get("Location"))
	}
	cookie := sessionCookie(t, rr)

	rr = get(t, h, cookie, "/app/login")
	if rr.Code != http.StatusFound {
		t.Fatalf("login page with session = %d", rr.Code)
	}
}

func TestSessionHandOffRequiresToken(t *testing.T) {
	h := newTestApp(t, &stubBackend{})

	rr := postForm(t, h, nil, "/app/session", url.Values{"username": {"ann"}})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestHomeRendersPanes(t *testing.T) {
	backend := &stubBackend{
		users: []domain.User{
			{ID: 42, Username: "zed", FirstName: "Zed", Bio: "<p>Hi</p><script>alert(1)</script>"},
			{ID: 7, Username: "bob"},
		},
		received: []domain.InterestRequest{
			{ID: 10, FromUser: &domain.User{ID: 42, Username: "zed"}, Status: domain.InterestAccepted},
			{ID: 11, FromUser: &domain.User{ID: 7, Username: "bob"}, Status: domain.InterestPending},
			{ID: 12, Status: domain.InterestPending},
		},
	}
	h := newTestApp(t, backend)
	cookie := signIn(t, h)

	rr := get(t, h, cookie, "/app/")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{
		"Signed in as <strong>ann</strong>",
		"Zed",
		"@zed",
		"<p>Hi</p>",
		`name="status" value="2"`,
		`name="status" value="3"`,
		"Unknown user",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
	if strings.Contains(body, "alert(1)") {
		t.Errorf("bio was not sanitized")
	}
	if got := strings.Count(body, `action="/app/chat/open"`); got != 2 {
		t.Errorf("chat buttons = %d, want 2 (notification + user row)", got)
	}
}

func TestSendInterestShowsBanner(t *testing.T) {
	backend := &stubBackend{}
	h := newTestApp(t, backend)
	cookie := signIn(t, h)

	rr := postForm(t, h, cookie, "/app/interests", url.Values{"user_id": {"42"}})
	if rr.Code != http.StatusFound || rr.Header().Get("Location") != "/app/" {
		t.Fatalf("post = %d %q", rr.Code, rr.Header().Get("Location"))
	}

	body := get(t, h, cookie, "/app/").Body.String()
	if !strings.Contains(body, "Interest sent successfully!") || !strings.Contains(body, "banner-success") {
		t.Fatalf("banner missing: %s", body)
	}
	if !strings.Contains(body, `data-ttl-ms="2000"`) {
		t.Fatalf("banner ttl missing")
	}

	rr = postForm(t, h, cookie, "/app/banner/dismiss", url.Values{})
	if rr.Code != http.StatusFound {
		t.Fatalf("dismiss = %d", rr.Code)
	}
	if body := get(t, h, cookie, "/app/").Body.String(); strings.Contains(body, "Interest sent successfully!") {
		t.Fatalf("banner still shown after dismiss")
	}
}

func TestInvalidActionInput(t *testing.T) {
	h := newTestApp(t, &stubBackend{})
	cookie := signIn(t, h)

	rr := postForm(t, h, cookie, "/app/interests", url.Values{"user_id": {"abc"}})
	if loc := rr.Header().Get("Location"); loc != "/app/?error=invalid_request" {
		t.Fatalf("location = %q", loc)
	}

	rr = postForm(t, h, cookie, "/app/interests/handle", url.Values{"id": {"7"}, "status": {"1"}})
	if loc := rr.Header().Get("Location"); loc != "/app/?error=invalid_request" {
		t.Fatalf("location = %q", loc)
	}

	body := get(t, h, cookie, "/app/?error=invalid_request").Body.String()
	if !strings.Contains(body, "Invalid request.") {
		t.Fatalf("error not rendered")
	}
}

func TestChatDialog(t *testing.T) {
	backend := &stubBackend{
		users: []domain.User{{ID: 42, Username: "zed"}},
		room:  domain.ChatRoom{ID: 9},
	}
	h := newTestApp(t, backend)
	cookie := signIn(t, h)

	rr := postForm(t, h, cookie, "/app/chat/open", url.Values{"user_id": {"42"}})
	if rr.Code != http.StatusFound {
		t.Fatalf("open = %d", rr.Code)
	}
	body := get(t, h, cookie, "/app/").Body.String()
	if !strings.Contains(body, `src="https://chat.example/rooms/9"`) || !strings.Contains(body, "Chat with zed") {
		t.Fatalf("chat dialog missing: %s", body)
	}

	_ = postForm(t, h, cookie, "/app/chat/close", url.Values{})
	if body := get(t, h, cookie, "/app/").Body.String(); strings.Contains(body, "<dialog") {
		t.Fatalf("dialog still open")
	}
}

func TestBackendUnauthorizedEndsSession(t *testing.T) {
	backend := &stubBackend{sendErr: &apiclient.Error{Op: "send interest", Status: http.StatusUnauthorized}}
	h := newTestApp(t, backend)
	cookie := signIn(t, h)

	rr := postForm(t, h, cookie, "/app/interests", url.Values{"user_id": {"42"}})
	if loc := rr.Header().Get("Location"); loc != "/app/login?notice=session_expired" {
		t.Fatalf("location = %q", loc)
	}

	rr = get(t, h, cookie, "/app/")
	if rr.Header().Get("Location") != "/app/login" {
		t.Fatalf("session survived: %d", rr.Code)
	}
}

func TestLogout(t *testing.T) {
	h := newTestApp(t, &stubBackend{})
	cookie := signIn(t, h)

	rr := postForm(t, h, cookie, "/app/logout", url.Values{})
	if rr.Code != http.StatusFound || rr.Header().Get("Location") != "/app/login" {
		t.Fatalf("logout = %d %q", rr.Code, rr.Header().Get("Location"))
	}

	rr = get(t, h, cookie, "/app/")
	if rr.Header().Get("Location") != "/app/login" {
		t.Fatalf("session still valid after logout")
	}
}

func TestStaticAssets(t *testing.T) {
	h := newTestApp(t, &stubBackend{})

	for _, path := range []string{"/app/static/app.css", "/app/static/app.js"} {
		rr := get(t, h, nil, path)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s = %d", path, rr.Code)
		}
	}
}

func TestRevokedSessionUnmountsDashboard(t *testing.T) {
	ta := newTestAppEnv(t, &stubBackend{})
	cookie := signIn(t, ta.h)

	sessID, ok := ta.codec.DecodeSessionID(cookie.Value)
	if !ok {
		t.Fatalf("cookie does not decode")
	}
	if _, ok := ta.dashboards.Get(sessID); !ok {
		t.Fatalf("no dashboard after sign-in")
	}
	if err := ta.store.RevokeSession(context.Background(), sessID, time.Now()); err != nil {
		t.Fatalf("RevokeSession: %v", err)
	}

	rr := get(t, ta.h, cookie, "/app/")
	if rr.Code != http.StatusFound || rr.Header().Get("Location") != "/app/login" {
		t.Fatalf("home = %d %q", rr.Code, rr.Header().Get("Location"))
	}
	if n := ta.dashboards.Len(); n != 0 {
		t.Fatalf("mounted = %d", n)
	}
}
