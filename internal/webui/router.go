// Package webui serves the server-rendered dashboard under /app/.
package webui

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"matchdash/internal/auth"
	"matchdash/internal/dashboard"
	"matchdash/internal/domain"
	"matchdash/internal/service"
)

type Opts struct {
	Logger *slog.Logger

	Sessions     *service.SessionService
	Dashboards   *dashboard.Registry
	CookieCodec  auth.CookieCodec
	CookieSecure bool
	SessionTTL   time.Duration

	// ChatURL is the chat page template; {room} is replaced with the room id.
	ChatURL string
}

func New(opts Opts) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if opts.Sessions == nil || opts.Dashboards == nil {
		logger.Warn("webui: missing services", "sessions", opts.Sessions != nil, "dashboards", opts.Dashboards != nil)
	}

	app := &app{
		logger:       logger,
		sessions:     opts.Sessions,
		dashboards:   opts.Dashboards,
		cookieCodec:  opts.CookieCodec,
		cookieSecure: opts.CookieSecure,
		sessionTTL:   opts.SessionTTL,
		chatURL:      opts.ChatURL,
	}

	t, err := parseTemplates()
	if err != nil {
		logger.Error("webui: parse templates failed", "err", err)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "internal server error", http.StatusInternalServerError)
		})
	}
	app.templates = t

	mux := http.NewServeMux()
	mux.HandleFunc("GET /app", app.redirectApp)
	mux.HandleFunc("GET /app/{$}", app.requireAuth(app.handleHome))
	mux.HandleFunc("GET /app/login", app.handleLoginGet)
	mux.HandleFunc("POST /app/login", app.handleLoginPost)
	mux.HandleFunc("POST /app/session", app.handleSessionPost)
	mux.HandleFunc("POST /app/logout", app.handleLogoutPost)
	mux.HandleFunc("POST /app/reload", app.requireAuth(app.handleReloadPost))
	mux.HandleFunc("POST /app/interests", app.requireAuth(app.handleInterestPost))
	mux.HandleFunc("POST /app/interests/handle", app.requireAuth(app.handleInterestHandlePost))
	mux.HandleFunc("POST /app/chat/open", app.requireAuth(app.handleChatOpenPost))
	mux.HandleFunc("POST /app/chat/close", app.requireAuth(app.handleChatClosePost))
	mux.HandleFunc("POST /app/banner/dismiss", app.requireAuth(app.handleBannerDismissPost))

	staticFS, err := fs.Sub(assets, "static")
	if err != nil {
		logger.Error("webui: static fs setup failed", "err", err)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "internal server error", http.StatusInternalServerError)
		})
	}
	static := http.StripPrefix("/app/static/", http.FileServer(http.FS(staticFS)))
	mux.Handle("GET /app/static/", static)
	mux.Handle("HEAD /app/static/", static)

	return mux
}

type app struct {
	logger *slog.Logger

	sessions   *service.SessionService
	dashboards *dashboard.Registry

	cookieCodec  auth.CookieCodec
	cookieSecure bool
	sessionTTL   time.Duration
	chatURL      string

	templates *templates
}

type ctxKey int

const (
	sessionIDKey ctxKey = iota
	sessionKey
	dashboardKey
)

func (a *app) redirectApp(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/app/", http.StatusFound)
}

// requireAuth resolves the session cookie and mounts the session's
// dashboard, redirecting to the login page when there is no live session.
func (a *app) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if a.sessions == nil || a.dashboards == nil {
			a.templates.renderError(w, http.StatusServiceUnavailable, "Unavailable", uiUnavailableMsg)
			return
		}
		sess, sessID, ok := a.currentSession(r)
		if !ok {
			http.Redirect(w, r, "/app/login", http.StatusFound)
			return
		}

		d := a.dashboards.Ensure(r.Context(), sessID, sess)
		ctx := context.WithValue(r.Context(), sessionIDKey, sessID)
		ctx = context.WithValue(ctx, sessionKey, sess)
		ctx = context.WithValue(ctx, dashboardKey, d)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

func (a *app) currentSession(r *http.Request) (domain.Session, string, bool) {
	if a.sessions == nil {
		return domain.Session{}, "", false
	}
	sessID, ok := a.cookieCodec.SessionIDFromRequest(r)
	if !ok {
		return domain.Session{}, "", false
	}
	sess, err := a.sessions.Resolve(r.Context(), sessID)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			if a.dashboards != nil {
				a.dashboards.Unmount(sessID)
			}
		} else {
			a.logger.Error("webui: resolve session", "err", err)
		}
		return domain.Session{}, "", false
	}
	return sess, sessID, true
}

func currentDashboard(r *http.Request) *dashboard.Dashboard {
	d, _ := r.Context().Value(dashboardKey).(*dashboard.Dashboard)
	return d
}

func currentSessionID(r *http.Request) string {
	id, _ := r.Context().Value(sessionIDKey).(string)
	return id
}

func currentSess(r *http.Request) domain.Session {
	sess, _ := r.Context().Value(sessionKey).(domain.Session)
	return sess
}
