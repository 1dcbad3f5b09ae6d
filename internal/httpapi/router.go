package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rs/cors"

	"matchdash/internal/auth"
	"matchdash/internal/dashboard"
	"matchdash/internal/service"
)

type RouterOpts struct {
	Logger *slog.Logger
	IsProd bool

	// StorePing reports session store health on /healthz.
	StorePing func(context.Context) error

	Sessions     *service.SessionService
	Dashboards   *dashboard.Registry
	CookieCodec  auth.CookieCodec
	CookieSecure bool
	SessionTTL   time.Duration
	ChatURL      string
	CORSOrigins  []string

	// AppPath is where the HTML dashboard lives; GET / redirects there.
	AppPath string
}

func NewRouter(opts RouterOpts) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	api := &api{
		logger:       logger,
		isProd:       opts.IsProd,
		storePing:    opts.StorePing,
		sessions:     opts.Sessions,
		dashboards:   opts.Dashboards,
		cookieCodec:  opts.CookieCodec,
		cookieSecure: opts.CookieSecure,
		sessionTTL:   opts.SessionTTL,
		chatURL:      opts.ChatURL,
		loginLimiter: newLoginLimiter(),
	}

	publicMux := http.NewServeMux()
	apiMux := http.NewServeMux()

	if opts.AppPath != "" {
		publicMux.Handle("GET /{$}", http.RedirectHandler(opts.AppPath, http.StatusFound))
	}
	publicMux.HandleFunc("GET /healthz", api.handleHealthz)

	if api.sessions == nil || api.dashboards == nil {
		apiMux.HandleFunc("/v1/", handleNotImplemented)
	} else {
		apiMux.HandleFunc("POST /v1/session", api.handleSessionCreate)
		apiMux.HandleFunc("DELETE /v1/session", api.requireSession(api.handleSessionDelete))

		apiMux.HandleFunc("GET /v1/dashboard", api.requireDashboard(api.handleDashboardGet))
		apiMux.HandleFunc("POST /v1/dashboard/reload", api.requireSession(api.handleDashboardReload))
		apiMux.HandleFunc("POST /v1/interests", api.requireDashboard(api.handleInterestsSend))
		apiMux.HandleFunc("POST /v1/interests/{id}/handle", api.requireDashboard(api.handleInterestsHandle))
		apiMux.HandleFunc("GET /v1/users/{id}/chat-available", api.requireDashboard(api.handleChatAvailable))
		apiMux.HandleFunc("POST /v1/chat", api.requireDashboard(api.handleChatOpen))
		apiMux.HandleFunc("DELETE /v1/chat", api.requireDashboard(api.handleChatClose))
		apiMux.HandleFunc("POST /v1/banner/dismiss", api.requireDashboard(api.handleBannerDismiss))
	}

	apiHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Handler only looks the route up; ServeHTTP also sets path values.
		if _, pattern := apiMux.Handler(r); pattern == "" {
			handleV1NotFound(w, r)
			return
		}
		apiMux.ServeHTTP(w, r)
	})

	root := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/v1/") || r.URL.Path == "/v1" {
			apiHandler.ServeHTTP(w, r)
			return
		}
		publicMux.ServeHTTP(w, r)
	})

	var h http.Handler = root
	if len(opts.CORSOrigins) > 0 {
		h = cors.New(cors.Options{
			AllowedOrigins:   opts.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Content-Type", "X-Request-Id"},
			ExposedHeaders:   []string{"X-Request-Id"},
			AllowCredentials: true,
		}).Handler(h)
	}
	h = RequestLogger(logger)(h)
	h = RequestID()(h)
	h = Recoverer(logger, opts.IsProd)(h)
	return h
}

func handleNotImplemented(w http.ResponseWriter, _ *http.Request) {
	WriteError(w, http.StatusNotImplemented, "not_implemented", "not implemented")
}

func handleV1NotFound(w http.ResponseWriter, _ *http.Request) {
	WriteError(w, http.StatusNotFound, "not_found", "not found")
}

type api struct {
	logger *slog.Logger
	isProd bool

	storePing func(context.Context) error

	sessions     *service.SessionService
	dashboards   *dashboard.Registry
	cookieCodec  auth.CookieCodec
	cookieSecure bool
	sessionTTL   time.Duration
	chatURL      string

	loginLimiter *loginLimiter
}

func (a *api) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	if a.storePing != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
		defer cancel()
		if err := a.storePing(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("session store down"))
			return
		}
	}

	_, _ = w.Write([]byte("ok"))
}
