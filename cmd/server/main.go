package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"matchdash/internal/apiclient"
	"matchdash/internal/auth"
	"matchdash/internal/config"
	"matchdash/internal/dashboard"
	"matchdash/internal/domain"
	"matchdash/internal/httpapi"
	"matchdash/internal/service"
	"matchdash/internal/store/memory"
	mongostore "matchdash/internal/store/mongo"
	"matchdash/internal/store/postgres"
	"matchdash/internal/webui"
)

const sweepInterval = 15 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	logger := newLogger(cfg)

	sessions, storePing, closeStore, err := openSessionStore(context.Background(), cfg)
	if err != nil {
		logger.Error("session store open failed", "store", cfg.SessionStore, "err", err)
		os.Exit(1)
	}
	defer closeStore()

	sealer, err := auth.NewTokenSealer([]byte(cfg.CookieSecret))
	if err != nil {
		logger.Error("token sealer setup failed", "err", err)
		os.Exit(1)
	}
	if cfg.CookieSecret == "" {
		logger.Warn("APP_COOKIE_SECRET not set: session cookies are unsigned and sessions do not survive a restart")
	}

	backend := apiclient.New(apiclient.Options{
		BaseURL:   cfg.APIBaseURL,
		Timeout:   cfg.APITimeout,
		LoginPath: cfg.APILoginPath,
	})

	sessionSvc := &service.SessionService{
		Sessions:      sessions,
		Authenticator: backend,
		Sealer:        sealer,
		SessionTTL:    cfg.SessionTTL,
		Now:           time.Now,
	}

	registry := dashboard.NewRegistry(func(s domain.Session) dashboard.Backend {
		return backend.WithToken(s.Token)
	}, dashboard.Options{
		Logger:    logger,
		BannerTTL: cfg.BannerTTL,
	})
	defer registry.Close()

	cookieCodec := auth.NewCookieCodec([]byte(cfg.CookieSecret))

	apiRouter := httpapi.NewRouter(httpapi.RouterOpts{
		Logger:       logger,
		IsProd:       cfg.IsProd(),
		StorePing:    storePing,
		Sessions:     sessionSvc,
		Dashboards:   registry,
		CookieCodec:  cookieCodec,
		CookieSecure: cfg.CookieSecure(),
		SessionTTL:   cfg.SessionTTL,
		ChatURL:      cfg.ChatURL,
		CORSOrigins:  cfg.CORSOrigins,
		AppPath:      "/app/",
	})

	var uiRouter http.Handler = webui.New(webui.Opts{
		Logger:       logger,
		Sessions:     sessionSvc,
		Dashboards:   registry,
		CookieCodec:  cookieCodec,
		CookieSecure: cfg.CookieSecure(),
		SessionTTL:   cfg.SessionTTL,
		ChatURL:      cfg.ChatURL,
	})
	uiRouter = httpapi.RequestLogger(logger)(uiRouter)
	uiRouter = httpapi.RequestID()(uiRouter)
	uiRouter = httpapi.Recoverer(logger, cfg.IsProd())(uiRouter)

	root := http.NewServeMux()
	root.Handle("/", apiRouter)
	root.Handle("/app", uiRouter)
	root.Handle("/app/", uiRouter)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sweeper, _ := sessions.(expiredSweeper)
	go sweepExpired(ctx, logger, sweeper, registry, sessionSvc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           root,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "env", cfg.Env, "addr", cfg.Addr, "session_store", cfg.SessionStore, "api_base_url", cfg.APIBaseURL.String())
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}
}

// openSessionStore returns the configured store, a health check for it (nil
// for the memory store) and a close func.
func openSessionStore(ctx context.Context, cfg config.Config) (service.SessionsStore, func(context.Context) error, func(), error) {
	switch cfg.SessionStore {
	case config.SessionStorePostgres:
		pool, err := postgres.Open(ctx, cfg.DBDSN)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		return postgres.NewSessionsStore(pool), pool.Ping, pool.Close, nil

	case config.SessionStoreMongo:
		client, err := mongostore.Open(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, nil, err
		}
		store := mongostore.NewSessionsStore(client.Database(cfg.MongoDB))
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, nil, err
		}
		ping := func(ctx context.Context) error { return client.Ping(ctx, nil) }
		closeFn := func() { _ = client.Disconnect(context.Background()) }
		return store, ping, closeFn, nil

	case config.SessionStoreMemory:
		return memory.NewSessionsStore(), nil, func() {}, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown session store %q", cfg.SessionStore)
}

type expiredSweeper interface {
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// sweepExpired drops expired sessions and unmounts their dashboards until
// ctx ends. s is nil for mongo, which relies on its TTL index.
func sweepExpired(ctx context.Context, logger *slog.Logger, s expiredSweeper, registry *dashboard.Registry, sessions *service.SessionService) {
	t := time.NewTicker(sweepInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if s != nil {
				n, err := s.DeleteExpired(ctx, now)
				if err != nil {
					logger.Warn("session sweep failed", "err", err)
				} else if n > 0 {
					logger.Info("session sweep", "deleted", n)
				}
			}

			pruned := registry.Prune(func(sessionID string) bool {
				_, err := sessions.Resolve(ctx, sessionID)
				return !errors.Is(err, domain.ErrUnauthorized)
			})
			if pruned > 0 {
				logger.Info("dashboard prune", "unmounted", pruned)
			}
		}
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info", "":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.IsProd() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
