package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"matchdash/internal/dashboard"
	"matchdash/internal/domain"
)

type authCtxKey int

const (
	authSessionKey authCtxKey = iota
	authSessionIDKey
	authDashboardKey
)

func (a *api) requireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessID, ok := a.cookieCodec.SessionIDFromRequest(r)
		if !ok {
			WriteDomainError(w, domain.ErrUnauthorized)
			return
		}

		sess, err := a.sessions.Resolve(r.Context(), sessID)
		if err != nil {
			if errors.Is(err, domain.ErrUnauthorized) {
				a.dashboards.Unmount(sessID)
			}
			WriteDomainError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), authSessionKey, sess)
		ctx = context.WithValue(ctx, authSessionIDKey, sessID)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// requireDashboard is requireSession plus the session's mounted dashboard,
// mounting one on first use.
func (a *api) requireDashboard(next http.HandlerFunc) http.HandlerFunc {
	return a.requireSession(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := CurrentSession(r.Context())
		sessID, _ := CurrentSessionID(r.Context())

		d := a.dashboards.Ensure(r.Context(), sessID, sess)
		ctx := context.WithValue(r.Context(), authDashboardKey, d)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func CurrentSession(ctx context.Context) (domain.Session, bool) {
	s, ok := ctx.Value(authSessionKey).(domain.Session)
	return s, ok
}

func CurrentSessionID(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(authSessionIDKey).(string)
	return s, ok
}

func currentDashboard(ctx context.Context) *dashboard.Dashboard {
	d, _ := ctx.Value(authDashboardKey).(*dashboard.Dashboard)
	return d
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			ip := strings.TrimSpace(parts[0])
			if ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
