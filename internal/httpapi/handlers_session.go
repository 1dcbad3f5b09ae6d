package httpapi

import (
	"net/http"
	"strings"
	"time"

	"matchdash/internal/auth"
	"matchdash/internal/domain"
)

// sessionRequest carries either credentials for the backend login or a
// token the client already obtained from it.
type sessionRequest struct {
	Username string `json:"username"`
	Password string `json:"password,omitempty"`
	Token    string `json:"token,omitempty"`
}

type sessionResponse struct {
	Username string `json:"username"`
}

func (a *api) handleSessionCreate(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"username": "required"}))
		return
	}

	now := time.Now()
	ip := clientIP(r)
	if !a.loginLimiter.Allow("ip:"+ip, now) || !a.loginLimiter.Allow("login:"+strings.ToLower(req.Username), now) {
		WriteError(w, http.StatusTooManyRequests, "rate_limited", "too many attempts")
		return
	}

	var (
		sess   domain.Session
		sessID string
		err    error
	)
	if req.Token != "" {
		sess, sessID, err = a.sessions.Adopt(r.Context(), req.Token, req.Username, ip, r.UserAgent())
	} else {
		sess, sessID, err = a.sessions.Login(r.Context(), req.Username, req.Password, ip, r.UserAgent())
	}
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	auth.SetSessionCookie(w, a.cookieCodec.EncodeSessionID(sessID), a.sessionTTL, a.cookieSecure)
	a.dashboards.Mount(r.Context(), sessID, sess)

	WriteJSON(w, http.StatusCreated, sessionResponse{Username: sess.Username})
}

func (a *api) handleSessionDelete(w http.ResponseWriter, r *http.Request) {
	sessID, ok := CurrentSessionID(r.Context())
	if !ok || sessID == "" {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	a.endSession(w, r)
	w.WriteHeader(http.StatusNoContent)
}

// endSession unmounts the request's dashboard, revokes its session and
// clears the cookie.
func (a *api) endSession(w http.ResponseWriter, r *http.Request) {
	sessID, _ := CurrentSessionID(r.Context())
	if sessID != "" {
		a.dashboards.Unmount(sessID)
		if err := a.sessions.Logout(r.Context(), sessID); err != nil {
			a.logger.Warn("logout failed", "err", err)
		}
	}
	auth.ClearSessionCookie(w, a.cookieSecure)
}
