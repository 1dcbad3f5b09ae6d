package webui

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"matchdash/internal/auth"
	"matchdash/internal/domain"
)

const (
	appTitle            = "Matches"
	loginUnavailableMsg = "Login is unavailable. Check the server configuration."
	uiUnavailableMsg    = "The dashboard is unavailable. Check the server configuration."
)

func (a *app) handleHome(w http.ResponseWriter, r *http.Request) {
	data := buildDashboardView(currentSess(r).Username, currentDashboard(r), a.chatURL)
	data.Error = mapErrorCode(strings.TrimSpace(r.URL.Query().Get("error")))
	a.templates.renderDashboard(w, http.StatusOK, data)
}

func (a *app) handleLoginGet(w http.ResponseWriter, r *http.Request) {
	if a.sessions == nil {
		a.templates.renderLogin(w, http.StatusServiceUnavailable, loginViewData{Title: appTitle, Error: loginUnavailableMsg})
		return
	}
	if _, _, ok := a.currentSession(r); ok {
		http.Redirect(w, r, "/app/", http.StatusFound)
		return
	}
	notice := mapLoginNotice(strings.TrimSpace(r.URL.Query().Get("notice")))
	a.templates.renderLogin(w, http.StatusOK, loginViewData{Title: appTitle, Notice: notice})
}

func (a *app) handleLoginPost(w http.ResponseWriter, r *http.Request) {
	if a.sessions == nil || a.dashboards == nil {
		a.templates.renderLogin(w, http.StatusServiceUnavailable, loginViewData{Title: appTitle, Error: loginUnavailableMsg})
		return
	}
	if err := r.ParseForm(); err != nil {
		a.templates.renderLogin(w, http.StatusBadRequest, loginViewData{Title: appTitle, Error: "Invalid form"})
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	if username == "" || password == "" {
		a.templates.renderLogin(w, http.StatusBadRequest, loginViewData{Title: appTitle, Username: username, Error: "Username and password are required"})
		return
	}

	sess, sessID, err := a.sessions.Login(r.Context(), username, password, clientIP(r), r.UserAgent())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			a.templates.renderLogin(w, http.StatusUnauthorized, loginViewData{Title: appTitle, Username: username, Error: "Invalid username or password"})
		default:
			a.logger.Error("webui: login failed", "err", err)
			a.templates.renderLogin(w, http.StatusBadGateway, loginViewData{Title: appTitle, Username: username, Error: "Login failed"})
		}
		return
	}

	a.startSession(w, r, sessID, sess)
}

// handleSessionPost adopts a token issued by the backend's own login page.
func (a *app) handleSessionPost(w http.ResponseWriter, r *http.Request) {
	if a.sessions == nil || a.dashboards == nil {
		a.templates.renderLogin(w, http.StatusServiceUnavailable, loginViewData{Title: appTitle, Error: loginUnavailableMsg})
		return
	}
	if err := r.ParseForm(); err != nil {
		a.templates.renderLogin(w, http.StatusBadRequest, loginViewData{Title: appTitle, Error: "Invalid form"})
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	sess, sessID, err := a.sessions.Adopt(r.Context(), r.FormValue("token"), username, clientIP(r), r.UserAgent())
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			a.templates.renderLogin(w, http.StatusBadRequest, loginViewData{Title: appTitle, Username: username, Error: "Token and username are required"})
			return
		}
		a.logger.Error("webui: adopt session", "err", err)
		a.templates.renderError(w, http.StatusInternalServerError, "Error", "Failed to start session")
		return
	}

	a.startSession(w, r, sessID, sess)
}

func (a *app) startSession(w http.ResponseWriter, r *http.Request, sessID string, sess domain.Session) {
	auth.SetSessionCookie(w, a.cookieCodec.EncodeSessionID(sessID), a.sessionTTL, a.cookieSecure)
	a.dashboards.Mount(r.Context(), sessID, sess)
	http.Redirect(w, r, "/app/", http.StatusFound)
}

func (a *app) handleLogoutPost(w http.ResponseWriter, r *http.Request) {
	if _, sessID, ok := a.currentSession(r); ok {
		a.endSession(r, sessID)
	}
	auth.ClearSessionCookie(w, a.cookieSecure)
	http.Redirect(w, r, "/app/login", http.StatusFound)
}

func (a *app) endSession(r *http.Request, sessID string) {
	if a.dashboards != nil {
		a.dashboards.Unmount(sessID)
	}
	if err := a.sessions.Logout(r.Context(), sessID); err != nil {
		a.logger.Warn("webui: logout failed", "err", err)
	}
}

func (a *app) handleReloadPost(w http.ResponseWriter, r *http.Request) {
	a.dashboards.Mount(r.Context(), currentSessionID(r), currentSess(r))
	redirectHome(w, r, "")
}

func (a *app) handleInterestPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		redirectHome(w, r, "invalid_form")
		return
	}
	userID, ok := formID(r, "user_id")
	if !ok {
		redirectHome(w, r, "invalid_request")
		return
	}

	err := currentDashboard(r).SendInterest(r.Context(), userID)
	a.finishAction(w, r, err)
}

func (a *app) handleInterestHandlePost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		redirectHome(w, r, "invalid_form")
		return
	}
	id, ok := formID(r, "id")
	if !ok {
		redirectHome(w, r, "invalid_request")
		return
	}
	status, err := strconv.Atoi(strings.TrimSpace(r.FormValue("status")))
	if err != nil {
		redirectHome(w, r, "invalid_request")
		return
	}

	err = currentDashboard(r).ConfirmInterest(r.Context(), id, domain.InterestStatus(status))
	a.finishAction(w, r, err)
}

func (a *app) handleChatOpenPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		redirectHome(w, r, "invalid_form")
		return
	}
	userID, ok := formID(r, "user_id")
	if !ok {
		redirectHome(w, r, "invalid_request")
		return
	}

	err := currentDashboard(r).OpenChat(r.Context(), userID)
	a.finishAction(w, r, err)
}

func (a *app) handleChatClosePost(w http.ResponseWriter, r *http.Request) {
	currentDashboard(r).CloseChat()
	redirectHome(w, r, "")
}

func (a *app) handleBannerDismissPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		redirectHome(w, r, "invalid_form")
		return
	}
	id, _ := strconv.ParseUint(strings.TrimSpace(r.FormValue("id")), 10, 64)
	currentDashboard(r).DismissBanner(id)
	redirectHome(w, r, "")
}

// finishAction redirects back to the dashboard. Backend failures are already
// on the banner; a rejected token ends the session.
func (a *app) finishAction(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case err == nil:
		redirectHome(w, r, "")
	case errors.Is(err, domain.ErrUnauthorized):
		a.endSession(r, currentSessionID(r))
		auth.ClearSessionCookie(w, a.cookieSecure)
		http.Redirect(w, r, "/app/login?notice=session_expired", http.StatusFound)
	case errors.Is(err, domain.ErrValidation):
		redirectHome(w, r, "invalid_request")
	default:
		redirectHome(w, r, "")
	}
}

func redirectHome(w http.ResponseWriter, r *http.Request, errCode string) {
	target := "/app/"
	if errCode != "" {
		target += "?" + url.Values{"error": {errCode}}.Encode()
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func mapLoginNotice(code string) string {
	switch code {
	case "session_expired":
		return "Your session has expired. Sign in again."
	default:
		return ""
	}
}

func mapErrorCode(code string) string {
	switch code {
	case "invalid_form":
		return "Invalid form submission."
	case "invalid_request":
		return "Invalid request."
	default:
		return ""
	}
}
