package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"matchdash/internal/dashboard"
	"matchdash/internal/domain"
)

type userView struct {
	domain.User
	ChatAvailable bool `json:"chat_available"`
}

type chatView struct {
	dashboard.ChatDialog
	URL string `json:"url,omitempty"`
}

type dashboardResponse struct {
	Users       []userView               `json:"users"`
	Received    []domain.InterestRequest `json:"received"`
	Sent        []domain.InterestRequest `json:"sent"`
	Banner      dashboard.Banner         `json:"banner"`
	BannerTTLMS int64                    `json:"banner_ttl_ms"`
	Chat        chatView                 `json:"chat"`
}

func (a *api) dashboardView(d *dashboard.Dashboard) dashboardResponse {
	s := d.Snapshot()
	users := make([]userView, 0, len(s.Users))
	for _, u := range s.Users {
		users = append(users, userView{User: u, ChatAvailable: s.ChatAvailable(u.ID)})
	}
	return dashboardResponse{
		Users:       users,
		Received:    s.Received,
		Sent:        s.Sent,
		Banner:      s.Banner,
		BannerTTLMS: d.BannerTTL().Milliseconds(),
		Chat:        chatView{ChatDialog: s.Chat, URL: dashboard.ChatURL(a.chatURL, s.Chat.RoomID)},
	}
}

// writeActionResult answers a dashboard action. Backend failures are 502
// with the banner text as the message; the banner is also in the state. A
// token the backend rejects ends the local session.
func (a *api) writeActionResult(w http.ResponseWriter, r *http.Request, d *dashboard.Dashboard, err error) {
	switch {
	case err == nil:
		WriteJSON(w, http.StatusOK, a.dashboardView(d))
	case errors.Is(err, domain.ErrUnauthorized):
		a.endSession(w, r)
		WriteDomainError(w, err)
	case errors.Is(err, domain.ErrValidation):
		WriteDomainError(w, err)
	default:
		WriteError(w, http.StatusBadGateway, "backend_error", d.Snapshot().Banner.Text)
	}
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError(map[string]string{"id": "must be a positive integer"})
	}
	return id, nil
}

func (a *api) handleDashboardGet(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, a.dashboardView(currentDashboard(r.Context())))
}

func (a *api) handleDashboardReload(w http.ResponseWriter, r *http.Request) {
	sess, _ := CurrentSession(r.Context())
	sessID, _ := CurrentSessionID(r.Context())
	d := a.dashboards.Mount(r.Context(), sessID, sess)
	WriteJSON(w, http.StatusOK, a.dashboardView(d))
}

type sendInterestRequest struct {
	ToUser int64 `json:"to_user"`
}

func (a *api) handleInterestsSend(w http.ResponseWriter, r *http.Request) {
	var req sendInterestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}
	if req.ToUser <= 0 {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"to_user": "must be a positive integer"}))
		return
	}

	d := currentDashboard(r.Context())
	a.writeActionResult(w, r, d, d.SendInterest(r.Context(), req.ToUser))
}

type handleInterestRequest struct {
	Status domain.InterestStatus `json:"status"`
}

func (a *api) handleInterestsHandle(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	var req handleInterestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	d := currentDashboard(r.Context())
	a.writeActionResult(w, r, d, d.ConfirmInterest(r.Context(), id, req.Status))
}

type chatAvailableResponse struct {
	UserID    int64 `json:"user_id"`
	Available bool  `json:"available"`
}

func (a *api) handleChatAvailable(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	d := currentDashboard(r.Context())
	WriteJSON(w, http.StatusOK, chatAvailableResponse{UserID: id, Available: d.IsChatAvailable(id)})
}

type openChatRequest struct {
	UserID int64 `json:"user_id"`
}

func (a *api) handleChatOpen(w http.ResponseWriter, r *http.Request) {
	var req openChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}
	if req.UserID <= 0 {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"user_id": "must be a positive integer"}))
		return
	}

	d := currentDashboard(r.Context())
	a.writeActionResult(w, r, d, d.OpenChat(r.Context(), req.UserID))
}

func (a *api) handleChatClose(w http.ResponseWriter, r *http.Request) {
	d := currentDashboard(r.Context())
	d.CloseChat()
	WriteJSON(w, http.StatusOK, a.dashboardView(d))
}

type dismissBannerRequest struct {
	ID uint64 `json:"id"`
}

func (a *api) handleBannerDismiss(w http.ResponseWriter, r *http.Request) {
	var req dismissBannerRequest
	if _, err := decodeJSONAllowEmpty(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	d := currentDashboard(r.Context())
	d.DismissBanner(req.ID)
	WriteJSON(w, http.StatusOK, a.dashboardView(d))
}
