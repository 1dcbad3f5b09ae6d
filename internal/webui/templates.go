package webui

import (
	"fmt"
	"html/template"
	"net/http"

	"matchdash/internal/dashboard"
	"matchdash/internal/domain"
	"matchdash/internal/htmlsanitize"
)

type templates struct {
	login     *template.Template
	dashboard *template.Template
	errorT    *template.Template
}

type viewData struct {
	Title  string
	Error  string
	Notice string
}

type loginViewData struct {
	Title    string
	Username string
	Error    string
	Notice   string
}

type dashboardViewData struct {
	Title       string
	Username    string
	Users       []userRow
	Received    []receivedRow
	Sent        []sentRow
	Banner      dashboard.Banner
	BannerTTLMS int64
	Chat        chatViewData
	Error       string
}

type userRow struct {
	User          domain.User
	ChatAvailable bool
}

type receivedRow struct {
	ID            int64
	From          string
	FromID        int64
	Status        domain.InterestStatus
	Pending       bool
	ChatAvailable bool
}

type sentRow struct {
	ID     int64
	To     string
	Status domain.InterestStatus
}

type chatViewData struct {
	Open    bool
	RoomID  int64
	Partner string
	URL     string
}

var funcs = template.FuncMap{
	"bio": htmlsanitize.PrepareForDisplay,
}

func parseTemplates() (*templates, error) {
	parse := func(files ...string) (*template.Template, error) {
		t, err := template.New("base").Funcs(funcs).ParseFS(assets, files...)
		if err != nil {
			return nil, err
		}
		return t, nil
	}

	login, err := parse("templates/layout.html", "templates/login.html")
	if err != nil {
		return nil, fmt.Errorf("parse login: %w", err)
	}
	dash, err := parse("templates/layout.html", "templates/dashboard.html")
	if err != nil {
		return nil, fmt.Errorf("parse dashboard: %w", err)
	}
	errorT, err := parse("templates/layout.html", "templates/error.html")
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	return &templates{
		login:     login,
		dashboard: dash,
		errorT:    errorT,
	}, nil
}

func (t *templates) renderLogin(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = t.login.ExecuteTemplate(w, "login.html", data)
}

func (t *templates) renderDashboard(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = t.dashboard.ExecuteTemplate(w, "dashboard.html", data)
}

func (t *templates) renderErrorPage(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = t.errorT.ExecuteTemplate(w, "error.html", data)
}

func (t *templates) renderError(w http.ResponseWriter, status int, title, msg string) {
	t.renderErrorPage(w, status, viewData{Title: title, Error: msg})
}

func userLabel(u *domain.User) string {
	if u == nil {
		return "Unknown user"
	}
	if name := u.DisplayName(); name != "" {
		return name
	}
	return fmt.Sprintf("User #%d", u.ID)
}

func buildDashboardView(username string, d *dashboard.Dashboard, chatTmpl string) dashboardViewData {
	s := d.Snapshot()
	data := dashboardViewData{
		Title:       "Dashboard",
		Username:    username,
		Banner:      s.Banner,
		BannerTTLMS: d.BannerTTL().Milliseconds(),
	}

	data.Users = make([]userRow, 0, len(s.Users))
	for _, u := range s.Users {
		data.Users = append(data.Users, userRow{User: u, ChatAvailable: s.ChatAvailable(u.ID)})
	}

	data.Received = make([]receivedRow, 0, len(s.Received))
	for _, req := range s.Received {
		row := receivedRow{
			ID:      req.ID,
			From:    userLabel(req.FromUser),
			Status:  req.Status,
			Pending: req.Status == domain.InterestPending,
		}
		if id, ok := req.SenderID(); ok {
			row.FromID = id
			row.ChatAvailable = s.ChatAvailable(id)
		}
		data.Received = append(data.Received, row)
	}

	data.Sent = make([]sentRow, 0, len(s.Sent))
	for _, req := range s.Sent {
		data.Sent = append(data.Sent, sentRow{ID: req.ID, To: userLabel(req.ToUser), Status: req.Status})
	}

	if s.Chat.Open {
		data.Chat = chatViewData{
			Open:    true,
			RoomID:  s.Chat.RoomID,
			Partner: userLabel(s.Chat.Partner),
			URL:     dashboard.ChatURL(chatTmpl, s.Chat.RoomID),
		}
	}
	return data
}
