package domain

import (
	"strings"
	"time"
)

// User is a backend user record. Only the fields the dashboard renders are
// decoded; everything else the backend sends is ignored.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`
	Bio       string `json:"bio,omitempty"`
}

func (u User) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if name != "" {
		return name
	}
	return u.Username
}

// Session is what the dashboard needs to act on behalf of a user.
type Session struct {
	Token    string
	Username string
}

// StoredSession is the persisted form of a Session. The bearer token is
// kept sealed.
type StoredSession struct {
	ID          string
	Username    string
	SealedToken []byte
	IP          string
	UserAgent   string
	CreatedAt   time.Time
	ExpiresAt   time.Time
	RevokedAt   *time.Time
}
