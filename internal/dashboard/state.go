// Package dashboard holds the per-session dashboard: its view state, the
// reducer that moves it between states, and the controller that turns user
// actions into backend calls.
package dashboard

import "matchdash/internal/domain"

type BannerKind string

const (
	BannerSuccess BannerKind = "success"
	BannerError   BannerKind = "error"
)

// Banner is the single notification slot. ID increases with every new
// message, so two consecutive messages with the same text are still
// distinguishable.
type Banner struct {
	ID      uint64     `json:"id"`
	Kind    BannerKind `json:"kind,omitempty"`
	Text    string     `json:"text,omitempty"`
	Visible bool       `json:"visible"`
}

// ChatDialog is open only after a successful create-or-get call. RoomID is
// zero and Partner nil while closed.
type ChatDialog struct {
	Open    bool         `json:"open"`
	RoomID  int64        `json:"room_id,omitempty"`
	Partner *domain.User `json:"partner,omitempty"`
}

// State is treated as immutable: the reducer replaces slices, it never
// writes into them.
type State struct {
	Users    []domain.User            `json:"users"`
	Received []domain.InterestRequest `json:"received"`
	Sent     []domain.InterestRequest `json:"sent"`
	Banner   Banner                   `json:"banner"`
	Chat     ChatDialog               `json:"chat"`
}

func initialState() State {
	return State{
		Users:    []domain.User{},
		Received: []domain.InterestRequest{},
		Sent:     []domain.InterestRequest{},
	}
}

// ChatAvailable reports whether an accepted request exists between the
// current user and userID in either direction.
func (s State) ChatAvailable(userID int64) bool {
	for _, r := range s.Received {
		if id, ok := r.SenderID(); ok && id == userID && r.Status == domain.InterestAccepted {
			return true
		}
	}
	for _, r := range s.Sent {
		if id, ok := r.RecipientID(); ok && id == userID && r.Status == domain.InterestAccepted {
			return true
		}
	}
	return false
}

func (s State) findUser(id int64) *domain.User {
	for i := range s.Users {
		if s.Users[i].ID == id {
			u := s.Users[i]
			return &u
		}
	}
	return nil
}
