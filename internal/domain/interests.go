package domain

import "encoding/json"

type InterestStatus int

const (
	InterestPending  InterestStatus = 1
	InterestAccepted InterestStatus = 2
	InterestRejected InterestStatus = 3
)

func (s InterestStatus) Valid() bool {
	switch s {
	case InterestPending, InterestAccepted, InterestRejected:
		return true
	default:
		return false
	}
}

func (s InterestStatus) String() string {
	switch s {
	case InterestPending:
		return "pending"
	case InterestAccepted:
		return "accepted"
	case InterestRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// InterestRequest is a directional proposal between two users. FromUser and
// ToUser may be nil when the backend omits them.
type InterestRequest struct {
	ID       int64          `json:"id"`
	FromUser *User          `json:"from_user,omitempty"`
	ToUser   *User          `json:"to_user,omitempty"`
	Status   InterestStatus `json:"status"`
}

func (r InterestRequest) SenderID() (int64, bool) {
	if r.FromUser == nil {
		return 0, false
	}
	return r.FromUser.ID, true
}

func (r InterestRequest) RecipientID() (int64, bool) {
	if r.ToUser == nil {
		return 0, false
	}
	return r.ToUser.ID, true
}

type ChatRoom struct {
	ID int64 `json:"chat_room_id"`
}

// UnmarshalJSON accepts from_user/to_user either as nested user objects or
// as bare ids. Values of any other shape decode to nil.
func (r *InterestRequest) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID       int64           `json:"id"`
		FromUser json.RawMessage `json:"from_user"`
		ToUser   json.RawMessage `json:"to_user"`
		Status   InterestStatus  `json:"status"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	r.ID = raw.ID
	r.Status = raw.Status
	r.FromUser = decodeUserRef(raw.FromUser)
	r.ToUser = decodeUserRef(raw.ToUser)
	return nil
}

func decodeUserRef(raw json.RawMessage) *User {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var id int64
	if err := json.Unmarshal(raw, &id); err == nil {
		return &User{ID: id}
	}
	var u User
	if err := json.Unmarshal(raw, &u); err == nil {
		return &u
	}
	return nil
}
