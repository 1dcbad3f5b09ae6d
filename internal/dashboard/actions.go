package dashboard

import "matchdash/internal/domain"

type ListKind string

const (
	ListUsers    ListKind = "users"
	ListReceived ListKind = "received"
	ListSent     ListKind = "sent"
)

// Action is one event the dashboard reacts to.
type Action interface {
	action()
}

type UsersLoaded struct{ Users []domain.User }

type ReceivedLoaded struct{ Requests []domain.InterestRequest }

type SentLoaded struct{ Requests []domain.InterestRequest }

type ListFailed struct{ List ListKind }

type InterestSent struct{ UserID int64 }

type InterestSendFailed struct{ UserID int64 }

type InterestHandled struct {
	RequestID int64
	Status    domain.InterestStatus
}

type InterestHandleFailed struct {
	RequestID int64
	Status    domain.InterestStatus
}

type ChatOpened struct {
	RoomID int64
	UserID int64
}

type ChatOpenFailed struct{ UserID int64 }

type ChatClosed struct{}

// BannerDismissed hides the banner. A zero ID dismisses whatever is shown.
type BannerDismissed struct{ ID uint64 }

// BannerExpired hides the banner only if it still shows message ID.
type BannerExpired struct{ ID uint64 }

func (UsersLoaded) action()          {}
func (ReceivedLoaded) action()       {}
func (SentLoaded) action()           {}
func (ListFailed) action()           {}
func (InterestSent) action()         {}
func (InterestSendFailed) action()   {}
func (InterestHandled) action()      {}
func (InterestHandleFailed) action() {}
func (ChatOpened) action()           {}
func (ChatOpenFailed) action()       {}
func (ChatClosed) action()           {}
func (BannerDismissed) action()      {}
func (BannerExpired) action()        {}
