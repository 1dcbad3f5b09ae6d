package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchdash/internal/domain"
)

func TestChatAvailable(t *testing.T) {
	const me, other = 1, 42

	tests := []struct {
		name     string
		received []domain.InterestRequest
		sent     []domain.InterestRequest
		want     bool
	}{
		{name: "empty lists"},
		{
			name:     "accepted received from user",
			received: []domain.InterestRequest{request(1, ref(other), ref(me), domain.InterestAccepted)},
			want:     true,
		},
		{
			name: "accepted sent to user",
			sent: []domain.InterestRequest{request(1, ref(me), ref(other), domain.InterestAccepted)},
			want: true,
		},
		{
			name:     "pending received",
			received: []domain.InterestRequest{request(1, ref(other), ref(me), domain.InterestPending)},
		},
		{
			name: "rejected sent",
			sent: []domain.InterestRequest{request(1, ref(me), ref(other), domain.InterestRejected)},
		},
		{
			name:     "accepted received from someone else",
			received: []domain.InterestRequest{request(1, ref(7), ref(me), domain.InterestAccepted)},
		},
		{
			name:     "received list only matches on sender",
			received: []domain.InterestRequest{request(1, ref(me), ref(other), domain.InterestAccepted)},
		},
		{
			name:     "missing user references",
			received: []domain.InterestRequest{request(1, nil, nil, domain.InterestAccepted)},
			sent:     []domain.InterestRequest{request(2, nil, nil, domain.InterestAccepted)},
		},
		{
			name: "accepted after pending entries",
			sent: []domain.InterestRequest{
				request(1, ref(me), ref(other), domain.InterestPending),
				request(2, ref(me), ref(other), domain.InterestAccepted),
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := initialState()
			s.Received = tt.received
			s.Sent = tt.sent
			assert.Equal(t, tt.want, s.ChatAvailable(other))
		})
	}
}

func TestReduceListsAreIndependent(t *testing.T) {
	s := initialState()
	s = Reduce(s, UsersLoaded{Users: []domain.User{user(1, "ann")}})
	s = Reduce(s, ListFailed{List: ListReceived})
	s = Reduce(s, SentLoaded{Requests: []domain.InterestRequest{request(3, ref(9), ref(1), domain.InterestPending)}})

	assert.Len(t, s.Users, 1)
	assert.Empty(t, s.Received)
	assert.NotNil(t, s.Received)
	assert.Len(t, s.Sent, 1)
	assert.Equal(t, Banner{ID: 1, Kind: BannerError, Text: "Failed to fetch received requests.", Visible: true}, s.Banner)
}

func TestReduceNilPayloadBecomesEmpty(t *testing.T) {
	s := Reduce(initialState(), UsersLoaded{})
	require.NotNil(t, s.Users)
	assert.Empty(t, s.Users)
}

func TestReduceBannerMessages(t *testing.T) {
	tests := []struct {
		action Action
		kind   BannerKind
		text   string
	}{
		{ListFailed{List: ListUsers}, BannerError, "Failed to fetch users."},
		{ListFailed{List: ListSent}, BannerError, "Failed to fetch sent requests."},
		{InterestSent{UserID: 42}, BannerSuccess, "Interest sent successfully!"},
		{InterestSendFailed{UserID: 42}, BannerError, "Failed to send interest."},
		{InterestHandled{RequestID: 7, Status: domain.InterestAccepted}, BannerSuccess, "Interest accepted successfully!"},
		{InterestHandled{RequestID: 7, Status: domain.InterestRejected}, BannerSuccess, "Interest rejected successfully!"},
		{InterestHandleFailed{RequestID: 7, Status: domain.InterestAccepted}, BannerError, "Failed to accept the interest."},
		{InterestHandleFailed{RequestID: 7, Status: domain.InterestRejected}, BannerError, "Failed to reject the interest."},
		{ChatOpenFailed{UserID: 42}, BannerError, "Failed to start chat."},
	}

	for _, tt := range tests {
		s := Reduce(initialState(), tt.action)
		assert.Equal(t, tt.kind, s.Banner.Kind, "%T", tt.action)
		assert.Equal(t, tt.text, s.Banner.Text, "%T", tt.action)
		assert.True(t, s.Banner.Visible)
	}
}

func TestReduceSameMessageGetsNewID(t *testing.T) {
	s := Reduce(initialState(), InterestSent{UserID: 1})
	first := s.Banner
	s = Reduce(s, InterestSent{UserID: 2})

	assert.Equal(t, first.Text, s.Banner.Text)
	assert.Greater(t, s.Banner.ID, first.ID)
}

func TestReduceBannerExpiry(t *testing.T) {
	s := Reduce(initialState(), InterestSent{UserID: 1})
	s = Reduce(s, InterestSendFailed{UserID: 1})

	stale := Reduce(s, BannerExpired{ID: 1})
	assert.True(t, stale.Banner.Visible, "expiry of an older message must not hide the current one")

	expired := Reduce(s, BannerExpired{ID: 2})
	assert.False(t, expired.Banner.Visible)

	dismissed := Reduce(s, BannerDismissed{})
	assert.False(t, dismissed.Banner.Visible)
}

func TestReduceChatDialog(t *testing.T) {
	s := initialState()
	s.Users = []domain.User{user(1, "ann"), user(42, "zed")}
	s = Reduce(s, InterestSendFailed{UserID: 42})

	s = Reduce(s, ChatOpened{RoomID: 9, UserID: 42})
	assert.True(t, s.Chat.Open)
	assert.Equal(t, int64(9), s.Chat.RoomID)
	require.NotNil(t, s.Chat.Partner)
	assert.Equal(t, "zed", s.Chat.Partner.Username)
	assert.False(t, s.Banner.Visible, "opening chat clears the error banner")

	s = Reduce(s, ChatClosed{})
	assert.Equal(t, ChatDialog{}, s.Chat)
}

func TestReduceChatOpenedUnknownUser(t *testing.T) {
	s := Reduce(initialState(), ChatOpened{RoomID: 3, UserID: 99})
	assert.True(t, s.Chat.Open)
	assert.Nil(t, s.Chat.Partner)
}
