package dashboard

import "matchdash/internal/domain"

const (
	msgInterestSent       = "Interest sent successfully!"
	msgInterestSendFailed = "Failed to send interest."
	msgChatFailed         = "Failed to start chat."
)

func listFailedText(l ListKind) string {
	switch l {
	case ListUsers:
		return "Failed to fetch users."
	case ListReceived:
		return "Failed to fetch received requests."
	case ListSent:
		return "Failed to fetch sent requests."
	default:
		return "Failed to fetch data."
	}
}

func handledText(status domain.InterestStatus) string {
	if status == domain.InterestAccepted {
		return "Interest accepted successfully!"
	}
	return "Interest rejected successfully!"
}

func handleFailedText(status domain.InterestStatus) string {
	if status == domain.InterestAccepted {
		return "Failed to accept the interest."
	}
	return "Failed to reject the interest."
}
