package dashboard

// Reduce returns the state that results from applying a to s.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case UsersLoaded:
		s.Users = orEmpty(a.Users)
	case ReceivedLoaded:
		s.Received = orEmpty(a.Requests)
	case SentLoaded:
		s.Sent = orEmpty(a.Requests)
	case ListFailed:
		s.Banner = nextBanner(s.Banner, BannerError, listFailedText(a.List))

	case InterestSent:
		s.Banner = nextBanner(s.Banner, BannerSuccess, msgInterestSent)
	case InterestSendFailed:
		s.Banner = nextBanner(s.Banner, BannerError, msgInterestSendFailed)

	case InterestHandled:
		s.Banner = nextBanner(s.Banner, BannerSuccess, handledText(a.Status))
	case InterestHandleFailed:
		s.Banner = nextBanner(s.Banner, BannerError, handleFailedText(a.Status))

	case ChatOpened:
		s.Chat = ChatDialog{
			Open:    true,
			RoomID:  a.RoomID,
			Partner: s.findUser(a.UserID),
		}
		if s.Banner.Kind == BannerError {
			s.Banner.Visible = false
		}
	case ChatOpenFailed:
		s.Banner = nextBanner(s.Banner, BannerError, msgChatFailed)
	case ChatClosed:
		s.Chat = ChatDialog{}

	case BannerDismissed:
		if a.ID == 0 || a.ID == s.Banner.ID {
			s.Banner.Visible = false
		}
	case BannerExpired:
		if a.ID == s.Banner.ID {
			s.Banner.Visible = false
		}
	}
	return s
}

func nextBanner(cur Banner, kind BannerKind, text string) Banner {
	return Banner{
		ID:      cur.ID + 1,
		Kind:    kind,
		Text:    text,
		Visible: true,
	}
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
