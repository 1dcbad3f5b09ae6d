package auth

import (
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
)

const SessionCookieName = "matchdash_session"

// CookieCodec signs session ids for the session cookie. A codec built from
// an empty secret passes ids through unsigned, which is only acceptable in
// dev.
type CookieCodec struct {
	sc *securecookie.SecureCookie
}

func NewCookieCodec(secret []byte) CookieCodec {
	if len(secret) == 0 {
		return CookieCodec{}
	}
	secretCopy := make([]byte, len(secret))
	copy(secretCopy, secret)

	sc := securecookie.New(secretCopy, nil)
	sc.SetSerializer(securecookie.JSONEncoder{})
	// Expiry is enforced by the session store.
	sc.MaxAge(0)
	return CookieCodec{sc: sc}
}

func (c CookieCodec) EncodeSessionID(sessionID string) string {
	if c.sc == nil {
		return sessionID
	}
	v, err := c.sc.Encode(SessionCookieName, sessionID)
	if err != nil {
		return ""
	}
	return v
}

func (c CookieCodec) DecodeSessionID(cookieValue string) (string, bool) {
	if c.sc == nil {
		return cookieValue, cookieValue != ""
	}
	if cookieValue == "" {
		return "", false
	}

	var id string
	if err := c.sc.Decode(SessionCookieName, cookieValue, &id); err != nil {
		return "", false
	}
	return id, id != ""
}

// SessionIDFromRequest reads and verifies the session cookie.
func (c CookieCodec) SessionIDFromRequest(r *http.Request) (string, bool) {
	ck, err := r.Cookie(SessionCookieName)
	if err != nil || ck.Value == "" {
		return "", false
	}
	return c.DecodeSessionID(ck.Value)
}

func SetSessionCookie(w http.ResponseWriter, cookieValue string, ttl time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    cookieValue,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(ttl.Seconds()),
		Expires:  time.Now().Add(ttl),
	})
}

func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})
}
