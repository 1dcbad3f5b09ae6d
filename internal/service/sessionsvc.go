package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"matchdash/internal/domain"
)

type SessionsStore interface {
	CreateSession(ctx context.Context, sess domain.StoredSession) (string, error)
	GetSession(ctx context.Context, sessionID string) (domain.StoredSession, error)
	RevokeSession(ctx context.Context, sessionID string, when time.Time) error
}

// Authenticator exchanges credentials for a backend bearer token.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (string, error)
}

type TokenSealer interface {
	Seal(token string) ([]byte, error)
	Open(sealed []byte) (string, error)
}

// SessionService turns backend credentials into browser sessions and back.
type SessionService struct {
	Sessions      SessionsStore
	Authenticator Authenticator
	Sealer        TokenSealer
	SessionTTL    time.Duration
	Now           func() time.Time
}

func (s *SessionService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// Login authenticates against the backend and stores a new session.
func (s *SessionService) Login(ctx context.Context, username, password, ip, userAgent string) (domain.Session, string, error) {
	username = strings.TrimSpace(username)
	fields := map[string]string{}
	if username == "" {
		fields["username"] = "required"
	}
	if password == "" {
		fields["password"] = "required"
	}
	if len(fields) > 0 {
		return domain.Session{}, "", domain.NewValidationError(fields)
	}

	token, err := s.Authenticator.Login(ctx, username, password)
	if err != nil {
		return domain.Session{}, "", err
	}

	return s.Adopt(ctx, token, username, ip, userAgent)
}

// Adopt stores a session for a token issued elsewhere.
func (s *SessionService) Adopt(ctx context.Context, token, username, ip, userAgent string) (domain.Session, string, error) {

	token = strings.TrimSpace(token)
	username = strings.TrimSpace(username)
	fields := map[string]string{}
	if token == "" {
		fields["token"] = "required"
	}
	if username == "" {
		fields["username"] = "required"
	}
	if len(fields) > 0 {
		return domain.Session{}, "", domain.NewValidationError(fields)
	}

	sealed, err := s.Sealer.Seal(token)
	if err != nil {
		return domain.Session{}, "", fmt.Errorf("seal token: %w", err)
	}

	now := s.now()
	sessID, err := s.Sessions.CreateSession(ctx, domain.StoredSession{
		Username:    username,
		SealedToken: sealed,
		IP:          ip,
		UserAgent:   userAgent,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.SessionTTL),
	})
	if err != nil {
		return domain.Session{}, "", err
	}

	return domain.Session{Token: token, Username: username}, sessID, nil
}

// Resolve returns the live session for sessionID. Unknown, expired, revoked
// and undecryptable sessions are all ErrUnauthorized.
func (s *SessionService) Resolve(ctx context.Context, sessionID string) (domain.Session, error) {
	if sessionID == "" {
		return domain.Session{}, domain.ErrUnauthorized
	}

	stored, err := s.Sessions.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Session{}, domain.ErrUnauthorized
		}
		return domain.Session{}, err
	}
	if stored.RevokedAt != nil || !s.now().Before(stored.ExpiresAt) {
		return domain.Session{}, domain.ErrUnauthorized
	}

	token, err := s.Sealer.Open(stored.SealedToken)
	if err != nil {
		return domain.Session{}, domain.ErrUnauthorized
	}

	return domain.Session{Token: token, Username: stored.Username}, nil
}

func (s *SessionService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	return s.Sessions.RevokeSession(ctx, sessionID, s.now())
}
