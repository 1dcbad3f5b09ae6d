// Package memory keeps sessions in process memory. Sessions are lost on
// restart; use it for development and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"matchdash/internal/domain"

	"github.com/google/uuid"
)

type SessionsStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.StoredSession
	now      func() time.Time
}

func NewSessionsStore() *SessionsStore {
	return &SessionsStore{
		sessions: make(map[string]domain.StoredSession),
		now:      time.Now,
	}
}

func (s *SessionsStore) CreateSession(_ context.Context, sess domain.StoredSession) (string, error) {
	sess.ID = uuid.NewString()
	sess.SealedToken = append([]byte(nil), sess.SealedToken...)
	sess.RevokedAt = nil

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return sess.ID, nil
}

func (s *SessionsStore) GetSession(_ context.Context, sessionID string) (domain.StoredSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok || sess.RevokedAt != nil || !s.now().Before(sess.ExpiresAt) {
		return domain.StoredSession{}, domain.ErrNotFound
	}
	return sess, nil
}

func (s *SessionsStore) RevokeSession(_ context.Context, sessionID string, when time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok || sess.RevokedAt != nil {
		return nil
	}
	sess.RevokedAt = &when
	s.sessions[sessionID] = sess
	return nil
}

// DeleteExpired drops sessions that expired or were revoked before cutoff.
func (s *SessionsStore) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, sess := range s.sessions {
		if sess.ExpiresAt.Before(cutoff) || (sess.RevokedAt != nil && sess.RevokedAt.Before(cutoff)) {
			delete(s.sessions, id)
			n++
		}
	}
	return n, nil
}
