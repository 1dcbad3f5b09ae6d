package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"matchdash/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SessionsStore struct {
	pool *pgxpool.Pool
}

func NewSessionsStore(pool *pgxpool.Pool) *SessionsStore {
	return &SessionsStore{pool: pool}
}

func (s *SessionsStore) CreateSession(ctx context.Context, sess domain.StoredSession) (string, error) {
	const q = `
		INSERT INTO dashboard_sessions (id, username, sealed_token, ip, user_agent, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	var idUUID pgtype.UUID
	err := s.pool.QueryRow(ctx, q,
		uuid.New(),
		sess.Username,
		sess.SealedToken,
		nullIfEmpty(sess.IP),
		nullIfEmpty(sess.UserAgent),
		sess.CreatedAt,
		sess.ExpiresAt,
	).Scan(&idUUID)
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}

	return uuidOrEmpty(idUUID), nil
}

func (s *SessionsStore) GetSession(ctx context.Context, sessionID string) (domain.StoredSession, error) {
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return domain.StoredSession{}, domain.ErrNotFound
	}

	const q = `
		SELECT id, username, sealed_token, ip, user_agent, created_at, expires_at, revoked_at
		FROM dashboard_sessions
		WHERE id = $1 AND revoked_at IS NULL AND expires_at > now()
	`

	var (
		sess      domain.StoredSession
		idUUID    pgtype.UUID
		ip        pgtype.Text
		userAgent pgtype.Text
		revokedTS pgtype.Timestamptz
	)
	err = s.pool.QueryRow(ctx, q, id).Scan(
		&idUUID,
		&sess.Username,
		&sess.SealedToken,
		&ip,
		&userAgent,
		&sess.CreatedAt,
		&sess.ExpiresAt,
		&revokedTS,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.StoredSession{}, domain.ErrNotFound
		}
		return domain.StoredSession{}, fmt.Errorf("get session: %w", err)
	}

	sess.ID = uuidOrEmpty(idUUID)
	sess.IP = textOrEmpty(ip)
	sess.UserAgent = textOrEmpty(userAgent)
	sess.RevokedAt = timestamptzPtr(revokedTS)
	return sess, nil
}

func (s *SessionsStore) RevokeSession(ctx context.Context, sessionID string, when time.Time) error {
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return nil
	}

	const q = `
		UPDATE dashboard_sessions
		SET revoked_at = $2
		WHERE id = $1 AND revoked_at IS NULL
	`

	if _, err := s.pool.Exec(ctx, q, id, when); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// DeleteExpired removes sessions that expired before cutoff.
func (s *SessionsStore) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	const q = `DELETE FROM dashboard_sessions WHERE expires_at < $1`

	tag, err := s.pool.Exec(ctx, q, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
