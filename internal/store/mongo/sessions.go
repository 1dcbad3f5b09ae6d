package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"matchdash/internal/domain"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Open connects to uri and pings the primary.
func Open(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

type sessionDoc struct {
	ID          string     `bson:"_id"`
	Username    string     `bson:"username"`
	SealedToken []byte     `bson:"sealed_token"`
	IP          string     `bson:"ip,omitempty"`
	UserAgent   string     `bson:"user_agent,omitempty"`
	CreatedAt   time.Time  `bson:"created_at"`
	ExpiresAt   time.Time  `bson:"expires_at"`
	RevokedAt   *time.Time `bson:"revoked_at,omitempty"`
}

type SessionsStore struct {
	c   *mongo.Collection
	now func() time.Time
}

func NewSessionsStore(db *mongo.Database) *SessionsStore {
	return &SessionsStore{c: db.Collection("dashboard_sessions"), now: time.Now}
}

// EnsureIndexes adds a TTL index so the server drops expired sessions.
func (s *SessionsStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetName("idx_sessions_expires").SetExpireAfterSeconds(0),
	})
	if err != nil {
		return fmt.Errorf("ensure session indexes: %w", err)
	}
	return nil
}

func (s *SessionsStore) CreateSession(ctx context.Context, sess domain.StoredSession) (string, error) {
	doc := sessionDoc{
		ID:          uuid.NewString(),
		Username:    sess.Username,
		SealedToken: sess.SealedToken,
		IP:          sess.IP,
		UserAgent:   sess.UserAgent,
		CreatedAt:   sess.CreatedAt.UTC(),
		ExpiresAt:   sess.ExpiresAt.UTC(),
	}
	if _, err := s.c.InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return doc.ID, nil
}

func (s *SessionsStore) GetSession(ctx context.Context, sessionID string) (domain.StoredSession, error) {
	filter := bson.M{
		"_id":        sessionID,
		"revoked_at": bson.M{"$exists": false},
		"expires_at": bson.M{"$gt": s.now().UTC()},
	}

	var doc sessionDoc
	if err := s.c.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.StoredSession{}, domain.ErrNotFound
		}
		return domain.StoredSession{}, fmt.Errorf("get session: %w", err)
	}

	return domain.StoredSession{
		ID:          doc.ID,
		Username:    doc.Username,
		SealedToken: doc.SealedToken,
		IP:          doc.IP,
		UserAgent:   doc.UserAgent,
		CreatedAt:   doc.CreatedAt,
		ExpiresAt:   doc.ExpiresAt,
		RevokedAt:   doc.RevokedAt,
	}, nil
}

func (s *SessionsStore) RevokeSession(ctx context.Context, sessionID string, when time.Time) error {
	filter := bson.M{"_id": sessionID, "revoked_at": bson.M{"$exists": false}}
	update := bson.M{"$set": bson.M{"revoked_at": when.UTC()}}
	if _, err := s.c.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}
