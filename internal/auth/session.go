package auth

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNoSession is returned when a session token is unknown or expired.
var ErrNoSession = errors.New("session not found")

const (
	sessionKeyPrefix = "session:"
	flashKeyPrefix   = "flash:"
)

// SessionStore resolves session-cookie tokens to user ids and carries
// one-shot flash messages for the interactive surface. Sessions themselves
// are issued by the external identity provider; this store only reads and
// refreshes them, plus owns the flash slot.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore builds a store on the shared redis client.
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

// Resolve maps a session token to its user id, sliding the expiry.
func (s *SessionStore) Resolve(ctx context.Context, token string) (string, error) {
	userID, err := s.client.Get(ctx, sessionKeyPrefix+token).Result()
	if err == redis.Nil {
		return "", ErrNoSession
	}
	if err != nil {
		return "", err
	}
	_ = s.client.Expire(ctx, sessionKeyPrefix+token, s.ttl).Err()
	return userID, nil
}

// Put records a session token for a user. Used by tests and by deployments
// where the identity provider writes into the same redis.
func (s *SessionStore) Put(ctx context.Context, token, userID string) error {
	return s.client.Set(ctx, sessionKeyPrefix+token, userID, s.ttl).Err()
}

// Flash represents a one-shot status message shown after a redirect.
type Flash struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// SetFlash stores the flash message for a session.
func (s *SessionStore) SetFlash(ctx context.Context, token, kind, message string) error {
	return s.client.Set(ctx, flashKeyPrefix+token, kind+"|"+message, s.ttl).Err()
}

// TakeFlash returns and clears the flash message for a session, if any.
func (s *SessionStore) TakeFlash(ctx context.Context, token string) (*Flash, error) {
	raw, err := s.client.GetDel(ctx, flashKeyPrefix+token).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	for i := 0; i < len(raw); i++ {
		if raw[i] == '|' {
			return &Flash{Kind: raw[:i], Message: raw[i+1:]}, nil
		}
	}
	return &Flash{Kind: "info", Message: raw}, nil
}
