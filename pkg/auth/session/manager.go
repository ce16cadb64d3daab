package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"

	"github.com/angelmondragon/cakeshop-backend/pkg/config"
	redisclient "github.com/angelmondragon/cakeshop-backend/pkg/redis"
)

// ErrInvalidRefreshToken covers unknown, expired, rotated and mismatched refresh tokens alike.
var ErrInvalidRefreshToken = errors.New("invalid refresh token")

var errNoAccessID = errors.New("access id is required")

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type sessionKeyer interface {
	AccessSessionKey(accessID string) string
}

// AccessSessionChecker is what the auth middleware needs to reject revoked tokens.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

// Rotated is the result of a successful refresh.
type Rotated struct {
	AccessID     string
	RefreshToken string
	UserID       uuid.UUID
}

// Manager keeps one refresh session per access token jti. A session lives for
// the refresh TTL and is single use: rotating it deletes it.
type Manager struct {
	store sessionStore
	keyer sessionKeyer
	ttl   time.Duration
	now   func() time.Time
}

func NewManager(client *redisclient.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	ttl := cfg.RefreshTokenTTL()
	accessTTL := time.Duration(cfg.ExpirationMinutes) * time.Minute
	switch {
	case ttl <= 0:
		return nil, errors.New("refresh token ttl must be positive")
	case ttl <= accessTTL:
		return nil, fmt.Errorf("refresh token ttl (%s) must exceed access token ttl (%s)", ttl, accessTTL)
	}
	return &Manager{store: client, keyer: client, ttl: ttl, now: time.Now}, nil
}

// NewAccessID mints the identifier used as both JWT jti and session key.
func NewAccessID() string {
	return uuid.NewString()
}

// Generate opens a session for accessID and returns its refresh token.
func (m *Manager) Generate(ctx context.Context, accessID string, userID uuid.UUID) (string, error) {
	key, err := m.key(accessID)
	if err != nil {
		return "", err
	}
	if userID == uuid.Nil {
		return "", errors.New("user id is required")
	}

	token, err := newRefreshToken()
	if err != nil {
		return "", err
	}
	value, err := newRecord(userID, token, m.clock()).encode()
	if err != nil {
		return "", err
	}
	if err := m.store.Set(ctx, key, value, m.ttl); err != nil {
		return "", err
	}
	return token, nil
}

// Rotate exchanges a valid refresh token for a brand new session owned by the
// same user and deletes the old one.
func (m *Manager) Rotate(ctx context.Context, oldAccessID, provided string) (Rotated, error) {
	if strings.TrimSpace(provided) == "" {
		return Rotated{}, ErrInvalidRefreshToken
	}
	key, err := m.key(oldAccessID)
	if err != nil {
		return Rotated{}, ErrInvalidRefreshToken
	}

	current, err := m.load(ctx, key)
	if err != nil {
		return Rotated{}, err
	}
	if !current.matches(provided) {
		return Rotated{}, ErrInvalidRefreshToken
	}

	next := Rotated{AccessID: NewAccessID(), UserID: current.UserID}
	if next.RefreshToken, err = m.Generate(ctx, next.AccessID, current.UserID); err != nil {
		return Rotated{}, err
	}
	if err := m.store.Del(ctx, key); err != nil {
		return Rotated{}, err
	}
	return next, nil
}

// Revoke ends the session behind accessID. Revoking a missing session is not an error.
func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	key, err := m.key(accessID)
	if err != nil {
		return err
	}
	return m.store.Del(ctx, key)
}

func (m *Manager) HasSession(ctx context.Context, accessID string) (bool, error) {
	key, err := m.key(accessID)
	if err != nil {
		return false, err
	}
	_, err = m.store.Get(ctx, key)
	switch {
	case errors.Is(err, redislib.Nil):
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}

func (m *Manager) load(ctx context.Context, key string) (record, error) {
	raw, err := m.store.Get(ctx, key)
	if errors.Is(err, redislib.Nil) {
		return record{}, ErrInvalidRefreshToken
	}
	if err != nil {
		return record{}, err
	}
	rec, ok := decodeRecord(raw)
	if !ok {
		return record{}, ErrInvalidRefreshToken
	}
	return rec, nil
}

func (m *Manager) key(accessID string) (string, error) {
	if strings.TrimSpace(accessID) == "" {
		return "", errNoAccessID
	}
	return m.keyer.AccessSessionKey(accessID), nil
}

func (m *Manager) clock() time.Time {
	if m.now == nil {
		return time.Now()
	}
	return m.now()
}
