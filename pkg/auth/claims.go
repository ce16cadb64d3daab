package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload is what callers know when minting. An empty JTI gets a fresh uuid.
type AccessTokenPayload struct {
	UserID   uuid.UUID
	Username string
	JTI      string
}

// AccessTokenClaims is the JWT body. The jti doubles as the redis session id.
type AccessTokenClaims struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	jwt.RegisteredClaims
}

func newClaims(issuer string, ttl time.Duration, now time.Time, payload AccessTokenPayload) AccessTokenClaims {
	return AccessTokenClaims{
		UserID:   payload.UserID,
		Username: payload.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        payload.JTI,
			Issuer:    issuer,
			Subject:   payload.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}
