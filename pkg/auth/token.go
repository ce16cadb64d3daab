package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/cakeshop-backend/pkg/config"
)

var (
	signingMethod = jwt.SigningMethodHS256
	errNoSecret   = errors.New("jwt secret is required")
)

// MintAccessToken signs an HS256 access token valid for cfg.ExpirationMinutes from now.
func MintAccessToken(cfg config.JWTConfig, now time.Time, payload AccessTokenPayload) (string, error) {
	switch {
	case cfg.Secret == "":
		return "", errNoSecret
	case cfg.Issuer == "":
		return "", errors.New("jwt issuer is required")
	case cfg.ExpirationMinutes <= 0:
		return "", errors.New("jwt expiration minutes must be positive")
	case payload.UserID == uuid.Nil:
		return "", errors.New("user id is required")
	}

	payload.JTI = strings.TrimSpace(payload.JTI)
	if payload.JTI == "" {
		payload.JTI = uuid.NewString()
	}
	ttl := time.Duration(cfg.ExpirationMinutes) * time.Minute

	signed, err := jwt.NewWithClaims(signingMethod, newClaims(cfg.Issuer, ttl, now, payload)).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

// ParseAccessToken verifies signature, issuer and expiry.
func ParseAccessToken(cfg config.JWTConfig, tokenString string) (*AccessTokenClaims, error) {
	return parseClaims(cfg, tokenString,
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
	)
}

// ParseAccessTokenAllowExpired verifies signature and issuer but not exp/nbf,
// so refresh can recover the jti of an expired token.
func ParseAccessTokenAllowExpired(cfg config.JWTConfig, tokenString string) (*AccessTokenClaims, error) {
	claims, err := parseClaims(cfg, tokenString, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, err
	}
	// WithoutClaimsValidation skips the issuer check as well
	if claims.Issuer != cfg.Issuer {
		return nil, fmt.Errorf("%w: unexpected issuer %q", jwt.ErrTokenInvalidIssuer, claims.Issuer)
	}
	return claims, nil
}

func parseClaims(cfg config.JWTConfig, tokenString string, opts ...jwt.ParserOption) (*AccessTokenClaims, error) {
	if cfg.Secret == "" {
		return nil, errNoSecret
	}
	opts = append(opts, jwt.WithValidMethods([]string{signingMethod.Alg()}))

	claims := &AccessTokenClaims{}
	secret := []byte(cfg.Secret)
	if _, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, opts...); err != nil {
		return nil, err
	}
	if claims.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing user_id", jwt.ErrTokenInvalidClaims)
	}
	return claims, nil
}
