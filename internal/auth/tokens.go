package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	pkgAuth "github.com/angelmondragon/cakeshop-backend/pkg/auth"
	"github.com/angelmondragon/cakeshop-backend/pkg/auth/session"
	"github.com/angelmondragon/cakeshop-backend/pkg/config"
	"github.com/angelmondragon/cakeshop-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/cakeshop-backend/pkg/errors"
)

type tokenIssuer interface {
	Generate(ctx context.Context, accessID string, userID uuid.UUID) (string, error)
}

func mintFor(cfg config.JWTConfig, user *models.User, accessID string, now time.Time) (string, error) {
	token, err := pkgAuth.MintAccessToken(cfg, now, pkgAuth.AccessTokenPayload{
		UserID:   user.ID,
		Username: user.Username,
		JTI:      accessID,
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return token, nil
}

// issueTokens opens a new session: the access jti keys the refresh record in redis.
func issueTokens(ctx context.Context, cfg config.JWTConfig, sessions tokenIssuer, user *models.User, now time.Time) (*TokenPair, error) {
	accessID := session.NewAccessID()
	access, err := mintFor(cfg, user, accessID, now)
	if err != nil {
		return nil, err
	}
	refresh, err := sessions.Generate(ctx, accessID, user.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store refresh token")
	}
	return &TokenPair{Access: access, Refresh: refresh}, nil
}
