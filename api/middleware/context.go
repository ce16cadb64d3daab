package middleware

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	ctxUserID   contextKey = "user_id"
	ctxUsername contextKey = "username"
	ctxAccessID contextKey = "access_id"
)

func UserIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxUserID)
}

func UsernameFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxUsername)
}

// AccessIDFromContext returns the jti of the access token that authenticated the request.
func AccessIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxAccessID)
}

// OwnerFromContext parses the authenticated user id. ok is false when the
// request carries no usable identity.
func OwnerFromContext(ctx context.Context) (uuid.UUID, bool) {
	raw := UserIDFromContext(ctx)
	if raw == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// WithUserID injects the user identifier into the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return withString(ctx, ctxUserID, userID)
}

func WithUsername(ctx context.Context, username string) context.Context {
	return withString(ctx, ctxUsername, username)
}

func WithAccessID(ctx context.Context, accessID string) context.Context {
	return withString(ctx, ctxAccessID, accessID)
}

func stringFromContext(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

func withString(ctx context.Context, key contextKey, value string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, key, value)
}
