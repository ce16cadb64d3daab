package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/cakeshop-backend/api/responses"
	pkgAuth "github.com/angelmondragon/cakeshop-backend/pkg/auth"
	"github.com/angelmondragon/cakeshop-backend/pkg/auth/session"
	"github.com/angelmondragon/cakeshop-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/cakeshop-backend/pkg/errors"
	"github.com/angelmondragon/cakeshop-backend/pkg/logger"
)

const bearerScheme = "bearer"

type authenticator struct {
	cfg      config.JWTConfig
	sessions session.AccessSessionChecker
}

// Auth requires a bearer access token whose jti still has a live session.
// Logout deletes that session, so revoked tokens stop working before exp.
// sessions may be nil, in which case only the signature and claims are checked.
func Auth(cfg config.JWTConfig, sessions session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	a := authenticator{cfg: cfg, sessions: sessions}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := a.authenticate(r)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			userID := claims.UserID.String()
			ctx := WithAccessID(WithUsername(WithUserID(r.Context(), userID), claims.Username), claims.ID)
			if logg != nil {
				ctx = logg.WithUserID(ctx, userID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (a authenticator) authenticate(r *http.Request) (*pkgAuth.AccessTokenClaims, error) {
	token, ok := BearerToken(r)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	claims, err := pkgAuth.ParseAccessToken(a.cfg, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	if claims.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id")
	}
	if a.sessions == nil {
		return claims, nil
	}

	live, err := a.sessions.HasSession(r.Context(), claims.ID)
	switch {
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session")
	case !live:
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable")
	}
	return claims, nil
}

// BearerToken reads "Authorization: Bearer <token>". The scheme is case-insensitive.
func BearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !found || !strings.EqualFold(scheme, bearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
