package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgAuth "github.com/angelmondragon/cakeshop-backend/pkg/auth"
	"github.com/angelmondragon/cakeshop-backend/pkg/auth/session"
	"github.com/angelmondragon/cakeshop-backend/pkg/config"
	"github.com/angelmondragon/cakeshop-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/cakeshop-backend/pkg/errors"
	"github.com/angelmondragon/cakeshop-backend/pkg/security"
)

const invalidCredentialsMessage = "Invalid credentials"

func invalidCredentials() error {
	return pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
}

func invalidRefresh() error {
	return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
}

// Service covers login, token refresh and logout.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*TokenPair, error)
	Refresh(ctx context.Context, req RefreshRequest) (*TokenPair, error)
	Logout(ctx context.Context, accessID string) error
}

type userRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}

type sessionManager interface {
	tokenIssuer
	Rotate(ctx context.Context, oldAccessID, provided string) (session.Rotated, error)
	Revoke(ctx context.Context, accessID string) error
}

// ServiceParams wires the login service.
type ServiceParams struct {
	UserRepo       userRepository
	SessionManager sessionManager
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
}

type service struct {
	users       userRepository
	session     sessionManager
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	now         func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.UserRepo == nil:
		return nil, errors.New("user repository is required")
	case params.SessionManager == nil:
		return nil, errors.New("session manager is required")
	}
	return &service{
		users:       params.UserRepo,
		session:     params.SessionManager,
		jwtCfg:      params.JWTConfig,
		passwordCfg: params.PasswordConfig,
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*TokenPair, error) {
	user, err := s.authenticate(ctx, strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last login")
	}
	user.LastLoginAt = &now
	s.upgradeHash(ctx, user, req.Password)

	return issueTokens(ctx, s.jwtCfg, s.session, user, now)
}

// Refresh accepts an expired access token so clients can renew after exp.
// The old session is consumed by Rotate; any later mismatch revokes the new one.
func (s *service) Refresh(ctx context.Context, req RefreshRequest) (*TokenPair, error) {
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(s.jwtCfg, req.AccessToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
	}

	rotated, err := s.session.Rotate(ctx, claims.ID, req.RefreshToken)
	switch {
	case errors.Is(err, session.ErrInvalidRefreshToken):
		return nil, invalidRefresh()
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rotate session")
	}

	user, err := s.sessionOwner(ctx, rotated, claims.UserID)
	if err != nil {
		_ = s.session.Revoke(ctx, rotated.AccessID)
		return nil, err
	}

	access, err := mintFor(s.jwtCfg, user, rotated.AccessID, s.now())
	if err != nil {
		return nil, err
	}
	return &TokenPair{Access: access, Refresh: rotated.RefreshToken}, nil
}

func (s *service) sessionOwner(ctx context.Context, rotated session.Rotated, claimed uuid.UUID) (*models.User, error) {
	if rotated.UserID != claimed {
		return nil, invalidRefresh()
	}
	user, err := s.users.FindByID(ctx, rotated.UserID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, invalidRefresh()
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	case !user.IsActive:
		return nil, invalidRefresh()
	}
	return user, nil
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session")
	}
	if err := s.session.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

// authenticate answers every credential failure with the same message.
func (s *service) authenticate(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, invalidCredentials()
	}
	user, err := s.users.FindByUsername(ctx, username)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, invalidCredentials()
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	valid, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid || !user.IsActive {
		return nil, invalidCredentials()
	}
	return user, nil
}

// upgradeHash is best effort; a failed write is retried on the next login.
func (s *service) upgradeHash(ctx context.Context, user *models.User, password string) {
	if !security.NeedsRehash(user.PasswordHash, s.passwordCfg) {
		return
	}
	hash, err := security.HashPassword(password, s.passwordCfg)
	if err != nil {
		return
	}
	if s.users.UpdatePasswordHash(ctx, user.ID, hash) == nil {
		user.PasswordHash = hash
	}
}
