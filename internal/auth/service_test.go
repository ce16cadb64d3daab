package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	pkgAuth "github.com/angelmondragon/cakeshop-backend/pkg/auth"
	"github.com/angelmondragon/cakeshop-backend/pkg/auth/session"
	"github.com/angelmondragon/cakeshop-backend/pkg/config"
	"github.com/angelmondragon/cakeshop-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/cakeshop-backend/pkg/errors"
	"github.com/angelmondragon/cakeshop-backend/pkg/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:                 "secret",
		Issuer:                 "cakeshop",
		ExpirationMinutes:      30,
		RefreshTokenTTLMinutes: 600,
	}
}

func TestServiceLoginIssuesTokens(t *testing.T) {
	password := "sponge-cake"
	user := &models.User{
		ID:           uuid.New(),
		Username:     "baker",
		Email:        "baker@example.com",
		PasswordHash: mustHashPassword(t, password),
		IsActive:     true,
	}
	cfg := testJWTConfig()

	svc, sessions, repo := buildTestService(t, user, cfg)

	resp, err := svc.Login(context.Background(), LoginRequest{Username: "baker", Password: password})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(cfg, resp.Access)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != user.ID || claims.Username != "baker" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if resp.Refresh == "" {
		t.Fatalf("expected refresh token to be set")
	}
	if sessions.generated[claims.ID] != user.ID {
		t.Fatalf("session not bound to access jti")
	}
	if user.LastLoginAt == nil {
		t.Fatalf("expected last login to be recorded")
	}
	if repo.rehashed {
		t.Fatalf("hash with current params should not be rewritten")
	}
}

func TestServiceLoginRejectsBadCredentials(t *testing.T) {
	user := &models.User{
		ID:           uuid.New(),
		Username:     "baker",
		PasswordHash: mustHashPassword(t, "right-password"),
		IsActive:     true,
	}
	svc, _, _ := buildTestService(t, user, testJWTConfig())

	cases := []LoginRequest{
		{Username: "baker", Password: "wrong-password"},
		{Username: "nobody", Password: "right-password"},
		{Username: "", Password: "right-password"},
	}
	for _, req := range cases {
		_, err := svc.Login(context.Background(), req)
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
			t.Fatalf("expected unauthorized for %q, got %v", req.Username, err)
		}
		if typed.Message() != invalidCredentialsMessage {
			t.Fatalf("unexpected message %q", typed.Message())
		}
	}
}

func TestServiceLoginRejectsInactiveUser(t *testing.T) {
	user := &models.User{
		ID:           uuid.New(),
		Username:     "baker",
		PasswordHash: mustHashPassword(t, "pw-123456"),
		IsActive:     false,
	}
	svc, _, _ := buildTestService(t, user, testJWTConfig())

	_, err := svc.Login(context.Background(), LoginRequest{Username: "baker", Password: "pw-123456"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestServiceLoginUpgradesStaleHash(t *testing.T) {
	user := &models.User{
		ID:           uuid.New(),
		Username:     "baker",
		PasswordHash: mustHashPassword(t, "pw-123456"),
		IsActive:     true,
	}
	sessions := newStubSessionManager()
	repo := &stubUserRepo{user: user}
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: sessions,
		JWTConfig:      testJWTConfig(),
		PasswordConfig: config.PasswordConfig{ArgonTime: 2},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if _, err := svc.Login(context.Background(), LoginRequest{Username: "baker", Password: "pw-123456"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if !repo.rehashed {
		t.Fatalf("expected password hash upgrade")
	}
}

func TestServiceRefreshRotatesSession(t *testing.T) {
	user := &models.User{ID: uuid.New(), Username: "baker", IsActive: true}
	cfg := testJWTConfig()
	svc, sessions, _ := buildTestService(t, user, cfg)

	oldAccessID := session.NewAccessID()
	expired, err := pkgAuth.MintAccessToken(cfg, time.Now().Add(-2*time.Hour), pkgAuth.AccessTokenPayload{
		UserID: user.ID, Username: user.Username, JTI: oldAccessID,
	})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	sessions.tokens[oldAccessID] = "old-refresh"
	sessions.generated[oldAccessID] = user.ID

	pair, err := svc.Refresh(context.Background(), RefreshRequest{AccessToken: expired, RefreshToken: "old-refresh"})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	claims, err := pkgAuth.ParseAccessToken(cfg, pair.Access)
	if err != nil {
		t.Fatalf("parse new access token: %v", err)
	}
	if claims.ID == oldAccessID {
		t.Fatalf("expected a new access id")
	}
	if _, ok := sessions.tokens[oldAccessID]; ok {
		t.Fatalf("old session should be removed")
	}
	if sessions.tokens[claims.ID] != pair.Refresh {
		t.Fatalf("new refresh token not stored under new access id")
	}
}

func TestServiceRefreshRejectsWrongToken(t *testing.T) {
	user := &models.User{ID: uuid.New(), Username: "baker", IsActive: true}
	cfg := testJWTConfig()
	svc, sessions, _ := buildTestService(t, user, cfg)

	accessID := session.NewAccessID()
	access, err := pkgAuth.MintAccessToken(cfg, time.Now(), pkgAuth.AccessTokenPayload{UserID: user.ID, JTI: accessID})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	sessions.tokens[accessID] = "stored"
	sessions.generated[accessID] = user.ID

	_, err = svc.Refresh(context.Background(), RefreshRequest{AccessToken: access, RefreshToken: "guess"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	_, err = svc.Refresh(context.Background(), RefreshRequest{AccessToken: "garbage", RefreshToken: "stored"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized for malformed access token, got %v", err)
	}
}

func TestServiceLogoutRevokes(t *testing.T) {
	svc, sessions, _ := buildTestService(t, &models.User{ID: uuid.New()}, testJWTConfig())
	sessions.tokens["jti-1"] = "refresh"

	if err := svc.Logout(context.Background(), "jti-1"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, ok := sessions.tokens["jti-1"]; ok {
		t.Fatalf("expected session to be revoked")
	}
	if err := svc.Logout(context.Background(), " "); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized for empty access id, got %v", err)
	}
}

func buildTestService(t *testing.T, user *models.User, jwtCfg config.JWTConfig) (Service, *stubSessionManager, *stubUserRepo) {
	t.Helper()
	repo := &stubUserRepo{user: user}
	sessions := newStubSessionManager()
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: sessions,
		JWTConfig:      jwtCfg,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, sessions, repo
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

type stubUserRepo struct {
	user     *models.User
	rehashed bool
}

func (s *stubUserRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	if s.user == nil || s.user.Username != username {
		return nil, gorm.ErrRecordNotFound
	}
	return s.user, nil
}

func (s *stubUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.user, nil
}

func (s *stubUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	if s.user != nil && s.user.ID == id {
		s.user.LastLoginAt = &at
	}
	return nil
}

func (s *stubUserRepo) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	s.rehashed = true
	return nil
}

type stubSessionManager struct {
	tokens    map[string]string
	generated map[string]uuid.UUID
	seq       int
}

func newStubSessionManager() *stubSessionManager {
	return &stubSessionManager{tokens: map[string]string{}, generated: map[string]uuid.UUID{}}
}

func (s *stubSessionManager) Generate(ctx context.Context, accessID string, userID uuid.UUID) (string, error) {
	s.seq++
	token := "refresh-" + accessID
	s.tokens[accessID] = token
	s.generated[accessID] = userID
	return token, nil
}

func (s *stubSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (session.Rotated, error) {
	stored, ok := s.tokens[oldAccessID]
	if !ok || stored != provided {
		return session.Rotated{}, session.ErrInvalidRefreshToken
	}
	userID := s.generated[oldAccessID]
	newID := session.NewAccessID()
	token, _ := s.Generate(ctx, newID, userID)
	delete(s.tokens, oldAccessID)
	return session.Rotated{AccessID: newID, RefreshToken: token, UserID: userID}, nil
}

func (s *stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	if accessID == "" {
		return errors.New("access id is required")
	}
	delete(s.tokens, accessID)
	return nil
}
