package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/cakeshop-backend/internal/users"
	"github.com/angelmondragon/cakeshop-backend/pkg/config"
	"github.com/angelmondragon/cakeshop-backend/pkg/db"
	"github.com/angelmondragon/cakeshop-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/cakeshop-backend/pkg/errors"
	"github.com/angelmondragon/cakeshop-backend/pkg/security"
)

const registeredMessage = "User registered successfully"

// RegisterService creates an account and signs it in.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type registerUserRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
}

// RegisterServiceParams wires the registration flow. UserRepoFactory defaults
// to the gorm users repository bound to the transaction.
type RegisterServiceParams struct {
	TxRunner        txRunner
	UserRepoFactory func(tx *gorm.DB) registerUserRepository
	SessionManager  tokenIssuer
	JWTConfig       config.JWTConfig
	PasswordConfig  config.PasswordConfig
}

type registerService struct {
	tx          txRunner
	userRepo    func(tx *gorm.DB) registerUserRepository
	session     tokenIssuer
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
}

func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	switch {
	case params.TxRunner == nil:
		return nil, errors.New("transaction runner required")
	case params.SessionManager == nil:
		return nil, errors.New("session manager required")
	}
	factory := params.UserRepoFactory
	if factory == nil {
		factory = func(tx *gorm.DB) registerUserRepository { return users.NewRepository(tx) }
	}
	return &registerService{
		tx:          params.TxRunner,
		userRepo:    factory,
		session:     params.SessionManager,
		jwtCfg:      params.JWTConfig,
		passwordCfg: params.PasswordConfig,
	}, nil
}

func fieldError(code pkgerrors.Code, msg, field, detail string) error {
	return pkgerrors.New(code, msg).WithDetails(map[string]any{field: detail})
}

func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	dto := users.CreateUserDTO{
		Username: strings.TrimSpace(req.Username),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
	}
	switch {
	case dto.Username == "":
		return nil, fieldError(pkgerrors.CodeValidation, "username is required", "username", "This field is required.")
	case dto.Email == "":
		return nil, fieldError(pkgerrors.CodeValidation, "email is required", "email", "This field is required.")
	case req.Password != req.ConfirmPassword:
		return nil, fieldError(pkgerrors.CodeValidation, "passwords do not match", "password", "Passwords do not match")
	}

	hash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid password")
	}
	dto.PasswordHash = hash

	var user *models.User
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.userRepo(tx)
		if err := ensureAvailable(ctx, repo, dto); err != nil {
			return err
		}
		created, err := repo.Create(ctx, dto)
		switch {
		case err == nil:
			user = created
			return nil
		case db.IsUniqueViolation(err, ""):
			// lost a race with a concurrent sign-up
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "account already exists")
		default:
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}
	}); err != nil {
		return nil, err
	}

	tokens, err := issueTokens(ctx, s.jwtCfg, s.session, user, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	return &RegisterResponse{Message: registeredMessage, Access: tokens.Access, Refresh: tokens.Refresh}, nil
}

func ensureAvailable(ctx context.Context, repo registerUserRepository, dto users.CreateUserDTO) error {
	checks := []struct {
		field, value, taken, detail string
		find                        func(context.Context, string) (*models.User, error)
	}{
		{"username", dto.Username, "username already taken", "A user with that username already exists.", repo.FindByUsername},
		{"email", dto.Email, "email already registered", "A user with that email already exists.", repo.FindByEmail},
	}
	for _, c := range checks {
		_, err := c.find(ctx, c.value)
		switch {
		case err == nil:
			return fieldError(pkgerrors.CodeConflict, c.taken, c.field, c.detail)
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check "+c.field)
		}
	}
	return nil
}
