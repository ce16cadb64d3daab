package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/cakeshop-backend/internal/repo"
	"github.com/angelmondragon/cakeshop-backend/pkg/db/models"
)

// Repository persists user accounts. Lookups return gorm.ErrRecordNotFound
// untouched so the auth services can decide what a missing user means.
type Repository struct {
	base repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(db)}
}

func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.base.DB(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByUsername matches case-insensitively.
func (r *Repository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.first(ctx, "LOWER(username) = LOWER(?)", username)
}

// FindByEmail expects an already lower-cased address.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.setColumn(ctx, id, "last_login_at", at)
}

// UpdatePasswordHash stores a re-hashed password after a parameter upgrade.
func (r *Repository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return r.setColumn(ctx, id, "password_hash", hash)
}

func (r *Repository) first(ctx context.Context, where string, arg any) (*models.User, error) {
	var user models.User
	if err := r.base.DB(ctx).Where(where, arg).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// setColumn skips hooks and updated_at.
func (r *Repository) setColumn(ctx context.Context, id uuid.UUID, column string, value any) error {
	return r.base.DB(ctx).Model(&models.User{}).Where("id = ?", id).UpdateColumn(column, value).Error
}
