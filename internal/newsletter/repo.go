package newsletter

import (
	"context"

	"github.com/angelmondragon/cakeshop-backend/internal/repo"
	"github.com/angelmondragon/cakeshop-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists newsletter subscribers.
type Repository struct {
	base repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(db)}
}

// ExistsByEmail expects a normalized (trimmed, lower-cased) address.
func (r *Repository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.base.DB(ctx).
		Model(&models.NewsletterSubscriber{}).
		Where("email = ?", email).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) Create(ctx context.Context, subscriber *models.NewsletterSubscriber) error {
	if subscriber.ID == uuid.Nil {
		subscriber.ID = uuid.New()
	}
	return r.base.DB(ctx).Create(subscriber).Error
}
