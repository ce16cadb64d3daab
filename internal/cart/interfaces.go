package cart

import (
	"context"

	"github.com/angelmondragon/cakeshop-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CartRepository defines the persistence surface required by the cart service.
// Every lookup and mutation is scoped to the owning user.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	UpsertIncrement(ctx context.Context, line *models.CartLine) error
	FindByOwnerAndProduct(ctx context.Context, userID, productID uuid.UUID) (*models.CartLine, error)
	FindByIDAndOwner(ctx context.Context, id, userID uuid.UUID) (*models.CartLine, error)
	ListByOwner(ctx context.Context, userID uuid.UUID) ([]models.CartLine, error)
	UpdateQuantity(ctx context.Context, id, userID uuid.UUID, quantity int) (int64, error)
	DeleteByIDAndOwner(ctx context.Context, id, userID uuid.UUID) (int64, error)
	DeleteByOwner(ctx context.Context, userID uuid.UUID) (int64, error)
}

type productChecker interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// MutationObserver receives cart mutation outcomes; pkg/metrics implements it.
type MutationObserver interface {
	ObserveMutation(op, outcome string)
	ObserveConflictRetry(op string)
}

type noopObserver struct{}

func (noopObserver) ObserveMutation(string, string) {}
func (noopObserver) ObserveConflictRetry(string)    {}
