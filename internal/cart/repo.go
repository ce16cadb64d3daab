package cart

import (
	"context"
	"time"

	"github.com/angelmondragon/cakeshop-backend/internal/repo"
	"github.com/angelmondragon/cakeshop-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists cart lines.
type Repository struct {
	base repo.Base
}

// NewRepository binds the repository to the provided DB handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(db)}
}

// WithTx scopes the repository to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &Repository{base: r.base.WithTx(tx)}
}

// UpsertIncrement inserts the line or, when (user_id, product_id) already
// exists, adds line.Quantity to the stored quantity in the same statement.
func (r *Repository) UpsertIncrement(ctx context.Context, line *models.CartLine) error {
	if line.ID == uuid.Nil {
		line.ID = uuid.New()
	}
	return r.base.DB(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoUpdates: clause.Set{
				{Column: clause.Column{Name: "quantity"}, Value: gorm.Expr("cart_lines.quantity + excluded.quantity")},
				{Column: clause.Column{Name: "updated_at"}, Value: gorm.Expr("excluded.updated_at")},
			},
		}).
		Create(line).Error
}

func (r *Repository) FindByOwnerAndProduct(ctx context.Context, userID, productID uuid.UUID) (*models.CartLine, error) {
	var line models.CartLine
	err := r.withAssociations(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&line).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *Repository) FindByIDAndOwner(ctx context.Context, id, userID uuid.UUID) (*models.CartLine, error) {
	var line models.CartLine
	err := r.withAssociations(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&line).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *Repository) ListByOwner(ctx context.Context, userID uuid.UUID) ([]models.CartLine, error) {
	var lines []models.CartLine
	err := r.withAssociations(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// UpdateQuantity overwrites the quantity of an owned line and returns the rows affected.
func (r *Repository) UpdateQuantity(ctx context.Context, id, userID uuid.UUID, quantity int) (int64, error) {
	res := r.base.DB(ctx).
		Model(&models.CartLine{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]any{
			"quantity":   quantity,
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

func (r *Repository) DeleteByIDAndOwner(ctx context.Context, id, userID uuid.UUID) (int64, error) {
	res := r.base.DB(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.CartLine{})
	return res.RowsAffected, res.Error
}

func (r *Repository) DeleteByOwner(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := r.base.DB(ctx).
		Where("user_id = ?", userID).
		Delete(&models.CartLine{})
	return res.RowsAffected, res.Error
}

func (r *Repository) withAssociations(ctx context.Context) *gorm.DB {
	return r.base.DB(ctx).Preload("Product").Preload("User")
}
