package product

import (
	"context"
	"strings"

	"github.com/angelmondragon/cakeshop-backend/internal/repo"
	"github.com/angelmondragon/cakeshop-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository reads the product catalog. The cart never mutates products.
type Repository struct {
	base repo.Base
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{base: r.base.WithTx(tx)}
}

// FindByID loads a single product. gorm.ErrRecordNotFound is returned as-is.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.base.DB(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// Exists reports whether a product with id is in the catalog.
func (r *Repository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.base.DB(ctx).Model(&models.Product{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// List returns the catalog ordered by title. An empty category matches all products.
func (r *Repository) List(ctx context.Context, category string) ([]models.Product, error) {
	query := r.base.DB(ctx).Model(&models.Product{})
	if c := strings.TrimSpace(category); c != "" {
		query = query.Where("LOWER(category) = ?", strings.ToLower(c))
	}

	var products []models.Product
	if err := query.Order("title ASC").Order("id ASC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}
