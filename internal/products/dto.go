package product

import (
	"github.com/angelmondragon/cakeshop-backend/pkg/db/models"
	"github.com/google/uuid"
)

// ProductDTO is the public catalog payload. Price is a fixed two-decimal string.
type ProductDTO struct {
	ID       uuid.UUID `json:"id"`
	Title    string    `json:"title"`
	Price    string    `json:"price"`
	Image    string    `json:"image"`
	Image2   *string   `json:"image2"`
	Category string    `json:"category"`
}

// NewProductDTO builds a DTO from the persisted model.
func NewProductDTO(product *models.Product) *ProductDTO {
	if product == nil {
		return nil
	}
	return &ProductDTO{
		ID:       product.ID,
		Title:    product.Title,
		Price:    product.Price.StringFixed(2),
		Image:    product.Image,
		Image2:   product.Image2,
		Category: product.Category,
	}
}

// NewProductDTOs maps a slice of models, always returning a non-nil slice.
func NewProductDTOs(products []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(products))
	for i := range products {
		out = append(out, *NewProductDTO(&products[i]))
	}
	return out
}
