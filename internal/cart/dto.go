package cart

import (
	product "github.com/angelmondragon/cakeshop-backend/internal/products"
	"github.com/angelmondragon/cakeshop-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AddItemInput is the payload for adding a product to the owner's cart.
// A nil Quantity means 1.
type AddItemInput struct {
	ProductID uuid.UUID
	Quantity  *int
}

// SetQuantityInput overwrites a line's quantity.
type SetQuantityInput struct {
	Quantity int
}

// CartLineDTO is the public cart line payload.
type CartLineDTO struct {
	ID       uuid.UUID           `json:"id"`
	Username string              `json:"username"`
	Product  *product.ProductDTO `json:"product"`
	Quantity int                 `json:"quantity"`
	Subtotal string              `json:"subtotal"`
}

// CartTotalDTO summarizes the owner's cart.
type CartTotalDTO struct {
	Total     string `json:"total"`
	ItemCount int    `json:"item_count"`
	LineCount int    `json:"line_count"`
}

// ClearResultDTO reports how many lines were removed.
type ClearResultDTO struct {
	Removed int64 `json:"removed"`
}

// NewCartLineDTO maps a persisted line with its preloaded product.
func NewCartLineDTO(line *models.CartLine) *CartLineDTO {
	if line == nil {
		return nil
	}
	dto := &CartLineDTO{
		ID:       line.ID,
		Product:  product.NewProductDTO(line.Product),
		Quantity: line.Quantity,
		Subtotal: line.Subtotal().StringFixed(2),
	}
	if line.User != nil {
		dto.Username = line.User.Username
	}
	return dto
}

// NewCartLineDTOs maps lines, always returning a non-nil slice.
func NewCartLineDTOs(lines []models.CartLine) []CartLineDTO {
	out := make([]CartLineDTO, 0, len(lines))
	for i := range lines {
		out = append(out, *NewCartLineDTO(&lines[i]))
	}
	return out
}

// Summarize sums subtotals with fixed-point arithmetic. An empty cart totals zero.
func Summarize(lines []models.CartLine) CartTotalDTO {
	total := decimal.Zero
	items := 0
	for _, line := range lines {
		total = total.Add(line.Subtotal())
		items += line.Quantity
	}
	return CartTotalDTO{
		Total:     total.StringFixed(2),
		ItemCount: items,
		LineCount: len(lines),
	}
}
