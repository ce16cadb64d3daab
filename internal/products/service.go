package product

import (
	"context"
	"fmt"

	baserepo "github.com/angelmondragon/cakeshop-backend/internal/repo"
	"github.com/angelmondragon/cakeshop-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/cakeshop-backend/pkg/errors"
	"github.com/google/uuid"
)

// Service exposes read-only catalog operations.
type Service interface {
	List(ctx context.Context, params ListParams) ([]ProductDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
}

// ListParams filters the catalog listing.
type ListParams struct {
	Category string
}

type catalogReader interface {
	List(ctx context.Context, category string) ([]models.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type service struct {
	repo catalogReader
}

// NewService constructs a product service instance.
func NewService(repo catalogReader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, params ListParams) ([]ProductDTO, error) {
	products, err := s.repo.List(ctx, params.Category)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	return NewProductDTOs(products), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, baserepo.Classify(err, "product not found", "load product")
	}
	return NewProductDTO(product), nil
}
