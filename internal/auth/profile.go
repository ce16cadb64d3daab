package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/cakeshop-backend/internal/cart"
	"github.com/angelmondragon/cakeshop-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/cakeshop-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProfileService returns the authenticated user's profile.
type ProfileService interface {
	Profile(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error)
}

type profileUserReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type cartLister interface {
	ListLines(ctx context.Context, ownerID uuid.UUID) ([]cart.CartLineDTO, error)
}

type profileService struct {
	users profileUserReader
	cart  cartLister
}

func NewProfileService(users profileUserReader, carts cartLister) (ProfileService, error) {
	if users == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart service is required")
	}
	return &profileService{users: users, cart: carts}, nil
}

func (s *profileService) Profile(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	lines, err := s.cart.ListLines(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if lines == nil {
		lines = []cart.CartLineDTO{}
	}
	return &ProfileDTO{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CartItems: lines,
	}, nil
}
