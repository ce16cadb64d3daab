package auth

import (
	"github.com/angelmondragon/cakeshop-backend/internal/cart"
	"github.com/google/uuid"
)

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=150"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is the sign-up payload.
type RegisterRequest struct {
	Username        string `json:"username" validate:"required,max=150"`
	Email           string `json:"email" validate:"required,email,max=254"`
	Password        string `json:"password" validate:"required,min=8,max=128"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

// RefreshRequest carries the (possibly expired) access token and its refresh token.
type RefreshRequest struct {
	AccessToken  string `json:"-"`
	RefreshToken string `json:"refresh" validate:"required"`
}

// TokenPair is returned by login and refresh.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// RegisterResponse mirrors TokenPair with a confirmation message.
type RegisterResponse struct {
	Message string `json:"message"`
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// ProfileDTO describes the authenticated user with their cart lines.
type ProfileDTO struct {
	ID        uuid.UUID          `json:"id"`
	Username  string             `json:"username"`
	Email     string             `json:"email"`
	CartItems []cart.CartLineDTO `json:"cart_items"`
}
