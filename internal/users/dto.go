package users

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/cakeshop-backend/pkg/db/models"
)

// CreateUserDTO is the registration data the repository persists. Username and
// Email are expected to be normalised already; IsActive defaults to true.
type CreateUserDTO struct {
	Username     string
	Email        string
	PasswordHash string
	IsActive     *bool
}

func (c CreateUserDTO) ToModel() *models.User {
	active := c.IsActive == nil || *c.IsActive
	return &models.User{
		ID:           uuid.New(),
		Username:     c.Username,
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		IsActive:     active,
	}
}
