// Package users declares the credential store contract and its PostgreSQL
// implementation.
package users

import (
	"context"

	"github.com/dmitrijs2005/studymatch/internal/server/models"
)

// Repository persists and looks up accounts.
type Repository interface {
	// Create inserts user. A duplicate email yields common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetUserByEmail matches email case-insensitively. Missing rows yield
	// common.ErrorNotFound.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID returns common.ErrorNotFound when absent.
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}
