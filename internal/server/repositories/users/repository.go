// Package users declares the persistence contract for user identity records.
package users

import (
	"context"

	"github.com/dmarenkov/screenid/internal/server/models"
)

// Repository defines operations over persisted users. Lookups that find
// nothing return common.ErrorNotFound; Create returns common.ErrorEmailTaken
// when the email is already registered.
type Repository interface {
	// Create inserts a new user and returns it with its assigned id.
	// Email must already be case-normalized by the caller.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByEmail returns the user with the given normalized email.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// GetByID returns the user with the given id.
	GetByID(ctx context.Context, id string) (*models.User, error)

	// MarkVerified flips the verification flag to true. The flag never
	// reverts once set.
	MarkVerified(ctx context.Context, id string) error

	// UpdatePassword replaces the stored password hash.
	UpdatePassword(ctx context.Context, id string, passwordHash string) error
}
