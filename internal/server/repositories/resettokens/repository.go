// Package resettokens declares the persistence contract for single-use
// password reset tokens.
package resettokens

import (
	"context"
	"time"

	"github.com/dmarenkov/screenid/internal/server/models"
)

// Repository defines operations for issuing, retrieving, and consuming
// password reset tokens. Expiry is authoritative: a row past its expiry is
// treated as absent by every operation.
type Repository interface {
	// Create stores the hash of a new reset token for userID with an expiry
	// of now+validity. At most one live token may exist per owner: if one
	// does, Create returns common.ErrorTokenCooldown and leaves it untouched.
	// The check and the insert are a single atomic statement.
	Create(ctx context.Context, userID string, tokenHash string, validity time.Duration) (*models.PasswordResetToken, error)

	// FindLive returns the unexpired token owned by userID, or
	// common.ErrorNotFound when none exists.
	FindLive(ctx context.Context, userID string) (*models.PasswordResetToken, error)

	// DeleteByID consumes the token by its row id, binding consumption to
	// the exact record a prior validation matched. Deleting a non-existent
	// token is not an error.
	DeleteByID(ctx context.Context, id string) error
}
