// Package verifytokens declares the persistence contract for one-time email
// verification codes.
package verifytokens

import (
	"context"
	"time"

	"github.com/dmarenkov/screenid/internal/server/models"
)

// Repository defines operations for issuing, retrieving, and consuming
// verification tokens. A token past its expiry is treated as absent by every
// operation, regardless of when the row is physically removed.
type Repository interface {
	// Create stores the hash of a new code for userID with an expiry of
	// now+validity. At most one live token may exist per owner: if one does,
	// Create returns common.ErrorTokenCooldown and leaves it untouched.
	// The check and the insert are a single atomic statement.
	Create(ctx context.Context, userID string, tokenHash string, validity time.Duration) (*models.VerificationToken, error)

	// FindLive returns the unexpired token owned by userID, or
	// common.ErrorNotFound when none exists.
	FindLive(ctx context.Context, userID string) (*models.VerificationToken, error)

	// Delete consumes the token owned by userID. Deleting a non-existent
	// token is not an error.
	Delete(ctx context.Context, userID string) error
}
