// Package verifytokens provides a PostgreSQL-backed repository for one-time
// email verification codes.
package verifytokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmarenkov/screenid/internal/common"
	"github.com/dmarenkov/screenid/internal/dbx"
	"github.com/dmarenkov/screenid/internal/server/models"
	"github.com/google/uuid"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a token row for userID. The statement claims the owner slot
// atomically: the unique constraint on user_id plus the conditional update
// means a live row survives untouched (no insert, common.ErrorTokenCooldown)
// while an expired row is overwritten in place. There is no read-then-write
// window between the cool-down check and the insert.
func (r *PostgresRepository) Create(ctx context.Context, userID string, tokenHash string, validity time.Duration) (*models.VerificationToken, error) {
	query := `
		INSERT INTO email_verification_tokens (id, user_id, token_hash, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET id = EXCLUDED.id, token_hash = EXCLUDED.token_hash,
		    created_at = now(), expires_at = EXCLUDED.expires_at
		WHERE email_verification_tokens.expires_at <= now()
		RETURNING id, user_id, token_hash, created_at, expires_at
	`

	token := &models.VerificationToken{}
	err := r.db.QueryRowContext(ctx, query,
		uuid.NewString(), userID, tokenHash, time.Now().Add(validity)).
		Scan(&token.ID, &token.UserID, &token.TokenHash, &token.CreatedAt, &token.ExpiresAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorTokenCooldown
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return token, nil
}

// FindLive returns the unexpired token for userID, or common.ErrorNotFound.
func (r *PostgresRepository) FindLive(ctx context.Context, userID string) (*models.VerificationToken, error) {
	query := `
		SELECT id, user_id, token_hash, created_at, expires_at
		FROM email_verification_tokens
		WHERE user_id = $1 AND expires_at > now()
	`

	token := &models.VerificationToken{}
	err := r.db.QueryRowContext(ctx, query, userID).
		Scan(&token.ID, &token.UserID, &token.TokenHash, &token.CreatedAt, &token.ExpiresAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return token, nil
}

// Delete removes the token owned by userID.
func (r *PostgresRepository) Delete(ctx context.Context, userID string) error {
	query := `
		DELETE FROM email_verification_tokens
		WHERE user_id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
