// Package resettokens provides a PostgreSQL-backed repository for single-use
// password reset tokens.
package resettokens

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

// Create inserts a token row for userID. Same atomic owner-slot claim as the
// verification token repository: a live row blocks the insert with
// common.ErrorTokenCooldown, an expired row is overwritten in place.
func (r *PostgresRepository) Create(ctx context.Context, userID string, tokenHash string, validity time.Duration) (*models.PasswordResetToken, error) {
	query := `
		INSERT INTO password_reset_tokens (id, user_id, token_hash, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET id = EXCLUDED.id, token_hash = EXCLUDED.token_hash,
		    created_at = now(), expires_at = EXCLUDED.expires_at
		WHERE password_reset_tokens.expires_at <= now()
		RETURNING id, user_id, token_hash, created_at, expires_at
	`

	token := &models.PasswordResetToken{}
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
func (r *PostgresRepository) FindLive(ctx context.Context, userID string) (*models.PasswordResetToken, error) {
	query := `
		SELECT id, user_id, token_hash, created_at, expires_at
		FROM password_reset_tokens
		WHERE user_id = $1 AND expires_at > now()
	`

	token := &models.PasswordResetToken{}
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

// DeleteByID removes the token row with the given id.
func (r *PostgresRepository) DeleteByID(ctx context.Context, id string) error {
	query := `
		DELETE FROM password_reset_tokens
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
