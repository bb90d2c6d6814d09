// Package repomanager hands out repositories bound to a *sql.DB or an open
// transaction, so a service can run multi-table flows atomically.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmarenkov/screenid/internal/dbx"
	"github.com/dmarenkov/screenid/internal/server/repositories/resettokens"
	"github.com/dmarenkov/screenid/internal/server/repositories/users"
	"github.com/dmarenkov/screenid/internal/server/repositories/verifytokens"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	VerificationTokens(db dbx.DBTX) verifytokens.Repository
	PasswordResetTokens(db dbx.DBTX) resettokens.Repository
}
