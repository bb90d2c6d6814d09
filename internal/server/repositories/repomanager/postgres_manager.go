package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmarenkov/screenid/internal/dbx"
	"github.com/dmarenkov/screenid/internal/server/migrations"
	"github.com/dmarenkov/screenid/internal/server/repositories/resettokens"
	"github.com/dmarenkov/screenid/internal/server/repositories/users"
	"github.com/dmarenkov/screenid/internal/server/repositories/verifytokens"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// indirection for tests
var gooseUpContext = goose.UpContext

type PostgresRepositoryManager struct {
}

func NewPostgresRepositoryManager(db *sql.DB) (RepositoryManager, error) {
	return &PostgresRepositoryManager{}, nil
}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) VerificationTokens(db dbx.DBTX) verifytokens.Repository {
	return verifytokens.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) PasswordResetTokens(db dbx.DBTX) resettokens.Repository {
	return resettokens.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}

	if err := gooseUpContext(ctx, db, "."); err != nil {
		return err
	}

	return nil
}
