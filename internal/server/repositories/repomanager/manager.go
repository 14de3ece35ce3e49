// Package repomanager vends the metadata repositories for the configured SQL
// dialect and runs the embedded goose migrations.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/zkvault/internal/dbx"
	"github.com/dmitrijs2005/zkvault/internal/server/migrations"
	"github.com/dmitrijs2005/zkvault/internal/server/repositories/expirations"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Expirations(db dbx.DBTX) expirations.Repository
}

// SQLRepositoryManager serves SQLite and PostgreSQL alike; the dialect
// selects placeholder style and goose dialect.
type SQLRepositoryManager struct {
	dialect string
}

// Expirations returns an expirations.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Expirations(db dbx.DBTX) expirations.Repository {
	return expirations.NewSQLRepository(db, m.dialect)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(m.dialect); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return err
	}
	return nil
}

// NewRepositoryManager constructs a RepositoryManager for dialect, one of
// dbx.DialectSQLite or dbx.DialectPostgres.
func NewRepositoryManager(dialect string) (RepositoryManager, error) {
	switch dialect {
	case dbx.DialectSQLite, dbx.DialectPostgres:
		return &SQLRepositoryManager{dialect: dialect}, nil
	}
	return nil, fmt.Errorf("unsupported SQL dialect %q", dialect)
}
