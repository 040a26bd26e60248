package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/safepazz/internal/dbx"
	"github.com/dmitrijs2005/safepazz/internal/server/migrations"
	"github.com/dmitrijs2005/safepazz/internal/server/repositories/credentials"
	"github.com/dmitrijs2005/safepazz/internal/server/repositories/recoveries"
	"github.com/dmitrijs2005/safepazz/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/safepazz/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repositories bound to a
// shared *sql.DB and runs the embedded goose migrations.
type PostgresRepositoryManager struct {
	db *sql.DB
}

// NewPostgresRepositoryManager opens a pgx connection pool for dsn and
// verifies it is reachable.
func NewPostgresRepositoryManager(ctx context.Context, dsn string) (*PostgresRepositoryManager, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return newPostgresRepositoryManager(db), nil
}

func newPostgresRepositoryManager(db *sql.DB) *PostgresRepositoryManager {
	return &PostgresRepositoryManager{db: db}
}

func bind(db dbx.DBTX) Repositories {
	return Repositories{
		Users:       users.NewPostgresRepository(db),
		Sessions:    sessions.NewPostgresRepository(db),
		Recoveries:  recoveries.NewPostgresRepository(db),
		Credentials: credentials.NewPostgresRepository(db),
	}
}

func (m *PostgresRepositoryManager) Users() users.Repository {
	return users.NewPostgresRepository(m.db)
}

func (m *PostgresRepositoryManager) Sessions() sessions.Repository {
	return sessions.NewPostgresRepository(m.db)
}

func (m *PostgresRepositoryManager) Recoveries() recoveries.Repository {
	return recoveries.NewPostgresRepository(m.db)
}

func (m *PostgresRepositoryManager) Credentials() credentials.Repository {
	return credentials.NewPostgresRepository(m.db)
}

// Atomic runs fn inside a single transaction.
func (m *PostgresRepositoryManager) Atomic(ctx context.Context, fn func(r Repositories) error) error {
	return dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(bind(tx))
	})
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and applies them.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, m.db, ".")
}

func (m *PostgresRepositoryManager) Close() error {
	return m.db.Close()
}
