// Package postgres implements the profile and account stores on PostgreSQL.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/examshaala/examshaala-portal/internal/common"
	"github.com/examshaala/examshaala-portal/internal/config"
	"github.com/examshaala/examshaala-portal/internal/interfaces"
)

//go:embed schema.sql
var schema string

// DBTX is the subset of *pgxpool.Pool the stores use. pgxmock pools satisfy it.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Manager implements interfaces.StorageManager on a pgx pool.
type Manager struct {
	pool     *pgxpool.Pool
	profiles *ProfileStore
	accounts *AccountStore
	logger   *common.Logger
}

// NewManager connects to PostgreSQL, applies the schema and returns a manager.
func NewManager(ctx context.Context, logger *common.Logger, cfg *config.PostgresConfig) (*Manager, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Debug().Int("max_conns", int(poolCfg.MaxConns)).Msg("PostgreSQL storage manager initialized")

	return &Manager{
		pool:     pool,
		profiles: NewProfileStore(pool),
		accounts: NewAccountStore(pool),
		logger:   logger,
	}, nil
}

// Migrate applies the idempotent schema.
func Migrate(ctx context.Context, db DBTX) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// ProfileStore returns the profile document store.
func (m *Manager) ProfileStore() interfaces.ProfileStore {
	return m.profiles
}

// AccountStore returns the local credential store.
func (m *Manager) AccountStore() interfaces.AccountStore {
	return m.accounts
}

// Close releases the pool.
func (m *Manager) Close() error {
	m.pool.Close()
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "23505")
}
