package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/examshaala/examshaala-portal/internal/interfaces"
	"github.com/examshaala/examshaala-portal/internal/models"
)

// ErrDuplicateAccount is returned when an account UID or email already exists.
var ErrDuplicateAccount = fmt.Errorf("account: %w", interfaces.ErrAlreadyExists)

// AccountStore implements interfaces.AccountStore on PostgreSQL.
type AccountStore struct {
	db DBTX
}

// NewAccountStore creates a PostgreSQL-backed account store.
func NewAccountStore(db DBTX) *AccountStore {
	return &AccountStore{db: db}
}

const accountSelect = `
		SELECT uid, email, password_hash, display_name, provider, created_at
		FROM accounts`

func (s *AccountStore) scanAccount(ctx context.Context, query string, arg string) (*models.Account, error) {
	var a models.Account
	err := s.db.QueryRow(ctx, query, arg).Scan(&a.UID, &a.Email, &a.PasswordHash, &a.DisplayName, &a.Provider, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &a, nil
}

// GetAccount retrieves an account by UID.
func (s *AccountStore) GetAccount(ctx context.Context, uid string) (*models.Account, error) {
	return s.scanAccount(ctx, accountSelect+` WHERE uid = $1`, uid)
}

// FindAccountByEmail retrieves an account by email.
func (s *AccountStore) FindAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	return s.scanAccount(ctx, accountSelect+` WHERE email = $1`, email)
}

// InsertAccount stores a new account.
func (s *AccountStore) InsertAccount(ctx context.Context, a *models.Account) error {
	query := `
		INSERT INTO accounts (uid, email, password_hash, display_name, provider, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.db.Exec(ctx, query, a.UID, a.Email, a.PasswordHash, a.DisplayName, a.Provider, a.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateAccount
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// UpdateAccount overwrites the mutable fields of an existing account.
func (s *AccountStore) UpdateAccount(ctx context.Context, a *models.Account) error {
	query := `
		UPDATE accounts
		SET email = $1, password_hash = $2, display_name = $3, provider = $4
		WHERE uid = $5`

	ct, err := s.db.Exec(ctx, query, a.Email, a.PasswordHash, a.DisplayName, a.Provider, a.UID)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}
