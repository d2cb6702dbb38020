package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/timshannon/badgerhold/v4"

	"github.com/examshaala/examshaala-portal/internal/common"
	"github.com/examshaala/examshaala-portal/internal/interfaces"
	"github.com/examshaala/examshaala-portal/internal/models"
)

// AccountStorage implements interfaces.AccountStore using BadgerDB.
type AccountStorage struct {
	db     *BadgerDB
	logger *common.Logger
}

// NewAccountStorage creates an account store backed by BadgerDB.
func NewAccountStorage(db *BadgerDB, logger *common.Logger) *AccountStorage {
	return &AccountStorage{db: db, logger: logger}
}

// GetAccount retrieves an account by UID.
func (s *AccountStorage) GetAccount(_ context.Context, uid string) (*models.Account, error) {
	var a models.Account
	if err := s.db.Store().Get(uid, &a); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account %s: %w", uid, err)
	}
	return &a, nil
}

// FindAccountByEmail looks up an account via the Email index.
func (s *AccountStorage) FindAccountByEmail(_ context.Context, email string) (*models.Account, error) {
	var accounts []models.Account
	err := s.db.Store().Find(&accounts, badgerhold.Where("Email").Eq(email).Index("Email").Limit(1))
	if err != nil {
		return nil, fmt.Errorf("failed to find account by email: %w", err)
	}
	if len(accounts) == 0 {
		return nil, interfaces.ErrNotFound
	}
	return &accounts[0], nil
}

// InsertAccount stores a new account. Fails if the UID already exists.
func (s *AccountStorage) InsertAccount(_ context.Context, a *models.Account) error {
	if err := s.db.Store().Insert(a.UID, a); err != nil {
		if errors.Is(err, badgerhold.ErrKeyExists) {
			return fmt.Errorf("account %s: %w", a.UID, interfaces.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to insert account %s: %w", a.UID, err)
	}
	return nil
}

// UpdateAccount overwrites an existing account.
func (s *AccountStorage) UpdateAccount(_ context.Context, a *models.Account) error {
	if err := s.db.Store().Update(a.UID, a); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return interfaces.ErrNotFound
		}
		return fmt.Errorf("failed to update account %s: %w", a.UID, err)
	}
	return nil
}
