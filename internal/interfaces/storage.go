package interfaces

import (
	"context"
	"errors"

	"github.com/examshaala/examshaala-portal/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists is returned when an insert collides with an existing record.
var ErrAlreadyExists = errors.New("record already exists")

// WriteMode selects how a profile write treats an existing record.
type WriteMode int

const (
	// WriteReplace creates the record. A replace that finds the record already
	// present keeps its createdAt and only fills fields still empty or at
	// their defaults.
	WriteReplace WriteMode = iota
	// WriteMerge changes only the named fields, leaving others untouched.
	WriteMerge
)

func (m WriteMode) String() string {
	if m == WriteMerge {
		return "merge"
	}
	return "replace"
}

// StorageManager provides access to domain-specific storage interfaces.
// Implementations can be swapped (BadgerDB locally, PostgreSQL in production).
type StorageManager interface {
	ProfileStore() ProfileStore
	AccountStore() AccountStore
	Close() error
}

// ProfileStore is the document store boundary for user profiles.
// Server timestamps (createdAt, lastLogin) are assigned by the store when the
// corresponding field is written.
type ProfileStore interface {
	GetProfile(ctx context.Context, uid string) (*models.UserProfile, error)
	WriteProfile(ctx context.Context, p *models.UserProfile, mode WriteMode, fields ...string) error
}

// AccountStore holds credentials for the local identity provider.
type AccountStore interface {
	GetAccount(ctx context.Context, uid string) (*models.Account, error)
	FindAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	InsertAccount(ctx context.Context, a *models.Account) error
	UpdateAccount(ctx context.Context, a *models.Account) error
}
