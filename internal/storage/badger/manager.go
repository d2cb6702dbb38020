package badger

import (
	"github.com/examshaala/examshaala-portal/internal/common"
	"github.com/examshaala/examshaala-portal/internal/config"
	"github.com/examshaala/examshaala-portal/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger.
type Manager struct {
	db       *BadgerDB
	profiles *ProfileStorage
	accounts *AccountStorage
	logger   *common.Logger
}

// NewManager creates a new Badger storage manager.
func NewManager(logger *common.Logger, cfg *config.BadgerConfig) (*Manager, error) {
	db, err := NewBadgerDB(logger, cfg)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:       db,
		profiles: NewProfileStorage(db, logger),
		accounts: NewAccountStorage(db, logger),
		logger:   logger,
	}

	logger.Debug().Msg("Badger storage manager initialized")

	return manager, nil
}

// ProfileStore returns the profile document store.
func (m *Manager) ProfileStore() interfaces.ProfileStore {
	return m.profiles
}

// AccountStore returns the local credential store.
func (m *Manager) AccountStore() interfaces.AccountStore {
	return m.accounts
}

// Close closes the database connection.
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
