package storage

import (
	"context"
	"fmt"

	"github.com/examshaala/examshaala-portal/internal/common"
	"github.com/examshaala/examshaala-portal/internal/config"
	"github.com/examshaala/examshaala-portal/internal/interfaces"
	"github.com/examshaala/examshaala-portal/internal/storage/badger"
	"github.com/examshaala/examshaala-portal/internal/storage/postgres"
)

// NewStorageManager creates a new storage manager based on config.
func NewStorageManager(ctx context.Context, logger *common.Logger, cfg *config.Config) (interfaces.StorageManager, error) {
	switch cfg.Storage.Backend {
	case "", "badger":
		return badger.NewManager(logger, &cfg.Storage.Badger)
	case "postgres":
		return postgres.NewManager(ctx, logger, &cfg.Storage.Postgres)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
