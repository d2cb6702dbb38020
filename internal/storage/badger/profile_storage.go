package badger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/examshaala/examshaala-portal/internal/common"
	"github.com/examshaala/examshaala-portal/internal/interfaces"
	"github.com/examshaala/examshaala-portal/internal/models"
)

// ProfileStorage implements interfaces.ProfileStore using BadgerDB.
type ProfileStorage struct {
	db     *BadgerDB
	logger *common.Logger
	now    func() time.Time

	// mu serializes read-modify-write cycles so merges never lose fields.
	mu sync.Mutex
}

// NewProfileStorage creates a profile store backed by BadgerDB.
func NewProfileStorage(db *BadgerDB, logger *common.Logger) *ProfileStorage {
	return &ProfileStorage{
		db:     db,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// GetProfile retrieves a profile by UID.
func (s *ProfileStorage) GetProfile(_ context.Context, uid string) (*models.UserProfile, error) {
	var p models.UserProfile
	err := s.db.Store().Get(uid, &p)
	if err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get profile %s: %w", uid, err)
	}
	return &p, nil
}

// WriteProfile stores p. Replace creates the record and stamps both
// timestamps; replacing an existing record absorbs the duplicate create
// (see models.UserProfile.AbsorbCreate) and keeps createdAt. Merge requires an existing record and changes only the named
// fields; naming createdAt or lastLogin stamps that field with server time.
func (s *ProfileStorage) WriteProfile(ctx context.Context, p *models.UserProfile, mode interfaces.WriteMode, fields ...string) error {
	if p == nil || p.ID == "" {
		return fmt.Errorf("profile id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.GetProfile(ctx, p.ID)
	if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		return err
	}
	now := s.now()

	var rec models.UserProfile
	switch mode {
	case interfaces.WriteReplace:
		if existing != nil {
			rec = *existing
			rec.AbsorbCreate(p)
			rec.LastLogin = models.NextTimestamp(existing.LastLogin, now)
			break
		}
		rec = *p
		rec.CreatedAt = now
		rec.LastLogin = now
	case interfaces.WriteMerge:
		if existing == nil {
			return interfaces.ErrNotFound
		}
		rec = *existing
		rec.ApplyFields(p, fields...)
		for _, f := range fields {
			switch f {
			case models.FieldCreatedAt:
				rec.CreatedAt = now
			case models.FieldLastLogin:
				rec.LastLogin = models.NextTimestamp(existing.LastLogin, now)
			}
		}
	default:
		return fmt.Errorf("unknown write mode %d", mode)
	}

	if err := s.db.Store().Upsert(rec.ID, &rec); err != nil {
		return fmt.Errorf("failed to write profile %s: %w", rec.ID, err)
	}

	p.CreatedAt = rec.CreatedAt
	p.LastLogin = rec.LastLogin

	s.logger.Debug().Str("uid", rec.ID).Str("mode", mode.String()).Msg("Profile written")
	return nil
}
