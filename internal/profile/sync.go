// Package profile keeps the document store's profile record in step with
// successful authentications.
package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/examshaala/examshaala-portal/internal/cache"
	"github.com/examshaala/examshaala-portal/internal/common"
	"github.com/examshaala/examshaala-portal/internal/interfaces"
	"github.com/examshaala/examshaala-portal/internal/metrics"
	"github.com/examshaala/examshaala-portal/internal/models"
)

// Seed carries form values used only when a profile is first created.
type Seed struct {
	FullName     string
	ExamCategory string
}

// Synchronizer creates a profile on first authentication and touches
// lastLogin on every later one.
type Synchronizer struct {
	store   interfaces.ProfileStore
	cache   *cache.ProfileCache
	metrics *metrics.Metrics
	logger  *common.Logger
}

// NewSynchronizer creates a synchronizer. profiles and m may be nil.
func NewSynchronizer(store interfaces.ProfileStore, profiles *cache.ProfileCache, m *metrics.Metrics, logger *common.Logger) *Synchronizer {
	return &Synchronizer{store: store, cache: profiles, metrics: m, logger: logger}
}

// EnsureProfile reads the profile for id. If absent it writes a complete new
// record; otherwise it merges lastLogin only, leaving every other field as
// set at creation.
//
// The read and write are not transactional. Two concurrent first syncs may
// both create; the store absorbs the second create, keeping createdAt and
// any field the first already set beyond its default.
func (s *Synchronizer) EnsureProfile(ctx context.Context, id *models.Identity, seed Seed) error {
	if id == nil || id.UID == "" {
		return fmt.Errorf("ensure profile: identity has no uid")
	}

	_, err := s.store.GetProfile(ctx, id.UID)
	switch {
	case errors.Is(err, interfaces.ErrNotFound):
		p := NewProfile(id, seed)
		if err := s.store.WriteProfile(ctx, p, interfaces.WriteReplace); err != nil {
			return fmt.Errorf("create profile: %w", err)
		}
		s.invalidate(id.UID)
		s.metrics.ProfileSync("created")
		s.logger.Info().Str("uid", id.UID).Str("provider", p.AuthProvider).Msg("Profile created")
		return nil

	case err != nil:
		return fmt.Errorf("read profile: %w", err)
	}

	touch := &models.UserProfile{ID: id.UID}
	if err := s.store.WriteProfile(ctx, touch, interfaces.WriteMerge, models.FieldLastLogin); err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}
	s.invalidate(id.UID)
	s.metrics.ProfileSync("touched")
	return nil
}

// Sync runs EnsureProfile and logs any failure as a persistence warning.
// It never fails: a signed-in user may have no profile record.
func (s *Synchronizer) Sync(ctx context.Context, id *models.Identity, seed Seed) {
	if err := s.EnsureProfile(ctx, id, seed); err != nil {
		s.metrics.ProfileSync("failed")
		uid := ""
		if id != nil {
			uid = id.UID
		}
		s.logger.Warn().Err(err).Str("uid", uid).Msg("Profile sync failed, continuing without profile")
	}
}

// Profile returns the profile for uid via the cache.
func (s *Synchronizer) Profile(ctx context.Context, uid string) (*models.UserProfile, error) {
	if s.cache != nil {
		if p, ok := s.cache.Get(uid); ok {
			return p, nil
		}
	}
	p, err := s.store.GetProfile(ctx, uid)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(p)
	}
	return p, nil
}

func (s *Synchronizer) invalidate(uid string) {
	if s.cache != nil {
		s.cache.Invalidate(uid)
	}
}

// NewProfile builds the record written on first authentication. The full
// name falls back from the seed to the identity's display name to "Student".
func NewProfile(id *models.Identity, seed Seed) *models.UserProfile {
	name := strings.TrimSpace(seed.FullName)
	if name == "" {
		name = strings.TrimSpace(id.DisplayName)
	}
	if name == "" {
		name = models.DefaultFullName
	}

	exam := strings.TrimSpace(seed.ExamCategory)
	if exam == "" {
		exam = models.DefaultExamCategory
	}

	provider := id.Provider
	if provider == "" {
		provider = models.ProviderPassword
	}

	return &models.UserProfile{
		ID:           id.UID,
		FullName:     name,
		Email:        id.Email,
		ExamCategory: exam,
		Role:         models.RoleStudent,
		AuthProvider: provider,
		Verified:     false,
		Platform:     models.PlatformName,
	}
}
