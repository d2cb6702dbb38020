package auth

import (
	"context"
	"sync"
	"time"

	"github.com/examshaala/examshaala-portal/internal/interfaces"
	"github.com/examshaala/examshaala-portal/internal/models"
)

// ConsentTTL bounds how long a user may spend on the provider's consent page.
const ConsentTTL = 10 * time.Minute

// MemoryConsentStore holds pending consents in process memory.
type MemoryConsentStore struct {
	mu      sync.Mutex
	pending map[string]*models.PendingConsent
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryConsentStore creates an empty store.
func NewMemoryConsentStore() *MemoryConsentStore {
	return &MemoryConsentStore{
		pending: make(map[string]*models.PendingConsent),
		ttl:     ConsentTTL,
		now:     time.Now,
	}
}

// Put stores a pending consent keyed by its state.
func (s *MemoryConsentStore) Put(_ context.Context, pc *models.PendingConsent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pc.CreatedAt.IsZero() {
		pc.CreatedAt = s.now()
	}
	s.pending[pc.State] = pc
	return nil
}

// Take returns and removes the consent for state. States are single use.
func (s *MemoryConsentStore) Take(_ context.Context, state string) (*models.PendingConsent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pc, ok := s.pending[state]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	delete(s.pending, state)
	if s.now().After(pc.CreatedAt.Add(s.ttl)) {
		return nil, interfaces.ErrNotFound
	}
	return pc, nil
}

// Cleanup removes expired entries.
func (s *MemoryConsentStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, pc := range s.pending {
		if now.After(pc.CreatedAt.Add(s.ttl)) {
			delete(s.pending, k)
		}
	}
}
