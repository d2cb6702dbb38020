package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/examshaala/examshaala-portal/internal/interfaces"
	"github.com/examshaala/examshaala-portal/internal/models"
)

const consentKeyPrefix = "examshaala:consent:"

// RedisConsentStore keeps pending consents in Redis so any portal replica can
// complete a consent round trip.
type RedisConsentStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisConsentStore creates a store on rdb.
func NewRedisConsentStore(rdb *redis.Client) *RedisConsentStore {
	return &RedisConsentStore{rdb: rdb, ttl: ConsentTTL}
}

// Put stores pc with the consent TTL.
func (s *RedisConsentStore) Put(ctx context.Context, pc *models.PendingConsent) error {
	if pc.CreatedAt.IsZero() {
		pc.CreatedAt = time.Now()
	}
	data, err := json.Marshal(pc)
	if err != nil {
		return fmt.Errorf("marshal consent: %w", err)
	}
	if err := s.rdb.Set(ctx, consentKeyPrefix+pc.State, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set consent: %w", err)
	}
	return nil
}

// Take atomically reads and deletes the consent for state.
func (s *RedisConsentStore) Take(ctx context.Context, state string) (*models.PendingConsent, error) {
	data, err := s.rdb.GetDel(ctx, consentKeyPrefix+state).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis getdel consent: %w", err)
	}

	var pc models.PendingConsent
	if err := json.Unmarshal(data, &pc); err != nil {
		return nil, fmt.Errorf("unmarshal consent: %w", err)
	}
	return &pc, nil
}
