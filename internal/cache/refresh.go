package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const refreshPrefix = "refresh:"

// rotateScript swaps the stored token id only if it still equals the
// presented one. ARGV: old id, new id, ttl in milliseconds.
var rotateScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
	return 1
end
return 0
`)

// RefreshStore tracks the id of the only valid refresh token per account.
type RefreshStore struct {
	redis *Redis
	ttl   time.Duration
}

// NewRefreshStore creates a RefreshStore whose entries expire after ttl.
func NewRefreshStore(r *Redis, ttl time.Duration) *RefreshStore {
	return &RefreshStore{redis: r, ttl: ttl}
}

// Issue records tokenID as the current refresh token of accountID.
func (s *RefreshStore) Issue(ctx context.Context, accountID, tokenID string) error {
	if err := s.redis.client.Set(ctx, refreshPrefix+accountID, tokenID, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store refresh token id: %w", err)
	}
	return nil
}

// Rotate replaces oldID with newID. It returns false when oldID is no longer
// current, which means the token was already used or revoked.
func (s *RefreshStore) Rotate(ctx context.Context, accountID, oldID, newID string) (bool, error) {
	n, err := rotateScript.Run(ctx, s.redis.client, []string{refreshPrefix + accountID},
		oldID, newID, s.ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("failed to rotate refresh token: %w", err)
	}
	return n == 1, nil
}

// Current returns the current token id of accountID, or "" if none.
func (s *RefreshStore) Current(ctx context.Context, accountID string) (string, error) {
	id, err := s.redis.client.Get(ctx, refreshPrefix+accountID).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read refresh token id: %w", err)
	}
	return id, nil
}

// Revoke forgets the current refresh token of accountID.
func (s *RefreshStore) Revoke(ctx context.Context, accountID string) error {
	if err := s.redis.client.Del(ctx, refreshPrefix+accountID).Err(); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}
