package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const otpPrefix = "otp:"

// consumeScript deletes the key only when it holds the expected value, so a
// code can be matched at most once even under concurrent verification.
var consumeScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// OTPStore keeps one pending one-time password per email.
type OTPStore struct {
	redis *Redis
	ttl   time.Duration
}

// NewOTPStore creates an OTPStore whose codes expire after ttl.
func NewOTPStore(r *Redis, ttl time.Duration) *OTPStore {
	return &OTPStore{redis: r, ttl: ttl}
}

// Save stores code for email, replacing any pending code.
func (s *OTPStore) Save(ctx context.Context, email, code string) error {
	if err := s.redis.client.Set(ctx, otpPrefix+email, code, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}
	return nil
}

// Consume reports whether code matches the pending code for email. A match
// deletes the code.
func (s *OTPStore) Consume(ctx context.Context, email, code string) (bool, error) {
	n, err := consumeScript.Run(ctx, s.redis.client, []string{otpPrefix + email}, code).Int()
	if err != nil {
		return false, fmt.Errorf("failed to verify otp: %w", err)
	}
	return n == 1, nil
}
