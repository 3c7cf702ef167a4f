package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheService holds the shared Redis state of the API: per-owner request
// counters.
type CacheService struct {
	client *redis.Client
}

func NewCacheService(client *redis.Client) *CacheService {
	return &CacheService{client: client}
}

// GenerateKey builds keys of the form entity:keyType:value.
func GenerateKey(entityType, keyType string, value interface{}) string {
	return fmt.Sprintf("%s:%s:%v", entityType, keyType, value)
}

// RateLimitKey is the counter key of one caller.
func RateLimitKey(subject string) string {
	return GenerateKey("ratelimit", "subject", subject)
}

// The first hit of a window starts its expiry, so the counter resets once
// the window has passed.
const hitScript = `
	local current = redis.call('INCR', KEYS[1])
	if current == 1 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
	end
	return current
`

// Hit counts one request by subject and returns the number of requests it
// made in the current window, this one included.
func (s *CacheService) Hit(ctx context.Context, subject string, window time.Duration) (int64, error) {
	count, err := s.client.Eval(ctx, hitScript, []string{RateLimitKey(subject)}, window.Milliseconds()).Int64()
	if err != nil {
		return 0, fmt.Errorf("rate limit check: %w", err)
	}
	return count, nil
}

// Close closes the Redis client connection
func (s *CacheService) Close() error {
	return s.client.Close()
}
