package middleware

import (
	"context"
	"math"
	"strconv"
	"time"

	"walletledger/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// Counter counts requests per subject within a fixed window.
type Counter interface {
	Hit(ctx context.Context, subject string, window time.Duration) (int64, error)
}

// RateLimitRecorder receives the outcome of every check.
type RateLimitRecorder interface {
	RecordRateLimit(outcome string)
}

// RateLimiter caps API requests per owner. It must run after the auth
// handler; unauthenticated requests are keyed by client IP.
type RateLimiter struct {
	counter  Counter
	limit    int
	window   time.Duration
	recorder RateLimitRecorder
	log      *logrus.Logger
}

func NewRateLimiter(counter Counter, limit int, window time.Duration, recorder RateLimitRecorder, log *logrus.Logger) *RateLimiter {
	return &RateLimiter{
		counter:  counter,
		limit:    limit,
		window:   window,
		recorder: recorder,
		log:      log,
	}
}

// Handler fails open when the counter store is unreachable.
func (m *RateLimiter) Handler(c *fiber.Ctx) error {
	subject := c.IP()
	if claims, err := utils.GetUserClaims(c); err == nil {
		subject = claims.OwnerID
	}

	count, err := m.counter.Hit(c.UserContext(), subject, m.window)
	if err != nil {
		m.record("error")
		m.log.WithError(err).WithField("subject", subject).Warn("rate limit check failed")
		return c.Next()
	}

	remaining := int64(m.limit) - count
	if remaining < 0 {
		remaining = 0
	}
	c.Set("X-RateLimit-Limit", strconv.Itoa(m.limit))
	c.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

	if count > int64(m.limit) {
		m.record("limited")
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(math.Ceil(m.window.Seconds()))))
		return utils.Error(c, fiber.StatusTooManyRequests, "RATE_LIMITED", "too many requests")
	}
	m.record("allowed")
	return c.Next()
}

func (m *RateLimiter) record(outcome string) {
	if m.recorder != nil {
		m.recorder.RecordRateLimit(outcome)
	}
}
