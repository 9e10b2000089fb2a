package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"chatbots-be/internal/pkg/apperror"
	"chatbots-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

var fixedWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

// FixedWindowLimiter counts requests per key in fixed windows stored in
// Redis, so every instance shares the same quota.
type FixedWindowLimiter struct {
	limit  int
	window time.Duration
	client *redis.Client
	prefix string
	logger logger.ILogger
	now    func() time.Time
}

func NewFixedWindowLimiter(client *redis.Client, prefix string, limit int, window time.Duration, logger logger.ILogger) (*FixedWindowLimiter, error) {
	if limit <= 0 || window <= 0 {
		return nil, errors.New("rate limiter requires positive limit and window")
	}
	if client == nil {
		return nil, errors.New("rate limiter requires a redis client")
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "chatbots:ratelimit"
	}
	return &FixedWindowLimiter{
		limit:  limit,
		window: window,
		client: client,
		prefix: prefix,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Allow reports whether key is still within quota. A Redis failure lets the
// request through and is logged.
func (l *FixedWindowLimiter) Allow(ctx context.Context, key string) bool {
	key = strings.TrimSpace(key)
	if key == "" {
		key = "unknown"
	}

	windowMs := l.window.Milliseconds()
	slot := l.now().UTC().UnixMilli() / windowMs
	redisKey := fmt.Sprintf("%s:%s:%d", l.prefix, key, slot)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	count, err := fixedWindowScript.Run(ctx, l.client, []string{redisKey}, windowMs).Int64()
	if err != nil {
		l.logger.Warn("RateLimit", "Rate limiter unavailable, allowing request", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return true
	}
	return count <= int64(l.limit)
}

// Middleware rejects requests over quota with apperror.ErrRateLimited. A nil
// limiter allows everything.
func Middleware(l *FixedWindowLimiter, scope string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if l == nil {
			return ctx.Next()
		}
		if !l.Allow(ctx.UserContext(), scope+":"+ctx.IP()) {
			return apperror.RateLimited("Too many stream requests, try again later")
		}
		return ctx.Next()
	}
}
