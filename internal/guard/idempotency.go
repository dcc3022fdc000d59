package guard

import (
	"context"
	"sync"
	"time"

	"github.com/attaboy/faketoto/internal/domain"
	"github.com/redis/go-redis/v9"
)

// DefaultIdempotencyTTL is how long a processed key stays blocked.
const DefaultIdempotencyTTL = 24 * time.Hour

// Idempotency deduplicates requests by key.
type Idempotency interface {
	Check(ctx context.Context, key string) domain.GuardResult
	Remove(ctx context.Context, key string)
}

func duplicate() domain.GuardResult {
	return domain.GuardResult{
		Allowed: false,
		Reason:  "duplicate request: idempotency key already processed",
		Guard:   "idempotency",
	}
}

// IdempotencyGuard is the in-process Idempotency.
type IdempotencyGuard struct {
	mu   sync.Mutex
	seen map[string]time.Time
	ttl  time.Duration
	now  func() time.Time
}

// NewIdempotencyGuard creates an in-memory guard; ttl <= 0 uses DefaultIdempotencyTTL.
func NewIdempotencyGuard(ttl time.Duration) *IdempotencyGuard {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return &IdempotencyGuard{seen: make(map[string]time.Time), ttl: ttl, now: time.Now}
}

// Check claims key. Empty keys are always allowed.
func (ig *IdempotencyGuard) Check(_ context.Context, key string) domain.GuardResult {
	if key == "" {
		return domain.GuardResult{Allowed: true}
	}

	ig.mu.Lock()
	defer ig.mu.Unlock()

	now := ig.now()
	if exp, ok := ig.seen[key]; ok && now.Before(exp) {
		return duplicate()
	}
	ig.seen[key] = now.Add(ig.ttl)
	return domain.GuardResult{Allowed: true}
}

// Remove releases a key so a failed request can be retried.
func (ig *IdempotencyGuard) Remove(_ context.Context, key string) {
	ig.mu.Lock()
	defer ig.mu.Unlock()
	delete(ig.seen, key)
}

// RedisIdempotencyGuard shares claimed keys across instances with SET NX.
type RedisIdempotencyGuard struct {
	rdb    redis.Cmdable
	ttl    time.Duration
	prefix string
}

func NewRedisIdempotencyGuard(rdb redis.Cmdable, ttl time.Duration) *RedisIdempotencyGuard {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return &RedisIdempotencyGuard{rdb: rdb, ttl: ttl, prefix: "idempotency:"}
}

// Check claims key. Redis errors fail open.
func (g *RedisIdempotencyGuard) Check(ctx context.Context, key string) domain.GuardResult {
	if key == "" {
		return domain.GuardResult{Allowed: true}
	}
	ok, err := g.rdb.SetNX(ctx, g.prefix+key, 1, g.ttl).Result()
	if err != nil || ok {
		return domain.GuardResult{Allowed: true}
	}
	return duplicate()
}

func (g *RedisIdempotencyGuard) Remove(ctx context.Context, key string) {
	g.rdb.Del(ctx, g.prefix+key)
}
