package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/tair/supply-ledger/internal/inventory/domain"
	"github.com/tair/supply-ledger/pkg/logger"
)

const (
	lockKeyPrefix        = "inventory:lock:"
	idempotencyKeyPrefix = "inventory:idempotency:"
)

// ErrLockTimeout is returned when a distributed lock could not be taken
// before the context expired.
var ErrLockTimeout = errors.New("lock: timed out waiting for lock")

var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

// RedisLocker is a token lock shared by every replica of the service.
type RedisLocker struct {
	client        *redis.Client
	ttl           time.Duration
	retryInterval time.Duration
}

// NewRedisLocker creates a new distributed locker. ttl bounds how long a
// crashed holder can keep a key.
func NewRedisLocker(client *redis.Client, ttl, retryInterval time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if retryInterval <= 0 {
		retryInterval = 25 * time.Millisecond
	}
	return &RedisLocker{client: client, ttl: ttl, retryInterval: retryInterval}
}

// Lock polls SET NX until the key is taken or ctx is done.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := lockKeyPrefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(l.retryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, domain.PersistenceFailure("acquire lock "+key, err)
		}
		if ok {
			return func() { l.release(redisKey, token) }, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %v", ErrLockTimeout, key, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (l *RedisLocker) release(redisKey, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := releaseScript.Run(ctx, l.client, []string{redisKey}, token).Err(); err != nil {
		logger.Logger.Warn().Err(err).Str("key", redisKey).Msg("Failed to release lock")
	}
}

// IdempotencyGuard remembers request keys for a while so retried
// submissions are not applied twice.
type IdempotencyGuard struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyGuard creates a new guard
func NewIdempotencyGuard(client *redis.Client, ttl time.Duration) *IdempotencyGuard {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyGuard{client: client, ttl: ttl}
}

// Claim records key for scope. It returns false when the key was already seen.
func (g *IdempotencyGuard) Claim(ctx context.Context, scope, key string) (bool, error) {
	ok, err := g.client.SetNX(ctx, idempotencyKeyPrefix+scope+":"+key, 1, g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim idempotency key: %w", err)
	}
	return ok, nil
}

// Forget drops a claimed key, letting a failed request be retried.
func (g *IdempotencyGuard) Forget(ctx context.Context, scope, key string) error {
	return g.client.Del(ctx, idempotencyKeyPrefix+scope+":"+key).Err()
}
