package waitlist

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Guard is the in-flight flag of one form instance. TryAcquire and Release
// bracket exactly one transport call.
type Guard interface {
	Held(ctx context.Context) bool
	TryAcquire(ctx context.Context) bool
	Release(ctx context.Context)
}

// LocalGuard is a process-local in-flight flag.
type LocalGuard struct {
	held atomic.Bool
}

func (g *LocalGuard) Held(context.Context) bool { return g.held.Load() }

func (g *LocalGuard) TryAcquire(context.Context) bool {
	return g.held.CompareAndSwap(false, true)
}

func (g *LocalGuard) Release(context.Context) { g.held.Store(false) }

// releaseScript deletes the key only while it still holds our token, so a
// release after TTL expiry cannot drop another holder's lock.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisGuard extends the local flag to every process sharing a form id.
// When Redis is unreachable the local flag alone decides.
type RedisGuard struct {
	local  LocalGuard
	rdb    redisGuardClient
	key    string
	ttl    time.Duration
	logger *zap.Logger

	token atomic.Value // string
}

// redisGuardClient is what RedisGuard needs from a client.
type redisGuardClient interface {
	redis.Scripter
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

func NewRedisGuard(rdb redisGuardClient, formID string, ttl time.Duration, logger *zap.Logger) *RedisGuard {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisGuard{
		rdb:    rdb,
		key:    fmt.Sprintf("inflight:waitlist:%s", formID),
		ttl:    ttl,
		logger: logger,
	}
}

func (g *RedisGuard) Held(ctx context.Context) bool {
	if g.local.Held(ctx) {
		return true
	}
	n, err := g.rdb.Exists(ctx, g.key).Result()
	if err != nil {
		g.logger.Warn("Redis in-flight check failed, using local flag",
			zap.String("key", g.key),
			zap.Error(err),
		)
		return false
	}
	return n > 0
}

func (g *RedisGuard) TryAcquire(ctx context.Context) bool {
	if !g.local.TryAcquire(ctx) {
		return false
	}

	token := uuid.NewString()
	ok, err := g.rdb.SetNX(ctx, g.key, token, g.ttl).Result()
	if err != nil {
		g.logger.Warn("Redis in-flight lock failed, allowing submission",
			zap.String("key", g.key),
			zap.Error(err),
		)
		g.token.Store("")
		return true
	}
	if !ok {
		g.local.Release(ctx)
		return false
	}
	g.token.Store(token)
	return true
}

func (g *RedisGuard) Release(ctx context.Context) {
	defer g.local.Release(ctx)

	token, _ := g.token.Load().(string)
	if token == "" {
		return
	}
	g.token.Store("")

	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := releaseScript.Run(releaseCtx, g.rdb, []string{g.key}, token).Err(); err != nil {
		g.logger.Warn("Redis in-flight release failed, key will expire",
			zap.String("key", g.key),
			zap.Duration("ttl", g.ttl),
			zap.Error(err),
		)
	}
}
