package featureflag

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/creator-onboarding-backend/internal/platform/logger"
)

const DefaultRedisHashKey = "onboarding:feature_flags"

// RedisGate reads flags from a Redis hash (field=flag, value=bool). Missing
// fields and Redis errors fall back to the wrapped gate.
type RedisGate struct {
	rdb      goredis.UniversalClient
	key      string
	fallback Gate
	timeout  time.Duration
	log      *logger.Logger
}

func NewRedisGate(rdb goredis.UniversalClient, key string, fallback Gate, log *logger.Logger) *RedisGate {
	if key == "" {
		key = DefaultRedisHashKey
	}
	if fallback == nil {
		fallback = NewStatic(Defaults())
	}
	g := &RedisGate{rdb: rdb, key: key, fallback: fallback, timeout: 250 * time.Millisecond}
	if log != nil {
		g.log = log.With("service", "RedisFeatureGate")
	}
	return g
}

func (g *RedisGate) IsEnabled(ctx context.Context, flag string) bool {
	if g == nil || g.rdb == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	raw, err := g.rdb.HGet(ctx, g.key, normalize(flag)).Result()
	if err != nil {
		if !errors.Is(err, goredis.Nil) && g.log != nil {
			g.log.Warn("feature flag lookup failed, using fallback", "flag", flag, "error", err)
		}
		return g.fallback.IsEnabled(ctx, flag)
	}
	v, ok := parseBool(raw)
	if !ok {
		return g.fallback.IsEnabled(ctx, flag)
	}
	return v
}

// Set writes a flag value. Used by the admin CLI and integration tests.
func (g *RedisGate) Set(ctx context.Context, flag string, enabled bool) error {
	val := "false"
	if enabled {
		val = "true"
	}
	return g.rdb.HSet(ctx, g.key, normalize(flag), val).Err()
}
