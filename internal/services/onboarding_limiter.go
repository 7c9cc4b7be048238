package services

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	types "github.com/yungbote/creator-onboarding-backend/internal/domain/onboarding"
	"github.com/yungbote/creator-onboarding-backend/internal/observability"
)

type LimiterConfig struct {
	RatePerSecond float64
	Burst         int
	MaxInflight   int64
	// MaxWait bounds how long an operation queues for a token or a slot before rejection.
	MaxWait time.Duration
}

func DefaultLimiterConfig() LimiterConfig {
	return LimiterConfig{RatePerSecond: 200, Burst: 100, MaxInflight: 64, MaxWait: time.Second}
}

// Limiter is admission control for stage operations: a token bucket plus an in-flight cap.
// A nil *Limiter admits everything.
type Limiter struct {
	bucket   *rate.Limiter
	inflight *semaphore.Weighted
	maxWait  time.Duration
	prom     *observability.Metrics
}

func NewLimiter(cfg LimiterConfig, prom *observability.Metrics) *Limiter {
	def := DefaultLimiterConfig()
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = def.RatePerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = def.Burst
	}
	if cfg.MaxInflight <= 0 {
		cfg.MaxInflight = def.MaxInflight
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = def.MaxWait
	}
	return &Limiter{
		bucket:   rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		inflight: semaphore.NewWeighted(cfg.MaxInflight),
		maxWait:  cfg.MaxWait,
		prom:     prom,
	}
}

// Acquire admits one operation. The returned release must be called when it finishes.
func (l *Limiter) Acquire(ctx context.Context, op string) (func(), error) {
	if l == nil {
		return func() {}, nil
	}
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	if err := l.bucket.Wait(waitCtx); err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, ctx.Err()
		}
		l.prom.IncRateLimited("rate")
		return nil, types.RateLimitedError(op)
	}
	if err := l.inflight.Acquire(waitCtx, 1); err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, ctx.Err()
		}
		l.prom.IncRateLimited("inflight")
		return nil, types.RateLimitedError(op)
	}
	return func() { l.inflight.Release(1) }, nil
}
