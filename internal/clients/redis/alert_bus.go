package redis

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	types "github.com/yungbote/creator-onboarding-backend/internal/domain/onboarding"
	"github.com/yungbote/creator-onboarding-backend/internal/platform/envutil"
	"github.com/yungbote/creator-onboarding-backend/internal/platform/logger"
)

// AlertBus fans pipeline alerts out to every replica and operator tool over Redis pub/sub.
type AlertBus interface {
	Publish(ctx context.Context, alert types.PipelineAlert) error
	StartForwarder(ctx context.Context, onAlert func(a types.PipelineAlert)) error
}

type alertBus struct {
	log     *logger.Logger
	rdb     goredis.UniversalClient
	channel string
}

func NewAlertBus(rdb goredis.UniversalClient, log *logger.Logger) (AlertBus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if rdb == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &alertBus{
		log:     log.With("service", "RedisAlertBus"),
		rdb:     rdb,
		channel: envutil.String("REDIS_ALERT_CHANNEL", "onboarding:alerts"),
	}, nil
}

func (b *alertBus) Publish(ctx context.Context, alert types.PipelineAlert) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis alert bus not initialized")
	}
	raw, err := json.Marshal(alert)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

func (b *alertBus) StartForwarder(ctx context.Context, onAlert func(a types.PipelineAlert)) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis alert bus not initialized")
	}
	if onAlert == nil {
		return fmt.Errorf("onAlert callback required")
	}

	sub := b.rdb.Subscribe(ctx, b.channel)

	// ensures subscription actually started
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					_ = sub.Close()
					return
				}
				var alert types.PipelineAlert
				if err := json.Unmarshal([]byte(m.Payload), &alert); err != nil {
					b.log.Warn("bad redis alert payload", "error", err)
					continue
				}
				onAlert(alert)
			}
		}
	}()

	return nil
}
