package app

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/creator-onboarding-backend/internal/clients/redis"
	"github.com/yungbote/creator-onboarding-backend/internal/platform/kafkax"
	"github.com/yungbote/creator-onboarding-backend/internal/platform/logger"
	"github.com/yungbote/creator-onboarding-backend/internal/platform/neo4jdb"
)

// Clients holds the optional external connections. Each field is nil when its env is unset.
type Clients struct {
	Redis    goredis.UniversalClient
	AlertBus redis.AlertBus
	Kafka    *kafkax.Publisher
	Neo4j    *neo4jdb.Client
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients

	// Redis
	rdb, err := redis.NewClientFromEnv(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init redis: %w", err)
	}
	if rdb != nil {
		out.Redis = rdb
		bus, err := redis.NewAlertBus(rdb, log)
		if err != nil {
			out.Close()
			return Clients{}, fmt.Errorf("init redis alert bus: %w", err)
		}
		out.AlertBus = bus
	}

	// Kafka
	if len(cfg.KafkaBrokers) > 0 {
		pub, err := kafkax.NewPublisher(cfg.KafkaBrokers, cfg.KafkaAlertTopic, nil)
		if err != nil {
			out.Close()
			return Clients{}, fmt.Errorf("init kafka publisher: %w", err)
		}
		out.Kafka = pub
		log.Info("kafka alert publisher enabled", "topic", cfg.KafkaAlertTopic)
	}

	// Neo4j
	graph, err := neo4jdb.NewFromEnv(log)
	if err != nil {
		out.Close()
		return Clients{}, fmt.Errorf("init neo4j: %w", err)
	}
	out.Neo4j = graph

	return out, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Kafka != nil {
		_ = c.Kafka.Close()
	}
	if c.Neo4j != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = c.Neo4j.Close(ctx)
		cancel()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
