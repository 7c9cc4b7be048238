package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/creator-onboarding-backend/internal/data/graph"
	"github.com/yungbote/creator-onboarding-backend/internal/modules/onboarding/matching"
	"github.com/yungbote/creator-onboarding-backend/internal/modules/onboarding/scoring"
	"github.com/yungbote/creator-onboarding-backend/internal/observability"
	"github.com/yungbote/creator-onboarding-backend/internal/platform/featureflag"
	"github.com/yungbote/creator-onboarding-backend/internal/platform/keylock"
	"github.com/yungbote/creator-onboarding-backend/internal/platform/logger"
	"github.com/yungbote/creator-onboarding-backend/internal/services"
)

type Services struct {
	Gate       featureflag.Gate
	Telemetry  services.TelemetryService
	Matcher    *matching.Matcher
	Onboarding services.OnboardingService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos, clients Clients, prom *observability.Metrics) Services {
	log.Info("Wiring services...")

	var gate featureflag.Gate = featureflag.FromEnv()
	var locker keylock.Locker = keylock.NewLocal()
	if clients.Redis != nil {
		gate = featureflag.NewCached(featureflag.NewRedisGate(clients.Redis, "", gate, log), cfg.FlagCacheTTL)
		locker = keylock.NewRedis(clients.Redis, "", cfg.LockTTL)
	}

	telemetry := services.NewTelemetryService(log, reposet.Metrics, reposet.Profiles, prom, cfg.Telemetry)
	if clients.AlertBus != nil {
		for _, t := range services.AllAlertTypes() {
			telemetry.RegisterAlertHandler(t, services.BroadcastAlertHandler(clients.AlertBus))
		}
	}
	if clients.Kafka != nil {
		for _, t := range services.AllAlertTypes() {
			telemetry.RegisterAlertHandler(t, services.PublishAlertHandler(clients.Kafka))
		}
	}

	matcher := matching.New(matching.CatalogFromEnv(), matching.NewHeuristicEconomics(), gate, log)

	var sink services.AgentMatchSink
	if clients.Neo4j != nil {
		sink = graph.NewAgentMatchGraph(clients.Neo4j, log)
	}

	onboarding := services.NewOnboardingService(services.OnboardingDeps{
		DB:          db,
		Log:         log,
		Profiles:    reposet.Profiles,
		Transitions: reposet.Transitions,
		Telemetry:   telemetry,
		Scorer:      scoring.NewHeuristic(),
		Matcher:     matcher,
		Gate:        gate,
		Locker:      locker,
		Limiter:     services.NewLimiter(cfg.Limiter, prom),
		MatchSink:   sink,
		Metrics:     prom,
		Config:      cfg.Onboarding,
	})

	return Services{
		Gate:       gate,
		Telemetry:  telemetry,
		Matcher:    matcher,
		Onboarding: onboarding,
	}
}
