package app

import (
	"time"

	httpMW "github.com/yungbote/creator-onboarding-backend/internal/http/middleware"
	"github.com/yungbote/creator-onboarding-backend/internal/platform/envutil"
	"github.com/yungbote/creator-onboarding-backend/internal/platform/logger"
	"github.com/yungbote/creator-onboarding-backend/internal/services"
)

type Config struct {
	Environment string
	Version     string
	HTTPAddr    string
	ServiceName string
	CORSOrigins []string

	JWTSecretKey string
	AuthRequired bool

	KafkaBrokers    []string
	KafkaAlertTopic string

	FlagCacheTTL time.Duration
	LockTTL      time.Duration

	Onboarding services.OnboardingConfig
	Limiter    services.LimiterConfig
	Telemetry  services.TelemetryConfig
	RateLimit  httpMW.RateLimitConfig
}

func LoadConfig(log *logger.Logger) Config {
	ob := services.DefaultOnboardingConfig()
	ob.CulturalPassThreshold = envutil.Float("CULTURAL_PASS_THRESHOLD", ob.CulturalPassThreshold)
	ob.SkillPassThreshold = envutil.Float("SKILL_PASS_THRESHOLD", ob.SkillPassThreshold)
	ob.StageBudget = envutil.Duration("ONBOARDING_STAGE_BUDGET_MS", ob.StageBudget)
	ob.LockTimeout = envutil.Duration("ONBOARDING_LOCK_TIMEOUT", ob.LockTimeout)

	lim := services.DefaultLimiterConfig()
	lim.RatePerSecond = envutil.Float("ONBOARDING_RATE_PER_SECOND", lim.RatePerSecond)
	lim.Burst = envutil.Int("ONBOARDING_RATE_BURST", lim.Burst)
	lim.MaxInflight = int64(envutil.Int("ONBOARDING_MAX_INFLIGHT", int(lim.MaxInflight)))

	tel := services.DefaultTelemetryConfig()
	tel.AlertQueueSize = envutil.Int("TELEMETRY_ALERT_QUEUE_SIZE", tel.AlertQueueSize)
	tel.WriteQueueSize = envutil.Int("TELEMETRY_WRITE_QUEUE_SIZE", tel.WriteQueueSize)

	cfg := Config{
		Environment:     envutil.String("APP_ENV", "development"),
		Version:         envutil.String("APP_VERSION", "dev"),
		HTTPAddr:        envutil.String("HTTP_ADDR", ":8080"),
		ServiceName:     envutil.String("OTEL_SERVICE_NAME", "creator-onboarding"),
		CORSOrigins:     envutil.CSV("CORS_ALLOWED_ORIGINS"),
		JWTSecretKey:    envutil.String("JWT_SECRET_KEY", ""),
		AuthRequired:    envutil.Bool("AUTH_REQUIRED", false),
		KafkaBrokers:    envutil.CSV("KAFKA_BROKERS"),
		KafkaAlertTopic: envutil.String("KAFKA_ALERT_TOPIC", "onboarding.alerts"),
		FlagCacheTTL:    envutil.Duration("FEATURE_FLAGS_CACHE_TTL", 30*time.Second),
		LockTTL:         envutil.Duration("ONBOARDING_LOCK_TTL", 10*time.Second),
		Onboarding:      ob,
		Limiter:         lim,
		Telemetry:       tel,
		RateLimit: httpMW.RateLimitConfig{
			RequestsPerMinute: envutil.Int("HTTP_RATE_LIMIT_PER_MINUTE", 600),
			Burst:             envutil.Int("HTTP_RATE_LIMIT_BURST", 60),
		},
	}
	if cfg.AuthRequired && cfg.JWTSecretKey == "" {
		log.Warn("AUTH_REQUIRED is set without JWT_SECRET_KEY; every request will be rejected")
	}
	return cfg
}
