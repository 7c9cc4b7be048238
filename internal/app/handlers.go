package app

import (
	"github.com/yungbote/creator-onboarding-backend/internal/http"
	httpH "github.com/yungbote/creator-onboarding-backend/internal/http/handlers"
	httpMW "github.com/yungbote/creator-onboarding-backend/internal/http/middleware"
	"github.com/yungbote/creator-onboarding-backend/internal/observability"
	"github.com/yungbote/creator-onboarding-backend/internal/platform/logger"
)

type Handlers struct {
	Health     *httpH.HealthHandler
	Onboarding *httpH.OnboardingHandler
}

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

func wireHandlers(log *logger.Logger, serviceset Services, db httpH.Pinger) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:     httpH.NewHealthHandler(serviceset.Telemetry, db),
		Onboarding: httpH.NewOnboardingHandler(log, serviceset.Onboarding),
	}
}

func wireMiddleware(log *logger.Logger, cfg Config) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, cfg.JWTSecretKey, cfg.AuthRequired),
	}
}

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware, prom *observability.Metrics) *http.Server {
	return http.NewServer(http.RouterConfig{
		Log:               log,
		ServiceName:       cfg.ServiceName,
		CORSOrigins:       cfg.CORSOrigins,
		Metrics:           prom,
		RateLimit:         cfg.RateLimit,
		AuthMiddleware:    middleware.Auth,
		OnboardingHandler: handlers.Onboarding,
		HealthHandler:     handlers.Health,
	})
}
