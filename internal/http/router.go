package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/creator-onboarding-backend/internal/http/handlers"
	httpMW "github.com/yungbote/creator-onboarding-backend/internal/http/middleware"
	"github.com/yungbote/creator-onboarding-backend/internal/observability"
	"github.com/yungbote/creator-onboarding-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	CORSOrigins    []string
	Metrics        *observability.Metrics
	RateLimit      httpMW.RateLimitConfig
	AuthMiddleware *httpMW.AuthMiddleware

	OnboardingHandler *httpH.OnboardingHandler
	HealthHandler     *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins...))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api/onboarding")
	if cfg.AuthMiddleware != nil {
		api.Use(cfg.AuthMiddleware.RequireAuth())
	}
	api.Use(httpMW.RateLimit(cfg.RateLimit, cfg.Metrics))

	if cfg.HealthHandler != nil {
		api.GET("/health", cfg.HealthHandler.PipelineHealth)
	}

	if h := cfg.OnboardingHandler; h != nil {
		api.POST("/initiate", h.Initiate)
		api.POST("/matches", h.FindMatches)
		api.GET("/users/:userId/profile", h.GetProfileByUser)

		profiles := api.Group("/profiles/:id")
		profiles.GET("", h.GetProfile)
		profiles.GET("/history", h.History)
		profiles.POST("/portfolio", h.SubmitPortfolio)
		profiles.POST("/cultural-alignment", h.CulturalAlignment)
		profiles.POST("/skill-assessment", h.SkillAssessment)
		profiles.POST("/agent-mapping", h.AgentMapping)
		profiles.POST("/academy", h.AcademyIntegration)
		profiles.POST("/complete", h.Complete)
	}

	return r
}
