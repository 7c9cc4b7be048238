package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/creator-onboarding-backend/internal/data/repos/onboarding"
	"github.com/yungbote/creator-onboarding-backend/internal/platform/logger"
)

type CreatorProfileRepo = onboarding.CreatorProfileRepo
type StageTransitionRepo = onboarding.StageTransitionRepo
type PipelineMetricRepo = onboarding.PipelineMetricRepo

type ProfileStats = onboarding.ProfileStats
type MetricAggregate = onboarding.MetricAggregate

func NewCreatorProfileRepo(db *gorm.DB, log *logger.Logger) CreatorProfileRepo {
	return onboarding.NewCreatorProfileRepo(db, log)
}

func NewStageTransitionRepo(db *gorm.DB, log *logger.Logger) StageTransitionRepo {
	return onboarding.NewStageTransitionRepo(db, log)
}

func NewPipelineMetricRepo(db *gorm.DB, log *logger.Logger) PipelineMetricRepo {
	return onboarding.NewPipelineMetricRepo(db, log)
}
