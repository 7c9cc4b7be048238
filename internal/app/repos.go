package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/creator-onboarding-backend/internal/data/repos"
	"github.com/yungbote/creator-onboarding-backend/internal/platform/logger"
)

type Repos struct {
	Profiles    repos.CreatorProfileRepo
	Transitions repos.StageTransitionRepo
	Metrics     repos.PipelineMetricRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Profiles:    repos.NewCreatorProfileRepo(db, log),
		Transitions: repos.NewStageTransitionRepo(db, log),
		Metrics:     repos.NewPipelineMetricRepo(db, log),
	}
}
