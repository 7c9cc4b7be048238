package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/creator-onboarding-backend/internal/domain/onboarding"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&types.CreatorProfile{},
		&types.StageTransition{},
		&types.PipelineMetric{},
	)
}

// EnsureOnboardingIndexes adds Postgres-only indexes gorm tags cannot express.
func EnsureOnboardingIndexes(db *gorm.DB) error {
	if db.Dialector.Name() != DriverPostgres {
		return nil
	}
	// pipeline_metric rows are appended in recorded_at order.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_pipeline_metric_recorded_brin
		ON pipeline_metric USING BRIN (recorded_at);
	`).Error; err != nil {
		return fmt.Errorf("create idx_pipeline_metric_recorded_brin: %w", err)
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_pipeline_metric_creator_recorded
		ON pipeline_metric (creator_profile_id, recorded_at DESC);
	`).Error; err != nil {
		return fmt.Errorf("create idx_pipeline_metric_creator_recorded: %w", err)
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_creator_profile_active_stage
		ON creator_profile (onboarding_stage)
		WHERE onboarding_stage <> 'completed';
	`).Error; err != nil {
		return fmt.Errorf("create idx_creator_profile_active_stage: %w", err)
	}
	return nil
}

func Migrate(db *gorm.DB) error {
	if err := AutoMigrateAll(db); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return EnsureOnboardingIndexes(db)
}
