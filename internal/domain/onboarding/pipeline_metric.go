package onboarding

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type MetricType string

const (
	MetricTypePerformance MetricType = "performance"
	MetricTypeConversion  MetricType = "conversion"
	MetricTypeQuality     MetricType = "quality"
	MetricTypeBusiness    MetricType = "business"
)

// Metric names emitted by the pipeline.
const (
	MetricStageProcessingTime     = "stage_processing_time"
	MetricStageCompletion         = "stage_completion"
	MetricCulturalAlignmentScore  = "cultural_alignment_score"
	MetricReadinessScore          = "readiness_score"
	MetricProjectedRevenue        = "projected_revenue"
	MetricEconomicValidationScore = "economic_validation_score"
)

// PipelineMetric is an append-only telemetry row.
type PipelineMetric struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatorProfileID uuid.UUID      `gorm:"type:uuid;column:creator_profile_id;not null;index" json:"creator_profile_id"`
	MetricType       MetricType     `gorm:"column:metric_type;not null;index" json:"metric_type"`
	MetricName       string         `gorm:"column:metric_name;not null;index:idx_pipeline_metric_name_recorded,priority:1" json:"metric_name"`
	MetricValue      float64        `gorm:"column:metric_value;not null" json:"metric_value"`
	MetricUnit       string         `gorm:"column:metric_unit" json:"metric_unit,omitempty"`
	Stage            *string        `gorm:"column:stage;index" json:"stage,omitempty"`
	Metadata         datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	RecordedAt       time.Time      `gorm:"column:recorded_at;not null;index:idx_pipeline_metric_name_recorded,priority:2" json:"recorded_at"`
}

func (PipelineMetric) TableName() string { return "pipeline_metric" }
