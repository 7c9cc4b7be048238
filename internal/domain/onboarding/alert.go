package onboarding

import "time"

type AlertSeverity string

const (
	SeverityLow      AlertSeverity = "low"
	SeverityMedium   AlertSeverity = "medium"
	SeverityHigh     AlertSeverity = "high"
	SeverityCritical AlertSeverity = "critical"
)

type AlertType string

const (
	AlertPerformance AlertType = "performance"
	AlertError       AlertType = "error"
	AlertConversion  AlertType = "conversion"
	AlertQuality     AlertType = "quality"
)

// PipelineAlert is dispatched to alert handlers and never persisted here.
type PipelineAlert struct {
	Severity  AlertSeverity  `json:"severity"`
	Type      AlertType      `json:"type"`
	Message   string         `json:"message"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatorID string         `json:"creator_id,omitempty"`
	Stage     string         `json:"stage,omitempty"`
	RaisedAt  time.Time      `json:"raised_at"`
}
