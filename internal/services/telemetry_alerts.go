package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	types "github.com/yungbote/creator-onboarding-backend/internal/domain/onboarding"
)

// Alert thresholds applied to every recorded metric.
const (
	SlowStageThresholdMs       = 30000.0
	LowCulturalAlignmentScore  = 30.0
	LowEconomicValidationScore = 50.0
)

func evaluateAlertRules(m types.PipelineMetric) []types.PipelineAlert {
	stage := ""
	if m.Stage != nil {
		stage = *m.Stage
	}
	creator := ""
	if m.CreatorProfileID != uuid.Nil {
		creator = m.CreatorProfileID.String()
	}
	base := types.PipelineAlert{
		CreatorID: creator,
		Stage:     stage,
		RaisedAt:  m.RecordedAt,
		Metadata: map[string]any{
			"metric_name":  m.MetricName,
			"metric_value": m.MetricValue,
		},
	}

	var out []types.PipelineAlert
	switch m.MetricName {
	case types.MetricStageProcessingTime:
		if m.MetricValue > SlowStageThresholdMs {
			a := base
			a.Type = types.AlertPerformance
			a.Severity = types.SeverityHigh
			a.Message = fmt.Sprintf("stage %s took %.0fms (threshold %.0fms)", stage, m.MetricValue, SlowStageThresholdMs)
			out = append(out, a)
		}
	case types.MetricCulturalAlignmentScore:
		if m.MetricValue < LowCulturalAlignmentScore {
			a := base
			a.Type = types.AlertQuality
			a.Severity = types.SeverityMedium
			a.Message = fmt.Sprintf("low cultural alignment score %.1f", m.MetricValue)
			out = append(out, a)
		}
	case types.MetricStageCompletion:
		if m.MetricValue == 0 {
			a := base
			a.Type = types.AlertConversion
			a.Severity = types.SeverityMedium
			a.Message = fmt.Sprintf("stage %s not completed", stage)
			out = append(out, a)
		}
	case types.MetricEconomicValidationScore:
		if m.MetricValue < LowEconomicValidationScore {
			a := base
			a.Type = types.AlertQuality
			a.Severity = types.SeverityMedium
			a.Message = fmt.Sprintf("economic validation score %.1f below %.0f", m.MetricValue, LowEconomicValidationScore)
			out = append(out, a)
		}
	}
	return out
}

// AlertPublisher is satisfied by the Kafka publisher.
type AlertPublisher interface {
	Publish(ctx context.Context, eventType string, payload []byte, partitionKey string) error
}

// PublishAlertHandler forwards alerts to a durable topic keyed by creator.
func PublishAlertHandler(pub AlertPublisher) AlertHandler {
	return func(ctx context.Context, alert types.PipelineAlert) error {
		if pub == nil {
			return nil
		}
		raw, err := json.Marshal(alert)
		if err != nil {
			return err
		}
		key := alert.CreatorID
		if key == "" {
			key = string(alert.Type)
		}
		return pub.Publish(ctx, "alert."+string(alert.Severity), raw, key)
	}
}

// AlertBroadcaster is satisfied by the Redis alert bus.
type AlertBroadcaster interface {
	Publish(ctx context.Context, alert types.PipelineAlert) error
}

func BroadcastAlertHandler(bus AlertBroadcaster) AlertHandler {
	return func(ctx context.Context, alert types.PipelineAlert) error {
		if bus == nil {
			return nil
		}
		return bus.Publish(ctx, alert)
	}
}

// AllAlertTypes lists every alert type, for registering a sink on all of them.
func AllAlertTypes() []types.AlertType {
	return []types.AlertType{types.AlertPerformance, types.AlertError, types.AlertConversion, types.AlertQuality}
}
