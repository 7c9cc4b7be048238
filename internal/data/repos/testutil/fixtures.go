package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/creator-onboarding-backend/internal/domain/onboarding"
)

func SeedProfile(tb testing.TB, ctx context.Context, tx *gorm.DB, userID string, stage types.Stage) *types.CreatorProfile {
	tb.Helper()
	now := time.Now().UTC()
	p := &types.CreatorProfile{
		ID:              uuid.New(),
		UserID:          userID,
		OnboardingStage: stage,
		Meta:            datatypes.JSON([]byte("{}")),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed profile: %v", err)
	}
	return p
}

func SeedMetric(tb testing.TB, ctx context.Context, tx *gorm.DB, profileID uuid.UUID, typ types.MetricType, name string, value float64, stage string) *types.PipelineMetric {
	tb.Helper()
	m := &types.PipelineMetric{
		ID:               uuid.New(),
		CreatorProfileID: profileID,
		MetricType:       typ,
		MetricName:       name,
		MetricValue:      value,
		Metadata:         datatypes.JSON([]byte("{}")),
		RecordedAt:       time.Now().UTC(),
	}
	if stage != "" {
		m.Stage = PtrString(stage)
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed metric: %v", err)
	}
	return m
}

func PtrString(v string) *string { return &v }

func PtrFloat(v float64) *float64 { return &v }
