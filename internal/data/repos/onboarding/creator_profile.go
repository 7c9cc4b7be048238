package onboarding

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/creator-onboarding-backend/internal/domain/onboarding"
	"github.com/yungbote/creator-onboarding-backend/internal/platform/dbctx"
	"github.com/yungbote/creator-onboarding-backend/internal/platform/logger"
)

// ProfileStats summarizes the profile population created since a point in time.
type ProfileStats struct {
	Total                int64   `json:"total"`
	Completed            int64   `json:"completed"`
	AvgCulturalAlignment float64 `json:"avg_cultural_alignment"`
	AvgReadinessScore    float64 `json:"avg_readiness_score"`
}

type CreatorProfileRepo interface {
	Create(dbc dbctx.Context, profile *types.CreatorProfile) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.CreatorProfile, error)
	GetByUserID(dbc dbctx.Context, userID string) (*types.CreatorProfile, error)
	// UpdateWithVersion writes profile only if the stored version still equals expectedVersion.
	// It returns false when another writer got there first.
	UpdateWithVersion(dbc dbctx.Context, profile *types.CreatorProfile, expectedVersion int64) (bool, error)
	CountByStage(dbc dbctx.Context, since time.Time) (map[types.Stage]int64, error)
	Stats(dbc dbctx.Context, since time.Time) (ProfileStats, error)
}

type creatorProfileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCreatorProfileRepo(db *gorm.DB, baseLog *logger.Logger) CreatorProfileRepo {
	return &creatorProfileRepo{db: db, log: baseLog.With("repo", "CreatorProfileRepo")}
}

func (r *creatorProfileRepo) Create(dbc dbctx.Context, profile *types.CreatorProfile) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if profile == nil {
		return nil
	}
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	now := time.Now().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now
	return t.WithContext(dbc.Ctx).Create(profile).Error
}

func (r *creatorProfileRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.CreatorProfile, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.CreatorProfile
	if err := t.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *creatorProfileRepo) GetByUserID(dbc dbctx.Context, userID string) (*types.CreatorProfile, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, nil
	}
	var row types.CreatorProfile
	if err := t.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *creatorProfileRepo) UpdateWithVersion(dbc dbctx.Context, profile *types.CreatorProfile, expectedVersion int64) (bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if profile == nil || profile.ID == uuid.Nil {
		return false, nil
	}
	now := time.Now().UTC()
	res := t.WithContext(dbc.Ctx).
		Model(&types.CreatorProfile{}).
		Where("id = ? AND version = ?", profile.ID, expectedVersion).
		Updates(map[string]any{
			"onboarding_stage":   profile.OnboardingStage,
			"cultural_alignment": profile.CulturalAlignment,
			"readiness_score":    profile.ReadinessScore,
			"meta":               profile.Meta,
			"version":            expectedVersion + 1,
			"updated_at":         now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	profile.Version = expectedVersion + 1
	profile.UpdatedAt = now
	return true, nil
}

type stageCountRow struct {
	Stage types.Stage
	Count int64
}

func (r *creatorProfileRepo) CountByStage(dbc dbctx.Context, since time.Time) (map[types.Stage]int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var rows []stageCountRow
	if err := t.WithContext(dbc.Ctx).
		Model(&types.CreatorProfile{}).
		Select("onboarding_stage AS stage, COUNT(*) AS count").
		Where("created_at >= ?", since).
		Group("onboarding_stage").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[types.Stage]int64, len(rows))
	for _, row := range rows {
		out[row.Stage] = row.Count
	}
	return out, nil
}

type profileStatsRow struct {
	Total        int64
	Completed    int64
	AvgAlignment *float64
	AvgReadiness *float64
}

func (r *creatorProfileRepo) Stats(dbc dbctx.Context, since time.Time) (ProfileStats, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row profileStatsRow
	if err := t.WithContext(dbc.Ctx).
		Model(&types.CreatorProfile{}).
		Select(
			"COUNT(*) AS total, "+
				"COALESCE(SUM(CASE WHEN onboarding_stage = ? THEN 1 ELSE 0 END), 0) AS completed, "+
				"AVG(cultural_alignment) AS avg_alignment, "+
				"AVG(readiness_score) AS avg_readiness",
			types.StageCompleted,
		).
		Where("created_at >= ?", since).
		Scan(&row).Error; err != nil {
		return ProfileStats{}, err
	}
	out := ProfileStats{Total: row.Total, Completed: row.Completed}
	if row.AvgAlignment != nil {
		out.AvgCulturalAlignment = *row.AvgAlignment
	}
	if row.AvgReadiness != nil {
		out.AvgReadinessScore = *row.AvgReadiness
	}
	return out, nil
}
