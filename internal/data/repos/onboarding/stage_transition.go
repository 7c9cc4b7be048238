package onboarding

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/creator-onboarding-backend/internal/domain/onboarding"
	"github.com/yungbote/creator-onboarding-backend/internal/platform/dbctx"
	"github.com/yungbote/creator-onboarding-backend/internal/platform/logger"
)

type StageTransitionRepo interface {
	Create(dbc dbctx.Context, row *types.StageTransition) error
	ListByProfile(dbc dbctx.Context, profileID uuid.UUID) ([]*types.StageTransition, error)
}

type stageTransitionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStageTransitionRepo(db *gorm.DB, baseLog *logger.Logger) StageTransitionRepo {
	return &stageTransitionRepo{db: db, log: baseLog.With("repo", "StageTransitionRepo")}
}

func (r *stageTransitionRepo) Create(dbc dbctx.Context, row *types.StageTransition) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return t.WithContext(dbc.Ctx).Create(row).Error
}

func (r *stageTransitionRepo) ListByProfile(dbc dbctx.Context, profileID uuid.UUID) ([]*types.StageTransition, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.StageTransition
	if profileID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("profile_id = ?", profileID).
		Order("created_at ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
