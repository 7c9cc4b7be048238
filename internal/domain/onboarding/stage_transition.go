package onboarding

import (
	"time"

	"github.com/google/uuid"
)

// StageTransition is the append-only audit row written for every stage change.
type StageTransition struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProfileID uuid.UUID `gorm:"type:uuid;column:profile_id;not null;index" json:"profile_id"`
	FromStage Stage     `gorm:"column:from_stage;not null" json:"from_stage"`
	ToStage   Stage     `gorm:"column:to_stage;not null" json:"to_stage"`
	Operation string    `gorm:"column:operation;not null" json:"operation"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (StageTransition) TableName() string { return "creator_stage_transition" }
