package onboarding

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// CreatorProfile is one onboarding applicant. Profiles are mutated only by
// stage-processing operations and are never deleted by this service.
type CreatorProfile struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID            string         `gorm:"column:user_id;not null;uniqueIndex" json:"user_id"`
	OnboardingStage   Stage          `gorm:"column:onboarding_stage;not null;index" json:"onboarding_stage"`
	CulturalAlignment *float64       `gorm:"column:cultural_alignment" json:"cultural_alignment,omitempty"`
	ReadinessScore    float64        `gorm:"column:readiness_score;not null;default:0" json:"readiness_score"`
	Meta              datatypes.JSON `gorm:"column:meta" json:"meta"`

	// Version is bumped on every write and guards stage transitions against
	// concurrent writers.
	Version int64 `gorm:"column:version;not null;default:0" json:"version"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (CreatorProfile) TableName() string { return "creator_profile" }

// ProfileMeta is the decoded form of CreatorProfile.Meta.
type ProfileMeta struct {
	ReferralSource      string                     `json:"referralSource,omitempty"`
	CulturalMotivation  string                     `json:"culturalMotivation,omitempty"`
	StageScores         map[Stage]float64          `json:"stageScores,omitempty"`
	PortfolioAnalysis   *PortfolioAnalysis         `json:"portfolioAnalysis,omitempty"`
	CulturalAssessment  []CulturalAssessmentResult `json:"culturalAssessment,omitempty"`
	CulturalInputs      map[string]float64         `json:"culturalInputs,omitempty"`
	SkillLevels         map[string]float64         `json:"skillLevels,omitempty"`
	SkillAssessment     *SkillAssessment           `json:"skillAssessment,omitempty"`
	AgentMatches        []AgentMatch               `json:"agentMatches,omitempty"`
	Academy             map[string]float64         `json:"academy,omitempty"`
	SelectedPath        string                     `json:"selectedPath,omitempty"`
	TrainingPreferences map[string]string          `json:"trainingPreferences,omitempty"`
	CompletedAt         *time.Time                 `json:"completedAt,omitempty"`
}

// DecodeMeta parses the profile metadata. Empty or malformed metadata yields
// an empty ProfileMeta.
func (p *CreatorProfile) DecodeMeta() ProfileMeta {
	var m ProfileMeta
	if p == nil || len(p.Meta) == 0 {
		return m
	}
	_ = json.Unmarshal(p.Meta, &m)
	return m
}

func (p *CreatorProfile) EncodeMeta(m ProfileMeta) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	p.Meta = datatypes.JSON(raw)
	return nil
}
