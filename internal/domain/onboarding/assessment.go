package onboarding

// PortfolioAnalysis scores are each 0-100 and independent of one another.
type PortfolioAnalysis struct {
	TechnicalQuality      float64 `json:"technicalQuality"`
	CreativeOriginality   float64 `json:"creativeOriginality"`
	VolumeConsistency     float64 `json:"volumeConsistency"`
	ProfessionalReadiness float64 `json:"professionalReadiness"`
	CulturalResonance     float64 `json:"culturalResonance"`
}

type CollaborationStyle string

const (
	CollaborationAINative      CollaborationStyle = "ai-native"
	CollaborationAICurious     CollaborationStyle = "ai-curious"
	CollaborationCollaborative CollaborationStyle = "collaborative"
	CollaborationIndependent   CollaborationStyle = "independent"
)

type SkillAssessment struct {
	CurrentLevel               float64            `json:"currentLevel"`
	LearningVelocity           float64            `json:"learningVelocity"`
	CollaborationStyle         CollaborationStyle `json:"collaborationStyle"`
	PreferredMediums           []string           `json:"preferredMediums"`
	ExperimentationWillingness float64            `json:"experimentationWillingness"`
}

type GrowthPotential string

const (
	GrowthLow    GrowthPotential = "low"
	GrowthMedium GrowthPotential = "medium"
	GrowthHigh   GrowthPotential = "high"
)

type CulturalAssessmentResult struct {
	Dimension              string          `json:"dimension"`
	Score                  float64         `json:"score"`
	Evidence               []string        `json:"evidence"`
	CulturalNotes          string          `json:"culturalNotes"`
	GrowthPotential        GrowthPotential `json:"growthPotential"`
	CollaborationReadiness float64         `json:"collaborationReadiness"`
}
