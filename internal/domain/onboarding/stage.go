package onboarding

import "strings"

// Stage is a creator's position in the onboarding pipeline.
type Stage string

const (
	StagePortfolioSubmission   Stage = "portfolio-submission"
	StageCulturalAlignment     Stage = "cultural-alignment-check"
	StageSkillAssessment       Stage = "skill-assessment"
	StageAgentPotentialMapping Stage = "agent-potential-mapping"
	StageAcademyIntegration    Stage = "academy-integration"
	StageTrainingPathSelection Stage = "training-path-selection"
	StageCompleted             Stage = "completed"
)

var stageOrder = []Stage{
	StagePortfolioSubmission,
	StageCulturalAlignment,
	StageSkillAssessment,
	StageAgentPotentialMapping,
	StageAcademyIntegration,
	StageTrainingPathSelection,
	StageCompleted,
}

// AllStages returns the pipeline stages in order. The slice is a copy.
func AllStages() []Stage {
	out := make([]Stage, len(stageOrder))
	copy(out, stageOrder)
	return out
}

func ParseStage(raw string) (Stage, bool) {
	s := Stage(strings.ToLower(strings.TrimSpace(raw)))
	return s, s.Valid()
}

func (s Stage) String() string { return string(s) }

// Index is the zero-based position of s, or -1 for unknown stages.
func (s Stage) Index() int {
	for i, st := range stageOrder {
		if st == s {
			return i
		}
	}
	return -1
}

func (s Stage) Valid() bool { return s.Index() >= 0 }

func (s Stage) Terminal() bool { return s == StageCompleted }

// Next returns the stage that follows s. Terminal and unknown stages return
// themselves with ok=false.
func (s Stage) Next() (Stage, bool) {
	i := s.Index()
	if i < 0 || i >= len(stageOrder)-1 {
		return s, false
	}
	return stageOrder[i+1], true
}

// Before reports whether s comes strictly before other in the pipeline.
func (s Stage) Before(other Stage) bool {
	a, b := s.Index(), other.Index()
	return a >= 0 && b >= 0 && a < b
}
