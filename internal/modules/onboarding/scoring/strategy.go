// Package scoring derives portfolio, skill and cultural scores for onboarding
// creators. Everything here is pure: no I/O, no clocks, no randomness.
package scoring

import (
	"math"
	"strings"
	"time"

	types "github.com/yungbote/creator-onboarding-backend/internal/domain/onboarding"
)

// Strategy is the scoring contract the onboarding flow depends on. The
// heuristic implementation can be swapped without touching callers.
type Strategy interface {
	AnalyzePortfolio(items []PortfolioItem) types.PortfolioAnalysis
	AssessSkills(data *SkillData) (types.SkillAssessment, error)
	GenerateCulturalAssessment(p types.PortfolioAnalysis, s types.SkillAssessment) []types.CulturalAssessmentResult
}

type PortfolioItem struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Medium      string     `json:"medium"`
	URL         string     `json:"url"`
	Tags        []string   `json:"tags"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
	AIAssisted  bool       `json:"aiAssisted"`
}

// SkillData carries self-reported skill signals. Levels are on a 0-10 scale.
type SkillData struct {
	SkillLevels             map[string]float64 `json:"skillLevels"`
	AICuriosity             float64            `json:"aiCuriosity"`
	AIToolUsage             float64            `json:"aiToolUsage"`
	CollaborationPreference string             `json:"collaborationPreference"`
	Mediums                 []string           `json:"mediums"`
	ExperimentationLevel    float64            `json:"experimentationLevel"`
	RecentLearningCount     int                `json:"recentLearningCount"`
}

// Heuristic is the default deterministic Strategy.
type Heuristic struct{}

func NewHeuristic() *Heuristic { return &Heuristic{} }

var _ Strategy = (*Heuristic)(nil)

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampScore(v float64) float64 { return round1(clamp(v, 0, 100)) }

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func normalizeLabel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
