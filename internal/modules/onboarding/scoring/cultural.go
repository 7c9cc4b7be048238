package scoring

import (
	"fmt"
	"strings"

	types "github.com/yungbote/creator-onboarding-backend/internal/domain/onboarding"
)

// Dimension labels, in the order they are returned.
const (
	DimensionCreativeExpression  = "Creative Expression"
	DimensionTechnicalCraft      = "Technical Craft"
	DimensionCollaborativeSpirit = "Collaborative Spirit"
	DimensionGrowthMindset       = "Growth Mindset"
)

var styleReadiness = map[types.CollaborationStyle]float64{
	types.CollaborationAINative:      85,
	types.CollaborationAICurious:     75,
	types.CollaborationCollaborative: 70,
	types.CollaborationIndependent:   45,
}

// GenerateCulturalAssessment returns one record per dimension. Every
// CulturalNotes value frames the work as creative practice.
func (Heuristic) GenerateCulturalAssessment(p types.PortfolioAnalysis, s types.SkillAssessment) []types.CulturalAssessmentResult {
	readiness := collaborationReadiness(p, s)
	growth := growthPotential(s)

	expression := clampScore((p.CreativeOriginality + p.CulturalResonance) / 2)
	craft := clampScore((p.TechnicalQuality + s.CurrentLevel) / 2)
	spirit := clampScore((readiness + p.CulturalResonance) / 2)
	mindset := clampScore((s.LearningVelocity + s.ExperimentationWillingness) / 2)

	return []types.CulturalAssessmentResult{
		{
			Dimension: DimensionCreativeExpression,
			Score:     expression,
			Evidence: []string{
				fmt.Sprintf("creative originality %.0f/100", p.CreativeOriginality),
				fmt.Sprintf("cultural resonance %.0f/100", p.CulturalResonance),
			},
			CulturalNotes:          expressionNotes(expression),
			GrowthPotential:        growth,
			CollaborationReadiness: readiness,
		},
		{
			Dimension: DimensionTechnicalCraft,
			Score:     craft,
			Evidence: []string{
				fmt.Sprintf("technical quality %.0f/100", p.TechnicalQuality),
				fmt.Sprintf("self-assessed level %.0f/100", s.CurrentLevel),
			},
			CulturalNotes:          "Craft is the foundation that lets a creative vision travel; an agent can carry repetitive execution so your creative judgement stays in front.",
			GrowthPotential:        growth,
			CollaborationReadiness: readiness,
		},
		{
			Dimension: DimensionCollaborativeSpirit,
			Score:     spirit,
			Evidence: []string{
				fmt.Sprintf("collaboration style %s", s.CollaborationStyle),
				fmt.Sprintf("collaboration readiness %.0f/100", readiness),
			},
			CulturalNotes:          spiritNotes(s.CollaborationStyle),
			GrowthPotential:        growth,
			CollaborationReadiness: readiness,
		},
		{
			Dimension:              DimensionGrowthMindset,
			Score:                  mindset,
			Evidence:               mindsetEvidence(s),
			CulturalNotes:          "Experimentation keeps creative work alive; a steady learning rhythm is what turns an agent partnership into a long-term creative practice.",
			GrowthPotential:        growth,
			CollaborationReadiness: readiness,
		},
	}
}

func collaborationReadiness(p types.PortfolioAnalysis, s types.SkillAssessment) float64 {
	base, ok := styleReadiness[s.CollaborationStyle]
	if !ok {
		base = styleReadiness[types.CollaborationIndependent]
	}
	return clampScore(base*0.8 + p.CulturalResonance*0.2)
}

func growthPotential(s types.SkillAssessment) types.GrowthPotential {
	avg := (s.LearningVelocity + s.ExperimentationWillingness) / 2
	switch {
	case avg >= 70:
		return types.GrowthHigh
	case avg >= 40:
		return types.GrowthMedium
	default:
		return types.GrowthLow
	}
}

func expressionNotes(score float64) string {
	if score >= 60 {
		return "A distinctive creative voice comes through the portfolio; agent collaboration should amplify it rather than smooth it out."
	}
	return "The creative voice is still forming; pairing with an agent is a chance to explore new directions without losing authorship."
}

func spiritNotes(style types.CollaborationStyle) string {
	switch style {
	case types.CollaborationAINative, types.CollaborationAICurious:
		return "Openness to AI tools suggests a creative partnership where the agent extends, not replaces, the creator's ideas."
	case types.CollaborationCollaborative:
		return "Comfort working with others translates well to co-creative work with an agent and the wider community."
	default:
		return "Independent creative practice is valued; agent collaboration can start small and stay under the creator's direction."
	}
}

func mindsetEvidence(s types.SkillAssessment) []string {
	out := []string{
		fmt.Sprintf("learning velocity %.0f/100", s.LearningVelocity),
		fmt.Sprintf("experimentation willingness %.0f/100", s.ExperimentationWillingness),
	}
	if len(s.PreferredMediums) > 0 {
		out = append(out, "preferred mediums: "+strings.Join(s.PreferredMediums, ", "))
	}
	return out
}
