package scoring

import (
	"sort"

	types "github.com/yungbote/creator-onboarding-backend/internal/domain/onboarding"
)

// AssessSkills only fails for a missing payload; out-of-range values are
// clamped.
func (Heuristic) AssessSkills(data *SkillData) (types.SkillAssessment, error) {
	if data == nil {
		return types.SkillAssessment{}, types.ValidationError("AssessSkills", "skill data is required")
	}

	curiosity := clamp(data.AICuriosity, 0, 10)
	experimentation := clamp(data.ExperimentationLevel, 0, 10)

	return types.SkillAssessment{
		CurrentLevel:               AggregateSkillLevels(data.SkillLevels),
		LearningVelocity:           clampScore(float64(data.RecentLearningCount)*12 + curiosity*4),
		CollaborationStyle:         collaborationStyle(data),
		PreferredMediums:           normalizeMediums(data.Mediums),
		ExperimentationWillingness: clampScore(experimentation*8 + curiosity*2),
	}, nil
}

// AggregateSkillLevels averages 0-10 category levels onto a 0-100 scale.
// An empty map scores zero.
func AggregateSkillLevels(levels map[string]float64) float64 {
	if len(levels) == 0 {
		return 0
	}
	total := 0.0
	for _, v := range levels {
		total += clamp(v, 0, 10)
	}
	return clampScore(total / float64(len(levels)) * 10)
}

func collaborationStyle(data *SkillData) types.CollaborationStyle {
	switch {
	case data.AIToolUsage >= 7:
		return types.CollaborationAINative
	case data.AICuriosity >= 5:
		return types.CollaborationAICurious
	}
	switch normalizeLabel(data.CollaborationPreference) {
	case "team", "collaborative", "group", "pair":
		return types.CollaborationCollaborative
	default:
		return types.CollaborationIndependent
	}
}

func normalizeMediums(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, m := range in {
		m = normalizeLabel(m)
		if m == "" {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}
