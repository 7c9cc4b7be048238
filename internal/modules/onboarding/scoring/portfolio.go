package scoring

import (
	"strings"

	types "github.com/yungbote/creator-onboarding-backend/internal/domain/onboarding"
)

// Baselines returned for an empty portfolio.
const (
	baselineTechnical    = 20
	baselineOriginality  = 20
	baselineVolume       = 0
	baselineProfessional = 10
	baselineResonance    = 20
)

var resonanceKeywords = []string{
	"community", "collaborat", "culture", "cultural", "story", "heritage",
	"mentor", "workshop", "collective", "open source", "together",
}

func (Heuristic) AnalyzePortfolio(items []PortfolioItem) types.PortfolioAnalysis {
	if len(items) == 0 {
		return types.PortfolioAnalysis{
			TechnicalQuality:      baselineTechnical,
			CreativeOriginality:   baselineOriginality,
			VolumeConsistency:     baselineVolume,
			ProfessionalReadiness: baselineProfessional,
			CulturalResonance:     baselineResonance,
		}
	}

	technical := technicalQuality(items)
	volume := volumeConsistency(items)
	return types.PortfolioAnalysis{
		TechnicalQuality:      technical,
		CreativeOriginality:   creativeOriginality(items),
		VolumeConsistency:     volume,
		ProfessionalReadiness: professionalReadiness(items, technical, volume),
		CulturalResonance:     culturalResonance(items),
	}
}

func technicalQuality(items []PortfolioItem) float64 {
	total := 0.0
	for _, it := range items {
		s := 40.0
		s += clamp(float64(len(strings.TrimSpace(it.Description)))/10, 0, 30)
		if strings.TrimSpace(it.URL) != "" {
			s += 15
		}
		if strings.TrimSpace(it.Medium) != "" {
			s += 15
		}
		total += clamp(s, 0, 100)
	}
	return clampScore(total / float64(len(items)))
}

func creativeOriginality(items []PortfolioItem) float64 {
	mediums := map[string]struct{}{}
	tags := map[string]struct{}{}
	totalTags := 0
	for _, it := range items {
		if m := normalizeLabel(it.Medium); m != "" {
			mediums[m] = struct{}{}
		}
		for _, t := range it.Tags {
			t = normalizeLabel(t)
			if t == "" {
				continue
			}
			totalTags++
			tags[t] = struct{}{}
		}
	}
	score := 30.0
	if totalTags > 0 {
		score += 50 * float64(len(tags)) / float64(totalTags)
	}
	score += 20 * clamp(float64(len(mediums)), 0, 4) / 4
	return clampScore(score)
}

func volumeConsistency(items []PortfolioItem) float64 {
	score := 60 * clamp(float64(len(items)), 0, 10) / 10
	months := map[string]struct{}{}
	for _, it := range items {
		if it.CreatedAt == nil || it.CreatedAt.IsZero() {
			continue
		}
		months[it.CreatedAt.UTC().Format("2006-01")] = struct{}{}
	}
	score += 40 * clamp(float64(len(months)), 0, 6) / 6
	return clampScore(score)
}

func professionalReadiness(items []PortfolioItem, technical, volume float64) float64 {
	linked := 0
	for _, it := range items {
		if strings.TrimSpace(it.URL) != "" {
			linked++
		}
	}
	score := 0.6*((technical+volume)/2) + 40*float64(linked)/float64(len(items))
	return clampScore(score)
}

func culturalResonance(items []PortfolioItem) float64 {
	hits := 0
	for _, it := range items {
		text := strings.ToLower(it.Description + " " + strings.Join(it.Tags, " "))
		for _, kw := range resonanceKeywords {
			if strings.Contains(text, kw) {
				hits++
				break
			}
		}
	}
	return clampScore(30 + 70*float64(hits)/float64(len(items)))
}
