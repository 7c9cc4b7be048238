package onboarding

// AgentMatch ranks one candidate agent role for a creator. The economic fields
// are only populated when economic validation was requested and enabled.
type AgentMatch struct {
	Role                   string          `json:"role"`
	Confidence             float64         `json:"confidence"`
	CulturalFit            float64         `json:"culturalFit"`
	Reasoning              []string        `json:"reasoning"`
	TrainingPathSuggestion string          `json:"trainingPathSuggestion"`
	ExpectedGrowthAreas    []string        `json:"expectedGrowthAreas"`
	EconomicViability      *float64        `json:"economicViability,omitempty"`
	MarketAnalysis         *MarketAnalysis `json:"marketAnalysis,omitempty"`
	LaunchReadiness        *float64        `json:"launchReadiness,omitempty"`
}

type MarketAnalysis struct {
	RevenueModel            string  `json:"revenueModel"`
	ProjectedMonthlyRevenue float64 `json:"projectedMonthlyRevenue"`
	MarketDemand            float64 `json:"marketDemand"`
	CompetitionLevel        string  `json:"competitionLevel"`
}

// HasEconomics reports whether any economic field is set.
func (m AgentMatch) HasEconomics() bool {
	return m.EconomicViability != nil || m.MarketAnalysis != nil || m.LaunchReadiness != nil
}
