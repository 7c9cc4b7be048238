package matching

import (
	"context"
	"math"
)

// EconomicAssessment is the commercial-viability view of one creator/role pairing.
type EconomicAssessment struct {
	Viability               float64
	LaunchReadiness         float64
	RevenueModel            string
	ProjectedMonthlyRevenue float64
	MarketDemand            float64
	CompetitionLevel        string
}

// EconomicValidator scores a pairing. Implementations must be deterministic for a given input.
type EconomicValidator interface {
	Validate(ctx context.Context, role Role, req MatchRequest, confidence float64) (EconomicAssessment, error)
}

// HeuristicEconomics derives viability from market demand, match confidence and skill.
type HeuristicEconomics struct{}

func NewHeuristicEconomics() *HeuristicEconomics { return &HeuristicEconomics{} }

var competitionDiscount = map[string]float64{
	"low":    1.0,
	"medium": 0.85,
	"high":   0.7,
}

func (HeuristicEconomics) Validate(ctx context.Context, role Role, req MatchRequest, confidence float64) (EconomicAssessment, error) {
	if err := ctx.Err(); err != nil {
		return EconomicAssessment{}, err
	}
	skill := clamp(req.SkillLevel, 0, 100) / 100
	demand := clamp(role.Economics.MarketDemand, 0, 1)
	conf := clamp(confidence, 0, 1)

	viability := 0.5*demand + 0.3*conf + 0.2*skill

	cultural := 0.5
	if req.CulturalAlignment != nil {
		cultural = clamp(*req.CulturalAlignment, 0, 100) / 100
	}
	readiness := 0.6*skill + 0.4*cultural

	discount, ok := competitionDiscount[normalizeToken(role.Economics.Competition)]
	if !ok {
		discount = competitionDiscount["medium"]
	}
	revenue := math.Max(0, role.Economics.BaseMonthlyRevenue) * (0.5 + viability) * discount

	model := role.Economics.RevenueModel
	if model == "" {
		model = "subscription"
	}
	competition := normalizeToken(role.Economics.Competition)
	if competition == "" {
		competition = "medium"
	}
	return EconomicAssessment{
		Viability:               round3(viability),
		LaunchReadiness:         round3(readiness),
		RevenueModel:            model,
		ProjectedMonthlyRevenue: math.Round(revenue*100) / 100,
		MarketDemand:            round3(demand),
		CompetitionLevel:        competition,
	}, nil
}
