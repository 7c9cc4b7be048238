// Package matching ranks agent roles for an onboarding creator.
package matching

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	types "github.com/yungbote/creator-onboarding-backend/internal/domain/onboarding"
	"github.com/yungbote/creator-onboarding-backend/internal/platform/featureflag"
	"github.com/yungbote/creator-onboarding-backend/internal/platform/logger"
)

const (
	defaultMaxResults    = 3
	defaultMinConfidence = 0.2

	// Alignment (0-100) at or above which reasoning must speak to cultural fit.
	culturalReasoningThreshold = 20.0

	weightInterest = 0.5
	weightSkill    = 0.3
	weightCultural = 0.2
)

type Preferences struct {
	Interests          []string `json:"interests"`
	Mediums            []string `json:"mediums"`
	CollaborationStyle string   `json:"collaborationStyle"`
}

// MatchRequest asks for ranked roles. SkillLevel and CulturalAlignment use the 0-100 scale.
type MatchRequest struct {
	CreatorID          string      `json:"creatorId"`
	Preferences        Preferences `json:"preferences"`
	SkillLevel         float64     `json:"skillLevel"`
	CulturalAlignment  *float64    `json:"culturalAlignment,omitempty"`
	EconomicValidation bool        `json:"economicValidation"`
}

type Matcher struct {
	log           *logger.Logger
	catalog       RoleCatalog
	economics     EconomicValidator
	gate          featureflag.Gate
	maxResults    int
	minConfidence float64
}

type Option func(*Matcher)

func WithMaxResults(n int) Option {
	return func(m *Matcher) {
		if n > 0 {
			m.maxResults = n
		}
	}
}

func WithMinConfidence(v float64) Option {
	return func(m *Matcher) { m.minConfidence = clamp(v, 0, 1) }
}

func New(catalog RoleCatalog, economics EconomicValidator, gate featureflag.Gate, log *logger.Logger, opts ...Option) *Matcher {
	if log == nil {
		log = logger.Nop()
	}
	if economics == nil {
		economics = NewHeuristicEconomics()
	}
	if gate == nil {
		gate = featureflag.NewStatic(featureflag.Defaults())
	}
	m := &Matcher{
		log:           log.With("service", "AgentPotentialMatcher"),
		catalog:       catalog,
		economics:     economics,
		gate:          gate,
		maxResults:    defaultMaxResults,
		minConfidence: defaultMinConfidence,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type scoredRole struct {
	role     Role
	match    types.AgentMatch
	matched  []string
	styleFit bool
}

// FindBestMatches returns roles ordered by confidence, highest first. The result is never nil.
func (m *Matcher) FindBestMatches(ctx context.Context, req MatchRequest) ([]types.AgentMatch, error) {
	const op = "matching.FindBestMatches"
	if m == nil || m.catalog == nil {
		return []types.AgentMatch{}, types.ServiceUnavailableError(op, "agent role catalog", nil)
	}
	roles, err := m.catalog.Roles(ctx)
	if err != nil {
		m.log.Warn("role catalog unavailable", "creator_id", req.CreatorID, "error", err)
		return []types.AgentMatch{}, types.ServiceUnavailableError(op, "agent role catalog", err)
	}

	prefs := append(normalizeTokens(req.Preferences.Interests), normalizeTokens(req.Preferences.Mediums)...)
	prefs = normalizeTokens(prefs)
	style := normalizeToken(req.Preferences.CollaborationStyle)

	scored := make([]scoredRole, 0, len(roles))
	for _, role := range roles {
		s := m.scoreRole(role, prefs, style, req)
		if s.match.Confidence < m.minConfidence {
			continue
		}
		scored = append(scored, s)
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].match.Confidence != scored[j].match.Confidence {
			return scored[i].match.Confidence > scored[j].match.Confidence
		}
		return scored[i].role.Name < scored[j].role.Name
	})
	if len(scored) > m.maxResults {
		scored = scored[:m.maxResults]
	}
	if len(scored) == 0 {
		scored = append(scored, m.generalist(req))
	}

	withEconomics := req.EconomicValidation && m.gate.IsEnabled(ctx, featureflag.FlagEconomics)
	out := make([]types.AgentMatch, 0, len(scored))
	for _, s := range scored {
		match := s.match
		if withEconomics {
			m.attachEconomics(ctx, &match, s.role, req)
		}
		out = append(out, match)
	}
	return out, nil
}

func (m *Matcher) scoreRole(role Role, prefs []string, style string, req MatchRequest) scoredRole {
	roleTokens := make(map[string]bool, len(role.Interests)+len(role.Mediums))
	for _, t := range role.Interests {
		roleTokens[t] = true
	}
	for _, t := range role.Mediums {
		roleTokens[t] = true
	}
	var matched []string
	for _, p := range prefs {
		if roleTokens[p] {
			matched = append(matched, p)
		}
	}
	interest := 0.0
	if len(prefs) > 0 {
		interest = math.Min(1, float64(len(matched))/math.Min(float64(len(prefs)), 3))
	}

	skill := clamp(req.SkillLevel, 0, 100)
	skillFit := 1.0
	if role.MinSkill > 0 && skill < role.MinSkill {
		skillFit = skill / role.MinSkill
	}

	culturalFit := 0.5
	if req.CulturalAlignment != nil {
		culturalFit = clamp(*req.CulturalAlignment, 0, 100) / 100
	}

	styleFit := false
	for _, s := range role.CollaborationStyles {
		if style != "" && s == style {
			styleFit = true
			break
		}
	}

	confidence := weightInterest*interest + weightSkill*skillFit + weightCultural*culturalFit
	match := types.AgentMatch{
		Role:                   role.Name,
		Confidence:             round3(clamp(confidence, 0, 1)),
		CulturalFit:            round3(culturalFit),
		TrainingPathSuggestion: role.TrainingPath,
		ExpectedGrowthAreas:    append([]string{}, role.GrowthAreas...),
	}
	s := scoredRole{role: role, matched: matched, styleFit: styleFit}
	match.Reasoning = buildReasoning(s, skill, req.CulturalAlignment)
	s.match = match
	return s
}

func buildReasoning(s scoredRole, skill float64, alignment *float64) []string {
	var out []string
	if len(s.matched) > 0 {
		out = append(out, fmt.Sprintf("Your focus on %s lines up with what a %s works on.", strings.Join(s.matched, ", "), s.role.Name))
	}
	switch {
	case s.role.MinSkill <= 0 || skill >= s.role.MinSkill:
		out = append(out, "Your current skill level is ready for this role's training path.")
	default:
		out = append(out, fmt.Sprintf("Building skill from %.0f toward %.0f will unlock this role fully.", skill, s.role.MinSkill))
	}
	if s.styleFit {
		out = append(out, "Your collaboration style fits how this agent is designed to work with you.")
	}
	if alignment != nil && *alignment >= culturalReasoningThreshold {
		out = append(out, "This agent would amplify your creative voice through collaboration, keeping your own style at the center.")
	}
	if len(out) == 0 {
		out = append(out, "A broad starting point while your creative direction takes shape.")
	}
	return out
}

func (m *Matcher) generalist(req MatchRequest) scoredRole {
	role := Role{
		Name:         GeneralistRole,
		TrainingPath: "creative-foundations",
		GrowthAreas:  []string{"creative direction", "ai collaboration basics", "portfolio depth"},
		Economics: RoleEconomics{
			RevenueModel:       "subscription",
			BaseMonthlyRevenue: 600,
			MarketDemand:       0.5,
			Competition:        "medium",
		},
	}
	culturalFit := 0.5
	if req.CulturalAlignment != nil {
		culturalFit = clamp(*req.CulturalAlignment, 0, 100) / 100
	}
	skill := clamp(req.SkillLevel, 0, 100)
	confidence := weightSkill*(skill/100) + weightCultural*culturalFit
	s := scoredRole{role: role}
	s.match = types.AgentMatch{
		Role:                   role.Name,
		Confidence:             round3(clamp(confidence, 0, 1)),
		CulturalFit:            round3(culturalFit),
		TrainingPathSuggestion: role.TrainingPath,
		ExpectedGrowthAreas:    append([]string{}, role.GrowthAreas...),
		Reasoning:              buildReasoning(s, skill, req.CulturalAlignment),
	}
	return s
}

func (m *Matcher) attachEconomics(ctx context.Context, match *types.AgentMatch, role Role, req MatchRequest) {
	ea, err := m.economics.Validate(ctx, role, req, match.Confidence)
	if err != nil {
		m.log.Warn("economic validation failed; omitting economics", "creator_id", req.CreatorID, "role", role.Name, "error", err)
		return
	}
	viability := clamp(ea.Viability, 0, 1)
	readiness := clamp(ea.LaunchReadiness, 0, 1)
	match.EconomicViability = &viability
	match.LaunchReadiness = &readiness
	match.MarketAnalysis = &types.MarketAnalysis{
		RevenueModel:            ea.RevenueModel,
		ProjectedMonthlyRevenue: ea.ProjectedMonthlyRevenue,
		MarketDemand:            ea.MarketDemand,
		CompetitionLevel:        ea.CompetitionLevel,
	}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }

func normalizeToken(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", "-")
	return strings.Join(strings.Fields(s), "-")
}

func normalizeTokens(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, raw := range in {
		t := normalizeToken(raw)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
