package matching

import (
	"context"
	"errors"
	"strings"
	"testing"

	types "github.com/yungbote/creator-onboarding-backend/internal/domain/onboarding"
	"github.com/yungbote/creator-onboarding-backend/internal/platform/featureflag"
)

func ptr(v float64) *float64 { return &v }

func testCatalog() StaticCatalog {
	return StaticCatalog{
		{
			Name:                "Visual Storytelling Agent",
			Interests:           []string{"illustration", "storytelling"},
			Mediums:             []string{"digital-art"},
			MinSkill:            40,
			CollaborationStyles: []string{"ai-native"},
			TrainingPath:        "visual",
			GrowthAreas:         []string{"pacing"},
			Economics:           RoleEconomics{RevenueModel: "subscription", BaseMonthlyRevenue: 1000, MarketDemand: 0.8, Competition: "low"},
		},
		{
			Name:      "Music Collaboration Agent",
			Interests: []string{"music"},
			Mediums:   []string{"audio"},
			MinSkill:  50,
			Economics: RoleEconomics{RevenueModel: "licensing", BaseMonthlyRevenue: 800, MarketDemand: 0.6, Competition: "high"},
		},
	}
}

func economicsGate(on bool) featureflag.Gate {
	return featureflag.NewStatic(map[string]bool{featureflag.FlagEconomics: on})
}

func TestFindBestMatchesOrdersByConfidence(t *testing.T) {
	m := New(testCatalog(), nil, economicsGate(false), nil)
	got, err := m.FindBestMatches(context.Background(), MatchRequest{
		CreatorID:         "c-1",
		Preferences:       Preferences{Interests: []string{"Illustration", "storytelling"}, CollaborationStyle: "ai-native"},
		SkillLevel:        70,
		CulturalAlignment: ptr(80),
	})
	if err != nil {
		t.Fatalf("FindBestMatches: %v", err)
	}
	if len(got) == 0 || got[0].Role != "Visual Storytelling Agent" {
		t.Fatalf("unexpected ranking: %+v", got)
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].Confidence < got[i].Confidence {
			t.Fatalf("matches not sorted: %+v", got)
		}
	}
	for _, match := range got {
		if match.Confidence < 0 || match.Confidence > 1 || match.CulturalFit < 0 || match.CulturalFit > 1 {
			t.Fatalf("score out of range: %+v", match)
		}
	}
}

func TestFindBestMatchesDegradesWithEmptyPreferences(t *testing.T) {
	m := New(testCatalog(), nil, economicsGate(true), nil)
	got, err := m.FindBestMatches(context.Background(), MatchRequest{CreatorID: "c-2"})
	if err != nil {
		t.Fatalf("FindBestMatches: %v", err)
	}
	if got == nil {
		t.Fatalf("result must never be nil")
	}
	for _, match := range got {
		if match.HasEconomics() {
			t.Fatalf("economics present without request: %+v", match)
		}
	}
}

func TestFindBestMatchesFallsBackToGeneralist(t *testing.T) {
	m := New(testCatalog(), nil, nil, nil, WithMinConfidence(0.99))
	got, err := m.FindBestMatches(context.Background(), MatchRequest{CreatorID: "c-3"})
	if err != nil {
		t.Fatalf("FindBestMatches: %v", err)
	}
	if len(got) != 1 || got[0].Role != GeneralistRole {
		t.Fatalf("expected generalist fallback, got %+v", got)
	}
}

func TestEconomicsGating(t *testing.T) {
	req := MatchRequest{
		CreatorID:          "c-4",
		Preferences:        Preferences{Interests: []string{"music"}},
		SkillLevel:         60,
		EconomicValidation: true,
	}

	off := New(testCatalog(), nil, economicsGate(false), nil)
	got, err := off.FindBestMatches(context.Background(), req)
	if err != nil {
		t.Fatalf("FindBestMatches: %v", err)
	}
	for _, match := range got {
		if match.EconomicViability != nil || match.HasEconomics() {
			t.Fatalf("gate off must omit economics: %+v", match)
		}
	}

	on := New(testCatalog(), nil, economicsGate(true), nil)
	got, err = on.FindBestMatches(context.Background(), req)
	if err != nil {
		t.Fatalf("FindBestMatches: %v", err)
	}
	if len(got) == 0 {
		t.Fatalf("expected matches")
	}
	for _, match := range got {
		if match.EconomicViability == nil || match.MarketAnalysis == nil || match.LaunchReadiness == nil {
			t.Fatalf("gate on must include economics: %+v", match)
		}
		if *match.EconomicViability < 0 || *match.EconomicViability > 1 || *match.LaunchReadiness < 0 || *match.LaunchReadiness > 1 {
			t.Fatalf("economic scores out of range: %+v", match)
		}
	}
}

func TestCulturalReasoning(t *testing.T) {
	m := New(testCatalog(), nil, nil, nil)
	cases := []struct {
		name      string
		alignment *float64
		want      bool
	}{
		{"aligned", ptr(75), true},
		{"threshold", ptr(20), true},
		{"below threshold", ptr(5), false},
		{"absent", nil, false},
	}
	for _, tc := range cases {
		got, err := m.FindBestMatches(context.Background(), MatchRequest{
			CreatorID:         "c-5",
			Preferences:       Preferences{Interests: []string{"illustration"}},
			SkillLevel:        50,
			CulturalAlignment: tc.alignment,
		})
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		for _, match := range got {
			found := false
			for _, line := range match.Reasoning {
				l := strings.ToLower(line)
				if strings.Contains(l, "amplify") && strings.Contains(l, "collaboration") && strings.Contains(l, "creative voice") {
					found = true
				}
			}
			if found != tc.want {
				t.Fatalf("%s: cultural reasoning present=%v want=%v (%v)", tc.name, found, tc.want, match.Reasoning)
			}
		}
	}
}

type failingCatalog struct{}

func (failingCatalog) Roles(context.Context) ([]Role, error) {
	return nil, errors.New("catalog offline")
}

func TestCatalogFailureIsServiceUnavailable(t *testing.T) {
	m := New(failingCatalog{}, nil, nil, nil)
	got, err := m.FindBestMatches(context.Background(), MatchRequest{CreatorID: "c-6"})
	if !types.IsCode(err, types.CodeServiceUnavailable) {
		t.Fatalf("expected service_unavailable, got %v", err)
	}
	if got == nil {
		t.Fatalf("result must never be nil")
	}
}

type failingEconomics struct{}

func (failingEconomics) Validate(context.Context, Role, MatchRequest, float64) (EconomicAssessment, error) {
	return EconomicAssessment{}, errors.New("pricing offline")
}

func TestEconomicValidatorFailureOmitsEconomics(t *testing.T) {
	m := New(testCatalog(), failingEconomics{}, economicsGate(true), nil)
	got, err := m.FindBestMatches(context.Background(), MatchRequest{
		CreatorID:          "c-7",
		Preferences:        Preferences{Interests: []string{"music"}},
		SkillLevel:         60,
		EconomicValidation: true,
	})
	if err != nil {
		t.Fatalf("FindBestMatches: %v", err)
	}
	for _, match := range got {
		if match.HasEconomics() {
			t.Fatalf("economics should be omitted on validator failure: %+v", match)
		}
	}
}

func TestEmbeddedCatalogParses(t *testing.T) {
	roles, err := NewYAMLCatalog("").Roles(context.Background())
	if err != nil {
		t.Fatalf("embedded catalog: %v", err)
	}
	if len(roles) < 3 {
		t.Fatalf("expected several roles, got %d", len(roles))
	}
}

func TestParseCatalogRejectsDuplicates(t *testing.T) {
	raw := []byte("roles:\n  - name: A\n  - name: a\n")
	if _, err := ParseCatalog(raw); err == nil {
		t.Fatalf("expected duplicate error")
	}
	if _, err := ParseCatalog([]byte("roles: []\n")); err == nil {
		t.Fatalf("expected empty catalog error")
	}
}

func TestHeuristicEconomicsDeterministic(t *testing.T) {
	role := testCatalog()[0]
	req := MatchRequest{SkillLevel: 55, CulturalAlignment: ptr(70)}
	a, err := NewHeuristicEconomics().Validate(context.Background(), role, req, 0.7)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	b, _ := NewHeuristicEconomics().Validate(context.Background(), role, req, 0.7)
	if a != b {
		t.Fatalf("non-deterministic: %+v vs %+v", a, b)
	}
	if a.ProjectedMonthlyRevenue <= 0 || a.RevenueModel != "subscription" {
		t.Fatalf("unexpected assessment: %+v", a)
	}
}
