package graph

import (
	"context"
	"testing"

	"github.com/google/uuid"

	types "github.com/yungbote/creator-onboarding-backend/internal/domain/onboarding"
)

func TestMatchRows(t *testing.T) {
	id := uuid.New()
	v := 0.7
	rows := matchRows(id, []types.AgentMatch{
		{Role: "A", Confidence: 0.9, EconomicViability: &v},
		{Role: ""},
		{Role: "B", Confidence: 0.5},
	}, "now")
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0]["rank"] != int64(1) || rows[0]["economic_viability"] != 0.7 {
		t.Fatalf("unexpected first row: %v", rows[0])
	}
	if rows[1]["role"] != "B" || rows[1]["economic_viability"] != nil {
		t.Fatalf("unexpected second row: %v", rows[1])
	}
}

func TestNilGraphIsNoop(t *testing.T) {
	var g *AgentMatchGraph
	if err := g.UpsertMatches(context.Background(), uuid.New(), types.StageAcademyIntegration, nil); err != nil {
		t.Fatalf("nil graph should be a no-op: %v", err)
	}
	if NewAgentMatchGraph(nil, nil) != nil {
		t.Fatalf("nil client should yield nil graph")
	}
}
