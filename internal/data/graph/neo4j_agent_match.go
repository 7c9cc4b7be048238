package graph

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	types "github.com/yungbote/creator-onboarding-backend/internal/domain/onboarding"
	"github.com/yungbote/creator-onboarding-backend/internal/platform/logger"
	"github.com/yungbote/creator-onboarding-backend/internal/platform/neo4jdb"
)

var agentMatchSchema = []string{
	`CREATE CONSTRAINT creator_id_unique IF NOT EXISTS FOR (c:Creator) REQUIRE c.id IS UNIQUE`,
	`CREATE CONSTRAINT agent_role_name_unique IF NOT EXISTS FOR (r:AgentRole) REQUIRE r.name IS UNIQUE`,
}

// AgentMatchGraph mirrors creator -> agent role matches into Neo4j for cross-creator queries.
type AgentMatchGraph struct {
	client *neo4jdb.Client
	log    *logger.Logger
}

func NewAgentMatchGraph(client *neo4jdb.Client, log *logger.Logger) *AgentMatchGraph {
	if client == nil || client.Driver == nil {
		return nil
	}
	return &AgentMatchGraph{client: client, log: log.With("graph", "AgentMatchGraph")}
}

// UpsertMatches replaces the creator's MATCHED_TO edges with matches.
func (g *AgentMatchGraph) UpsertMatches(ctx context.Context, profileID uuid.UUID, stage types.Stage, matches []types.AgentMatch) error {
	if g == nil || g.client == nil || g.client.Driver == nil {
		return nil
	}
	if profileID == uuid.Nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	rows := matchRows(profileID, matches, now)

	g.client.EnsureSchema(ctx, agentMatchSchema...)

	session := g.client.WriteSession(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MERGE (c:Creator {id: $creator_id})
SET c.stage = $stage, c.synced_at = $synced_at
WITH c
OPTIONAL MATCH (c)-[old:MATCHED_TO]->(:AgentRole)
DELETE old
`, map[string]any{"creator_id": profileID.String(), "stage": string(stage), "synced_at": now})
		if err != nil {
			return nil, err
		}
		if _, err := res.Consume(ctx); err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, nil
		}

		res, err = tx.Run(ctx, `
UNWIND $rows AS r
MERGE (c:Creator {id: r.creator_id})
MERGE (a:AgentRole {name: r.role})
MERGE (c)-[m:MATCHED_TO]->(a)
SET m.rank = r.rank,
    m.confidence = r.confidence,
    m.cultural_fit = r.cultural_fit,
    m.training_path = r.training_path,
    m.economic_viability = r.economic_viability,
    m.synced_at = r.synced_at
`, map[string]any{"rows": rows})
		if err != nil {
			return nil, err
		}
		if _, err := res.Consume(ctx); err != nil {
			return nil, err
		}
		return nil, nil
	})
	return err
}

func matchRows(profileID uuid.UUID, matches []types.AgentMatch, syncedAt string) []map[string]any {
	rows := make([]map[string]any, 0, len(matches))
	for _, m := range matches {
		if m.Role == "" {
			continue
		}
		var viability any
		if m.EconomicViability != nil {
			viability = *m.EconomicViability
		}
		rows = append(rows, map[string]any{
			"creator_id":         profileID.String(),
			"role":               m.Role,
			"rank":               int64(len(rows) + 1),
			"confidence":         m.Confidence,
			"cultural_fit":       m.CulturalFit,
			"training_path":      m.TrainingPathSuggestion,
			"economic_viability": viability,
			"synced_at":          syncedAt,
		})
	}
	return rows
}
