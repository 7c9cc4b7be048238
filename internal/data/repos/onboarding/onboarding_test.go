package onboarding

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/creator-onboarding-backend/internal/data/repos/testutil"
	types "github.com/yungbote/creator-onboarding-backend/internal/domain/onboarding"
	"github.com/yungbote/creator-onboarding-backend/internal/platform/dbctx"
)

func TestCreatorProfileRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewCreatorProfileRepo(db, testutil.Logger(t))
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	userID := "user-" + uuid.NewString()
	p := &types.CreatorProfile{UserID: userID, OnboardingStage: types.StagePortfolioSubmission}
	if err := repo.Create(dbc, p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.ID == uuid.Nil {
		t.Fatalf("Create: expected generated id")
	}

	got, err := repo.GetByID(dbc, p.ID)
	if err != nil || got == nil || got.UserID != userID {
		t.Fatalf("GetByID: got=%+v err=%v", got, err)
	}
	got, err = repo.GetByUserID(dbc, userID)
	if err != nil || got == nil || got.ID != p.ID {
		t.Fatalf("GetByUserID: got=%+v err=%v", got, err)
	}
	missing, err := repo.GetByID(dbc, uuid.New())
	if err != nil || missing != nil {
		t.Fatalf("GetByID missing: got=%+v err=%v", missing, err)
	}

	got.OnboardingStage = types.StageCulturalAlignment
	ok, err := repo.UpdateWithVersion(dbc, got, 0)
	if err != nil || !ok {
		t.Fatalf("UpdateWithVersion: ok=%v err=%v", ok, err)
	}
	if got.Version != 1 {
		t.Fatalf("UpdateWithVersion: version want=1 got=%d", got.Version)
	}

	stale := *got
	stale.OnboardingStage = types.StageSkillAssessment
	ok, err = repo.UpdateWithVersion(dbc, &stale, 0)
	if err != nil {
		t.Fatalf("UpdateWithVersion stale: %v", err)
	}
	if ok {
		t.Fatalf("UpdateWithVersion stale: expected rejection")
	}

	reloaded, err := repo.GetByID(dbc, p.ID)
	if err != nil || reloaded.OnboardingStage != types.StageCulturalAlignment {
		t.Fatalf("stale write leaked: %+v err=%v", reloaded, err)
	}

	dup := &types.CreatorProfile{UserID: userID, OnboardingStage: types.StagePortfolioSubmission}
	if err := repo.Create(dbc, dup); err == nil {
		t.Fatalf("Create duplicate user: expected error")
	}
}

func TestCreatorProfileStats(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewCreatorProfileRepo(db, testutil.Logger(t))
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	since := time.Now().UTC().Add(-time.Hour)

	testutil.SeedProfile(t, ctx, tx, "stats-"+uuid.NewString(), types.StagePortfolioSubmission)
	testutil.SeedProfile(t, ctx, tx, "stats-"+uuid.NewString(), types.StagePortfolioSubmission)
	done := testutil.SeedProfile(t, ctx, tx, "stats-"+uuid.NewString(), types.StageCompleted)
	done.CulturalAlignment = testutil.PtrFloat(80)
	done.ReadinessScore = 90
	if ok, err := repo.UpdateWithVersion(dbc, done, 0); err != nil || !ok {
		t.Fatalf("UpdateWithVersion: ok=%v err=%v", ok, err)
	}

	counts, err := repo.CountByStage(dbc, since)
	if err != nil {
		t.Fatalf("CountByStage: %v", err)
	}
	if counts[types.StagePortfolioSubmission] < 2 || counts[types.StageCompleted] < 1 {
		t.Fatalf("CountByStage: unexpected %v", counts)
	}

	stats, err := repo.Stats(dbc, since)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total < 3 || stats.Completed < 1 || stats.AvgCulturalAlignment <= 0 {
		t.Fatalf("Stats: unexpected %+v", stats)
	}

	future, err := repo.Stats(dbc, time.Now().UTC().Add(time.Hour))
	if err != nil {
		t.Fatalf("Stats empty window: %v", err)
	}
	if future.Total != 0 || future.Completed != 0 || future.AvgReadinessScore != 0 {
		t.Fatalf("Stats empty window: %+v", future)
	}
}

func TestStageTransitionRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewStageTransitionRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	profileID := uuid.New()
	steps := []types.Stage{types.StagePortfolioSubmission, types.StageCulturalAlignment, types.StageSkillAssessment}
	base := time.Now().UTC()
	for i := 1; i < len(steps); i++ {
		if err := repo.Create(dbc, &types.StageTransition{
			ProfileID: profileID,
			FromStage: steps[i-1],
			ToStage:   steps[i],
			Operation: "test",
			CreatedAt: base.Add(time.Duration(i) * time.Millisecond),
		}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	rows, err := repo.ListByProfile(dbc, profileID)
	if err != nil {
		t.Fatalf("ListByProfile: %v", err)
	}
	if len(rows) != 2 || rows[0].ToStage != types.StageCulturalAlignment || rows[1].ToStage != types.StageSkillAssessment {
		t.Fatalf("ListByProfile: unexpected %+v", rows)
	}
}

func TestPipelineMetricRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewPipelineMetricRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	since := time.Now().UTC().Add(-time.Minute)

	creator := uuid.New()
	stage := string(types.StageSkillAssessment)
	rows := []*types.PipelineMetric{
		{CreatorProfileID: creator, MetricType: types.MetricTypePerformance, MetricName: types.MetricStageProcessingTime, MetricValue: 100, Stage: &stage},
		{CreatorProfileID: creator, MetricType: types.MetricTypePerformance, MetricName: types.MetricStageProcessingTime, MetricValue: 300, Stage: &stage},
		{CreatorProfileID: creator, MetricType: types.MetricTypeConversion, MetricName: types.MetricStageCompletion, MetricValue: 1, Stage: &stage},
		nil,
		{CreatorProfileID: uuid.New(), MetricType: types.MetricTypeBusiness, MetricName: types.MetricEconomicValidationScore, MetricValue: 75},
		{CreatorProfileID: uuid.New(), MetricType: types.MetricTypeBusiness, MetricName: types.MetricEconomicValidationScore, MetricValue: 40},
	}
	if err := repo.Create(dbc, rows); err != nil {
		t.Fatalf("Create: %v", err)
	}

	byCreator, err := repo.ListByCreator(dbc, creator, 0)
	if err != nil || len(byCreator) != 3 {
		t.Fatalf("ListByCreator: n=%d err=%v", len(byCreator), err)
	}

	aggs, err := repo.AggregateByStage(dbc, []string{types.MetricStageProcessingTime}, since)
	if err != nil {
		t.Fatalf("AggregateByStage: %v", err)
	}
	var found bool
	for _, a := range aggs {
		if a.Stage == stage && a.MetricName == types.MetricStageProcessingTime {
			found = true
			if a.Count != 2 || a.Avg != 200 {
				t.Fatalf("AggregateByStage: unexpected %+v", a)
			}
		}
	}
	if !found {
		t.Fatalf("AggregateByStage: missing stage row in %+v", aggs)
	}

	byName, err := repo.AggregateByName(dbc, []string{types.MetricEconomicValidationScore, "absent"}, since)
	if err != nil {
		t.Fatalf("AggregateByName: %v", err)
	}
	if byName[types.MetricEconomicValidationScore].Count < 2 {
		t.Fatalf("AggregateByName: unexpected %+v", byName)
	}
	if _, ok := byName["absent"]; ok {
		t.Fatalf("AggregateByName: absent metric should not appear")
	}

	passed, err := repo.CountAtOrAbove(dbc, types.MetricEconomicValidationScore, 70, since)
	if err != nil || passed < 1 {
		t.Fatalf("CountAtOrAbove: n=%d err=%v", passed, err)
	}

	creators, err := repo.DistinctCreators(dbc, since)
	if err != nil || creators < 3 {
		t.Fatalf("DistinctCreators: n=%d err=%v", creators, err)
	}
}
