package services

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/yungbote/creator-onboarding-backend/internal/data/repos"
	"github.com/yungbote/creator-onboarding-backend/internal/data/repos/testutil"
	types "github.com/yungbote/creator-onboarding-backend/internal/domain/onboarding"
	"github.com/yungbote/creator-onboarding-backend/internal/platform/dbctx"
)

type alertRecorder struct {
	mu     sync.Mutex
	alerts []types.PipelineAlert
}

func (r *alertRecorder) handle(_ context.Context, a types.PipelineAlert) error {
	r.mu.Lock()
	r.alerts = append(r.alerts, a)
	r.mu.Unlock()
	return nil
}

func (r *alertRecorder) byType(t types.AlertType) []types.PipelineAlert {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []types.PipelineAlert
	for _, a := range r.alerts {
		if a.Type == t {
			out = append(out, a)
		}
	}
	return out
}

type failingMetricRepo struct {
	repos.PipelineMetricRepo
}

func (failingMetricRepo) Create(dbctx.Context, []*types.PipelineMetric) error {
	return errors.New("metrics store down")
}

func TestEvaluateAlertRules(t *testing.T) {
	stage := string(types.StageSkillAssessment)
	cases := []struct {
		name     string
		metric   types.PipelineMetric
		wantType types.AlertType
		wantSev  types.AlertSeverity
	}{
		{"slow_stage", types.PipelineMetric{MetricName: types.MetricStageProcessingTime, MetricValue: 30001, Stage: &stage}, types.AlertPerformance, types.SeverityHigh},
		{"fast_stage", types.PipelineMetric{MetricName: types.MetricStageProcessingTime, MetricValue: 120, Stage: &stage}, "", ""},
		{"low_alignment", types.PipelineMetric{MetricName: types.MetricCulturalAlignmentScore, MetricValue: 21}, types.AlertQuality, types.SeverityMedium},
		{"ok_alignment", types.PipelineMetric{MetricName: types.MetricCulturalAlignmentScore, MetricValue: 71.5}, "", ""},
		{"failed_completion", types.PipelineMetric{MetricName: types.MetricStageCompletion, MetricValue: 0, Stage: &stage}, types.AlertConversion, types.SeverityMedium},
		{"completed", types.PipelineMetric{MetricName: types.MetricStageCompletion, MetricValue: 1, Stage: &stage}, "", ""},
		{"low_validation", types.PipelineMetric{MetricName: types.MetricEconomicValidationScore, MetricValue: 49.9}, types.AlertQuality, types.SeverityMedium},
		{"validation_at_threshold", types.PipelineMetric{MetricName: types.MetricEconomicValidationScore, MetricValue: 50}, "", ""},
		{"unrelated", types.PipelineMetric{MetricName: types.MetricProjectedRevenue, MetricValue: 0}, "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := evaluateAlertRules(tc.metric)
			if tc.wantType == "" {
				if len(got) != 0 {
					t.Fatalf("expected no alerts, got %+v", got)
				}
				return
			}
			if len(got) != 1 {
				t.Fatalf("expected one alert, got %d", len(got))
			}
			if got[0].Type != tc.wantType || got[0].Severity != tc.wantSev {
				t.Fatalf("alert=%s/%s want %s/%s", got[0].Type, got[0].Severity, tc.wantType, tc.wantSev)
			}
		})
	}
}

func TestTelemetryDispatchesAlertsFromStageCompletion(t *testing.T) {
	defer goleak.VerifyNone(t)

	tel := NewTelemetryService(testutil.Logger(t), nil, nil, nil, DefaultTelemetryConfig())
	rec := &alertRecorder{}
	for _, at := range AllAlertTypes() {
		tel.RegisterAlertHandler(at, rec.handle)
	}

	creator := uuid.New()
	tel.TrackStageCompletion(context.Background(), creator, types.StageCulturalAlignment, false, 31000, map[string]any{
		types.MetricCulturalAlignmentScore: 21.0,
	})
	require.NoError(t, tel.Flush(context.Background()))
	require.NoError(t, tel.Close())

	require.Len(t, rec.byType(types.AlertPerformance), 1)
	require.Len(t, rec.byType(types.AlertConversion), 1)
	quality := rec.byType(types.AlertQuality)
	require.Len(t, quality, 1)
	require.Equal(t, creator.String(), quality[0].CreatorID)
	require.Equal(t, string(types.StageCulturalAlignment), quality[0].Stage)
}

func TestTelemetryEconomicValidationAlert(t *testing.T) {
	defer goleak.VerifyNone(t)

	tel := NewTelemetryService(testutil.Logger(t), nil, nil, nil, DefaultTelemetryConfig())
	rec := &alertRecorder{}
	tel.RegisterAlertHandler(types.AlertQuality, rec.handle)

	tel.TrackEconomicValidation(context.Background(), uuid.New(), "subscription", 1200, 80, nil)
	tel.TrackEconomicValidation(context.Background(), uuid.New(), "subscription", 300, 35, nil)
	require.NoError(t, tel.Flush(context.Background()))
	require.NoError(t, tel.Close())

	alerts := rec.byType(types.AlertQuality)
	require.Len(t, alerts, 1)
	require.Equal(t, types.SeverityMedium, alerts[0].Severity)
}

func TestTelemetryHandlerPanicIsContained(t *testing.T) {
	defer goleak.VerifyNone(t)

	tel := NewTelemetryService(testutil.Logger(t), nil, nil, nil, DefaultTelemetryConfig())
	rec := &alertRecorder{}
	tel.RegisterAlertHandler(types.AlertError, func(context.Context, types.PipelineAlert) error { panic("boom") })
	tel.RegisterAlertHandler(types.AlertError, rec.handle)

	tel.RaiseAlert(context.Background(), types.PipelineAlert{Type: types.AlertError, Message: "matcher down"})
	require.NoError(t, tel.Flush(context.Background()))
	require.NoError(t, tel.Close())

	got := rec.byType(types.AlertError)
	require.Len(t, got, 1)
	require.Equal(t, types.SeverityMedium, got[0].Severity)
	require.False(t, got[0].RaisedAt.IsZero())
}

func TestTelemetryNeverBlocksOnFullQueue(t *testing.T) {
	defer goleak.VerifyNone(t)

	tel := NewTelemetryService(testutil.Logger(t), nil, nil, nil, TelemetryConfig{AlertQueueSize: 1, HandlerTimeout: time.Second})
	release := make(chan struct{})
	tel.RegisterAlertHandler(types.AlertConversion, func(context.Context, types.PipelineAlert) error {
		<-release
		return nil
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			tel.RecordMetric(context.Background(), types.PipelineMetric{
				CreatorProfileID: uuid.New(),
				MetricType:       types.MetricTypeConversion,
				MetricName:       types.MetricStageCompletion,
				MetricValue:      0,
			})
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("RecordMetric blocked on a full alert queue")
	}
	close(release)
	require.NoError(t, tel.Close())
}

func TestTelemetryStoreFailureIsSwallowed(t *testing.T) {
	defer goleak.VerifyNone(t)

	tel := NewTelemetryService(testutil.Logger(t), failingMetricRepo{}, nil, nil, DefaultTelemetryConfig())
	rec := &alertRecorder{}
	tel.RegisterAlertHandler(types.AlertPerformance, rec.handle)

	tel.TrackStageCompletion(context.Background(), uuid.New(), types.StageSkillAssessment, true, 45000, nil)
	require.NoError(t, tel.Flush(context.Background()))
	require.NoError(t, tel.Close())

	// Alert checks still run when persistence fails.
	require.Len(t, rec.byType(types.AlertPerformance), 1)
}

func TestParseTimeRange(t *testing.T) {
	cases := []struct {
		in      string
		want    TimeRange
		wantErr bool
	}{
		{"", TimeRangeDay, false},
		{"1h", TimeRangeHour, false},
		{"24h", TimeRangeDay, false},
		{" 7d ", TimeRangeWeek, false},
		{"30d", TimeRangeMonth, false},
		{"90d", "", true},
	}
	for _, tc := range cases {
		got, err := ParseTimeRange(tc.in)
		if tc.wantErr {
			if !types.IsCode(err, types.CodeValidation) {
				t.Fatalf("ParseTimeRange(%q) err=%v, want validation", tc.in, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("ParseTimeRange(%q)=%q,%v want %q", tc.in, got, err, tc.want)
		}
	}
}

func TestPipelineHealthMetrics(t *testing.T) {
	if os.Getenv("TEST_POSTGRES_DSN") != "" {
		t.Skip("aggregate assertions need an isolated database")
	}
	ctx := context.Background()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	profiles := repos.NewCreatorProfileRepo(db, log)
	metrics := repos.NewPipelineMetricRepo(db, log)
	tel := NewTelemetryService(log, metrics, profiles, nil, DefaultTelemetryConfig())
	t.Cleanup(func() { _ = tel.Close() })

	p1 := testutil.SeedProfile(t, ctx, db, "health-u1", types.StageSkillAssessment)
	p2 := testutil.SeedProfile(t, ctx, db, "health-u2", types.StageCompleted)

	tel.TrackStageCompletion(ctx, p1.ID, types.StageSkillAssessment, true, 100, map[string]any{types.MetricCulturalAlignmentScore: 80.0})
	tel.TrackStageCompletion(ctx, p2.ID, types.StageSkillAssessment, false, 300, nil)
	tel.TrackEconomicValidation(ctx, p1.ID, "subscription", 1000, 80, nil)
	tel.TrackEconomicValidation(ctx, p2.ID, "subscription", 500, 40, nil)
	tel.TrackEconomicValidation(ctx, p1.ID, "commission", 300, 90, nil)
	require.NoError(t, tel.Flush(ctx))

	health, err := tel.GetPipelineHealthMetrics(ctx, TimeRangeDay)
	require.NoError(t, err)

	require.EqualValues(t, 2, health.Population.TotalProfiles)
	require.EqualValues(t, 1, health.Population.CompletedProfiles)
	require.EqualValues(t, 2, health.Population.ActiveCreators)
	require.EqualValues(t, 1, health.StageDistribution[string(types.StageSkillAssessment)])
	require.EqualValues(t, 0, health.StageDistribution[string(types.StageAcademyIntegration)])

	stage := string(types.StageSkillAssessment)
	require.InDelta(t, 0.5, health.ConversionRates[stage], 1e-9)
	require.InDelta(t, 200, health.AvgProcessingTimeMs[stage], 1e-9)

	require.InDelta(t, 80, health.Quality.AvgCulturalAlignment, 1e-9)
	require.EqualValues(t, 1, health.Quality.CulturalSamples)

	require.InDelta(t, 600, health.Economics.AvgProjectedRevenue, 1e-9)
	require.Equal(t, "subscription", health.Economics.MostCommonRevenueModel)
	require.EqualValues(t, 3, health.Economics.Validations)
	require.InDelta(t, 2.0/3.0, health.Economics.ValidationPassRate, 1e-9)
	require.Empty(t, health.Degraded)
}

func TestPipelineHealthEmptyStore(t *testing.T) {
	if os.Getenv("TEST_POSTGRES_DSN") != "" {
		t.Skip("aggregate assertions need an isolated database")
	}
	db := testutil.DB(t)
	log := testutil.Logger(t)
	tel := NewTelemetryService(log, repos.NewPipelineMetricRepo(db, log), repos.NewCreatorProfileRepo(db, log), nil, DefaultTelemetryConfig())
	t.Cleanup(func() { _ = tel.Close() })

	health, err := tel.GetPipelineHealthMetrics(context.Background(), TimeRangeHour)
	require.NoError(t, err)
	require.Len(t, health.StageDistribution, len(types.AllStages()))
	require.Empty(t, health.ConversionRates)
	require.Zero(t, health.Economics.ValidationPassRate)
	require.Empty(t, health.Economics.MostCommonRevenueModel)
}

type recordingPublisher struct {
	eventType string
	key       string
	payload   []byte
}

func (p *recordingPublisher) Publish(_ context.Context, eventType string, payload []byte, key string) error {
	p.eventType, p.key, p.payload = eventType, key, payload
	return nil
}

func TestPublishAlertHandler(t *testing.T) {
	pub := &recordingPublisher{}
	h := PublishAlertHandler(pub)
	err := h(context.Background(), types.PipelineAlert{Type: types.AlertQuality, Severity: types.SeverityHigh, CreatorID: "c-1", Message: "low"})
	require.NoError(t, err)
	require.Equal(t, "alert.high", pub.eventType)
	require.Equal(t, "c-1", pub.key)
	require.Contains(t, string(pub.payload), `"type":"quality"`)

	require.NoError(t, PublishAlertHandler(nil)(context.Background(), types.PipelineAlert{}))
}

func TestRecordMetricDoesNotWaitForStore(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := &gatedMetricStore{release: make(chan struct{})}
	tel := NewTelemetryService(testutil.Logger(t), store, nil, nil, DefaultTelemetryConfig())
	rec := &alertRecorder{}
	tel.RegisterAlertHandler(types.AlertPerformance, rec.handle)

	start := time.Now()
	tel.TrackStageCompletion(context.Background(), uuid.New(), types.StageSkillAssessment, true, 45000, nil)
	require.Less(t, time.Since(start), 100*time.Millisecond)

	close(store.release)
	require.NoError(t, tel.Flush(context.Background()))
	require.Equal(t, 2, store.count())
	require.Len(t, rec.byType(types.AlertPerformance), 1)
	require.NoError(t, tel.Close())
}

func TestTelemetryWriteQueueOverflowDrops(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := &gatedMetricStore{release: make(chan struct{})}
	tel := NewTelemetryService(testutil.Logger(t), store, nil, nil, TelemetryConfig{WriteQueueSize: 1})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 20; i++ {
			tel.RecordMetric(context.Background(), types.PipelineMetric{CreatorProfileID: uuid.New(), MetricType: types.MetricTypePerformance, MetricName: types.MetricStageProcessingTime, MetricValue: 1})
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("RecordMetric blocked on a full write queue")
	}
	close(store.release)
	require.NoError(t, tel.Close())
	require.Less(t, store.count(), 20)
}

func TestFlushAfterCloseReturns(t *testing.T) {
	defer goleak.VerifyNone(t)

	tel := NewTelemetryService(testutil.Logger(t), nil, nil, nil, DefaultTelemetryConfig())
	require.NoError(t, tel.Close())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for i := 0; i < 50; i++ {
		require.NoError(t, tel.Flush(ctx))
	}
}

type flakyMetricRepo struct {
	repos.PipelineMetricRepo
}

func (flakyMetricRepo) DistinctCreators(dbctx.Context, time.Time) (int64, error) {
	return 0, errors.New("replica lagging")
}

func TestPipelineHealthDegradesPerAggregate(t *testing.T) {
	if os.Getenv("TEST_POSTGRES_DSN") != "" {
		t.Skip("aggregate assertions need an isolated database")
	}
	ctx := context.Background()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	profiles := repos.NewCreatorProfileRepo(db, log)
	metrics := flakyMetricRepo{repos.NewPipelineMetricRepo(db, log)}
	tel := NewTelemetryService(log, metrics, profiles, nil, DefaultTelemetryConfig())
	t.Cleanup(func() { _ = tel.Close() })

	p := testutil.SeedProfile(t, ctx, db, "degraded-u1", types.StageSkillAssessment)
	tel.TrackStageCompletion(ctx, p.ID, types.StageSkillAssessment, true, 120, nil)
	require.NoError(t, tel.Flush(ctx))

	health, err := tel.GetPipelineHealthMetrics(ctx, TimeRangeDay)
	require.NoError(t, err)
	require.Equal(t, []string{"active_creators"}, health.Degraded)
	require.Zero(t, health.Population.ActiveCreators)
	require.EqualValues(t, 1, health.Population.TotalProfiles)
	require.InDelta(t, 1.0, health.ConversionRates[string(types.StageSkillAssessment)], 1e-9)
}
