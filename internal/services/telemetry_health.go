package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/creator-onboarding-backend/internal/data/repos"
	types "github.com/yungbote/creator-onboarding-backend/internal/domain/onboarding"
	"github.com/yungbote/creator-onboarding-backend/internal/platform/dbctx"
)

type TimeRange string

const (
	TimeRangeHour  TimeRange = "1h"
	TimeRangeDay   TimeRange = "24h"
	TimeRangeWeek  TimeRange = "7d"
	TimeRangeMonth TimeRange = "30d"
)

// EconomicPassScore is the validation score at or above which a pairing counts as passing.
const EconomicPassScore = 70.0

// ParseTimeRange accepts 1h, 24h, 7d and 30d. Empty input means 24h.
func ParseTimeRange(raw string) (TimeRange, error) {
	switch TimeRange(strings.ToLower(strings.TrimSpace(raw))) {
	case "":
		return TimeRangeDay, nil
	case TimeRangeHour:
		return TimeRangeHour, nil
	case TimeRangeDay:
		return TimeRangeDay, nil
	case TimeRangeWeek:
		return TimeRangeWeek, nil
	case TimeRangeMonth:
		return TimeRangeMonth, nil
	default:
		return "", types.ValidationError("telemetry.ParseTimeRange", "time range must be one of 1h, 24h, 7d, 30d")
	}
}

func (r TimeRange) Duration() time.Duration {
	switch r {
	case TimeRangeHour:
		return time.Hour
	case TimeRangeWeek:
		return 7 * 24 * time.Hour
	case TimeRangeMonth:
		return 30 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

type PopulationStats struct {
	TotalProfiles     int64 `json:"totalProfiles"`
	CompletedProfiles int64 `json:"completedProfiles"`
	ActiveCreators    int64 `json:"activeCreators"`
}

type QualityStats struct {
	AvgCulturalAlignment float64 `json:"avgCulturalAlignment"`
	AvgReadinessScore    float64 `json:"avgReadinessScore"`
	CulturalSamples      int64   `json:"culturalSamples"`
	ReadinessSamples     int64   `json:"readinessSamples"`
}

type EconomicSummary struct {
	AvgProjectedRevenue    float64 `json:"avgProjectedRevenue"`
	MostCommonRevenueModel string  `json:"mostCommonRevenueModel"`
	ValidationPassRate     float64 `json:"validationPassRate"`
	Validations            int64   `json:"validations"`
}

type PipelineHealth struct {
	TimeRange           TimeRange          `json:"timeRange"`
	Since               time.Time          `json:"since"`
	GeneratedAt         time.Time          `json:"generatedAt"`
	Population          PopulationStats    `json:"population"`
	StageDistribution   map[string]int64   `json:"stageDistribution"`
	ConversionRates     map[string]float64 `json:"conversionRates"`
	AvgProcessingTimeMs map[string]float64 `json:"avgProcessingTimeMs"`
	Quality             QualityStats       `json:"quality"`
	Economics           EconomicSummary    `json:"economics"`
	// Degraded names the aggregates whose query failed and were reported as zero.
	Degraded []string `json:"degraded,omitempty"`
}

const revenueModelSampleLimit = 5000

func (s *telemetryService) GetPipelineHealthMetrics(ctx context.Context, timeRange TimeRange) (*PipelineHealth, error) {
	const op = "telemetry.GetPipelineHealthMetrics"
	if timeRange == "" {
		timeRange = TimeRangeDay
	}
	now := time.Now().UTC()
	since := now.Add(-timeRange.Duration())

	out := &PipelineHealth{
		TimeRange:           timeRange,
		Since:               since,
		GeneratedAt:         now,
		StageDistribution:   map[string]int64{},
		ConversionRates:     map[string]float64{},
		AvgProcessingTimeMs: map[string]float64{},
	}
	for _, st := range types.AllStages() {
		out.StageDistribution[string(st)] = 0
	}
	if s.metrics == nil || s.stats == nil {
		return out, nil
	}

	var (
		byStage      map[types.Stage]int64
		profileStats repos.ProfileStats
		stageAggs    []repos.MetricAggregate
		nameAggs     map[string]repos.MetricAggregate
		passed       int64
		creators     int64
		revenueRows  []*types.PipelineMetric
	)

	var (
		mu      sync.Mutex
		queries int
		g, gctx = errgroup.WithContext(ctx)
		dbc     = dbctx.Context{Ctx: gctx}
	)
	// Each aggregate degrades on its own; a failed query leaves its section at zero.
	query := func(name string, fn func() error) {
		queries++
		g.Go(func() error {
			if err := fn(); err != nil {
				s.log.Warn("pipeline health query failed", "range", timeRange, "aggregate", name, "error", err)
				mu.Lock()
				out.Degraded = append(out.Degraded, name)
				mu.Unlock()
			}
			return nil
		})
	}
	query("stage_distribution", func() error {
		var err error
		byStage, err = s.stats.CountByStage(dbc, since)
		return err
	})
	query("population", func() error {
		var err error
		profileStats, err = s.stats.Stats(dbc, since)
		return err
	})
	query("stage_metrics", func() error {
		var err error
		stageAggs, err = s.metrics.AggregateByStage(dbc, []string{types.MetricStageProcessingTime, types.MetricStageCompletion}, since)
		return err
	})
	query("score_metrics", func() error {
		var err error
		nameAggs, err = s.metrics.AggregateByName(dbc, []string{
			types.MetricCulturalAlignmentScore,
			types.MetricReadinessScore,
			types.MetricProjectedRevenue,
			types.MetricEconomicValidationScore,
		}, since)
		return err
	})
	query("validation_pass_count", func() error {
		var err error
		passed, err = s.metrics.CountAtOrAbove(dbc, types.MetricEconomicValidationScore, EconomicPassScore, since)
		return err
	})
	query("active_creators", func() error {
		var err error
		creators, err = s.metrics.DistinctCreators(dbc, since)
		return err
	})
	query("revenue_models", func() error {
		var err error
		revenueRows, err = s.metrics.ListByNameSince(dbc, types.MetricProjectedRevenue, since, revenueModelSampleLimit)
		return err
	})
	_ = g.Wait()
	if len(out.Degraded) == queries {
		return nil, types.ServiceUnavailableError(op, "metrics store", fmt.Errorf("all %d health queries failed", queries))
	}
	sort.Strings(out.Degraded)

	for stage, n := range byStage {
		out.StageDistribution[string(stage)] = n
	}
	out.Population = PopulationStats{
		TotalProfiles:     profileStats.Total,
		CompletedProfiles: profileStats.Completed,
		ActiveCreators:    creators,
	}

	for _, agg := range stageAggs {
		switch agg.MetricName {
		case types.MetricStageProcessingTime:
			out.AvgProcessingTimeMs[agg.Stage] = agg.Avg
		case types.MetricStageCompletion:
			if agg.Count > 0 {
				out.ConversionRates[agg.Stage] = agg.Sum / float64(agg.Count)
			}
		}
	}

	if a, ok := nameAggs[types.MetricCulturalAlignmentScore]; ok {
		out.Quality.AvgCulturalAlignment = a.Avg
		out.Quality.CulturalSamples = a.Count
	}
	if a, ok := nameAggs[types.MetricReadinessScore]; ok {
		out.Quality.AvgReadinessScore = a.Avg
		out.Quality.ReadinessSamples = a.Count
	}
	if a, ok := nameAggs[types.MetricProjectedRevenue]; ok {
		out.Economics.AvgProjectedRevenue = a.Avg
	}
	if a, ok := nameAggs[types.MetricEconomicValidationScore]; ok && a.Count > 0 {
		out.Economics.Validations = a.Count
		out.Economics.ValidationPassRate = float64(passed) / float64(a.Count)
	}
	out.Economics.MostCommonRevenueModel = mostCommonRevenueModel(revenueRows)
	return out, nil
}

func mostCommonRevenueModel(rows []*types.PipelineMetric) string {
	counts := map[string]int{}
	for _, row := range rows {
		if row == nil || len(row.Metadata) == 0 {
			continue
		}
		var meta struct {
			RevenueModel string `json:"revenueModel"`
		}
		if err := json.Unmarshal(row.Metadata, &meta); err != nil {
			continue
		}
		if m := strings.TrimSpace(meta.RevenueModel); m != "" {
			counts[m]++
		}
	}
	if len(counts) == 0 {
		return ""
	}
	models := make([]string, 0, len(counts))
	for m := range counts {
		models = append(models, m)
	}
	sort.Slice(models, func(i, j int) bool {
		if counts[models[i]] != counts[models[j]] {
			return counts[models[i]] > counts[models[j]]
		}
		return models[i] < models[j]
	})
	return models[0]
}
