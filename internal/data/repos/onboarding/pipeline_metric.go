package onboarding

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/creator-onboarding-backend/internal/domain/onboarding"
	"github.com/yungbote/creator-onboarding-backend/internal/platform/dbctx"
	"github.com/yungbote/creator-onboarding-backend/internal/platform/logger"
)

// MetricAggregate is COUNT/SUM/AVG of one metric name, optionally per stage.
type MetricAggregate struct {
	Stage      string  `json:"stage,omitempty"`
	MetricName string  `json:"metric_name"`
	Count      int64   `json:"count"`
	Sum        float64 `json:"sum"`
	Avg        float64 `json:"avg"`
}

type PipelineMetricRepo interface {
	Create(dbc dbctx.Context, rows []*types.PipelineMetric) error
	ListByCreator(dbc dbctx.Context, creatorID uuid.UUID, limit int) ([]*types.PipelineMetric, error)
	ListByNameSince(dbc dbctx.Context, name string, since time.Time, limit int) ([]*types.PipelineMetric, error)
	AggregateByStage(dbc dbctx.Context, names []string, since time.Time) ([]MetricAggregate, error)
	AggregateByName(dbc dbctx.Context, names []string, since time.Time) (map[string]MetricAggregate, error)
	CountAtOrAbove(dbc dbctx.Context, name string, threshold float64, since time.Time) (int64, error)
	DistinctCreators(dbc dbctx.Context, since time.Time) (int64, error)
}

type pipelineMetricRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPipelineMetricRepo(db *gorm.DB, baseLog *logger.Logger) PipelineMetricRepo {
	return &pipelineMetricRepo{db: db, log: baseLog.With("repo", "PipelineMetricRepo")}
}

func (r *pipelineMetricRepo) Create(dbc dbctx.Context, rows []*types.PipelineMetric) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for _, row := range rows {
		if row == nil {
			continue
		}
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		if row.RecordedAt.IsZero() {
			row.RecordedAt = now
		}
	}
	return t.WithContext(dbc.Ctx).CreateInBatches(compactMetrics(rows), 200).Error
}

func compactMetrics(rows []*types.PipelineMetric) []*types.PipelineMetric {
	out := rows[:0:0]
	for _, row := range rows {
		if row != nil {
			out = append(out, row)
		}
	}
	return out
}

func (r *pipelineMetricRepo) ListByCreator(dbc dbctx.Context, creatorID uuid.UUID, limit int) ([]*types.PipelineMetric, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.PipelineMetric
	if creatorID == uuid.Nil {
		return out, nil
	}
	q := t.WithContext(dbc.Ctx).
		Where("creator_profile_id = ?", creatorID).
		Order("recorded_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *pipelineMetricRepo) ListByNameSince(dbc dbctx.Context, name string, since time.Time, limit int) ([]*types.PipelineMetric, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.PipelineMetric
	q := t.WithContext(dbc.Ctx).
		Where("metric_name = ? AND recorded_at >= ?", name, since).
		Order("recorded_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

type aggregateRow struct {
	Stage      *string
	MetricName string
	Count      int64
	Sum        float64
	Avg        float64
}

func (r *pipelineMetricRepo) AggregateByStage(dbc dbctx.Context, names []string, since time.Time) ([]MetricAggregate, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []MetricAggregate{}
	if len(names) == 0 {
		return out, nil
	}
	var rows []aggregateRow
	if err := t.WithContext(dbc.Ctx).
		Model(&types.PipelineMetric{}).
		Select("stage, metric_name, COUNT(*) AS count, SUM(metric_value) AS sum, AVG(metric_value) AS avg").
		Where("metric_name IN ? AND recorded_at >= ? AND stage IS NOT NULL", names, since).
		Group("stage, metric_name").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		agg := MetricAggregate{MetricName: row.MetricName, Count: row.Count, Sum: row.Sum, Avg: row.Avg}
		if row.Stage != nil {
			agg.Stage = *row.Stage
		}
		out = append(out, agg)
	}
	return out, nil
}

func (r *pipelineMetricRepo) AggregateByName(dbc dbctx.Context, names []string, since time.Time) (map[string]MetricAggregate, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := map[string]MetricAggregate{}
	if len(names) == 0 {
		return out, nil
	}
	var rows []aggregateRow
	if err := t.WithContext(dbc.Ctx).
		Model(&types.PipelineMetric{}).
		Select("metric_name, COUNT(*) AS count, SUM(metric_value) AS sum, AVG(metric_value) AS avg").
		Where("metric_name IN ? AND recorded_at >= ?", names, since).
		Group("metric_name").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.MetricName] = MetricAggregate{MetricName: row.MetricName, Count: row.Count, Sum: row.Sum, Avg: row.Avg}
	}
	return out, nil
}

func (r *pipelineMetricRepo) CountAtOrAbove(dbc dbctx.Context, name string, threshold float64, since time.Time) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var n int64
	if err := t.WithContext(dbc.Ctx).
		Model(&types.PipelineMetric{}).
		Where("metric_name = ? AND metric_value >= ? AND recorded_at >= ?", name, threshold, since).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *pipelineMetricRepo) DistinctCreators(dbc dbctx.Context, since time.Time) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var n int64
	if err := t.WithContext(dbc.Ctx).
		Model(&types.PipelineMetric{}).
		Where("recorded_at >= ?", since).
		Distinct("creator_profile_id").
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
