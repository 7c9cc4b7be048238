package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/creator-onboarding-backend/internal/data/repos"
	types "github.com/yungbote/creator-onboarding-backend/internal/domain/onboarding"
	"github.com/yungbote/creator-onboarding-backend/internal/observability"
	"github.com/yungbote/creator-onboarding-backend/internal/platform/dbctx"
	"github.com/yungbote/creator-onboarding-backend/internal/platform/logger"
)

// AlertHandler receives dispatched alerts. Errors are logged and never retried.
type AlertHandler func(ctx context.Context, alert types.PipelineAlert) error

type TelemetryService interface {
	RecordMetric(ctx context.Context, metric types.PipelineMetric)
	RecordMetrics(ctx context.Context, metrics []types.PipelineMetric)
	TrackStageCompletion(ctx context.Context, creatorID uuid.UUID, stage types.Stage, success bool, processingTimeMs float64, metadata map[string]any)
	TrackEconomicValidation(ctx context.Context, creatorID uuid.UUID, revenueModel string, projectedRevenue, validationScore float64, metadata map[string]any)
	RaiseAlert(ctx context.Context, alert types.PipelineAlert)
	RegisterAlertHandler(alertType types.AlertType, handler AlertHandler)
	GetPipelineHealthMetrics(ctx context.Context, timeRange TimeRange) (*PipelineHealth, error)
	// Flush blocks until every metric write and alert check queued before the call has been handled.
	Flush(ctx context.Context) error
	Close() error
}

type TelemetryConfig struct {
	AlertQueueSize int
	// WriteQueueSize bounds the metric batches waiting for the store.
	WriteQueueSize int
	HandlerTimeout time.Duration
	WriteTimeout   time.Duration
}

func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		AlertQueueSize: 1024,
		WriteQueueSize: 1024,
		HandlerTimeout: 5 * time.Second,
		WriteTimeout:   5 * time.Second,
	}
}

type telemetryJob struct {
	metric *types.PipelineMetric
	alert  *types.PipelineAlert
	flush  chan struct{}
}

type metricWrite struct {
	ctx   context.Context
	rows  []*types.PipelineMetric
	flush chan struct{}
}

type telemetryService struct {
	log     *logger.Logger
	metrics repos.PipelineMetricRepo
	stats   repos.CreatorProfileRepo
	prom    *observability.Metrics
	cfg     TelemetryConfig

	mu       sync.RWMutex
	handlers map[types.AlertType][]AlertHandler

	queue     chan telemetryJob
	writes    chan metricWrite
	done      chan struct{}
	closeOnce sync.Once
	closed    chan struct{}
	wg        sync.WaitGroup
}

// NewTelemetryService starts the metric writer and the alert worker. Call Close to stop them.
func NewTelemetryService(
	baseLog *logger.Logger,
	metricRepo repos.PipelineMetricRepo,
	profileRepo repos.CreatorProfileRepo,
	prom *observability.Metrics,
	cfg TelemetryConfig,
) TelemetryService {
	if cfg.AlertQueueSize <= 0 {
		cfg.AlertQueueSize = DefaultTelemetryConfig().AlertQueueSize
	}
	if cfg.WriteQueueSize <= 0 {
		cfg.WriteQueueSize = DefaultTelemetryConfig().WriteQueueSize
	}
	if cfg.HandlerTimeout <= 0 {
		cfg.HandlerTimeout = DefaultTelemetryConfig().HandlerTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultTelemetryConfig().WriteTimeout
	}
	s := &telemetryService{
		log:      baseLog.With("service", "TelemetryService"),
		metrics:  metricRepo,
		stats:    profileRepo,
		prom:     prom,
		cfg:      cfg,
		handlers: map[types.AlertType][]AlertHandler{},
		queue:    make(chan telemetryJob, cfg.AlertQueueSize),
		writes:   make(chan metricWrite, cfg.WriteQueueSize),
		done:     make(chan struct{}),
		closed:   make(chan struct{}),
	}
	for _, t := range AllAlertTypes() {
		s.handlers[t] = []AlertHandler{s.logAlert}
	}
	s.wg.Add(2)
	go s.run()
	go s.writeLoop()
	return s
}

func (s *telemetryService) RecordMetric(ctx context.Context, metric types.PipelineMetric) {
	s.RecordMetrics(ctx, []types.PipelineMetric{metric})
}

func (s *telemetryService) RecordMetrics(ctx context.Context, metrics []types.PipelineMetric) {
	if len(metrics) == 0 {
		return
	}
	now := time.Now().UTC()
	rows := make([]*types.PipelineMetric, 0, len(metrics))
	for i := range metrics {
		m := metrics[i]
		if m.MetricName == "" {
			continue
		}
		if m.ID == uuid.Nil {
			m.ID = uuid.New()
		}
		if m.RecordedAt.IsZero() {
			m.RecordedAt = now
		}
		if len(m.Metadata) == 0 {
			m.Metadata = datatypes.JSON([]byte("{}"))
		}
		rows = append(rows, &m)
	}
	if len(rows) == 0 {
		return
	}

	for _, m := range rows {
		if m.MetricType == types.MetricTypeQuality || m.MetricName == types.MetricEconomicValidationScore {
			s.prom.ObserveScore(m.MetricName, m.MetricValue)
		}
		s.enqueue(telemetryJob{metric: m})
	}
	if s.metrics == nil {
		s.countRows(rows, "unpersisted")
		return
	}
	// Metrics outlive the request that produced them.
	s.enqueueWrite(metricWrite{ctx: context.WithoutCancel(ctx), rows: rows})
}

func (s *telemetryService) TrackStageCompletion(ctx context.Context, creatorID uuid.UUID, stage types.Stage, success bool, processingTimeMs float64, metadata map[string]any) {
	stageName := string(stage)
	meta := encodeMetadata(metadata)
	completion := 0.0
	if success {
		completion = 1
	}
	batch := []types.PipelineMetric{
		{
			CreatorProfileID: creatorID,
			MetricType:       types.MetricTypePerformance,
			MetricName:       types.MetricStageProcessingTime,
			MetricValue:      processingTimeMs,
			MetricUnit:       "ms",
			Stage:            &stageName,
			Metadata:         meta,
		},
		{
			CreatorProfileID: creatorID,
			MetricType:       types.MetricTypeConversion,
			MetricName:       types.MetricStageCompletion,
			MetricValue:      completion,
			MetricUnit:       "boolean",
			Stage:            &stageName,
			Metadata:         meta,
		},
	}
	if v, ok := floatFrom(metadata, types.MetricCulturalAlignmentScore); ok {
		batch = append(batch, types.PipelineMetric{
			CreatorProfileID: creatorID,
			MetricType:       types.MetricTypeQuality,
			MetricName:       types.MetricCulturalAlignmentScore,
			MetricValue:      v,
			MetricUnit:       "score",
			Stage:            &stageName,
			Metadata:         meta,
		})
	}
	if v, ok := floatFrom(metadata, types.MetricReadinessScore); ok {
		batch = append(batch, types.PipelineMetric{
			CreatorProfileID: creatorID,
			MetricType:       types.MetricTypeQuality,
			MetricName:       types.MetricReadinessScore,
			MetricValue:      v,
			MetricUnit:       "score",
			Stage:            &stageName,
			Metadata:         meta,
		})
	}
	s.RecordMetrics(ctx, batch)
}

func (s *telemetryService) TrackEconomicValidation(ctx context.Context, creatorID uuid.UUID, revenueModel string, projectedRevenue, validationScore float64, metadata map[string]any) {
	merged := make(map[string]any, len(metadata)+1)
	for k, v := range metadata {
		merged[k] = v
	}
	merged["revenueModel"] = revenueModel
	meta := encodeMetadata(merged)
	s.RecordMetrics(ctx, []types.PipelineMetric{
		{
			CreatorProfileID: creatorID,
			MetricType:       types.MetricTypeBusiness,
			MetricName:       types.MetricProjectedRevenue,
			MetricValue:      projectedRevenue,
			MetricUnit:       "usd_per_month",
			Metadata:         meta,
		},
		{
			CreatorProfileID: creatorID,
			MetricType:       types.MetricTypeBusiness,
			MetricName:       types.MetricEconomicValidationScore,
			MetricValue:      validationScore,
			MetricUnit:       "score",
			Metadata:         meta,
		},
	})
}

func (s *telemetryService) RaiseAlert(ctx context.Context, alert types.PipelineAlert) {
	if alert.RaisedAt.IsZero() {
		alert.RaisedAt = time.Now().UTC()
	}
	if alert.Severity == "" {
		alert.Severity = types.SeverityMedium
	}
	s.enqueue(telemetryJob{alert: &alert})
}

func (s *telemetryService) RegisterAlertHandler(alertType types.AlertType, handler AlertHandler) {
	if handler == nil {
		return
	}
	s.mu.Lock()
	s.handlers[alertType] = append(s.handlers[alertType], handler)
	s.mu.Unlock()
}

func (s *telemetryService) Flush(ctx context.Context) error {
	select {
	case <-s.closed:
		return nil
	default:
	}
	ch := make(chan struct{})
	// The writer forwards the marker to the alert queue once earlier writes are done.
	select {
	case <-s.closed:
		return nil
	case s.writes <- metricWrite{flush: ch}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-ch:
		return nil
	case <-s.closed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting work, drains queued writes and checks, and waits for both goroutines.
func (s *telemetryService) Close() error {
	s.closeOnce.Do(func() {
		close(s.closed)
		close(s.done)
	})
	s.wg.Wait()
	return nil
}

func (s *telemetryService) enqueue(job telemetryJob) {
	select {
	case <-s.closed:
		return
	default:
	}
	select {
	case s.queue <- job:
	default:
		s.prom.IncAlertDropped()
		name := ""
		if job.metric != nil {
			name = job.metric.MetricName
		} else if job.alert != nil {
			name = string(job.alert.Type)
		}
		s.log.Warn("telemetry alert queue full; dropping check", "item", name)
	}
}

func (s *telemetryService) enqueueWrite(w metricWrite) {
	select {
	case <-s.closed:
		return
	default:
	}
	select {
	case s.writes <- w:
	default:
		s.countRows(w.rows, "dropped")
		s.log.Warn("telemetry write queue full; dropping metrics", "count", len(w.rows))
	}
}

func (s *telemetryService) writeLoop() {
	defer s.wg.Done()
	for {
		select {
		case w := <-s.writes:
			s.write(w)
		case <-s.done:
			for {
				select {
				case w := <-s.writes:
					s.write(w)
				default:
					return
				}
			}
		}
	}
}

func (s *telemetryService) write(w metricWrite) {
	if w.flush != nil {
		select {
		case s.queue <- telemetryJob{flush: w.flush}:
		case <-s.closed:
		}
		return
	}
	ctx, cancel := context.WithTimeout(w.ctx, s.cfg.WriteTimeout)
	err := s.metrics.Create(dbctx.Context{Ctx: ctx}, w.rows)
	cancel()
	if err != nil {
		s.countRows(w.rows, "store_failed")
		s.log.Warn("pipeline metric write failed", "count", len(w.rows), "error", err)
		return
	}
	s.countRows(w.rows, "stored")
}

func (s *telemetryService) countRows(rows []*types.PipelineMetric, status string) {
	for _, m := range rows {
		s.prom.IncPipelineMetric(string(m.MetricType), m.MetricName, status)
	}
}

func (s *telemetryService) run() {
	defer s.wg.Done()
	for {
		select {
		case job := <-s.queue:
			s.handle(job)
		case <-s.done:
			for {
				select {
				case job := <-s.queue:
					s.handle(job)
				default:
					return
				}
			}
		}
	}
}

func (s *telemetryService) handle(job telemetryJob) {
	switch {
	case job.flush != nil:
		close(job.flush)
	case job.metric != nil:
		for _, alert := range evaluateAlertRules(*job.metric) {
			s.dispatch(alert)
		}
	case job.alert != nil:
		s.dispatch(*job.alert)
	}
}

func (s *telemetryService) dispatch(alert types.PipelineAlert) {
	s.prom.IncAlert(string(alert.Type), string(alert.Severity))
	s.mu.RLock()
	handlers := append([]AlertHandler(nil), s.handlers[alert.Type]...)
	s.mu.RUnlock()
	for _, h := range handlers {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.HandlerTimeout)
		err := safeInvoke(ctx, h, alert)
		cancel()
		if err != nil {
			s.log.Warn("alert handler failed", "type", alert.Type, "severity", alert.Severity, "error", err)
		}
	}
}

func safeInvoke(ctx context.Context, h AlertHandler, alert types.PipelineAlert) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("alert handler panic: %v", r)
		}
	}()
	return h(ctx, alert)
}

func (s *telemetryService) logAlert(_ context.Context, alert types.PipelineAlert) error {
	kv := []interface{}{
		"type", alert.Type,
		"severity", alert.Severity,
		"creator_id", alert.CreatorID,
		"stage", alert.Stage,
		"metadata", alert.Metadata,
	}
	switch alert.Severity {
	case types.SeverityCritical, types.SeverityHigh:
		s.log.Error(alert.Message, kv...)
	case types.SeverityMedium:
		s.log.Warn(alert.Message, kv...)
	default:
		s.log.Info(alert.Message, kv...)
	}
	return nil
}

func encodeMetadata(m map[string]any) datatypes.JSON {
	if len(m) == 0 {
		return datatypes.JSON([]byte("{}"))
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return datatypes.JSON([]byte("{}"))
	}
	return datatypes.JSON(raw)
}

func floatFrom(m map[string]any, key string) (float64, bool) {
	if m == nil {
		return 0, false
	}
	switch v := m[key].(type) {
	case float64:
		return v, true
	case *float64:
		if v == nil {
			return 0, false
		}
		return *v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
