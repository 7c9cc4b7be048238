package observability

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/creator-onboarding-backend/internal/platform/envutil"
	"github.com/yungbote/creator-onboarding-backend/internal/platform/logger"
)

const namespace = "onboarding"

// Metrics holds the Prometheus collectors for the API and the onboarding pipeline.
// Every method is safe on a nil receiver so callers never branch on METRICS_ENABLED.
type Metrics struct {
	gatherer prometheus.Gatherer

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	stageDuration   *prometheus.HistogramVec
	stageOutcomes   *prometheus.CounterVec
	pipelineMetrics *prometheus.CounterVec
	pipelineValues  *prometheus.HistogramVec
	alerts          *prometheus.CounterVec
	alertsDropped   prometheus.Counter
	rateLimited     *prometheus.CounterVec
	matchRequests   *prometheus.CounterVec

	dbStats   *prometheus.GaugeVec
	redisUp   prometheus.Gauge
	redisPing prometheus.Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

func Current() *Metrics {
	return instance
}

// Init registers the process-wide collectors on the default registry. It returns nil
// when METRICS_ENABLED is off.
func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = NewMetrics(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
		if log != nil {
			log.Info("prometheus metrics enabled")
		}
	})
	return instance
}

// NewMetrics builds collectors on reg. Tests pass a fresh prometheus.NewRegistry().
func NewMetrics(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	m := &Metrics{gatherer: gatherer}

	m.apiRequests = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "api", Name: "requests_total",
		Help: "Total API requests by method/route/status.",
	}, []string{"method", "route", "status"}))
	m.apiLatency = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Subsystem: "api", Name: "request_duration_seconds",
		Help:    "API request latency in seconds by method/route/status.",
		Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"method", "route", "status"}))
	m.apiInflight = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Subsystem: "api", Name: "inflight_requests",
		Help: "In-flight API requests.",
	}))

	m.stageDuration = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Subsystem: "pipeline", Name: "stage_duration_seconds",
		Help:    "Stage operation latency by stage/outcome.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 30},
	}, []string{"stage", "outcome"}))
	m.stageOutcomes = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "pipeline", Name: "stage_outcomes_total",
		Help: "Stage operations by stage/outcome (advanced, failed, replayed, error).",
	}, []string{"stage", "outcome"}))
	m.pipelineMetrics = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "telemetry", Name: "metrics_recorded_total",
		Help: "Pipeline metrics recorded by type/name/status.",
	}, []string{"type", "name", "status"}))
	m.pipelineValues = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Subsystem: "telemetry", Name: "score_value",
		Help:    "Distribution of 0-100 quality and business scores by metric name.",
		Buckets: prometheus.LinearBuckets(10, 10, 10),
	}, []string{"name"}))
	m.alerts = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "telemetry", Name: "alerts_total",
		Help: "Pipeline alerts raised by type/severity.",
	}, []string{"type", "severity"}))
	m.alertsDropped = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "telemetry", Name: "alerts_dropped_total",
		Help: "Alert checks dropped because the worker queue was full.",
	}))
	m.rateLimited = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "pipeline", Name: "rate_limited_total",
		Help: "Operations rejected by admission control by reason.",
	}, []string{"reason"}))
	m.matchRequests = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "matcher", Name: "requests_total",
		Help: "Agent match requests by status and whether economics were attached.",
	}, []string{"status", "economics"}))

	m.dbStats = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace, Subsystem: "db", Name: "pool",
		Help: "database/sql pool stats by field.",
	}, []string{"field"}))
	m.redisUp = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Subsystem: "redis", Name: "up",
		Help: "1 when the last Redis ping succeeded.",
	}))
	m.redisPing = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Subsystem: "redis", Name: "ping_seconds",
		Help: "Latency of the last Redis ping.",
	}))
	return m
}

// register reuses an identical collector already on reg so repeated construction does not panic.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// RegisterGoCollectors adds runtime and process collectors to reg.
func RegisterGoCollectors(reg prometheus.Registerer) {
	register(reg, collectors.NewGoCollector())
	register(reg, collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route, status).Observe(dur.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveStage(stage, outcome string, dur time.Duration) {
	if m == nil {
		return
	}
	stage = orUnknown(stage)
	outcome = orUnknown(outcome)
	m.stageOutcomes.WithLabelValues(stage, outcome).Inc()
	m.stageDuration.WithLabelValues(stage, outcome).Observe(dur.Seconds())
}

func (m *Metrics) IncPipelineMetric(metricType, name, status string) {
	if m == nil {
		return
	}
	m.pipelineMetrics.WithLabelValues(orUnknown(metricType), orUnknown(name), orUnknown(status)).Inc()
}

// ObserveScore records a 0-100 score (cultural alignment, readiness, validation).
func (m *Metrics) ObserveScore(name string, value float64) {
	if m == nil {
		return
	}
	m.pipelineValues.WithLabelValues(orUnknown(name)).Observe(value)
}

func (m *Metrics) IncAlert(alertType, severity string) {
	if m == nil {
		return
	}
	m.alerts.WithLabelValues(orUnknown(alertType), orUnknown(severity)).Inc()
}

func (m *Metrics) IncAlertDropped() {
	if m == nil {
		return
	}
	m.alertsDropped.Inc()
}

func (m *Metrics) IncRateLimited(reason string) {
	if m == nil {
		return
	}
	m.rateLimited.WithLabelValues(orUnknown(reason)).Inc()
}

func (m *Metrics) IncMatchRequest(status string, economics bool) {
	if m == nil {
		return
	}
	e := "false"
	if economics {
		e = "true"
	}
	m.matchRequests.WithLabelValues(orUnknown(status), e).Inc()
}

func scrapeInterval() time.Duration {
	d := envutil.Duration("METRICS_SCRAPE_INTERVAL", 10*time.Second)
	if d <= 0 {
		return 10 * time.Second
	}
	return d
}

func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: db stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.dbStats.WithLabelValues("open_connections").Set(float64(stats.OpenConnections))
				m.dbStats.WithLabelValues("in_use").Set(float64(stats.InUse))
				m.dbStats.WithLabelValues("idle").Set(float64(stats.Idle))
				m.dbStats.WithLabelValues("wait_count").Set(float64(stats.WaitCount))
				m.dbStats.WithLabelValues("wait_duration_seconds").Set(stats.WaitDuration.Seconds())
				m.dbStats.WithLabelValues("max_open_connections").Set(float64(stats.MaxOpenConnections))
			}
		}
	}()
}

func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb goredis.UniversalClient) {
	if m == nil || rdb == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}

func orUnknown(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "unknown"
	}
	return s
}
