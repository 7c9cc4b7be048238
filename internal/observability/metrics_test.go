package observability

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsNilReceiver(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/x", "200", time.Millisecond)
	m.ObserveStage("skill-assessment", "advanced", time.Millisecond)
	m.IncAlert("performance", "high")
	m.IncAlertDropped()
	m.IncRateLimited("rate")
	m.IncMatchRequest("ok", true)
	m.ApiInflightInc()
	m.ApiInflightDec()
}

func TestMetricsRecordAndExpose(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg, reg)

	m.ObserveStage("skill-assessment", "advanced", 20*time.Millisecond)
	m.ObserveStage("skill-assessment", "advanced", 30*time.Millisecond)
	m.IncAlert("quality", "medium")
	m.IncPipelineMetric("quality", "cultural_alignment_score", "stored")

	if got := promtest.ToFloat64(m.stageOutcomes.WithLabelValues("skill-assessment", "advanced")); got != 2 {
		t.Fatalf("stage outcomes: want=2 got=%v", got)
	}
	if got := promtest.ToFloat64(m.alerts.WithLabelValues("quality", "medium")); got != 1 {
		t.Fatalf("alerts: want=1 got=%v", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "onboarding_pipeline_stage_outcomes_total") {
		t.Fatalf("exposition missing stage outcomes:\n%s", rec.Body.String())
	}
}

func TestNewMetricsReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := NewMetrics(reg, reg)
	b := NewMetrics(reg, reg)
	a.IncAlert("error", "high")
	if got := promtest.ToFloat64(b.alerts.WithLabelValues("error", "high")); got != 1 {
		t.Fatalf("second instance should share collectors, got %v", got)
	}
}
