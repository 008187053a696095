package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCartMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewCartMetrics(reg)
	metrics.ObserveSave("remote", 150*time.Millisecond)
	metrics.IncRemoteFailure("load")
	metrics.IncRemoteFailure("load")
	metrics.IncLocalFallback("save")
	metrics.IncStaleLoad()
	metrics.AddSessionEvictions("capacity", 2)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "cart_remote_failures_total", "op", "load"); err != nil {
		t.Fatalf("fetch remote failures: %v", err)
	} else if got != 2 {
		t.Fatalf("expected remote failures=2, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "cart_local_fallbacks_total", "op", "save"); err != nil {
		t.Fatalf("fetch fallbacks: %v", err)
	} else if got != 1 {
		t.Fatalf("expected fallbacks=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "cart_save_duration_seconds", "target", "remote"); err != nil {
		t.Fatalf("fetch save duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}

	if mf := findMetricFamily(mfs, "cart_stale_loads_total"); mf == nil || mf.GetMetric()[0].GetCounter().GetValue() != 1 {
		t.Fatalf("expected one stale load")
	}

	if got, err := fetchCounterValue(mfs, "cart_sessions_evicted_total", "reason", "capacity"); err != nil || got != 2 {
		t.Fatalf("expected two capacity evictions, got %f (%v)", got, err)
	}
}

func TestOrderMetricsLabelsResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewOrderMetrics(reg)
	metrics.IncSubmission("persisted", nil)
	metrics.IncSubmission("buy_now", errors.New("boom"))

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "order_submissions_total", "result", ResultSuccess); err != nil || got != 1 {
		t.Fatalf("expected one success, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "order_submissions_total", "kind", "buy_now"); err != nil || got != 1 {
		t.Fatalf("expected one buy_now submission, got %f (%v)", got, err)
	}
}

func TestOutboxMetricsCountsDeadLetters(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewOutboxMetrics(reg)
	metrics.ObserveBatch(10 * time.Millisecond)
	metrics.IncPublished("order_created")
	metrics.IncFailed("order_created")
	metrics.IncDeadLettered("order_created", "max_attempts")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "outbox_dead_lettered_total", "reason", "max_attempts"); err != nil || got != 1 {
		t.Fatalf("expected one dead letter, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "outbox_published_total", "event_type", "order_created"); err != nil || got != 1 {
		t.Fatalf("expected one publish, got %f (%v)", got, err)
	}
}

func TestMaintenanceMetricsCountsRowsAndResults(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMaintenanceMetrics(reg)
	metrics.ObserveRun("cart-retention", time.Second, nil)
	metrics.ObserveRun("cart-retention", time.Second, errors.New("boom"))
	metrics.AddRemoved("cart-retention", 3)
	metrics.AddRemoved("cart-retention", 0)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "maintenance_rows_removed_total", "job", "cart-retention"); err != nil || got != 3 {
		t.Fatalf("expected 3 removed rows, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "maintenance_job_runs_total", "result", ResultFailure); err != nil || got != 1 {
		t.Fatalf("expected one failed run, got %f (%v)", got, err)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var cart *CartMetrics
	cart.ObserveSave("local", time.Second)
	cart.IncRemoteFailure("save")
	cart.IncStaleLoad()
	cart.AddSessionEvictions("capacity", 1)

	NewCartMetrics(nil).IncLocalFallback("load")
	NewOrderMetrics(nil).IncSubmission("persisted", nil)
	NewOutboxMetrics(nil).IncPublished("order_created")
	NewMaintenanceMetrics(nil).AddRemoved("outbox-retention", 1)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
