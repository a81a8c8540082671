package metrics

import (
	"math"
	"net/http/httptest"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
)

func TestRecorderObserveParseAndCast(t *testing.T) {
	rec := NewRecorder(nil)
	rec.ObserveParse("attr", "ok")
	rec.ObserveCast("string", "integer", "ok")

	families := gather(t, rec, "tmplengine_parse_total", "tmplengine_cast_total")

	parseMetric := findMetric(t, families["tmplengine_parse_total"], map[string]string{
		"kind":    "attr",
		"outcome": "ok",
	})
	if got := parseMetric.GetCounter().GetValue(); got != 1 {
		t.Fatalf("expected parse counter 1, got %v", got)
	}

	castMetric := findMetric(t, families["tmplengine_cast_total"], map[string]string{
		"from_kind": "string",
		"to_kind":   "integer",
		"outcome":   "ok",
	})
	if got := castMetric.GetCounter().GetValue(); got != 1 {
		t.Fatalf("expected cast counter 1, got %v", got)
	}
}

func TestRecorderObserveExec(t *testing.T) {
	rec := NewRecorder(nil)
	rec.ObserveExec("ok", 250*time.Millisecond)

	families := gather(t, rec, "tmplengine_exec_total", "tmplengine_exec_duration_seconds")

	counter := findMetric(t, families["tmplengine_exec_total"], map[string]string{"outcome": "ok"})
	if got := counter.GetCounter().GetValue(); got != 1 {
		t.Fatalf("expected exec counter value 1, got %v", got)
	}

	hist := findMetric(t, families["tmplengine_exec_duration_seconds"], map[string]string{"outcome": "ok"}).GetHistogram()
	if hist.GetSampleCount() != 1 {
		t.Fatalf("expected histogram count 1, got %d", hist.GetSampleCount())
	}
	want := 0.25
	if diff := math.Abs(hist.GetSampleSum() - want); diff > 0.001 {
		t.Fatalf("expected histogram sum near %v, got %v", want, hist.GetSampleSum())
	}
}

func TestRecorderObserveCursorMatches(t *testing.T) {
	rec := NewRecorder(nil)
	rec.ObserveCursorMatches("request", 3)

	families := gather(t, rec, "tmplengine_cursor_matches")
	hist := findMetric(t, families["tmplengine_cursor_matches"], map[string]string{"list": "request"}).GetHistogram()
	if hist.GetSampleCount() != 1 {
		t.Fatalf("expected histogram count 1, got %d", hist.GetSampleCount())
	}
	if hist.GetSampleSum() != 3 {
		t.Fatalf("expected histogram sum 3, got %v", hist.GetSampleSum())
	}
}

func TestRecorderObserveHandleCacheOperations(t *testing.T) {
	rec := NewRecorder(nil)
	rec.ObserveHandleCacheGet("regex", HandleLookupHit, 1*time.Millisecond)
	rec.ObserveHandleCachePut("xlat", HandleStoreStored, 2*time.Millisecond)

	families := gather(t, rec, "tmplengine_handle_cache_operations_total", "tmplengine_handle_cache_operation_duration_seconds")

	getMetric := findMetric(t, families["tmplengine_handle_cache_operations_total"], map[string]string{
		"handle_type": "regex",
		"operation":   string(HandleOperationGet),
		"result":      string(HandleLookupHit),
	})
	if got := getMetric.GetCounter().GetValue(); got != 1 {
		t.Fatalf("expected get counter 1, got %v", got)
	}

	putMetric := findMetric(t, families["tmplengine_handle_cache_operations_total"], map[string]string{
		"handle_type": "xlat",
		"operation":   string(HandleOperationPut),
		"result":      string(HandleStoreStored),
	})
	if got := putMetric.GetCounter().GetValue(); got != 1 {
		t.Fatalf("expected put counter 1, got %v", got)
	}

	latencyMetric := findMetric(t, families["tmplengine_handle_cache_operation_duration_seconds"], map[string]string{
		"handle_type": "xlat",
		"operation":   string(HandleOperationPut),
		"result":      string(HandleStoreStored),
	})
	hist := latencyMetric.GetHistogram()
	if hist.GetSampleCount() != 1 {
		t.Fatalf("expected histogram count 1, got %d", hist.GetSampleCount())
	}
	want := 0.002
	if diff := math.Abs(hist.GetSampleSum() - want); diff > 0.0005 {
		t.Fatalf("expected histogram sum near %v, got %v", want, hist.GetSampleSum())
	}
}

func TestRecorderHandler(t *testing.T) {
	rec := NewRecorder(nil)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)

	rec.Handler().ServeHTTP(rr, req)

	if rr.Code != 200 {
		t.Fatalf("expected 200 response, got %d", rr.Code)
	}
	if rr.Body.Len() == 0 {
		t.Fatalf("expected response body")
	}
}

func gather(t *testing.T, rec *Recorder, names ...string) map[string][]*dto.Metric {
	t.Helper()
	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[name] = true
	}
	families, err := rec.Gatherer().Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	collected := make(map[string][]*dto.Metric, len(names))
	for _, mf := range families {
		if !wanted[mf.GetName()] {
			continue
		}
		collected[mf.GetName()] = append(collected[mf.GetName()], mf.GetMetric()...)
	}
	for _, name := range names {
		if len(collected[name]) == 0 {
			t.Fatalf("metric %q not collected", name)
		}
	}
	return collected
}

func findMetric(t *testing.T, metrics []*dto.Metric, labels map[string]string) *dto.Metric {
	t.Helper()
	for _, metric := range metrics {
		if matchLabels(metric, labels) {
			return metric
		}
	}
	t.Fatalf("metric with labels %v not found", labels)
	return nil
}

func matchLabels(metric *dto.Metric, labels map[string]string) bool {
	if len(metric.GetLabel()) < len(labels) {
		return false
	}
	for key, expected := range labels {
		found := false
		for _, label := range metric.GetLabel() {
			if label.GetName() == key && label.GetValue() == expected {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
