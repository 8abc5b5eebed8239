package metrics

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestMetricsCounters(t *testing.T) {
	s := GetSnapshot()

	IncTick()
	IncTickFailed()
	IncTickPanic()
	IncReportSent()
	IncReportFailed()
	SetLastRun(time.Unix(123456789, 0))

	s2 := GetSnapshot()
	if s2.Ticks != s.Ticks+1 {
		t.Fatalf("expected ticks to increment by 1, got %d", s2.Ticks)
	}
	if s2.TickFailures != s.TickFailures+1 {
		t.Fatalf("expected tick_failures to increment by 1, got %d", s2.TickFailures)
	}
	if s2.TickPanics != s.TickPanics+1 {
		t.Fatalf("expected tick_panics to increment by 1, got %d", s2.TickPanics)
	}
	if s2.ReportsSent != s.ReportsSent+1 {
		t.Fatalf("expected reports_sent to increment by 1, got %d", s2.ReportsSent)
	}
	if s2.ReportsFailed != s.ReportsFailed+1 {
		t.Fatalf("expected reports_failed to increment by 1, got %d", s2.ReportsFailed)
	}
	if s2.LastRun != 123456789 {
		t.Fatalf("expected last run timestamp 123456789, got %d", s2.LastRun)
	}
	if s2.LastRunHuman == "" {
		t.Fatal("expected non-empty LastRunHuman")
	}
}

func TestObserveTickDuration(t *testing.T) {
	// Just verify the function doesn't panic
	ObserveTickDuration(0.2)
	ObserveTickDuration(12)
}

func TestPromHandler(t *testing.T) {
	IncTick()
	rec := httptest.NewRecorder()
	PromHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "statusagent_ticks_total") {
		t.Fatalf("expected ticks counter in exposition, got %q", rec.Body.String())
	}
}

func TestJSONHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	JSONHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
	var snap StatsSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
}
