// Package metrics provides counters, Prometheus collectors, and HTTP
// handlers for exporting agent runtime metrics.
package metrics

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 1. Internal State (Source of Truth)
var (
	ticks         int64
	tickFailures  int64
	tickPanics    int64
	reportsSent   int64
	reportsFailed int64
	lastRun       int64
)

const counterInc int64 = 1

// 2. Prometheus Collectors
var (
	promTicks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statusagent_ticks_total",
			Help: "Total poll ticks by outcome",
		},
		[]string{"status"},
	)
	promTickPanics = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "statusagent_tick_panics_total",
			Help: "Total ticks that panicked and were recovered",
		},
	)
	promReports = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statusagent_reports_total",
			Help: "Total delivery attempts to the remote endpoint",
		},
		[]string{"status"},
	)
	promTickDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name: "statusagent_tick_duration_seconds",
			Help: "Duration of one fetch and report cycle",
			Buckets: []float64{
				0.05,
				0.1,
				0.25,
				0.5,
				1,
				2,
				5,
				10,
				30,
			},
		},
	)
	promLastRun = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "statusagent_last_run_timestamp_seconds",
			Help: "Unix timestamp of last completed tick",
		},
	)
)

func init() {
	prometheus.MustRegister(
		promTicks,
		promTickPanics,
		promReports,
		promTickDuration,
		promLastRun,
	)
}

// 3. Public API (Updates both Atomic and Prometheus)

// IncTick increments the number of successful ticks.
func IncTick() {
	atomic.AddInt64(&ticks, counterInc)
	promTicks.WithLabelValues("success").Inc()
}

// IncTickFailed increments the counter for ticks that ended in an error.
func IncTickFailed() {
	atomic.AddInt64(&tickFailures, counterInc)
	promTicks.WithLabelValues("failure").Inc()
}

// IncTickPanic increments the counter for recovered tick panics.
func IncTickPanic() {
	atomic.AddInt64(&tickPanics, counterInc)
	promTickPanics.Inc()
}

// IncReportSent increments the counter for delivered reports.
func IncReportSent() {
	atomic.AddInt64(&reportsSent, counterInc)
	promReports.WithLabelValues("success").Inc()
}

// IncReportFailed increments the counter for failed deliveries.
func IncReportFailed() {
	atomic.AddInt64(&reportsFailed, counterInc)
	promReports.WithLabelValues("failure").Inc()
}

// ObserveTickDuration records the duration (in seconds) of one tick.
func ObserveTickDuration(seconds float64) {
	promTickDuration.Observe(seconds)
}

// SetLastRun stores the provided time as the last run timestamp and
// updates the corresponding Prometheus gauge.
func SetLastRun(t time.Time) {
	atomic.StoreInt64(&lastRun, t.Unix())
	promLastRun.Set(float64(t.Unix()))
}

// 4. JSON Snapshot Struct

// StatsSnapshot is a snapshot of metrics for JSON encoding.
type StatsSnapshot struct {
	Ticks         int64  `json:"ticks"`
	TickFailures  int64  `json:"tick_failures"`
	TickPanics    int64  `json:"tick_panics"`
	ReportsSent   int64  `json:"reports_sent"`
	ReportsFailed int64  `json:"reports_failed"`
	LastRun       int64  `json:"last_run_timestamp"`
	LastRunHuman  string `json:"last_run_human"`
}

// GetSnapshot returns a StatsSnapshot with the current values of all
// internal counters and timestamps.
func GetSnapshot() StatsSnapshot {
	ts := atomic.LoadInt64(&lastRun)
	return StatsSnapshot{
		Ticks:         atomic.LoadInt64(&ticks),
		TickFailures:  atomic.LoadInt64(&tickFailures),
		TickPanics:    atomic.LoadInt64(&tickPanics),
		ReportsSent:   atomic.LoadInt64(&reportsSent),
		ReportsFailed: atomic.LoadInt64(&reportsFailed),
		LastRun:       ts,
		LastRunHuman:  time.Unix(ts, 0).Format(time.RFC3339),
	}
}

// 5. Handlers

// PromHandler returns an HTTP handler that exposes Prometheus metrics.
func PromHandler() http.Handler { return promhttp.Handler() }

// JSONHandler returns an HTTP handler that serves the current metrics as
// a JSON-encoded StatsSnapshot.
func JSONHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(GetSnapshot())
	})
}
