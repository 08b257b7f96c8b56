// Package monitoring - metrics.go provides simple counters.
//
// DESIGN: Lightweight in-memory counters for operational metrics:
//   - requests/successes:  Total and successful request counts
//   - session counters:    Acquisition failures and transport retries
//   - completion failures: Completion calls that came back unsuccessful
//   - upstream errors:     Upstream responses with non-2xx status
//
// For production, export these to Prometheus or similar.
package monitoring

import (
	"fmt"
	"sync/atomic"
	"time"
)

// MetricsCollector collects operational metrics.
type MetricsCollector struct {
	startedAt time.Time

	// Request counters
	requests  atomic.Int64
	successes atomic.Int64

	// Session acquisition counters
	sessionFailures atomic.Int64
	sessionRetries  atomic.Int64

	// Completion counters
	completionFailures atomic.Int64

	// Upstream error responses (non-2xx with a body)
	upstreamErrors atomic.Int64
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		startedAt: time.Now(),
	}
}

// RecordRequest records a request.
func (mc *MetricsCollector) RecordRequest(success bool, _ time.Duration) {
	mc.requests.Add(1)
	if success {
		mc.successes.Add(1)
	}
}

// RecordSessionOutcome records a session acquisition attempt count and result.
// Retries are the attempts beyond the first.
func (mc *MetricsCollector) RecordSessionOutcome(ok bool, attempts int) {
	if !ok {
		mc.sessionFailures.Add(1)
	}
	if attempts > 1 {
		mc.sessionRetries.Add(int64(attempts - 1))
	}
}

// RecordCompletionFailure records an unsuccessful completion result.
func (mc *MetricsCollector) RecordCompletionFailure() { mc.completionFailures.Add(1) }

// RecordUpstreamError records an upstream non-2xx response.
func (mc *MetricsCollector) RecordUpstreamError() { mc.upstreamErrors.Add(1) }

// StartedAt returns when the metrics collector was created.
func (mc *MetricsCollector) StartedAt() time.Time { return mc.startedAt }

// FullStats returns all metrics in a structured format for the /stats endpoint.
func (mc *MetricsCollector) FullStats() StatsResponse {
	uptime := time.Since(mc.startedAt)
	requests := mc.requests.Load()
	successes := mc.successes.Load()

	return StatsResponse{
		Uptime:        formatDuration(uptime),
		UptimeSeconds: int64(uptime.Seconds()),
		StartedAt:     mc.startedAt.Format(time.RFC3339),
		Requests: RequestStats{
			Total:      requests,
			Successful: successes,
			Failed:     requests - successes,
		},
		Sessions: SessionStats{
			Failures: mc.sessionFailures.Load(),
			Retries:  mc.sessionRetries.Load(),
		},
		Completions: CompletionStats{
			Failures: mc.completionFailures.Load(),
		},
		Upstream: UpstreamStats{
			ErrorResponses: mc.upstreamErrors.Load(),
		},
	}
}

// StatsResponse is the structured response for the /stats endpoint.
type StatsResponse struct {
	Uptime        string          `json:"uptime"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	StartedAt     string          `json:"started_at"`
	Requests      RequestStats    `json:"requests"`
	Sessions      SessionStats    `json:"sessions"`
	Completions   CompletionStats `json:"completions"`
	Upstream      UpstreamStats   `json:"upstream"`
}

// RequestStats holds request count metrics.
type RequestStats struct {
	Total      int64 `json:"total"`
	Successful int64 `json:"successful"`
	Failed     int64 `json:"failed"`
}

// SessionStats holds session acquisition metrics.
type SessionStats struct {
	Failures int64 `json:"failures"`
	Retries  int64 `json:"retries"`
}

// CompletionStats holds completion call metrics.
type CompletionStats struct {
	Failures int64 `json:"failures"`
}

// UpstreamStats holds upstream response metrics.
type UpstreamStats struct {
	ErrorResponses int64 `json:"error_responses"`
}

// formatDuration formats a duration as a human-readable string.
func formatDuration(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
