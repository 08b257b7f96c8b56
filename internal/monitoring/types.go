// Package monitoring - types.go defines shared types.
//
// DESIGN: These types are used by both gateway/ and monitoring/ packages.
// Defined here ONCE to avoid duplication and circular imports.
//
// TYPES:
//   - RequestEvent:    Telemetry data for each request
//   - InitEvent:       Startup snapshot of the effective configuration
//   - TelemetryConfig: Tracker configuration
package monitoring

import "time"

// =============================================================================
// EVENT TYPES - Structured data for telemetry recording
// =============================================================================

// RequestEvent captures a request through the gateway.
type RequestEvent struct {
	RequestID            string    `json:"request_id"`
	Timestamp            time.Time `json:"timestamp"`
	Method               string    `json:"method"`
	Path                 string    `json:"path"`
	ClientIP             string    `json:"client_ip"`
	Variant              string    `json:"variant"`
	RequestBodySize      int       `json:"request_body_size"`
	ResponseBodySize     int       `json:"response_body_size"`
	StatusCode           int       `json:"status_code"`
	SessionAttempts      int       `json:"session_attempts"`
	SessionStatusCode    int       `json:"session_status_code"`
	CompletionStatusCode int       `json:"completion_status_code,omitempty"`
	ConversationTokens   int       `json:"conversation_tokens,omitempty"`
	Success              bool      `json:"success"`
	Error                string    `json:"error,omitempty"`
	SessionLatencyMs     int64     `json:"session_latency_ms"`
	CompletionLatencyMs  int64     `json:"completion_latency_ms"`
	TotalLatencyMs       int64     `json:"total_latency_ms"`
}

// InitEvent captures gateway startup configuration.
type InitEvent struct {
	Timestamp            time.Time `json:"timestamp"`
	Event                string    `json:"event"`
	ServerPort           int       `json:"server_port"`
	ServerReadTimeoutMs  int64     `json:"server_read_timeout_ms"`
	ServerWriteTimeoutMs int64     `json:"server_write_timeout_ms"`
	Variant              string    `json:"variant"`
	SessionEndpoint      string    `json:"session_endpoint"`
	CompletionEndpoint   string    `json:"completion_endpoint"`
	RetryMaxAttempts     int       `json:"retry_max_attempts"`
	RetryDelayMs         int64     `json:"retry_delay_ms"`
	SigningEnabled       bool      `json:"signing_enabled"`
	TelemetryPath        string    `json:"telemetry_path,omitempty"`
}

// =============================================================================
// CONFIG TYPES
// =============================================================================

// TelemetryConfig configures the Tracker.
type TelemetryConfig struct {
	Enabled     bool
	LogPath     string
	LogToStdout bool
}
