// Package config - defaults.go centralizes magic numbers and default values.
//
// DESIGN: All default values that appear in multiple places should be defined here.
// This makes configuration more maintainable and auditable.
package config

import "time"

// =============================================================================
// SESSION RETRY
// =============================================================================

// MaxSessionAttempts is the hard cap on session-fetch attempts per request.
// Only transport-level failures are retried; an upstream HTTP error response
// ends the loop immediately.
const MaxSessionAttempts = 100

// DefaultSessionRetryDelay is the fixed wait between session-fetch attempts.
// Deliberately short: the upstream session endpoint either answers quickly or
// the request is best surfaced as a failure.
const DefaultSessionRetryDelay = 1 * time.Millisecond

// =============================================================================
// TOKEN ESTIMATION
// =============================================================================

// TokenEstimateRatio is the approximate number of characters per token.
// Used for rough token counting when the encoder isn't available.
const TokenEstimateRatio = 4

// =============================================================================
// HTTP AND NETWORKING
// =============================================================================

// DefaultPort is the gateway listen port.
const DefaultPort = 8787

// DefaultUpstreamTimeout bounds each outbound call. Completion requests can
// be slow, so this is generous.
const DefaultUpstreamTimeout = 5 * time.Minute

// MaxRequestBodySize is the maximum allowed request body (50MB).
const MaxRequestBodySize = 50 * 1024 * 1024

// MaxErrorBodyLogLen limits error response body in logs to prevent bloat.
const MaxErrorBodyLogLen = 500

// DefaultServerReadTimeout for the HTTP server.
const DefaultServerReadTimeout = 5 * time.Minute

// DefaultServerWriteTimeout for the HTTP server (safe for slow completions).
const DefaultServerWriteTimeout = 10 * time.Minute

// DefaultShutdownTimeout is how long Shutdown waits for in-flight requests.
const DefaultShutdownTimeout = 10 * time.Second

// =============================================================================
// UPSTREAM PATHS
// =============================================================================

// SessionPath is the upstream path that mints a fresh session bundle.
const SessionPath = "/v1/new-openai-session"

// ConversationPath is the completion path for the conversation variant.
const ConversationPath = "/v1/generate-conversation"

// ChatCompletionPath is the completion path for the chat variant.
const ChatCompletionPath = "/v1/chat-completion"
