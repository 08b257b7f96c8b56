// Package upstream types - the uniform result envelope.
package upstream

import (
	"encoding/json"
	"net/http"
)

// Fallback error messages used when a failure carries no message of its own.
const (
	internalServerError     = "Internal server error"
	sessionFallbackError    = "Error while getting session from the server"
	completionFallbackError = "Error while getting completions from the server"
)

// Result is the uniform shape every upstream call is normalized into, and the
// exact envelope relayed to the gateway's caller:
//
//	{ "statusCode": 502, "status": false, "error": "...", "data": {...} }
//
// OK is true iff Error is empty and Data is present. StatusCode is the HTTP
// status the gateway relays; transport failures default it to 500.
type Result struct {
	StatusCode int             `json:"statusCode"`
	OK         bool            `json:"status"`
	Error      string          `json:"error,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`

	// Attempts counts session fetches made to produce this result.
	// Bookkeeping for telemetry, never serialized.
	Attempts int `json:"-"`

	// TransportFailed marks a failure with no upstream response at all
	// (DNS error, connection reset, timeout). Only these are retryable.
	TransportFailed bool `json:"-"`

	// Answered marks results built from an actual upstream response, success
	// or error, as opposed to locally synthesized failures.
	Answered bool `json:"-"`
}

// genericFailure is the locally synthesized 500 result used for precondition
// failures that never reach the network.
func genericFailure() Result {
	return Result{
		StatusCode: http.StatusInternalServerError,
		Error:      internalServerError,
	}
}

// transportFailure is the normalized result for calls that produced no
// upstream response.
func transportFailure() Result {
	res := genericFailure()
	res.TransportFailed = true
	return res
}
