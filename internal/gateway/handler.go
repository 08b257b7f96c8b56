// HTTP request handling for the completion flow.
//
// DESIGN: Main request flow:
//   - handleChatCompletions(): read the conversation, acquire a session,
//     request the completion, relay the result
//   - relayResult():   write the uniform envelope with the result's status
//   - handleRoot():    welcome text on GET /
//   - handleNotFound(): catch-all 404 for everything unrouted
//
// Also includes the health endpoint and telemetry recording.
package gateway

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sessiongate/session-gateway/internal/config"
	"github.com/sessiongate/session-gateway/internal/monitoring"
	"github.com/sessiongate/session-gateway/internal/upstream"
	"github.com/sessiongate/session-gateway/internal/utils"
)

const welcomeText = "SessionGate is up. POST /v1/chat/completions with a JSON conversation body to get completions.\n"

// handleChatCompletions runs the full exchange: acquire a session from the
// session endpoint, compose and send the completion request, relay whatever
// the upstream said. The caller's body is treated as an opaque blob from the
// first byte to the last; the gateway never parses conversation contents.
func (g *Gateway) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		g.handleNotFound(w, r)
		return
	}

	startTime := time.Now()
	requestID := g.getRequestID(r)

	r.Body = http.MaxBytesReader(w, r.Body, config.MaxRequestBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Warn().Err(err).Str("request_id", requestID).Msg("failed to read request body")
		g.writeInvalidRequest(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	log.Info().
		Str("request_id", requestID).
		Int("body_bytes", len(body)).
		Str("client_ip", clientIP(r)).
		Msg("completion request received")

	event := &monitoring.RequestEvent{
		RequestID:          requestID,
		Timestamp:          startTime,
		Method:             r.Method,
		Path:               r.URL.Path,
		ClientIP:           clientIP(r),
		Variant:            g.config.Upstream.Variant,
		RequestBodySize:    len(body),
		ConversationTokens: g.estimator.Estimate(body),
	}

	sessionStart := time.Now()
	session := g.client.AcquireSession(r.Context())
	event.SessionLatencyMs = time.Since(sessionStart).Milliseconds()
	event.SessionAttempts = session.Attempts
	event.SessionStatusCode = session.StatusCode
	g.metrics.RecordSessionOutcome(session.OK, session.Attempts)

	if !session.OK {
		if session.Answered {
			g.metrics.RecordUpstreamError()
		}
		log.Warn().
			Str("request_id", requestID).
			Int("status", session.StatusCode).
			Int("attempts", session.Attempts).
			Str("error", session.Error).
			Msg("session acquisition failed")
		g.finishRequest(w, event, startTime, session)
		return
	}

	completionStart := time.Now()
	completion := g.client.RequestCompletion(r.Context(), session.Data, body)
	event.CompletionLatencyMs = time.Since(completionStart).Milliseconds()
	event.CompletionStatusCode = completion.StatusCode

	if !completion.OK {
		g.metrics.RecordCompletionFailure()
		if completion.Answered {
			g.metrics.RecordUpstreamError()
		}
		log.Warn().
			Str("request_id", requestID).
			Int("status", completion.StatusCode).
			Str("error", completion.Error).
			Msg("completion request failed")
	}
	g.finishRequest(w, event, startTime, completion)
}

// finishRequest relays the terminal result to the caller and records the
// request in metrics and telemetry.
func (g *Gateway) finishRequest(w http.ResponseWriter, event *monitoring.RequestEvent, startTime time.Time, res upstream.Result) {
	event.ResponseBodySize = g.relayResult(w, res)
	event.StatusCode = res.StatusCode
	event.Success = res.OK
	event.Error = res.Error
	event.TotalLatencyMs = time.Since(startTime).Milliseconds()

	g.metrics.RecordRequest(res.OK, time.Since(startTime))
	g.tracker.RecordRequest(event)
}

// relayResult writes the uniform envelope using the result's own status code.
// Encoding avoids HTML escaping so relayed upstream bytes arrive untouched.
// Returns the number of body bytes written.
func (g *Gateway) relayResult(w http.ResponseWriter, res upstream.Result) int {
	payload, err := utils.MarshalNoEscape(res)
	if err != nil {
		log.Error().Err(err).Msg("encoding response envelope")
		res.StatusCode = http.StatusInternalServerError
		payload = []byte(`{"statusCode":500,"status":false,"error":"Internal server error"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(res.StatusCode)
	n, _ := w.Write(payload)
	return n
}

// handleRoot serves the welcome text on exactly GET /. The "/" pattern also
// receives every path no other route claimed, so anything else lands in the
// catch-all.
func (g *Gateway) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" || r.Method != http.MethodGet {
		g.handleNotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(welcomeText))
}

// handleNotFound answers every unrouted method and path. The envelope mirrors
// the provider's own invalid-request errors so SDK clients can parse it.
func (g *Gateway) handleNotFound(w http.ResponseWriter, r *http.Request) {
	log.Debug().Str("method", r.Method).Str("path", r.URL.Path).Msg("unknown route")
	g.writeInvalidRequest(w, fmt.Sprintf("Invalid URL (%s %s)", r.Method, r.URL.Path), http.StatusNotFound)
}

// writeInvalidRequest writes a request-level JSON error.
func (g *Gateway) writeInvalidRequest(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": false,
		"error":  map[string]string{"message": msg, "type": "invalid_request_error"},
	})
}

// handleHealth returns gateway health status.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		g.handleNotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"time":    time.Now().Format(time.RFC3339),
		"variant": g.config.Upstream.Variant,
	})
}
