// Package gateway is the HTTP front end for the session-brokered completion
// flow: acquire a provider session, forward the caller's conversation, relay
// whatever comes back.
//
// FILES:
//   - gateway.go: this file. Gateway construction, routing, server lifecycle.
//   - handler.go: completion request handling and the response envelope.
//   - stats.go: GET /stats operational metrics (localhost only).
//   - init_event.go: startup telemetry snapshot.
package gateway

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sessiongate/session-gateway/internal/config"
	"github.com/sessiongate/session-gateway/internal/monitoring"
	"github.com/sessiongate/session-gateway/internal/upstream"
)

// HeaderRequestID lets callers correlate gateway logs and telemetry with
// their own request IDs. Absent, the gateway mints a UUID per request.
const HeaderRequestID = "X-Request-Id"

// Gateway wires the upstream client, metrics, and telemetry behind the
// inbound HTTP surface.
type Gateway struct {
	config    *config.Config
	client    *upstream.Client
	metrics   *monitoring.MetricsCollector
	tracker   *monitoring.Tracker
	estimator *monitoring.TokenEstimator
	server    *http.Server
}

// New builds a Gateway from resolved configuration. The upstream client is
// constructed here and owned by the Gateway; tests that need a different
// client exercise the upstream package directly or point the configured base
// URLs at mock servers.
func New(cfg *config.Config) *Gateway {
	signer := upstream.NewSigner(cfg.Upstream.AWSSigning)
	client := upstream.NewClient(cfg.Upstream, upstream.WithSigner(signer))

	tracker, err := monitoring.NewTracker(monitoring.TelemetryConfig{
		Enabled:     cfg.Monitoring.TelemetryEnabled,
		LogPath:     cfg.Monitoring.TelemetryPath,
		LogToStdout: cfg.Monitoring.LogToStdout,
	})
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.Monitoring.TelemetryPath).
			Msg("telemetry log unavailable, continuing without file telemetry")
		tracker, _ = monitoring.NewTracker(monitoring.TelemetryConfig{})
	}

	g := &Gateway{
		config:    cfg,
		client:    client,
		metrics:   monitoring.NewMetricsCollector(),
		tracker:   tracker,
		estimator: monitoring.NewTokenEstimator(),
	}
	g.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      g.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	g.tracker.RecordInit(buildInitEvent(cfg))
	return g
}

// Handler returns the gateway's full route table. Exposed so tests can drive
// the gateway through httptest without binding a port.
func (g *Gateway) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", g.handleRoot)
	mux.HandleFunc("/v1/chat/completions", g.handleChatCompletions)
	mux.HandleFunc("/health", g.handleHealth)
	mux.HandleFunc("/stats", g.handleStats)
	return withCORS(mux)
}

// Start serves until the server stops. It blocks; run it in a goroutine when
// the caller needs to keep going. Returns http.ErrServerClosed after a clean
// Shutdown.
func (g *Gateway) Start() error {
	log.Info().
		Int("port", g.config.Server.Port).
		Str("variant", g.config.Upstream.Variant).
		Str("session_endpoint", g.config.Upstream.SessionURL()).
		Str("completion_endpoint", g.config.Upstream.CompletionURL()).
		Msg("gateway listening")
	return g.server.ListenAndServe()
}

// Shutdown drains in-flight requests and closes the telemetry tracker.
func (g *Gateway) Shutdown(ctx context.Context) error {
	err := g.server.Shutdown(ctx)
	if cerr := g.tracker.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// withCORS sets permissive CORS headers on every response. There is no
// OPTIONS route: preflights fall through to the catch-all like any other
// unregistered method, headers included.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+HeaderRequestID)
		next.ServeHTTP(w, r)
	})
}

// getRequestID gets or generates a request ID.
func (g *Gateway) getRequestID(r *http.Request) string {
	if id := r.Header.Get(HeaderRequestID); id != "" {
		return id
	}
	return uuid.New().String()
}

// clientIP extracts the peer address without the port.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// isLoopback reports whether remoteAddr is a loopback peer.
func isLoopback(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
