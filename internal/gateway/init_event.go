package gateway

import (
	"time"

	"github.com/sessiongate/session-gateway/internal/config"
	"github.com/sessiongate/session-gateway/internal/monitoring"
)

func buildInitEvent(cfg *config.Config) *monitoring.InitEvent {
	return &monitoring.InitEvent{
		Timestamp:            time.Now(),
		Event:                "gateway_init",
		ServerPort:           cfg.Server.Port,
		ServerReadTimeoutMs:  cfg.Server.ReadTimeout.Milliseconds(),
		ServerWriteTimeoutMs: cfg.Server.WriteTimeout.Milliseconds(),
		Variant:              cfg.Upstream.Variant,
		SessionEndpoint:      cfg.Upstream.SessionURL(),
		CompletionEndpoint:   cfg.Upstream.CompletionURL(),
		RetryMaxAttempts:     cfg.Upstream.Retry.MaxAttempts,
		RetryDelayMs:         cfg.Upstream.Retry.Delay.Milliseconds(),
		SigningEnabled:       cfg.Upstream.AWSSigning.Enabled,
		TelemetryPath:        cfg.Monitoring.TelemetryPath,
	}
}
