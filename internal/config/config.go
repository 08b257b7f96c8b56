// Package config loads and validates gateway configuration.
//
// DESIGN: Configuration is resolved in three layers:
//  1. YAML file (optional), with ${VAR} / ${VAR:-default} references expanded
//     against the environment before parsing.
//  2. Environment fallbacks (PORT, SESSION_HOST, COMPLETION_HOST,
//     GATEWAY_VARIANT, TELEMETRY_LOG) for values the file leaves unset.
//  3. Hard defaults from defaults.go.
//
// Duration fields are written as Go duration strings in YAML ("30s", "5m")
// and parsed into time.Duration after unmarshaling.
package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Deployment variants. The variant selects the completion path and the shape
// of the composed request body.
const (
	VariantConversation = "conversation"
	VariantChat         = "chat"
)

// Config is the root gateway configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Upstream   UpstreamConfig   `yaml:"upstream"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
}

// ServerConfig configures the inbound HTTP server.
type ServerConfig struct {
	Port            int    `yaml:"port"`
	ReadTimeoutRaw  string `yaml:"read_timeout"`
	WriteTimeoutRaw string `yaml:"write_timeout"`

	ReadTimeout  time.Duration `yaml:"-"`
	WriteTimeout time.Duration `yaml:"-"`
}

// UpstreamConfig configures the two outbound endpoints.
type UpstreamConfig struct {
	SessionBaseURL    string `yaml:"session_base_url"`
	CompletionBaseURL string `yaml:"completion_base_url"`
	Variant           string `yaml:"variant"`
	TimeoutRaw        string `yaml:"timeout"`

	Timeout time.Duration `yaml:"-"`

	Retry      RetryConfig      `yaml:"retry"`
	AWSSigning AWSSigningConfig `yaml:"aws_signing"`
}

// RetryConfig bounds the session-acquisition loop.
type RetryConfig struct {
	MaxAttempts int    `yaml:"max_attempts"`
	DelayRaw    string `yaml:"delay"`

	Delay time.Duration `yaml:"-"`
}

// AWSSigningConfig enables SigV4 signing of outbound completion requests for
// deployments where the completion host sits behind an IAM-authenticated
// endpoint.
type AWSSigningConfig struct {
	Enabled bool   `yaml:"enabled"`
	Service string `yaml:"service"`
	Region  string `yaml:"region"`
}

// MonitoringConfig configures logging and telemetry output.
type MonitoringConfig struct {
	LogLevel         string `yaml:"log_level"`
	LogFormat        string `yaml:"log_format"`
	LogOutput        string `yaml:"log_output"`
	LogToStdout      bool   `yaml:"log_to_stdout"`
	TelemetryEnabled bool   `yaml:"telemetry_enabled"`
	TelemetryPath    string `yaml:"telemetry_path"`
}

// SessionURL returns the full session endpoint URL.
func (u UpstreamConfig) SessionURL() string {
	return strings.TrimSuffix(u.SessionBaseURL, "/") + SessionPath
}

// CompletionURL returns the full completion endpoint URL for the variant.
func (u UpstreamConfig) CompletionURL() string {
	return strings.TrimSuffix(u.CompletionBaseURL, "/") + u.CompletionPath()
}

// CompletionPath returns the completion endpoint path for the variant.
func (u UpstreamConfig) CompletionPath() string {
	if u.Variant == VariantChat {
		return ChatCompletionPath
	}
	return ConversationPath
}

// Load reads a YAML config file and resolves the full configuration.
// An empty path yields a config built from environment and defaults alone.
func Load(path string) (*Config, error) {
	if path == "" {
		return LoadFromBytes(nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes parses YAML config bytes and resolves the full configuration.
func LoadFromBytes(data []byte) (*Config, error) {
	var cfg Config
	if len(data) > 0 {
		expanded := ExpandEnvWithDefaults(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	if err := cfg.parseDurations(); err != nil {
		return nil, err
	}
	if err := cfg.applyFallbacks(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var envRefPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)

// ExpandEnvWithDefaults replaces ${VAR} and ${VAR:-default} references with
// environment values. An unset variable without a default expands to the
// empty string.
func ExpandEnvWithDefaults(s string) string {
	return envRefPattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := envRefPattern.FindStringSubmatch(match)
		name, def := groups[1], groups[3]
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		return def
	})
}

// parseDurations converts the raw duration strings into time.Duration values.
func (c *Config) parseDurations() error {
	for _, f := range []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"server.read_timeout", c.Server.ReadTimeoutRaw, &c.Server.ReadTimeout},
		{"server.write_timeout", c.Server.WriteTimeoutRaw, &c.Server.WriteTimeout},
		{"upstream.timeout", c.Upstream.TimeoutRaw, &c.Upstream.Timeout},
		{"upstream.retry.delay", c.Upstream.Retry.DelayRaw, &c.Upstream.Retry.Delay},
	} {
		if f.raw == "" {
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("parsing %s %q: %w", f.name, f.raw, err)
		}
		*f.dst = d
	}
	return nil
}

// applyFallbacks fills unset fields from the environment, then defaults.
func (c *Config) applyFallbacks() error {
	if c.Server.Port == 0 {
		if v := os.Getenv("PORT"); v != "" {
			port, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("parsing PORT %q: %w", v, err)
			}
			c.Server.Port = port
		} else {
			c.Server.Port = DefaultPort
		}
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = DefaultServerReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = DefaultServerWriteTimeout
	}

	if c.Upstream.SessionBaseURL == "" {
		c.Upstream.SessionBaseURL = os.Getenv("SESSION_HOST")
	}
	if c.Upstream.CompletionBaseURL == "" {
		c.Upstream.CompletionBaseURL = os.Getenv("COMPLETION_HOST")
	}
	if c.Upstream.Variant == "" {
		c.Upstream.Variant = os.Getenv("GATEWAY_VARIANT")
	}
	if c.Upstream.Variant == "" {
		c.Upstream.Variant = VariantConversation
	}
	if c.Upstream.Timeout == 0 {
		c.Upstream.Timeout = DefaultUpstreamTimeout
	}
	if c.Upstream.Retry.MaxAttempts == 0 {
		c.Upstream.Retry.MaxAttempts = MaxSessionAttempts
	}
	if c.Upstream.Retry.Delay == 0 {
		c.Upstream.Retry.Delay = DefaultSessionRetryDelay
	}

	if c.Monitoring.TelemetryPath == "" {
		c.Monitoring.TelemetryPath = os.Getenv("TELEMETRY_LOG")
	}
	if c.Monitoring.LogLevel == "" {
		c.Monitoring.LogLevel = "info"
	}
	return nil
}

// Validate checks that the resolved configuration is usable.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Upstream.Variant != VariantConversation && c.Upstream.Variant != VariantChat {
		return fmt.Errorf("upstream.variant must be %q or %q, got %q",
			VariantConversation, VariantChat, c.Upstream.Variant)
	}
	for _, ep := range []struct {
		name string
		raw  string
	}{
		{"upstream.session_base_url", c.Upstream.SessionBaseURL},
		{"upstream.completion_base_url", c.Upstream.CompletionBaseURL},
	} {
		if ep.raw == "" {
			return fmt.Errorf("%s is required (set it in the config file or environment)", ep.name)
		}
		u, err := url.Parse(ep.raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s %q is not a valid base URL", ep.name, ep.raw)
		}
	}
	if c.Upstream.Retry.MaxAttempts < 1 {
		return fmt.Errorf("upstream.retry.max_attempts must be positive")
	}
	if c.Upstream.Retry.Delay < 0 {
		return fmt.Errorf("upstream.retry.delay must not be negative")
	}
	if c.Upstream.AWSSigning.Enabled && c.Upstream.AWSSigning.Region == "" {
		return fmt.Errorf("upstream.aws_signing.region is required when signing is enabled")
	}
	return nil
}
