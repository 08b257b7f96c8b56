// Package upstream provides the HTTP client for the session and completion
// providers the gateway fronts.
//
// FILES:
//   - client.go: this file. Client construction, the two raw fetch
//     operations, and response normalization into Result.
//   - types.go: the Result envelope and fallback error messages.
//   - session.go: bounded-retry session acquisition.
//   - completion.go: completion request composition and dispatch.
//   - signer.go: optional SigV4 signing for completion requests.
//
// DESIGN:
// Every operation returns a Result, never an error. Transport failures,
// upstream HTTP errors, and local precondition failures are all folded into
// the same envelope so the gateway handler can relay any of them without
// caring which kind it got.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"github.com/sessiongate/session-gateway/internal/config"
)

const userAgent = "sessiongate/1.0"

// Client talks to the session and completion providers. It is safe for
// concurrent use.
type Client struct {
	sessionURL    string
	completionURL string
	variant       string
	maxAttempts   int
	retryDelay    time.Duration
	httpClient    *http.Client
	signer        *Signer
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client, e.g. one with a mock transport.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout on the underlying HTTP client.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithSigner attaches a request signer for the completion endpoint.
func WithSigner(s *Signer) ClientOption {
	return func(c *Client) {
		c.signer = s
	}
}

// NewClient builds a Client from upstream configuration. Base URLs fall back
// to the SESSION_HOST and COMPLETION_HOST environment variables so the client
// stays usable from code paths that skip config loading.
func NewClient(cfg config.UpstreamConfig, opts ...ClientOption) *Client {
	if cfg.SessionBaseURL == "" {
		cfg.SessionBaseURL = os.Getenv("SESSION_HOST")
	}
	if cfg.CompletionBaseURL == "" {
		cfg.CompletionBaseURL = os.Getenv("COMPLETION_HOST")
	}
	if cfg.Variant == "" {
		cfg.Variant = config.VariantConversation
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultUpstreamTimeout
	}
	maxAttempts := cfg.Retry.MaxAttempts
	if maxAttempts <= 0 || maxAttempts > config.MaxSessionAttempts {
		maxAttempts = config.MaxSessionAttempts
	}
	delay := cfg.Retry.Delay
	if delay <= 0 {
		delay = config.DefaultSessionRetryDelay
	}

	c := &Client{
		sessionURL:    cfg.SessionURL(),
		completionURL: cfg.CompletionURL(),
		variant:       cfg.Variant,
		maxAttempts:   maxAttempts,
		retryDelay:    delay,
		httpClient:    &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// =============================================================================
// Raw fetch operations
// =============================================================================

// FetchSession performs a single GET against the session endpoint and
// normalizes whatever happened into a Result.
func (c *Client) FetchSession(ctx context.Context) Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.sessionURL, nil)
	if err != nil {
		log.Error().Err(err).Str("url", c.sessionURL).Msg("building session request")
		return transportFailure()
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("url", c.sessionURL).Msg("session request failed in transport")
		return transportFailure()
	}
	return c.normalize(resp, "session")
}

// FetchCompletion performs a single POST of body against the completion
// endpoint. A nil or empty body never reaches the network: the provider
// rejects bodyless completion calls, so the guard fails locally instead.
func (c *Client) FetchCompletion(ctx context.Context, body []byte) Result {
	if len(body) == 0 {
		log.Error().Msg("completion request attempted without a body")
		return genericFailure()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.completionURL, bytes.NewReader(body))
	if err != nil {
		log.Error().Err(err).Str("url", c.completionURL).Msg("building completion request")
		return transportFailure()
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	if c.signer != nil && c.signer.IsConfigured() {
		if err := c.signer.SignRequest(ctx, req, body); err != nil {
			log.Error().Err(err).Msg("failed to sign completion request")
			return transportFailure()
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("url", c.completionURL).Msg("completion request failed in transport")
		return transportFailure()
	}
	return c.normalize(resp, "completion")
}

// =============================================================================
// Response normalization
// =============================================================================

// normalize folds an upstream HTTP response into a Result. Success keeps the
// body as opaque data; error responses keep the upstream status code and pull
// a human-readable message out of the body when one is there.
func (c *Client) normalize(resp *http.Response, endpoint string) Result {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error().Err(err).Str("endpoint", endpoint).Msg("reading upstream response body")
		return transportFailure()
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		data := dataPayload(body)
		return Result{
			StatusCode: resp.StatusCode,
			OK:         data != nil,
			Data:       data,
			Answered:   true,
		}
	}

	log.Error().
		Int("status", resp.StatusCode).
		Str("endpoint", endpoint).
		Str("response", string(body[:min(config.MaxErrorBodyLogLen, len(body))])).
		Msg("upstream error response")

	return Result{
		StatusCode: resp.StatusCode,
		Error:      gjson.GetBytes(body, "message").String(),
		Answered:   true,
	}
}

// dataPayload turns a success body into the envelope's data field. Valid JSON
// passes through byte-for-byte; anything else is carried as a JSON string.
func dataPayload(body []byte) json.RawMessage {
	if len(body) == 0 {
		return nil
	}
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	quoted, err := json.Marshal(string(body))
	if err != nil {
		return nil
	}
	return quoted
}
