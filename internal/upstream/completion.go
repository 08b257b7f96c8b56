package upstream

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/sjson"

	"github.com/sessiongate/session-gateway/internal/config"
)

// RequestCompletion composes the completion request for the configured
// deployment variant and performs it once. Completion calls are never
// retried; a session is single-use, so a failed completion means the whole
// exchange failed.
//
// session is the raw bundle returned by AcquireSession. conversation is the
// caller's request body, passed through opaquely. An empty session is a
// precondition failure and short-circuits to a local 500 without touching
// the network.
func (c *Client) RequestCompletion(ctx context.Context, session, conversation json.RawMessage) Result {
	if len(session) == 0 {
		log.Error().Msg("completion requested without a session")
		return genericFailure()
	}

	body, err := c.composeBody(session, conversation)
	if err != nil {
		log.Error().Err(err).Str("variant", c.variant).Msg("composing completion request body")
		return genericFailure()
	}

	res := c.FetchCompletion(ctx, body)
	if !res.OK && res.Error == "" {
		res.Error = completionFallbackError
	}
	return res
}

// composeBody builds the completion request payload.
//
// The conversation variant wraps both pieces into a two-field object. The
// chat variant sends the session bundle alone; the provider already folded
// the conversation into it when the session was minted.
func (c *Client) composeBody(session, conversation json.RawMessage) ([]byte, error) {
	if c.variant == config.VariantChat {
		return session, nil
	}

	body, err := sjson.SetRawBytes([]byte(`{}`), "session", session)
	if err != nil {
		return nil, fmt.Errorf("splicing session: %w", err)
	}
	if len(conversation) > 0 {
		body, err = sjson.SetRawBytes(body, "conversation", conversation)
		if err != nil {
			return nil, fmt.Errorf("splicing conversation: %w", err)
		}
	}
	return body, nil
}
