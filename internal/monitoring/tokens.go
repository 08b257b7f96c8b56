// Package monitoring - tokens.go estimates conversation token counts.
//
// DESIGN: The gateway never parses conversation payloads, but telemetry wants
// an approximate token count per request. The estimator uses the cl100k_base
// encoder when it can be loaded and a character-ratio heuristic otherwise.
// Loading happens in the background so the first request never blocks on it.
package monitoring

import (
	"sync/atomic"

	"github.com/pkoukk/tiktoken-go"
	"github.com/rs/zerolog/log"

	"github.com/sessiongate/session-gateway/internal/config"
)

const encodingName = "cl100k_base"

// TokenEstimator estimates token counts for opaque JSON payloads.
// The zero value is usable and always applies the heuristic.
type TokenEstimator struct {
	enc atomic.Pointer[tiktoken.Tiktoken]
}

// NewTokenEstimator creates an estimator and starts loading the encoder.
func NewTokenEstimator() *TokenEstimator {
	e := &TokenEstimator{}
	go func() {
		enc, err := tiktoken.GetEncoding(encodingName)
		if err != nil {
			log.Debug().Err(err).Msg("token estimator: encoder unavailable, using size heuristic")
			return
		}
		e.enc.Store(enc)
	}()
	return e
}

// Estimate returns an approximate token count for the payload.
func (e *TokenEstimator) Estimate(payload []byte) int {
	if len(payload) == 0 {
		return 0
	}
	if enc := e.enc.Load(); enc != nil {
		return len(enc.Encode(string(payload), nil, nil))
	}
	return heuristicTokens(len(payload))
}

// heuristicTokens approximates tokens from byte length.
func heuristicTokens(n int) int {
	return (n + config.TokenEstimateRatio - 1) / config.TokenEstimateRatio
}
