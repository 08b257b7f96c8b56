package upstream

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// AcquireSession fetches a fresh provider session, retrying transport
// failures up to the client's attempt cap with a fixed delay between tries.
//
// Only failures with no upstream response are retried. The first response of
// any kind, success or error, ends the loop: an upstream that answered has
// spoken, and its answer is relayed rather than second-guessed.
//
// The returned Result always has Attempts set to the number of fetches made.
func (c *Client) AcquireSession(ctx context.Context) Result {
	var res Result
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		res = c.FetchSession(ctx)
		res.Attempts = attempt + 1

		if !res.TransportFailed {
			break
		}
		if ctx.Err() != nil {
			log.Debug().Int("attempts", res.Attempts).Msg("session acquisition abandoned, caller gone")
			break
		}
		if attempt+1 < c.maxAttempts {
			log.Debug().Int("attempt", res.Attempts).Msg("session fetch failed, retrying")
			select {
			case <-time.After(c.retryDelay):
			case <-ctx.Done():
			}
		}
	}

	if !res.OK {
		if res.Error == "" {
			res.Error = sessionFallbackError
		}
		if res.TransportFailed && res.Attempts == c.maxAttempts {
			log.Error().Int("attempts", res.Attempts).Msg("session acquisition exhausted all attempts")
		}
	}
	return res
}
