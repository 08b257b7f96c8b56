// Session acquisition tests - the bounded retry protocol.
package unit

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sessiongate/session-gateway/internal/config"
)

func TestAcquireSession_SucceedsFirstAttempt(t *testing.T) {
	ct := &countingTransport{respond: func(req *http.Request, call int) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"id":"sess-1"}`), nil
	}}
	c := newTestClient(ct)

	res := c.AcquireSession(context.Background())
	require.True(t, res.OK)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, 1, ct.count())
}

// TestAcquireSession_RetriesTransportFailuresUntilSuccess fails five times at
// the transport level, then answers. Every failed attempt must be followed by
// another fetch; the success result must carry the total attempt count.
func TestAcquireSession_RetriesTransportFailuresUntilSuccess(t *testing.T) {
	ct := &countingTransport{respond: func(req *http.Request, call int) (*http.Response, error) {
		if call <= 5 {
			return nil, errors.New("dial tcp: connection refused")
		}
		return jsonResponse(http.StatusOK, `{"id":"sess-after-retries"}`), nil
	}}
	c := newTestClient(ct)

	res := c.AcquireSession(context.Background())
	require.True(t, res.OK)
	assert.Equal(t, 6, res.Attempts)
	assert.Equal(t, 6, ct.count())
	assert.JSONEq(t, `{"id":"sess-after-retries"}`, string(res.Data))
}

// TestAcquireSession_ExhaustsAttemptCapExactly is the hard bound: with the
// transport permanently down, the acquirer makes exactly the capped number of
// fetches and then gives up with a 500.
func TestAcquireSession_ExhaustsAttemptCapExactly(t *testing.T) {
	ct := &countingTransport{respond: func(req *http.Request, call int) (*http.Response, error) {
		return nil, errors.New("dial tcp: no route to host")
	}}
	c := newTestClient(ct)

	res := c.AcquireSession(context.Background())
	assert.False(t, res.OK)
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	assert.Equal(t, "Internal server error", res.Error)
	assert.Equal(t, config.MaxSessionAttempts, res.Attempts)
	assert.Equal(t, config.MaxSessionAttempts, ct.count())
}

// TestAcquireSession_AnsweredErrorReturnsImmediately pins the retry
// asymmetry: a non-2xx response is a final answer, not a retryable failure.
func TestAcquireSession_AnsweredErrorReturnsImmediately(t *testing.T) {
	ct := &countingTransport{respond: func(req *http.Request, call int) (*http.Response, error) {
		return jsonResponse(http.StatusTooManyRequests, `{"message":"session quota exhausted"}`), nil
	}}
	c := newTestClient(ct)

	res := c.AcquireSession(context.Background())
	assert.False(t, res.OK)
	assert.Equal(t, http.StatusTooManyRequests, res.StatusCode)
	assert.Equal(t, "session quota exhausted", res.Error)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, 1, ct.count(), "answered errors must not be retried")
}

// TestAcquireSession_AnsweredErrorWithoutMessageGetsFallback covers upstream
// error bodies that carry no message field.
func TestAcquireSession_AnsweredErrorWithoutMessageGetsFallback(t *testing.T) {
	ct := &countingTransport{respond: func(req *http.Request, call int) (*http.Response, error) {
		return jsonResponse(http.StatusBadGateway, `<html>bad gateway</html>`), nil
	}}
	c := newTestClient(ct)

	res := c.AcquireSession(context.Background())
	assert.False(t, res.OK)
	assert.Equal(t, http.StatusBadGateway, res.StatusCode)
	assert.Equal(t, "Error while getting session from the server", res.Error)
	assert.Equal(t, 1, ct.count())
}

// TestAcquireSession_WaitsBetweenAttempts checks that the fixed delay is
// actually spent between consecutive failures. Only a lower bound is
// asserted; wall-clock upper bounds flake under load.
func TestAcquireSession_WaitsBetweenAttempts(t *testing.T) {
	const delay = 20 * time.Millisecond

	ct := &countingTransport{respond: func(req *http.Request, call int) (*http.Response, error) {
		if call <= 3 {
			return nil, errors.New("connection refused")
		}
		return jsonResponse(http.StatusOK, `{"id":"sess-slow"}`), nil
	}}
	c := newTestClient(ct, func(cfg *config.UpstreamConfig) {
		cfg.Retry.Delay = delay
	})

	start := time.Now()
	res := c.AcquireSession(context.Background())
	elapsed := time.Since(start)

	require.True(t, res.OK)
	assert.Equal(t, 4, res.Attempts)
	assert.GreaterOrEqual(t, elapsed, 3*delay, "three failed attempts must spend three delays")
}

// TestAcquireSession_ContextCancelPreemptsRetries verifies that a dead caller
// stops the loop instead of burning the remaining attempts.
func TestAcquireSession_ContextCancelPreemptsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	ct := &countingTransport{respond: func(req *http.Request, call int) (*http.Response, error) {
		if call == 2 {
			cancel()
		}
		return nil, errors.New("connection refused")
	}}
	c := newTestClient(ct)

	res := c.AcquireSession(ctx)
	assert.False(t, res.OK)
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	assert.Equal(t, 2, res.Attempts, "loop must stop at the first failure after cancellation")
	assert.Equal(t, 2, ct.count())
}
