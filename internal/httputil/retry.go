// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil wraps outbound HTTP calls with the rate-limit
// handling the search backends and analysis agents share.
package httputil

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
)

const (
	defaultBaseDelay  = 10 * time.Second
	defaultMaxRetries = 5
)

// A RetryClient retries rate-limited requests with exponential backoff.
// Zero-value BaseDelay and MaxRetries fall back to 10s and 5, so
// &RetryClient{Client: c} is usable as-is.
type RetryClient struct {
	Client     *http.Client
	Log        *zap.Logger
	BaseDelay  time.Duration
	MaxRetries int
}

// Do executes the request, retrying on HTTP 429 with a delay that
// doubles per attempt. A Retry-After header extends the delay when the
// server asks for more. The 429 body is drained and closed before each
// retry; after exhausting retries the last 429 response is returned so
// the caller can inspect it. A context cancelled during a backoff wait
// returns ctx.Err().
func (c *RetryClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	maxRetries := c.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	log := c.Log
	if log == nil {
		log = zap.NewNop()
	}

	for attempt := 0; ; attempt++ {
		resp, err := c.Client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusTooManyRequests || attempt >= maxRetries {
			return resp, nil
		}

		delay := c.backoff(attempt)
		if ra := retryAfter(resp.Header); ra > delay {
			delay = ra
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		log.Warn("rate limited, backing off",
			zap.String("host", req.URL.Host),
			zap.Duration("delay", delay),
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
}

func (c *RetryClient) backoff(attempt int) time.Duration {
	base := c.BaseDelay
	if base <= 0 {
		base = defaultBaseDelay
	}
	return base << uint(attempt)
}

// retryAfter reads a Retry-After header given in seconds. The HTTP-date
// form is rare on rate limits and is ignored.
func retryAfter(h http.Header) time.Duration {
	secs, err := strconv.Atoi(h.Get("Retry-After"))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
