// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the retrying HTTP transport used by the
// catalog fetchers.
package httputil

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// DefaultBaseDelay is the first backoff step. It doubles on each attempt.
var DefaultBaseDelay = 500 * time.Millisecond

const defaultMaxRetries = 5

// Retrier executes requests and retries on HTTP 429 (Too Many Requests)
// and 503 (Service Unavailable) with exponential backoff. A Retry-After
// header given in seconds replaces the computed delay.
type Retrier struct {
	Client *http.Client

	// MaxRetries bounds the retries after the first attempt. Zero means 5.
	MaxRetries int

	// BaseDelay overrides DefaultBaseDelay when positive.
	BaseDelay time.Duration

	Log *zap.Logger
}

// Do sends req and returns the first response that is not retryable. After
// exhausting retries the last retryable response is returned so the caller
// can inspect it. If ctx is cancelled during a backoff wait Do returns
// ctx.Err().
func (r *Retrier) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	maxRetries := r.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	base := r.BaseDelay
	if base <= 0 {
		base = DefaultBaseDelay
	}
	log := r.Log
	if log == nil {
		log = zap.NewNop()
	}

	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}

		if !retryable(resp.StatusCode) || attempt >= maxRetries {
			return resp, nil
		}

		wait := base << attempt
		if ra, ok := retryAfter(resp.Header.Get("Retry-After")); ok {
			wait = ra
		}

		// Drain and close the body before retrying.
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		log.Info("catalog throttled, backing off",
			zap.String("url", req.URL.Redacted()),
			zap.Int("status", resp.StatusCode),
			zap.Duration("wait", wait),
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}

// retryAfter parses a delta-seconds Retry-After value. HTTP dates are not
// supported and fall back to the computed backoff.
func retryAfter(v string) (time.Duration, bool) {
	if v == "" {
		return 0, false
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}
