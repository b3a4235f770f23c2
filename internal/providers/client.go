// Package providers implements the shared outbound HTTP contract both
// provider adapters build on: per-provider rate-limited, retrying,
// backing-off request execution, pairing the rate limiter with an HTTP client
// responsibility. It intentionally does not reuse internal/pkg/httpretry's
// generic jittered-exponential schedule — the provider contract calls for
// a literal "attempt * 10s" (or "attempt * 2s" for Provider A) backoff on
// 429, which a generic schedule can't reproduce bit-exactly.
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ignite/outreach-sync/internal/domain"
	"github.com/ignite/outreach-sync/internal/pkg/logger"
	"github.com/ignite/outreach-sync/internal/ratelimit"
)

// ErrNotFound is returned by Request when the server answered 404 and the
// caller did not set Allow404.
var ErrNotFound = fmt.Errorf("providers: not found")

// RequestOpts mirrors the per-call `{retries, allow404, spacing_ms,
// auth_variant}` options bag, minus spacing_ms (derived from Key) and
// auth_variant (derived from Provider).
type RequestOpts struct {
	Retries  int
	Allow404 bool
}

// Client enforces the per-provider minimum spacing and retry/backoff
// policy in front of a plain *http.Client.
type Client struct {
	http    *http.Client
	limiter *ratelimit.Limiter
}

// New builds a Client around httpClient (nil selects a 30s-timeout default)
// and limiter.
func New(httpClient *http.Client, limiter *ratelimit.Limiter) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{http: httpClient, limiter: limiter}
}

// Request executes one call to a provider, waiting for a rate-limit slot,
// retrying transient failures, and decoding a JSON response body. A nil
// result with a nil error means the caller asked for Allow404 and the
// server returned 404.
func (c *Client) Request(ctx context.Context, provider domain.Provider, key ratelimit.Key, req *http.Request, opts RequestOpts) (json.RawMessage, error) {
	retries := opts.Retries
	if retries <= 0 {
		retries = 3
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if err := c.limiter.Wait(ctx, key); err != nil {
			return nil, fmt.Errorf("providers: wait for rate limit slot: %w", err)
		}

		cloned := req.Clone(ctx)
		resp, err := c.http.Do(cloned)
		if err != nil {
			lastErr = fmt.Errorf("providers: request %s %s: %w", req.Method, req.URL.Path, err)
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("providers: read response body: %w", readErr)
			continue
		}

		switch {
		case resp.StatusCode == http.StatusNotFound:
			if opts.Allow404 {
				return nil, nil
			}
			return nil, fmt.Errorf("%w: %s %s", ErrNotFound, req.Method, req.URL.Path)

		case resp.StatusCode == http.StatusTooManyRequests:
			delay := ratelimit.BackoffDelay(key, attempt+1)
			logger.Warn("providers.rate_limited", "provider", string(provider), "path", req.URL.Path, "delay_ms", delay.Milliseconds())
			lastErr = fmt.Errorf("providers: %s %s returned 429", req.Method, req.URL.Path)
			if !sleep(ctx, delay) {
				return nil, ctx.Err()
			}
			continue

		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("providers: %s %s returned %d", req.Method, req.URL.Path, resp.StatusCode)
			continue

		case resp.StatusCode >= 400:
			return nil, fmt.Errorf("providers: %s %s returned permanent error %d: %s", req.Method, req.URL.Path, resp.StatusCode, truncate(body, 500))

		default:
			return json.RawMessage(body), nil
		}
	}

	return nil, fmt.Errorf("providers: exhausted retries: %w", lastErr)
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n])
}
