// Package httpclient implements the outbound webhook requester: bounded
// per-request timeout, client-side rate limiting and a single retry on
// timeout, rate-limit or server-error responses.
package httpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultTimeout = 20 * time.Second
	retryDelay     = 2 * time.Second

	// Webhook targets are third-party endpoints; keep the outbound rate
	// polite regardless of how many recipes fire at once.
	requestsPerSecond = 5
	burstSize         = 10
)

type Client struct {
	http    *http.Client
	limiter *rate.Limiter
}

func New() *Client {
	return &Client{
		http:    &http.Client{Timeout: defaultTimeout},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burstSize),
	}
}

// Request dispatches one HTTP request and returns the response status. The
// body, if any, is sent as JSON. One retry covers transient failures.
func (c *Client) Request(ctx context.Context, method, url string, body []byte) (int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	status, err := c.do(ctx, method, url, body)
	if retryable(status, err) {
		select {
		case <-ctx.Done():
			return status, ctx.Err()
		case <-time.After(retryDelay):
		}
		return c.do(ctx, method, url, body)
	}
	return status, err
}

func (c *Client) do(ctx context.Context, method, url string, body []byte) (int, error) {
	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	// Drain so the connection can be reused; webhook responses are ignored.
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	return resp.StatusCode, nil
}

func retryable(status int, err error) bool {
	if err != nil {
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return true
		}
		return false
	}
	return status == http.StatusTooManyRequests || status >= 500
}
