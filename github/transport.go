package github

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	defaultMaxRetries = 3
	defaultBaseDelay  = 1 * time.Second
	maxRetryDelay     = 30 * time.Second
)

// retryTransport retries transient GitHub API failures: network errors,
// 5xx responses and rate limit responses. A Retry-After header sets the
// minimum delay before the next attempt. Requests with a non-rewindable
// body are sent once.
type retryTransport struct {
	base       http.RoundTripper
	maxRetries uint64
	baseDelay  time.Duration
}

func newRetryTransport(base http.RoundTripper) *retryTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &retryTransport{
		base:       base,
		maxRetries: defaultMaxRetries,
		baseDelay:  defaultBaseDelay,
	}
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Body != nil && req.GetBody == nil {
		return t.base.RoundTrip(req)
	}

	backoff := &retryAfterBackoff{
		base: retry.WithCappedDuration(maxRetryDelay,
			retry.WithMaxRetries(t.maxRetries, retry.NewExponential(t.baseDelay))),
	}

	var resp *http.Response
	err := retry.Do(req.Context(), backoff, func(ctx context.Context) error {
		attempt := req.Clone(ctx)
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return fmt.Errorf("failed to rewind request body: %w", err)
			}
			attempt.Body = body
		}

		var rtErr error
		resp, rtErr = t.base.RoundTrip(attempt)
		if rtErr != nil {
			return retry.RetryableError(rtErr)
		}
		if !retryableResponse(resp) {
			return nil
		}

		// Drain so the underlying connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()

		if wait, ok := retryAfter(resp); ok {
			backoff.wait = wait
		}
		return retry.RetryableError(fmt.Errorf("server returned %s", resp.Status))
	})
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", req.URL.Path, err)
	}
	return resp, nil
}

// retryAfterBackoff stretches the base backoff to at least the server's
// last Retry-After value. The stored value applies to a single wait, so
// each rate limited response delays exactly one retry.
type retryAfterBackoff struct {
	base retry.Backoff
	wait time.Duration
}

func (b *retryAfterBackoff) Next() (time.Duration, bool) {
	next, stop := b.base.Next()
	if stop {
		return 0, true
	}
	if b.wait > next {
		next = b.wait
	}
	b.wait = 0
	return next, false
}

// retryableResponse reports whether the response indicates a transient
// condition. 403 counts only when GitHub asks us to retry later
// (secondary rate limits).
func retryableResponse(resp *http.Response) bool {
	switch {
	case resp.StatusCode >= 500:
		return true
	case resp.StatusCode == http.StatusTooManyRequests:
		return true
	case resp.StatusCode == http.StatusForbidden && resp.Header.Get("Retry-After") != "":
		return true
	}
	return false
}

func retryAfter(resp *http.Response) (time.Duration, bool) {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0, false
	}
	seconds, err := strconv.Atoi(v)
	if err != nil || seconds < 0 {
		return 0, false
	}
	wait := time.Duration(seconds) * time.Second
	if wait > maxRetryDelay {
		wait = maxRetryDelay
	}
	return wait, true
}
