package restclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v3"
	retryablehttp "github.com/hashicorp/go-retryablehttp"

	"github.com/cisco-open/sastre-engine/internal/errs"
)

// transientOnlyRetryPolicy retries connect/read-timeout errors (up to
// RetryMax=3, linear backoff, per spec.md §4.A) but leaves 429 and
// 401/403 alone: 429 gets its own adaptive backoff in doWithRateLimit
// below, and 401/403 must surface immediately as AuthError rather than
// being retried. Any other HTTP status is returned to doWithRateLimit
// without a retry.
func transientOnlyRetryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return true, nil // network/transport error: connect or read timeout
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return false, nil
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return false, nil // handled by doWithRateLimit's own loop, not retryablehttp
	}
	return false, nil
}

const maxRateLimitRetries = 5

// doWithRateLimit executes req, applying the adaptive-backoff retry on 429
// responses described in spec.md §4.A: exponential delay with jitter,
// capped at 60s total, up to 5 retries, then RateLimitExhausted.
func (s *Session) doWithRateLimit(ctx context.Context, req *retryablehttp.Request) ([]byte, error) {
	if err := s.limit.Wait(ctx); err != nil {
		return nil, errs.New(errs.ConnectionError, "", err)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxElapsedTime = 60 * time.Second
	bo.Reset()

	for attempt := 0; ; attempt++ {
		resp, err := s.http.Do(req)
		if err != nil {
			return nil, errs.New(errs.ConnectionError, "", err)
		}
		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, errs.New(errs.ConnectionError, "", readErr)
		}

		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return nil, errs.New(errs.AuthError, "", fmt.Errorf("http %d: %s", resp.StatusCode, string(body)))

		case resp.StatusCode == http.StatusTooManyRequests:
			if attempt >= maxRateLimitRetries {
				return nil, errs.New(errs.RateLimitExhausted, "", fmt.Errorf("exhausted %d retries", maxRateLimitRetries))
			}
			wait := bo.NextBackOff()
			if wait == backoff.Stop {
				return nil, errs.New(errs.RateLimitExhausted, "", fmt.Errorf("backoff elapsed"))
			}
			if s.log != nil {
				s.log.WithField("attempt", attempt+1).Warn("rate limited (429), backing off")
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
			continue

		case resp.StatusCode == http.StatusNotFound:
			return nil, errs.New(errs.NotFound, "", fmt.Errorf("http 404: %s", string(body)))

		case resp.StatusCode == http.StatusConflict:
			return nil, errs.New(errs.Conflict, "", fmt.Errorf("http 409: %s", string(body)))

		case resp.StatusCode >= 400:
			return nil, fmt.Errorf("http %d: %s", resp.StatusCode, string(body))
		}
		return body, nil
	}
}
