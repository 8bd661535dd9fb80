package http

import (
	"context"
	"fmt"
	nethttp "net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/dart-platform/dart-cli/internal/constants"
	"github.com/dart-platform/dart-cli/internal/logging"
)

// RetryPolicy bounds the attempts made for a single upload.
type RetryPolicy struct {
	// Attempts is the total number of attempts including the first (>= 1).
	Attempts int
	// Delay is the fixed pause between attempts.
	Delay time.Duration
}

// DefaultRetryPolicy returns a single-attempt policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts: constants.DefaultRetryAttempts,
		Delay:    constants.DefaultRetryDelay,
	}
}

// Validate checks the policy bounds.
func (p RetryPolicy) Validate() error {
	if p.Attempts < 1 {
		return fmt.Errorf("retry attempts must be at least 1, got %d", p.Attempts)
	}
	if p.Attempts > constants.MaxRetryAttempts {
		return fmt.Errorf("retry attempts must be at most %d, got %d", constants.MaxRetryAttempts, p.Attempts)
	}
	if p.Delay < 0 {
		return fmt.Errorf("retry delay must not be negative")
	}
	return nil
}

// Backoff returns a retryablehttp backoff that always waits the fixed delay.
func (p RetryPolicy) Backoff() retryablehttp.Backoff {
	delay := p.Delay
	return func(_, _ time.Duration, _ int, _ *nethttp.Response) time.Duration {
		return delay
	}
}

// CheckRetry retries every transport error and every non-2xx response,
// and stops as soon as the request context is done.
func CheckRetry(ctx context.Context, resp *nethttp.Response, err error) (bool, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return false, ctxErr
	}
	if err != nil {
		return true, nil
	}
	if !IsSuccess(resp.StatusCode) {
		return true, nil
	}
	return false, nil
}

// IsSuccess reports whether status is a 2xx code.
func IsSuccess(status int) bool {
	return status >= 200 && status <= 299
}

// NewRetryClient wraps client with the policy.
//
// Exhausted retries hand back the last response (or transport error)
// unchanged so the caller can report the final status code.
//
// retryablehttp closes the client's idle connections whenever a request
// ends without success. The transport is shared by every worker, so the
// wrapped client hides CloseIdleConnections and one failed upload does not
// drop the keep-alive pool of the others.
func NewRetryClient(client *nethttp.Client, policy RetryPolicy, logger *logging.Logger) *retryablehttp.Client {
	rc := retryablehttp.NewClient()
	if client != nil {
		shared := *client
		shared.Transport = keepIdleTransport{rt: transportOf(client)}
		rc.HTTPClient = &shared
	}
	rc.RetryMax = policy.Attempts - 1
	rc.RetryWaitMin = policy.Delay
	rc.RetryWaitMax = policy.Delay
	rc.Backoff = policy.Backoff()
	rc.CheckRetry = CheckRetry
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	if logger != nil {
		rc.Logger = logging.RetryLogger{L: logger}
	} else {
		rc.Logger = nil
	}
	return rc
}

// keepIdleTransport forwards requests but has no CloseIdleConnections
// method, which makes http.Client.CloseIdleConnections a no-op.
type keepIdleTransport struct {
	rt nethttp.RoundTripper
}

func (t keepIdleTransport) RoundTrip(req *nethttp.Request) (*nethttp.Response, error) {
	return t.rt.RoundTrip(req)
}

func transportOf(client *nethttp.Client) nethttp.RoundTripper {
	if client.Transport != nil {
		return client.Transport
	}
	return nethttp.DefaultTransport
}
