package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/felixgeelhaar/fortify/retry"

	"sdlc-flow/internal/config"
	"sdlc-flow/internal/logging"
	"sdlc-flow/internal/repositories"
)

// RetryingCaller re-issues failed gateway calls. Stages stay single-attempt
// unless the gateway retry count is raised above one.
type RetryingCaller struct {
	inner    repositories.Caller
	attempts int
	delay    time.Duration
	log      *logging.Logger
}

// WithRetry wraps inner with the retry policy from the gateway configuration
func WithRetry(inner repositories.Caller, gatewayConfig *config.GatewayConfig, log *logging.Logger) repositories.Caller {
	if gatewayConfig.RetryCount <= 1 {
		return inner
	}
	return NewRetryingCaller(inner, gatewayConfig.RetryCount, time.Duration(gatewayConfig.RetryDelaySeconds)*time.Second, log)
}

// NewRetryingCaller creates a caller making up to attempts calls
func NewRetryingCaller(inner repositories.Caller, attempts int, delay time.Duration, log *logging.Logger) *RetryingCaller {
	return &RetryingCaller{inner: inner, attempts: attempts, delay: delay, log: log}
}

// Call issues the call until it succeeds, attempts run out or the failure is
// not retryable. The error of the last attempt is returned so the service
// detail survives.
func (c *RetryingCaller) Call(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	r := retry.New[json.RawMessage](retry.Config{
		MaxAttempts:   c.attempts,
		InitialDelay:  c.delay,
		BackoffPolicy: retry.BackoffExponential,
		IsRetryable:   Retryable,
	})

	var lastErr error
	attempt := 0
	payload, err := r.Do(ctx, func(ctx context.Context) (json.RawMessage, error) {
		attempt++
		payload, err := c.inner.Call(ctx, method, path, body)
		lastErr = err
		if err != nil {
			c.log.Printf("retry: attempt %d/%d of %s %s failed: %v", attempt, c.attempts, method, path, err)
		}
		return payload, err
	})
	if err != nil {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, &repositories.CallError{Method: method, Path: path, Err: err}
	}
	return payload, nil
}

// Retryable reports whether a failed call may be issued again: transport
// failures and 5xx responses are, client errors and cancellation are not.
func Retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var callErr *repositories.CallError
	if !errors.As(err, &callErr) {
		return false
	}
	if callErr.StatusCode == 0 {
		return callErr.Err != nil
	}
	return callErr.StatusCode >= http.StatusInternalServerError
}
