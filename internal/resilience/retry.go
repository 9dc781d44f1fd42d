package resilience

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	atscoreErrors "atscore/internal/errors"

	"github.com/cenkalti/backoff/v5"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

// RetryPolicy controls how often and how fast a failing call is retried
type RetryPolicy struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
}

// DefaultRetryPolicy returns the policy used for remote calls
func DefaultRetryPolicy(maxRetries int) RetryPolicy {
	return RetryPolicy{
		MaxRetries:      maxRetries,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
		MaxElapsedTime:  30 * time.Second,
	}
}

// Retry calls fn until it succeeds, returns an error that retryable rejects,
// or the policy is exhausted. A nil retryable uses IsTransient.
func Retry[T any](ctx context.Context, operation string, policy RetryPolicy, retryable func(error) bool, logger *atscoreErrors.Logger, fn func(context.Context) (T, error)) (T, error) {
	if retryable == nil {
		retryable = IsTransient
	}

	attempts := 0
	op := func() (T, error) {
		attempts++
		result, err := fn(ctx)
		if err != nil && !retryable(err) {
			return result, backoff.Permanent(err)
		}
		return result, err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = policy.InitialInterval
	bo.MaxInterval = policy.MaxInterval

	result, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(uint(max(policy.MaxRetries, 0)+1)),
		backoff.WithMaxElapsedTime(policy.MaxElapsedTime),
		backoff.WithNotify(func(err error, wait time.Duration) {
			logger.Warn("Retrying operation",
				"operation", operation,
				"attempt", attempts,
				"max_retries", policy.MaxRetries,
				"wait", wait.String(),
				"error", err.Error())
		}),
	)
	if err != nil {
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			err = permanent.Unwrap()
		}
		return result, err
	}
	if attempts > 1 {
		logger.Info("Operation succeeded after retry",
			"operation", operation,
			"total_attempts", attempts)
	}
	return result, nil
}

// IsTransient reports whether err is a network failure or a Google API or
// Gemini API status worth retrying
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.Code)
	}

	// the genai SDK reports HTTP failures as APIError values
	var genaiErr genai.APIError
	if errors.As(err, &genaiErr) {
		return retryableStatus(genaiErr.Code)
	}
	var genaiErrPtr *genai.APIError
	if errors.As(err, &genaiErrPtr) && genaiErrPtr != nil {
		return retryableStatus(genaiErrPtr.Code)
	}

	return false
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
