// Package resilience holds the circuit breaker and retry helpers shared by the
// benchmark retriever and the embedding provider.
package resilience

import (
	"context"
	"errors"
	"fmt"

	"atscore/internal/config"
	atscoreErrors "atscore/internal/errors"

	"github.com/sony/gobreaker/v2"
)

// ErrAbandoned marks a call whose caller went away before it finished.
// Breakers never count it as a failure of the dependency.
var ErrAbandoned = errors.New("caller abandoned the call")

// Abandoned wraps err with ErrAbandoned
func Abandoned(err error) error {
	return fmt.Errorf("%w: %w", ErrAbandoned, err)
}

// countsAsSuccess keeps cancelled calls out of the failure ratio
func countsAsSuccess(err error) bool {
	return err == nil || errors.Is(err, ErrAbandoned) || errors.Is(err, context.Canceled)
}

// Breaker wraps calls returning T with the circuit breaker pattern.
// A nil *Breaker executes calls directly.
type Breaker[T any] struct {
	cb *gobreaker.CircuitBreaker[T]
}

// NewBreaker creates a circuit breaker for the named dependency. It returns nil
// when the breaker is disabled.
func NewBreaker[T any](name string, cfg config.CircuitBreakerConfig, logger *atscoreErrors.Logger) *Breaker[T] {
	if !cfg.Enabled {
		return nil
	}

	settings := gobreaker.Settings{
		Name:         name,
		MaxRequests:  cfg.MaxRequests,
		Interval:     cfg.Interval,
		Timeout:      cfg.Timeout,
		IsSuccessful: countsAsSuccess,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests || counts.Requests == 0 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
				"max_requests", cfg.MaxRequests,
				"failure_threshold", cfg.FailureThreshold)
		},
	}

	return &Breaker[T]{cb: gobreaker.NewCircuitBreaker[T](settings)}
}

// Execute runs fn with circuit breaker protection
func (b *Breaker[T]) Execute(fn func() (T, error)) (T, error) {
	if b == nil || b.cb == nil {
		return fn()
	}
	return b.cb.Execute(fn)
}

// Stats returns circuit breaker statistics
func (b *Breaker[T]) Stats() map[string]any {
	if b == nil || b.cb == nil {
		return map[string]any{"enabled": false}
	}
	counts := b.cb.Counts()
	return map[string]any{
		"enabled":              true,
		"name":                 b.cb.Name(),
		"state":                b.cb.State().String(),
		"requests":             counts.Requests,
		"total_successes":      counts.TotalSuccesses,
		"total_failures":       counts.TotalFailures,
		"consecutive_failures": counts.ConsecutiveFailures,
	}
}

// IsHealthy returns true if the breaker is absent or closed
func (b *Breaker[T]) IsHealthy() bool {
	if b == nil || b.cb == nil {
		return true
	}
	return b.cb.State() == gobreaker.StateClosed
}

// IsOpen reports whether err was returned because a breaker rejected the call
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
