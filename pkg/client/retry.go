package client

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for retry operations.
var (
	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "breeds_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	retryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "breeds_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30},
	}, []string{"error_class"})

	retryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "breeds_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})
)

// BackoffFunc maps a retry number (1 for the first retry) to a delay.
type BackoffFunc func(attempt int) time.Duration

// LinearBackoff waits attempt*base before each retry.
func LinearBackoff(base time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		return time.Duration(attempt) * base
	}
}

// RetryConfig holds the configuration for retry logic.
type RetryConfig struct {
	// MaxRetries is the number of retries allowed after the first call.
	MaxRetries int

	// Backoff computes the delay before each retry.
	Backoff BackoffFunc

	// Retryable decides whether a classified failure may be retried.
	Retryable func(*FetchError) bool

	// AttemptTimeout bounds each individual call. Zero disables it.
	AttemptTimeout time.Duration
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		Backoff:        LinearBackoff(2 * time.Second),
		Retryable:      IsRetryable,
		AttemptTimeout: 10 * time.Second,
	}
}

// RetryHooks are optional callbacks observing retry progress.
type RetryHooks struct {
	// OnRetry is called after the backoff wait, right before retry number attempt.
	OnRetry func(attempt int, err *FetchError)

	// OnRetriesExhausted is called once when the retry budget is used up.
	OnRetriesExhausted func(err *FetchError)
}

// RetryPolicy runs an operation under a RetryConfig.
type RetryPolicy struct {
	config RetryConfig
	logger zerolog.Logger
}

// NewRetryPolicy creates a retry policy. Missing config fields fall back to
// the defaults.
func NewRetryPolicy(config RetryConfig) *RetryPolicy {
	defaults := DefaultRetryConfig()
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.Backoff == nil {
		config.Backoff = defaults.Backoff
	}
	if config.Retryable == nil {
		config.Retryable = defaults.Retryable
	}

	return &RetryPolicy{
		config: config,
		logger: log.With().Str("component", "retry").Logger(),
	}
}

// Config returns the effective configuration.
func (p *RetryPolicy) Config() RetryConfig {
	return p.config
}

// Execute invokes op until it succeeds, fails with a non-retryable error, or
// the retry budget is exhausted. Each call gets its own deadline when
// AttemptTimeout is set. The returned error, if any, is a *FetchError.
func (p *RetryPolicy) Execute(ctx context.Context, op func(ctx context.Context) error, hooks RetryHooks) error {
	retries := 0

	for {
		err := p.attempt(ctx, op)
		if err == nil {
			if retries > 0 {
				p.logger.Info().
					Int("retries", retries).
					Msg("Request succeeded after retry")
			}
			return nil
		}

		// Cancellation of the parent wins over whatever the attempt reported.
		if ctx.Err() != nil {
			return &FetchError{
				Class:    ErrorClassAborted,
				Message:  AbortedMessage,
				Attempts: retries + 1,
				Err:      ctx.Err(),
			}
		}

		fe := Classify(err)
		fe.Attempts = retries + 1

		if !p.config.Retryable(fe) {
			return fe
		}

		if retries >= p.config.MaxRetries {
			fe.Exhausted = true
			retryExhaustedTotal.WithLabelValues(string(fe.Class)).Inc()
			p.logger.Error().
				Str("error_class", string(fe.Class)).
				Int("max_retries", p.config.MaxRetries).
				Str("message", fe.Message).
				Msg("Retry attempts exhausted")
			if hooks.OnRetriesExhausted != nil {
				hooks.OnRetriesExhausted(fe)
			}
			return fe
		}

		retries++
		backoff := p.config.Backoff(retries)
		retriesTotal.WithLabelValues(string(fe.Class)).Inc()
		retryBackoffSeconds.WithLabelValues(string(fe.Class)).Observe(backoff.Seconds())

		p.logger.Warn().
			Str("error_class", string(fe.Class)).
			Int("attempt", retries).
			Dur("backoff", backoff).
			Str("message", fe.Message).
			Msg("Retrying request after backoff")

		if err := sleep(ctx, backoff); err != nil {
			p.logger.Warn().
				Int("attempt", retries).
				Msg("Context cancelled during retry backoff")
			return &FetchError{
				Class:    ErrorClassAborted,
				Message:  AbortedMessage,
				Attempts: retries,
				Err:      err,
			}
		}

		if hooks.OnRetry != nil {
			hooks.OnRetry(retries, fe)
		}
	}
}

// attempt runs a single call under the per-attempt deadline. A deadline hit
// on the attempt context is reported as a timeout even if op returned some
// other transport error.
func (p *RetryPolicy) attempt(ctx context.Context, op func(ctx context.Context) error) error {
	if p.config.AttemptTimeout <= 0 {
		return op(ctx)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, p.config.AttemptTimeout)
	defer cancel()

	err := op(attemptCtx)
	if err != nil && ctx.Err() == nil && attemptCtx.Err() == context.DeadlineExceeded {
		return &FetchError{Class: ErrorClassTimeout, Message: TimeoutMessage, Err: err}
	}
	return err
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
