package errors

import (
	"context"
	"fmt"
	"time"

	"grape/internal/infrastructure/logging"
)

// RetryConfig controls WithRetry
type RetryConfig struct {
	MaxAttempts   int           // Maximum number of attempts
	InitialDelay  time.Duration // Delay before the second attempt
	MaxDelay      time.Duration // Upper bound for a single delay
	BackoffFactor float64       // Exponential backoff factor
}

// DefaultRetryConfig is tuned for SQLite lock contention on the preference store
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  50 * time.Millisecond,
		MaxDelay:      time.Second,
		BackoffFactor: 2.0,
	}
}

// WithRetry runs operation until it succeeds, fails with a non-retryable
// error, the attempts run out or ctx is done.
func WithRetry(ctx context.Context, config *RetryConfig, logger logging.Logger, name string, operation func() error) error {
	if config == nil {
		config = DefaultRetryConfig()
	}
	if logger == nil {
		logger = logging.NopLogger{}
	}

	var lastErr error
	delay := config.InitialDelay

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		lastErr = operation()
		if lastErr == nil {
			if attempt > 1 {
				logger.Debug("Operation succeeded after retry", "operation", name, "attempts", attempt)
			}
			return nil
		}

		if !IsRetryable(lastErr) || attempt == config.MaxAttempts {
			break
		}

		logger.Warn("Operation failed, retrying",
			"operation", name,
			"attempt", attempt,
			"delay_ms", delay.Milliseconds(),
			"error", lastErr.Error())

		select {
		case <-ctx.Done():
			return fmt.Errorf("operation '%s' cancelled during retry: %w", name, ctx.Err())
		case <-time.After(delay):
		}

		delay = min(time.Duration(float64(delay)*config.BackoffFactor), config.MaxDelay)
	}

	return lastErr
}
