// pkg/retry/retry.go - functions for retrying actions and polling for a condition.

package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/windowsadmins/winapps/pkg/logging"
)

// ErrExhausted is returned by Until when the condition never became true.
var ErrExhausted = errors.New("condition not met")

// RetryConfig defines the configuration for retry attempts
type RetryConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	Multiplier      float64
}

// Retry retries a given function with exponential backoff
func Retry(ctx context.Context, config RetryConfig, action func() error) error {
	interval := config.InitialInterval
	var err error

	for attempt := 1; attempt <= config.MaxRetries; attempt++ {
		if err = action(); err == nil {
			return nil
		}
		if attempt == config.MaxRetries {
			logging.Warn("Attempt failed, no more retries",
				"attempt", attempt, "max_attempts", config.MaxRetries, "error", err)
			break
		}
		logging.Warn("Attempt failed, retrying",
			"attempt", attempt, "max_attempts", config.MaxRetries, "retry_delay", interval.String(), "error", err)

		if err := sleep(ctx, interval); err != nil {
			return err
		}
		interval = next(interval, config.Multiplier)
	}

	return fmt.Errorf("action failed after %d attempts: %w", config.MaxRetries, err)
}

// Until calls cond until it reports true, returns an error, or MaxRetries
// calls have been made. It waits between calls like Retry does. Exhaustion
// is reported as ErrExhausted.
func Until(ctx context.Context, config RetryConfig, cond func() (bool, error)) error {
	interval := config.InitialInterval

	for attempt := 1; attempt <= config.MaxRetries; attempt++ {
		done, err := cond()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if attempt == config.MaxRetries {
			break
		}
		logging.Debug("Condition not met, polling again",
			"attempt", attempt, "max_attempts", config.MaxRetries, "delay", interval.String())
		if err := sleep(ctx, interval); err != nil {
			return err
		}
		interval = next(interval, config.Multiplier)
	}

	return fmt.Errorf("%w after %d attempts", ErrExhausted, config.MaxRetries)
}

func next(interval time.Duration, multiplier float64) time.Duration {
	if multiplier <= 0 {
		return interval
	}
	return time.Duration(float64(interval) * multiplier)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
