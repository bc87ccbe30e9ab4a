package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrySucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), RetryConfig{MaxRetries: 3, InitialInterval: time.Millisecond, Multiplier: 2}, func() error {
		calls++
		if calls < 3 {
			return errors.New("wmi busy")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryReturnsLastError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := Retry(context.Background(), RetryConfig{MaxRetries: 2}, func() error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}

func TestUntil(t *testing.T) {
	calls := 0
	err := Until(context.Background(), RetryConfig{MaxRetries: 5, InitialInterval: time.Millisecond}, func() (bool, error) {
		calls++
		return calls == 2, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestUntilExhausted(t *testing.T) {
	calls := 0
	err := Until(context.Background(), RetryConfig{MaxRetries: 3}, func() (bool, error) {
		calls++
		return false, nil
	})
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, 3, calls)
}

func TestUntilStopsOnError(t *testing.T) {
	denied := errors.New("access denied")
	calls := 0
	err := Until(context.Background(), RetryConfig{MaxRetries: 3}, func() (bool, error) {
		calls++
		return false, denied
	})
	assert.ErrorIs(t, err, denied)
	assert.Equal(t, 1, calls)
}

func TestUntilHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Until(ctx, RetryConfig{MaxRetries: 3, InitialInterval: time.Hour}, func() (bool, error) {
		return false, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
