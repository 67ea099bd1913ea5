package xretry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func fastRetryer(attempts int) *Retryer {
	return NewRetryer(
		WithMaxAttempts(attempts),
		WithBackoff(ExponentialBackoff{Initial: time.Microsecond, Max: time.Microsecond}),
	)
}

func TestRetryer_RetriesUntilSuccess(t *testing.T) {
	r := fastRetryer(3)
	calls := 0
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errBoom
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryer_ReturnsLastError(t *testing.T) {
	r := fastRetryer(2)
	calls := 0
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 2, calls)
}

func TestRetryer_PermanentErrorStops(t *testing.T) {
	r := fastRetryer(5)
	calls := 0
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		return NewPermanentError(errBoom)
	})
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 1, calls)
}

func TestRetryer_OnRetry(t *testing.T) {
	var attempts []int
	r := NewRetryer(
		WithMaxAttempts(3),
		WithBackoff(ExponentialBackoff{}),
		WithOnRetry(func(attempt int, _ error) { attempts = append(attempts, attempt) }),
	)
	_ = r.Do(context.Background(), func(context.Context) error { return errBoom })
	require.GreaterOrEqual(t, len(attempts), 2)
	assert.Equal(t, 1, attempts[0])
	assert.Equal(t, 2, attempts[1])
}

func TestDoWithResult(t *testing.T) {
	r := fastRetryer(3)
	calls := 0
	v, err := DoWithResult(context.Background(), r, func(context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, errBoom
		}
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	_, err = DoWithResult[int](context.Background(), r, nil)
	assert.ErrorIs(t, err, ErrNilFunc)
}

func TestExponentialBackoff_NextDelay(t *testing.T) {
	b := ExponentialBackoff{Initial: 10 * time.Millisecond, Max: 50 * time.Millisecond}
	assert.Equal(t, 10*time.Millisecond, b.NextDelay(1))
	assert.Equal(t, 20*time.Millisecond, b.NextDelay(2))
	assert.Equal(t, 40*time.Millisecond, b.NextDelay(3))
	assert.Equal(t, 50*time.Millisecond, b.NextDelay(4))
	assert.Equal(t, 10*time.Millisecond, b.NextDelay(0))
	assert.Zero(t, ExponentialBackoff{}.NextDelay(3))
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.True(t, IsRetryable(errBoom))
	assert.False(t, IsRetryable(NewPermanentError(errBoom)))
	assert.Equal(t, "permanent error", (&PermanentError{}).Error())
}
