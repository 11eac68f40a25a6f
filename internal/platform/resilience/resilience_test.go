// internal/platform/resilience/resilience_test.go
package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noSleep(r *Retrier) *[]time.Duration {
	var slept []time.Duration
	r.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return ctx.Err()
	}
	return &slept
}

func TestRetrier_SucceedsAfterFailures(t *testing.T) {
	r := NewRetrier(RetryConfig{MaxRetries: 3, BackoffBase: 100 * time.Millisecond, BackoffMultiplier: 2}, nil)
	slept := noSleep(r)

	calls := 0
	err := r.Do(context.Background(), "save", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("database is locked")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, *slept)
}

func TestRetrier_ExhaustsRetries(t *testing.T) {
	r := NewRetrier(RetryConfig{MaxRetries: 2}, nil)
	noSleep(r)

	cause := errors.New("unreachable")
	calls := 0
	err := r.Do(context.Background(), "save", func(ctx context.Context) error {
		calls++
		return cause
	})

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestRetrier_StopsOnCancel(t *testing.T) {
	r := NewRetrier(RetryConfig{MaxRetries: 5}, nil)
	noSleep(r)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := r.Do(ctx, "save", func(ctx context.Context) error {
		calls++
		cancel()
		return errors.New("boom")
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetrier_PermanentStopsImmediately(t *testing.T) {
	r := NewRetrier(RetryConfig{MaxRetries: 5}, nil)
	slept := noSleep(r)

	notFound := errors.New("404")
	calls := 0
	err := r.Do(context.Background(), "fetch", func(ctx context.Context) error {
		calls++
		return Permanent(notFound)
	})
	require.ErrorIs(t, err, notFound)
	assert.Equal(t, 1, calls)
	assert.Empty(t, *slept)
	assert.Nil(t, Permanent(nil))
}

func TestRetrier_BackoffIsCapped(t *testing.T) {
	r := NewRetrier(RetryConfig{BackoffBase: time.Second, BackoffMultiplier: 10, MaxBackoff: 5 * time.Second}, nil)
	assert.Equal(t, time.Second, r.Backoff(0))
	assert.Equal(t, 5*time.Second, r.Backoff(3))
}

func TestCircuitBreaker_OpensAndRecovers(t *testing.T) {
	cb := NewCircuitBreaker(2, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cb.now = func() time.Time { return now }

	fail := errors.New("redis down")
	assert.Equal(t, fail, cb.Execute(func() error { return fail }))
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, fail, cb.Execute(func() error { return fail }))
	assert.Equal(t, StateOpen, cb.State())

	assert.ErrorIs(t, cb.Execute(func() error { return nil }), ErrCircuitOpen)

	now = now.Add(2 * time.Minute)
	assert.True(t, cb.Allow())
	assert.Equal(t, StateHalfOpen, cb.State())
	assert.False(t, cb.Allow())
	cb.Record(nil)
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, "closed", cb.State().String())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker(1, time.Second)
	now := time.Now()
	cb.now = func() time.Time { return now }

	cb.Record(errors.New("x"))
	require.Equal(t, StateOpen, cb.State())

	now = now.Add(2 * time.Second)
	require.True(t, cb.Allow())
	cb.Record(errors.New("still down"))
	assert.Equal(t, StateOpen, cb.State())

	cb.Reset()
	assert.True(t, cb.Allow())
}
