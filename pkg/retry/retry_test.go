// pkg/retry/retry_test.go
package retry

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestIsTransient(t *testing.T) {
	transient := []string{
		"Lost connection to MySQL server during query",
		"MySQL server has gone away",
		"dial tcp: i/o timeout",
		"write: broken pipe",
		"network is unreachable",
	}
	for _, msg := range transient {
		assert.True(t, IsTransient(errors.New(msg)), msg)
	}

	assert.False(t, IsTransient(errors.New("Duplicate entry 'W01' for key 'PRIMARY'")))
	assert.False(t, IsTransient(errors.New("syntax error near 'FROM'")))
	assert.False(t, IsTransient(nil))
}

func TestRetrierBackoffSchedule(t *testing.T) {
	var delays []time.Duration
	r := New(zap.NewNop()).WithSleep(func(d time.Duration) {
		delays = append(delays, d)
	})

	attempts := 0
	err := r.Do("test op", func() error {
		attempts++
		if attempts < 5 {
			return errors.New("lost connection")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 5, attempts)
	assert.Equal(t, []time.Duration{
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
	}, delays)
}

func TestRetrierExhaustsAttempts(t *testing.T) {
	r := New(zap.NewNop()).WithSleep(func(time.Duration) {})

	attempts := 0
	cause := errors.New("connection refused")
	err := r.Do("test op", func() error {
		attempts++
		return cause
	})

	require.Error(t, err)
	assert.Equal(t, 5, attempts)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "after 5 attempts")
}

func TestRetrierNonTransientFailsImmediately(t *testing.T) {
	r := New(zap.NewNop()).WithSleep(func(time.Duration) {
		t.Fatal("should not sleep on a non-transient error")
	})

	attempts := 0
	cause := errors.New("Duplicate entry")
	err := r.Do("test op", func() error {
		attempts++
		return cause
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.Same(t, cause, err)
}

func TestRetrierDelayCap(t *testing.T) {
	var delays []time.Duration
	r := New(zap.NewNop()).
		WithPolicy(Policy{MaxAttempts: 8, InitialDelay: 2 * time.Second, MaxDelay: 10 * time.Second}).
		WithSleep(func(d time.Duration) { delays = append(delays, d) })

	_ = r.Do("test op", func() error {
		return errors.New("timeout")
	})

	require.Len(t, delays, 7)
	assert.Equal(t, 2*time.Second, delays[0])
	assert.Equal(t, 4*time.Second, delays[1])
	assert.Equal(t, 8*time.Second, delays[2])
	for _, d := range delays[3:] {
		assert.Equal(t, 10*time.Second, d)
	}
}
