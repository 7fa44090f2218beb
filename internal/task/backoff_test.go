package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExponentialBackoffDoubles(t *testing.T) {
	t.Parallel()

	// base 60s => 60s, 120s, 240s for attempts 1-3
	policy := ExponentialBackoff{Base: 60 * time.Second}

	assert.Equal(t, 60*time.Second, policy.NextDelay(1))
	assert.Equal(t, 120*time.Second, policy.NextDelay(2))
	assert.Equal(t, 240*time.Second, policy.NextDelay(3))
}

func TestExponentialBackoffMonotonic(t *testing.T) {
	t.Parallel()

	policy := ExponentialBackoff{Base: time.Second, Max: time.Hour}

	prev := time.Duration(0)
	for attempt := 1; attempt <= 50; attempt++ {
		delay := policy.NextDelay(attempt)
		assert.GreaterOrEqual(t, delay, prev, "attempt %d", attempt)
		prev = delay
	}
}

func TestExponentialBackoffCap(t *testing.T) {
	t.Parallel()

	policy := ExponentialBackoff{Base: time.Minute, Max: 10 * time.Minute}

	assert.Equal(t, time.Minute, policy.NextDelay(1))
	assert.Equal(t, 8*time.Minute, policy.NextDelay(4))
	assert.Equal(t, 10*time.Minute, policy.NextDelay(5))
	assert.Equal(t, 10*time.Minute, policy.NextDelay(40))
	// Shift counts past the overflow guard still land on the cap
	assert.Equal(t, 10*time.Minute, policy.NextDelay(100))
}

func TestExponentialBackoffInvalidAttempt(t *testing.T) {
	t.Parallel()

	policy := ExponentialBackoff{Base: time.Second}

	assert.Equal(t, time.Second, policy.NextDelay(0))
	assert.Equal(t, time.Second, policy.NextDelay(-3))
}

func TestFixedBackoff(t *testing.T) {
	t.Parallel()

	policy := FixedBackoff{Interval: 5 * time.Second}

	for _, attempt := range []int{1, 2, 10} {
		assert.Equal(t, 5*time.Second, policy.NextDelay(attempt))
	}
}
