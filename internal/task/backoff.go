package task

import "time"

// BackoffPolicy maps an attempt count to the delay before the retried task
// becomes eligible again.
type BackoffPolicy interface {
	NextDelay(attempt int) time.Duration
}

// ExponentialBackoff doubles the delay with each attempt: Base for the
// first, then Base*2, Base*4, ... capped at Max when Max is set.
type ExponentialBackoff struct {
	Base time.Duration
	Max  time.Duration
}

// NextDelay returns the delay for the given 1-based attempt count.
func (p ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	// Beyond 32 doublings the shift would overflow; any real Max caps far
	// earlier.
	shift := attempt - 1
	if shift > 32 {
		shift = 32
	}

	delay := p.Base << uint(shift)
	if delay < p.Base {
		delay = p.Max
	}
	if p.Max > 0 && delay > p.Max {
		delay = p.Max
	}
	return delay
}

// FixedBackoff retries after the same interval every time.
type FixedBackoff struct {
	Interval time.Duration
}

// NextDelay returns the fixed interval regardless of attempt count.
func (p FixedBackoff) NextDelay(attempt int) time.Duration {
	return p.Interval
}
