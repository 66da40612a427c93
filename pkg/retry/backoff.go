package retry

import (
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// newBackoff builds the exponential backoff for a policy. A zero
// MaxElapsedTime means retries are bounded only by attempt count.
func newBackoff(policy Policy) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = policy.InitialInterval
	exp.MaxInterval = policy.MaxInterval
	exp.Multiplier = policy.Multiplier
	exp.MaxElapsedTime = policy.MaxElapsedTime
	return exp
}

// CalculateBackoffDuration returns the delay before the given attempt,
// used for logging upcoming retries.
func CalculateBackoffDuration(attempt int, initialInterval time.Duration, multiplier float64, maxInterval time.Duration) time.Duration {
	duration := float64(initialInterval) * math.Pow(multiplier, float64(attempt))
	if duration > float64(maxInterval) {
		return maxInterval
	}
	return time.Duration(duration)
}
