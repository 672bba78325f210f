package channel

import (
	"math/rand"
	"time"
)

// Default reconnect backoff parameters, used when the corresponding
// Config field is zero.
const (
	DefaultReconnectBaseDelay = 1 * time.Second
	DefaultReconnectMaxDelay  = 30 * time.Second
	DefaultReconnectJitter    = 0.2
)

// backoffDelay returns the delay before the given reconnect attempt
// (1-based): exponential growth from the base delay, capped at the max,
// with a randomized +/- jitter fraction to avoid reconnect stampedes.
func backoffDelay(attempt int, base, max time.Duration, jitter float64) time.Duration {
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= max {
			delay = max
			break
		}
	}

	if jitter > 0 {
		factor := 1 - jitter + rand.Float64()*2*jitter
		delay = time.Duration(float64(delay) * factor)
	}
	if delay > max {
		delay = max
	}
	return delay
}
