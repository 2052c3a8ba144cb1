package dht

import "time"

// Clock is the time source used for pulse timing and the start signal.
type Clock interface {
	// Now returns a monotonic timestamp, the epoch is arbitrary.
	Now() time.Duration
	// Sleep blocks for at least d without spinning.
	Sleep(d time.Duration)
}

type systemClock struct {
	epoch time.Time
}

// SystemClock returns a Clock backed by the runtime monotonic clock.
func SystemClock() Clock {
	return systemClock{epoch: time.Now()}
}

func (c systemClock) Now() time.Duration {
	return time.Since(c.epoch)
}

func (c systemClock) Sleep(d time.Duration) {
	time.Sleep(d)
}

// busyWait spins for d, time.Sleep can overshoot by far more than a sensor pulse
func busyWait(clock Clock, d time.Duration) {
	deadline := clock.Now() + d
	for clock.Now() < deadline {
	}
}
