package dht

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
)

const (
	// edgeTimeout bounds every wait for a level change, the longest pulse sent is 80 microseconds
	edgeTimeout = time.Millisecond
	// bitThreshold splits a ~27 microsecond high (0) from a ~70 microsecond high (1)
	bitThreshold = 50 * time.Microsecond
)

var errTimeout = errors.New("timeout")

// waitForLevel busy reads the pin until it reads level, returning the time it was seen.
// note that pin read takes around .2 microsecond (us) on Raspberry PI 3
func waitForLevel(pin Pin, clock Clock, level gpio.Level, deadline time.Duration) (time.Duration, error) {
	for {
		now := clock.Now()
		if pin.Read() == level {
			return now, nil
		}
		if now >= deadline {
			return now, errTimeout
		}
	}
}

// classifyBit: more than bitThreshold is 1, anything else is 0.
func classifyBit(high time.Duration) byte {
	if high > bitThreshold {
		return 1
	}
	return 0
}

// captureFrame reads the response preamble and the 40 data bits.
// The pin must already be released by startTransaction.
func captureFrame(pin Pin, clock Clock) (Frame, error) {
	var frame Frame
	var i int
	var start, end time.Duration
	var err error

	// the sensor should already hold the line low
	if pin.Read() == gpio.High {
		return Frame{}, fmt.Errorf("%w: line high after release", ErrNoResponse)
	}

	// response preamble, 80us low then 80us high
	_, err = waitForLevel(pin, clock, gpio.High, clock.Now()+edgeTimeout)
	if err != nil {
		return Frame{}, fmt.Errorf("%w: preamble low %v", ErrNoResponse, err)
	}
	_, err = waitForLevel(pin, clock, gpio.Low, clock.Now()+edgeTimeout)
	if err != nil {
		return Frame{}, fmt.Errorf("%w: preamble high %v", ErrNoResponse, err)
	}

	for i = 0; i < 40; i++ {
		start, err = waitForLevel(pin, clock, gpio.High, clock.Now()+edgeTimeout)
		if err != nil {
			return Frame{}, fmt.Errorf("%w: bit %d start %v", ErrNoResponse, i, err)
		}
		end, err = waitForLevel(pin, clock, gpio.Low, start+edgeTimeout)
		if err != nil {
			return Frame{}, fmt.Errorf("%w: bit %d end %v", ErrNoResponse, i, err)
		}
		frame[i/8] |= classifyBit(end-start) << (7 - uint(i%8))
	}

	return frame, nil
}
