package dht

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
)

const (
	// startLow is how long the host holds the line low to wake the sensor
	startLow = 18 * time.Millisecond
	// releaseGrace is the wait after releasing the line before sampling
	releaseGrace = 40 * time.Microsecond
)

// startTransaction sends the start signal and leaves the pin as an input, ready for captureFrame.
func startTransaction(pin Pin, clock Clock, pullUp bool) error {
	// send start low
	err := pin.Out(gpio.Low)
	if err != nil {
		pin.Out(gpio.High)
		return fmt.Errorf("pin out low error: %w", err)
	}
	clock.Sleep(startLow)

	// release the bus
	err = pin.Out(gpio.High)
	if err != nil {
		return fmt.Errorf("pin out high error: %w", err)
	}
	pull := gpio.PullNoChange
	if pullUp {
		pull = gpio.PullUp
	}
	err = pin.In(pull, gpio.NoEdge)
	if err != nil {
		pin.Out(gpio.High)
		return fmt.Errorf("pin in error: %w", err)
	}

	busyWait(clock, releaseGrace)
	return nil
}
