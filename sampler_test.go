package dht

import (
	"errors"
	"testing"
	"time"

	"periph.io/x/conn/v3/gpio"
)

func TestClassifyBit(t *testing.T) {
	tests := []struct {
		high time.Duration
		want byte
	}{
		{26 * time.Microsecond, 0},
		{bitThreshold - time.Microsecond, 0},
		{bitThreshold, 0},
		{bitThreshold + time.Microsecond, 1},
		{70 * time.Microsecond, 1},
	}
	for _, tt := range tests {
		if got := classifyBit(tt.high); got != tt.want {
			t.Errorf("classifyBit(%v) = %d, want %d", tt.high, got, tt.want)
		}
	}
}

func TestWaitForLevel(t *testing.T) {
	clock := newFakeClock()
	pin := &waveformPin{clock: clock, input: true, segments: []segment{{gpio.Low, 30 * time.Microsecond}}}

	ts, err := waitForLevel(pin, clock, gpio.High, clock.now+edgeTimeout)
	if err != nil {
		t.Fatalf("waitForLevel() error: %v", err)
	}
	if ts != 30*time.Microsecond {
		t.Errorf("waitForLevel() = %v, want %v", ts, 30*time.Microsecond)
	}

	// the line never goes back low
	deadline := clock.now + 100*time.Microsecond
	_, err = waitForLevel(pin, clock, gpio.Low, deadline)
	if !errors.Is(err, errTimeout) {
		t.Fatalf("waitForLevel() error = %v, want timeout", err)
	}
	if clock.now > deadline+clock.step {
		t.Errorf("waitForLevel() returned at %v, deadline %v", clock.now, deadline)
	}
}

func TestCaptureFrame(t *testing.T) {
	frames := []Frame{
		{60, 0, 25, 0, 85},
		{50, 0, 130, 20, 200},
		{0, 0, 0, 0, 0},
		{255, 255, 255, 255, 252},
		{0xaa, 0x55, 0x0f, 0xf0, 0xfe},
	}
	for _, step := range []time.Duration{time.Microsecond, 3 * time.Microsecond} {
		for _, want := range frames {
			clock := newFakeClock()
			clock.step = step
			pin := newSensorPin(clock, want)

			if err := startTransaction(pin, clock, true); err != nil {
				t.Fatalf("startTransaction() error: %v", err)
			}
			got, err := captureFrame(pin, clock)
			if err != nil {
				t.Fatalf("step %v, %v: captureFrame() error: %v", step, want, err)
			}
			if got != want {
				t.Errorf("step %v: captureFrame() = %v, want %v", step, got, want)
			}
		}
	}
}

func TestStartTransaction(t *testing.T) {
	clock := newFakeClock()
	pin := newSensorPin(clock, Frame{})

	if err := startTransaction(pin, clock, false); err != nil {
		t.Fatalf("startTransaction() error: %v", err)
	}
	if len(pin.outs) != 2 || pin.outs[0] != gpio.Low || pin.outs[1] != gpio.High {
		t.Errorf("outs = %v, want [Low High]", pin.outs)
	}
	if !pin.input {
		t.Error("pin not released to input")
	}
	if pin.pull != gpio.PullNoChange {
		t.Errorf("pull = %v, want %v", pin.pull, gpio.PullNoChange)
	}
	if pin.released < startLow {
		t.Errorf("released after %v, want at least %v", pin.released, startLow)
	}
	if grace := clock.now - pin.released; grace < releaseGrace {
		t.Errorf("grace = %v, want at least %v", grace, releaseGrace)
	}

	if err := startTransaction(pin, clock, true); err != nil {
		t.Fatalf("startTransaction() error: %v", err)
	}
	if pin.pull != gpio.PullUp {
		t.Errorf("pull = %v, want %v", pin.pull, gpio.PullUp)
	}
}

func TestCaptureFrameTimeouts(t *testing.T) {
	tests := []struct {
		name     string
		segments []segment
	}{
		{"line high", nil},
		{"stuck low", []segment{{gpio.Low, time.Hour}}},
		{"stuck high after preamble", []segment{
			{gpio.Low, 80 * time.Microsecond},
			{gpio.High, time.Hour},
		}},
		{"stops after one bit", []segment{
			{gpio.Low, 80 * time.Microsecond},
			{gpio.High, 80 * time.Microsecond},
			{gpio.Low, 50 * time.Microsecond},
			{gpio.High, 70 * time.Microsecond},
			{gpio.Low, time.Hour},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newFakeClock()
			pin := &waveformPin{clock: clock, input: true, segments: tt.segments}

			frame, err := captureFrame(pin, clock)
			if !errors.Is(err, ErrNoResponse) {
				t.Fatalf("captureFrame() error = %v, want %v", err, ErrNoResponse)
			}
			if frame != (Frame{}) {
				t.Errorf("captureFrame() = %v, want empty frame", frame)
			}
			// every edge has its own deadline, at most 43 waits happen
			if max := 43 * int(edgeTimeout/clock.step); clock.calls > max {
				t.Errorf("clock read %d times, want at most %d", clock.calls, max)
			}
		})
	}
}
