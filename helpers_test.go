package dht

import (
	"time"

	"periph.io/x/conn/v3/gpio"
)

// fakeClock advances by step on every Now call and by d on Sleep.
type fakeClock struct {
	now   time.Duration
	step  time.Duration
	calls int
}

func newFakeClock() *fakeClock {
	return &fakeClock{step: time.Microsecond}
}

func (c *fakeClock) Now() time.Duration {
	c.now += c.step
	c.calls++
	return c.now
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.now += d
}

type segment struct {
	level gpio.Level
	d     time.Duration
}

// waveformPin replays segments once the host releases the line, then idles high.
type waveformPin struct {
	clock    *fakeClock
	segments []segment
	input    bool
	driven   gpio.Level
	pull     gpio.Pull
	released time.Duration
	outs     []gpio.Level
}

func (p *waveformPin) String() string {
	return "GPIO4"
}

func (p *waveformPin) Out(l gpio.Level) error {
	p.input = false
	p.driven = l
	p.outs = append(p.outs, l)
	return nil
}

func (p *waveformPin) In(pull gpio.Pull, edge gpio.Edge) error {
	p.input = true
	p.pull = pull
	p.released = p.clock.now
	return nil
}

func (p *waveformPin) Read() gpio.Level {
	if !p.input {
		return p.driven
	}
	t := p.clock.now - p.released
	for _, s := range p.segments {
		if t < s.d {
			return s.level
		}
		t -= s.d
	}
	return gpio.High
}

// sensorWaveform is what a sensor sends for frame after the host releases the line.
func sensorWaveform(frame Frame) []segment {
	segments := []segment{
		{gpio.High, 20 * time.Microsecond},
		{gpio.Low, 80 * time.Microsecond},
		{gpio.High, 80 * time.Microsecond},
	}
	for i := 0; i < 40; i++ {
		high := 27 * time.Microsecond
		if frame[i/8]&(1<<(7-uint(i%8))) != 0 {
			high = 70 * time.Microsecond
		}
		segments = append(segments, segment{gpio.Low, 50 * time.Microsecond}, segment{gpio.High, high})
	}
	return append(segments, segment{gpio.Low, 50 * time.Microsecond})
}

func newSensorPin(clock *fakeClock, frame Frame) *waveformPin {
	return &waveformPin{clock: clock, segments: sensorWaveform(frame), driven: gpio.High}
}
