package dht

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
)

// QueryPause is the sleep after a query when QueryOptions.WaitAfter is set.
const QueryPause = 2 * time.Second

const logSeparator = "----------------------------------------"

// gcGuard keeps garbage collection off while any sensor is in its timing
// critical part. The GC percent is process wide, only the first query in
// saves it and only the last one out restores it.
var gcGuard struct {
	sync.Mutex
	active  int
	percent int
}

func disableGC() {
	gcGuard.Lock()
	defer gcGuard.Unlock()
	if gcGuard.active == 0 {
		gcGuard.percent = debug.SetGCPercent(-1)
	}
	gcGuard.active++
}

func restoreGC() {
	gcGuard.Lock()
	defer gcGuard.Unlock()
	gcGuard.active--
	if gcGuard.active == 0 {
		debug.SetGCPercent(gcGuard.percent)
	}
}

// Option configures a DHT created by New.
type Option func(*DHT)

// WithClock replaces the system clock, mostly useful for tests.
func WithClock(clock Clock) Option {
	return func(dht *DHT) {
		dht.clock = clock
	}
}

// WithLogger sets the logger used for query diagnostics.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(dht *DHT) {
		dht.logger = logger
	}
}

// WithPullUp sets whether Read and Sense enable the internal pull-up, the default is true.
func WithPullUp(pullUp bool) Option {
	return func(dht *DHT) {
		dht.pullUp = pullUp
	}
}

// New to create a new DHT struct on an already resolved pin.
func New(pin Pin, temperatureUnit TemperatureUnit, sensorType SensorType, opts ...Option) (*DHT, error) {
	if pin == nil {
		return nil, fmt.Errorf("pin is nil")
	}
	dht := &DHT{
		pin:             pin,
		sensorType:      sensorType,
		pullUp:          true,
		temperatureUnit: temperatureUnit,
		result:          unsetResult(temperatureUnit),
	}
	for _, opt := range opts {
		opt(dht)
	}
	if dht.clock == nil {
		dht.clock = SystemClock()
	}
	if dht.logger == nil {
		dht.logger = logrus.StandardLogger()
	}
	dht.logger = dht.logger.WithFields(logrus.Fields{
		"sensor": sensorType.String(),
		"pin":    pin.String(),
	})

	// set pin to high so ready for first read
	err := pin.Out(gpio.High)
	if err != nil {
		return nil, fmt.Errorf("pin out high error: %v", err)
	}

	return dht, nil
}

// SensorType returns the sensor variant this DHT decodes.
func (dht *DHT) SensorType() SensorType {
	return dht.sensorType
}

// Query reads the sensor once and stores the result, which is also returned.
// It never fails: a missing sensor leaves SensorResponded false and the
// values at Unset, a corrupt frame leaves ChecksumValid false.
func (dht *DHT) Query(opts QueryOptions) Result {
	_, result, _ := dht.query(opts)
	return result
}

func (dht *DHT) query(opts QueryOptions) (Frame, Result, error) {
	dht.queryMu.Lock()
	defer dht.queryMu.Unlock()

	unit := dht.TemperatureUnit()
	result := unsetResult(unit)

	start := dht.clock.Now()
	frame, err := dht.exchange(opts.PullUp)
	elapsed := dht.clock.Now() - start
	if err == nil {
		result = Decode(frame, dht.sensorType, unit)
	}
	result.Duration = elapsed

	dht.stateMu.Lock()
	dht.result = result
	dht.stateMu.Unlock()

	if opts.Log {
		dht.logResult(frame, result, err)
	}
	if opts.WaitAfter {
		dht.clock.Sleep(QueryPause)
	}

	return frame, result, err
}

// exchange sends the start signal and captures a frame.
func (dht *DHT) exchange(pullUp bool) (Frame, error) {
	// disable garbage collection during critical timing part
	disableGC()
	defer restoreGC()

	err := startTransaction(dht.pin, dht.clock, pullUp)
	if err != nil {
		return Frame{}, fmt.Errorf("%w: %w", ErrNoResponse, err)
	}

	frame, err := captureFrame(dht.pin, dht.clock)

	// set pin to high so ready for next time
	if errHigh := dht.pin.Out(gpio.High); errHigh != nil {
		dht.logger.Warnf("pin out high error: %v", errHigh)
	}

	return frame, err
}

func (dht *DHT) logResult(frame Frame, result Result, err error) {
	if !result.SensorResponded {
		dht.logger.WithError(err).Infof("%v not responding!", dht.sensorType)
		dht.logger.Info(logSeparator)
		return
	}
	dht.logger.Debugf("frame %v checksum %d", frame, frame.Checksum())
	dht.logger.Infof("%v query completed in %d microseconds", dht.sensorType, result.Duration.Microseconds())
	if result.ChecksumValid {
		dht.logger.Info("Checksum ok")
	} else {
		dht.logger.Warn("Checksum error")
	}
	dht.logger.Infof("Humidity: %v %%", result.Humidity)
	dht.logger.Infof("Temperature: %v %v", result.Temperature, result.Unit)
	dht.logger.Info(logSeparator)
}

// LastResult returns the result of the latest query.
func (dht *DHT) LastResult() Result {
	dht.stateMu.RLock()
	defer dht.stateMu.RUnlock()
	return dht.result
}

// Humidity returns the humidity of the latest query, or Unset.
func (dht *DHT) Humidity() float64 {
	return dht.LastResult().Humidity
}

// Temperature returns the temperature of the latest query, or Unset.
func (dht *DHT) Temperature() float64 {
	return dht.LastResult().Temperature
}

// LastQuerySuccessful is true if the latest query had a matching checksum.
func (dht *DHT) LastQuerySuccessful() bool {
	return dht.LastResult().ChecksumValid
}

// SensorResponded is false if the latest query did not get a full frame.
func (dht *DHT) SensorResponded() bool {
	return dht.LastResult().SensorResponded
}

// SetTemperatureUnit selects the unit used by the following queries.
func (dht *DHT) SetTemperatureUnit(unit TemperatureUnit) {
	dht.stateMu.Lock()
	dht.temperatureUnit = unit
	dht.stateMu.Unlock()
}

// TemperatureUnit returns the selected temperature unit.
func (dht *DHT) TemperatureUnit() TemperatureUnit {
	dht.stateMu.RLock()
	defer dht.stateMu.RUnlock()
	return dht.temperatureUnit
}

// Read reads the sensor once, returning humidity and temperature, or an error.
// On ErrChecksum the decoded values are still returned.
func (dht *DHT) Read() (humidity float64, temperature float64, err error) {
	var result Result
	_, result, err = dht.query(QueryOptions{PullUp: dht.pullUp})
	if err != nil {
		return Unset, Unset, err
	}
	if !result.ChecksumValid {
		err = ErrChecksum
	}
	return result.Humidity, result.Temperature, err
}

// ReadBackground it means to run in the background, run as a Goroutine.
// It queries the sensor every interval, calling fn with each result, until ctx is done.
// There is no retry, a failed query is reported to fn and the next one waits for the next tick.
// interval is raised to the sensor minimum if shorter. Nothing is queried once ctx is done.
func (dht *DHT) ReadBackground(ctx context.Context, opts QueryOptions, interval time.Duration, fn func(Result)) error {
	if interval < dht.sensorType.MinInterval() {
		interval = dht.sensorType.MinInterval()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		result := dht.Query(opts)
		if fn != nil {
			fn(result)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
