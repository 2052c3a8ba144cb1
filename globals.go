package dht

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
)

// Unset is the value reported for humidity and temperature when no valid reading is available.
const Unset = -999.0

// TemperatureUnit is the temperature unit wanted, either Celsius or Fahrenheit
type TemperatureUnit int

const (
	// Celsius temperature unit
	Celsius TemperatureUnit = iota
	// Fahrenheit temperature unit
	Fahrenheit
)

// String returns the suffix used when printing temperatures.
func (u TemperatureUnit) String() string {
	if u == Fahrenheit {
		return "*F"
	}
	return "*C"
}

// ParseTemperatureUnit accepts celsius, c, fahrenheit or f in any case.
func ParseTemperatureUnit(s string) (TemperatureUnit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "c", "celsius":
		return Celsius, nil
	case "f", "fahrenheit":
		return Fahrenheit, nil
	}
	return Celsius, fmt.Errorf("unknown temperature unit: %q", s)
}

// SensorType is the sensor variant, it selects how the frame is decoded.
type SensorType int

const (
	// DHT11 sends integer humidity and temperature
	DHT11 SensorType = iota
	// DHT22 sends tenths with a sign bit on the temperature, also sold as AM2302
	DHT22
	// AM2302 aka DHT22
	AM2302 = DHT22
)

// String implement Stringer interface.
func (s SensorType) String() string {
	if s == DHT11 {
		return "DHT11"
	}
	return "DHT22"
}

// MinInterval is the shortest time the datasheet allows between two queries.
func (s SensorType) MinInterval() time.Duration {
	if s == DHT11 {
		return time.Second
	}
	return 2 * time.Second
}

// ParseSensorType returns DHT11 for dht11, DHT22 for dht22 or am2302.
func ParseSensorType(s string) (SensorType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dht11":
		return DHT11, nil
	case "dht22", "am2302":
		return DHT22, nil
	}
	return DHT22, fmt.Errorf("unknown sensor type: %q", s)
}

var (
	// ErrNoResponse is returned when the line did not change as expected before its deadline.
	ErrNoResponse = errors.New("dht: sensor not responding")
	// ErrChecksum is returned when a frame was read but its checksum byte did not match.
	ErrChecksum = errors.New("dht: checksum mismatch")
)

// Pin is the part of gpio.PinIO the driver uses.
type Pin interface {
	String() string
	Out(l gpio.Level) error
	In(pull gpio.Pull, edge gpio.Edge) error
	Read() gpio.Level
}

// Result is the outcome of one query.
type Result struct {
	Humidity        float64
	Temperature     float64
	Unit            TemperatureUnit
	ChecksumValid   bool
	SensorResponded bool
	// Duration is the time from the start signal to the last sampled bit.
	Duration time.Duration
}

func unsetResult(unit TemperatureUnit) Result {
	return Result{Humidity: Unset, Temperature: Unset, Unit: unit}
}

// QueryOptions controls a single query.
type QueryOptions struct {
	// PullUp enables the internal pull-up, needed without an external resistor.
	PullUp bool
	// Log writes the query outcome to the logger.
	Log bool
	// WaitAfter sleeps QueryPause once the query is done.
	WaitAfter bool
}

// DHT struct to interface with the sensor.
// Call NewDHT or New to create a new one.
type DHT struct {
	pin        Pin
	clock      Clock
	sensorType SensorType
	pullUp     bool
	logger     logrus.FieldLogger

	// queryMu serialises queries, stateMu guards the fields below it.
	queryMu         sync.Mutex
	stateMu         sync.RWMutex
	temperatureUnit TemperatureUnit
	result          Result
	shutdown        chan struct{}
}
