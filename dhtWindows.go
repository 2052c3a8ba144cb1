//go:build windows
// +build windows

package dht

import (
	"errors"
)

var errUnsupported = errors.New("dht: gpio is not supported on windows")

// HostInit is a no-op on windows.
func HostInit() error {
	return nil
}

// NewDHT always fails on windows, use New with a Pin instead.
func NewDHT(pinName string, temperatureUnit TemperatureUnit, sensorType SensorType, opts ...Option) (*DHT, error) {
	return nil, errUnsupported
}
