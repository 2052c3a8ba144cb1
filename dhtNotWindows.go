//go:build !windows
// +build !windows

package dht

import (
	"fmt"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// HostInit calls periph.io host.Init(). This needs to be done before NewDHT can be used.
func HostInit() error {
	_, err := host.Init()
	return err
}

// NewDHT to create a new DHT struct on the named pin, for example "GPIO4".
func NewDHT(pinName string, temperatureUnit TemperatureUnit, sensorType SensorType, opts ...Option) (*DHT, error) {
	// get pin
	pin := gpioreg.ByName(pinName)
	if pin == nil {
		return nil, fmt.Errorf("pin %q not found", pinName)
	}
	return New(pin, temperatureUnit, sensorType, opts...)
}
