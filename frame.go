package dht

import "fmt"

// Frame is the 5 bytes sent by the sensor, in transmission order:
// humidity high, humidity low, temperature high, temperature low, checksum.
type Frame [5]byte

// Checksum is the low byte of the sum of the four data bytes.
func (f Frame) Checksum() byte {
	return f[0] + f[1] + f[2] + f[3]
}

// Valid reports whether the checksum byte matches the data bytes.
func (f Frame) Valid() bool {
	return f.Checksum() == f[4]
}

func (f Frame) String() string {
	return fmt.Sprintf("[%d, %d, %d, %d, %d]", f[0], f[1], f[2], f[3], f[4])
}

// decoder converts the data bytes to humidity in percent and temperature in Celsius.
type decoder interface {
	decode(f Frame) (humidity float64, celsius float64)
}

type dht11Decoder struct{}

func (dht11Decoder) decode(f Frame) (float64, float64) {
	return float64(f[0]), float64(f[2])
}

type dht22Decoder struct{}

func (dht22Decoder) decode(f Frame) (float64, float64) {
	sign := 1.0
	high := f[2]
	// if high bit is set, value is negative
	if high&0x80 != 0 {
		high &^= 0x80
		sign = -1
	}
	humidity := float64(int(f[0])<<8|int(f[1])) / 10
	temperature := sign * float64(int(high)<<8|int(f[3])) / 10
	return humidity, temperature
}

func (s SensorType) decoder() decoder {
	if s == DHT11 {
		return dht11Decoder{}
	}
	return dht22Decoder{}
}

// CelsiusTo converts a Celsius temperature to unit.
func CelsiusTo(celsius float64, unit TemperatureUnit) float64 {
	if unit == Fahrenheit {
		return celsius*9/5 + 32
	}
	return celsius
}

// Decode converts a frame to a Result. It never fails, a frame with a bad
// checksum still gets its values decoded with ChecksumValid false.
func Decode(frame Frame, sensorType SensorType, unit TemperatureUnit) Result {
	humidity, celsius := sensorType.decoder().decode(frame)
	return Result{
		Humidity:        humidity,
		Temperature:     CelsiusTo(celsius, unit),
		Unit:            unit,
		ChecksumValid:   frame.Valid(),
		SensorResponded: true,
	}
}
