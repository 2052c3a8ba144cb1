package dht

import (
	"errors"
	"fmt"
	"math"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/physic"
)

// Sense queries the sensor and fills env in periph units. Pressure is not
// measured and is set to 0. The selected TemperatureUnit does not apply here,
// physic.Temperature is unit independent. The query result is also stored as
// for Query.
func (dht *DHT) Sense(env *physic.Env) error {
	env.Temperature = 0
	env.Pressure = 0
	env.Humidity = 0

	frame, _, err := dht.query(QueryOptions{PullUp: dht.pullUp})
	if err != nil {
		return err
	}
	if !frame.Valid() {
		return fmt.Errorf("%w: frame %v", ErrChecksum, frame)
	}

	humidity, celsius := dht.sensorType.decoder().decode(frame)
	err = dht.checkRange(humidity, celsius)
	if err != nil {
		return err
	}

	env.Humidity = physic.RelativeHumidity(math.Round(humidity * float64(physic.PercentRH)))
	env.Temperature = physic.ZeroCelsius + physic.Temperature(math.Round(celsius*float64(physic.Celsius)))
	return nil
}

// checkRange rejects values outside of the datasheet measuring range.
func (dht *DHT) checkRange(humidity, celsius float64) error {
	// humidity is between 0 % to 100 %
	if humidity < 0 || humidity > 100 {
		return fmt.Errorf("bad data - humidity: %v", humidity)
	}
	if dht.sensorType == DHT11 {
		// temperature between 0 C to 50 C
		if celsius < 0 || celsius > 50 {
			return fmt.Errorf("bad data - temperature: %v", celsius)
		}
		return nil
	}
	// temperature between -40 C to 80 C
	if celsius < -40 || celsius > 80 {
		return fmt.Errorf("bad data - temperature: %v", celsius)
	}
	return nil
}

// SenseContinuous returns a channel that receives a reading every interval.
// Failed reads are skipped. interval can not be shorter than the sensor
// minimum. To end the read, call Halt()
func (dht *DHT) SenseContinuous(interval time.Duration) (<-chan physic.Env, error) {
	if interval < dht.sensorType.MinInterval() {
		return nil, fmt.Errorf("dht: invalid interval %v, minimum %v", interval, dht.sensorType.MinInterval())
	}

	dht.stateMu.Lock()
	defer dht.stateMu.Unlock()
	if dht.shutdown != nil {
		return nil, errors.New("dht: sense continuous already running")
	}
	shutdown := make(chan struct{})
	dht.shutdown = shutdown

	ch := make(chan physic.Env, 16)
	go func() {
		defer close(ch)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-shutdown:
				return
			case <-ticker.C:
				e := physic.Env{}
				if err := dht.Sense(&e); err != nil {
					dht.logger.Debugf("sense continuous: %v", err)
					continue
				}
				select {
				case ch <- e:
				default:
				}
			}
		}
	}()
	return ch, nil
}

// Halt interrupts a running SenseContinuous() operation.
func (dht *DHT) Halt() error {
	dht.stateMu.Lock()
	defer dht.stateMu.Unlock()
	if dht.shutdown != nil {
		close(dht.shutdown)
		dht.shutdown = nil
	}
	return nil
}

// Precision returns the resolution of the sensor for its measured parameters.
func (dht *DHT) Precision(env *physic.Env) {
	env.Pressure = 0
	if dht.sensorType == DHT11 {
		env.Temperature = physic.Celsius
		env.Humidity = physic.PercentRH
		return
	}
	env.Temperature = physic.Celsius / 10
	env.Humidity = physic.PercentRH / 10
}

func (dht *DHT) String() string {
	return fmt.Sprintf("%v{%s}", dht.sensorType, dht.pin)
}

var _ conn.Resource = &DHT{}
var _ physic.SenseEnv = &DHT{}
