// Command dhtquery reads a DHT11 or DHT22 sensor once and prints the result.
package main

import (
	"flag"
	"fmt"
	"os"

	dht "github.com/arbona-robin/pxt-DHT11-DHT22"
	"github.com/arbona-robin/pxt-DHT11-DHT22/internal/logging"
)

var (
	pinName  = flag.String("pin", "GPIO4", "data pin name")
	sensor   = flag.String("sensor", "dht22", "sensor type: dht11, dht22 or am2302")
	unitName = flag.String("unit", "celsius", "temperature unit: celsius or fahrenheit")
	pullUp   = flag.Bool("pullup", true, "enable the internal pull-up on the data pin")
	verbose  = flag.Bool("log", false, "log query diagnostics")
	wait     = flag.Bool("wait", false, "wait 2 seconds after the query")
	level    = flag.String("log-level", "info", "log level")
)

func main() {
	flag.Parse()
	logger := logging.Configure(*level)

	sensorType, err := dht.ParseSensorType(*sensor)
	if err != nil {
		logger.Fatal(err)
	}
	unit, err := dht.ParseTemperatureUnit(*unitName)
	if err != nil {
		logger.Fatal(err)
	}

	if err := dht.HostInit(); err != nil {
		logger.Fatalf("host init: %v", err)
	}
	sensorDev, err := dht.NewDHT(*pinName, unit, sensorType, dht.WithLogger(logger))
	if err != nil {
		logger.Fatalf("dht: %v", err)
	}

	result := sensorDev.Query(dht.QueryOptions{PullUp: *pullUp, Log: *verbose, WaitAfter: *wait})
	if !result.SensorResponded {
		fmt.Fprintf(os.Stderr, "%v on %s not responding\n", sensorType, *pinName)
		os.Exit(1)
	}
	fmt.Printf("humidity=%.1f%% temperature=%.1f%v checksum_ok=%v\n",
		result.Humidity, result.Temperature, result.Unit, result.ChecksumValid)
	if !result.ChecksumValid {
		os.Exit(2)
	}
}
