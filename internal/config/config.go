// Package config loads the daemon configuration from a TOML file.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	dht "github.com/arbona-robin/pxt-DHT11-DHT22"
)

// Environment variables that override the file.
const (
	EnvPin         = "DHT_PIN"
	EnvInfluxToken = "INFLUX_TOKEN"
)

// Config is the dhtd configuration.
type Config struct {
	Pin      string   `toml:"pin"`
	Sensor   string   `toml:"sensor"`
	Unit     string   `toml:"unit"`
	PullUp   bool     `toml:"pull_up"`
	Log      bool     `toml:"log"`
	LogLevel string   `toml:"log_level"`
	Location string   `toml:"location"`
	Interval Duration `toml:"interval"`

	HTTP   HTTPConfig   `toml:"http"`
	Influx InfluxConfig `toml:"influx"`
}

// HTTPConfig is where the exporter listens.
type HTTPConfig struct {
	Addr string `toml:"addr"`
}

// InfluxConfig is optional, writes are disabled while URL is empty.
type InfluxConfig struct {
	URL         string `toml:"url"`
	Token       string `toml:"token"`
	Org         string `toml:"org"`
	Bucket      string `toml:"bucket"`
	Measurement string `toml:"measurement"`
}

// Enabled is true when a URL is configured.
func (c InfluxConfig) Enabled() bool {
	return strings.TrimSpace(c.URL) != ""
}

// Duration reads "5s" style strings.
type Duration struct {
	time.Duration
}

// UnmarshalText parses text with time.ParseDuration.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText writes the duration in time.Duration.String form.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns a configuration for a DHT22 polled every 5 seconds.
func Default() Config {
	return Config{
		Sensor:   "dht22",
		Unit:     "celsius",
		PullUp:   true,
		LogLevel: "info",
		Interval: Duration{5 * time.Second},
		HTTP:     HTTPConfig{Addr: ":9108"},
		Influx:   InfluxConfig{Measurement: "dht"},
	}
}

// Load reads path over the defaults, applies environment overrides and validates.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
		}
	}
	applyEnv(&cfg, os.Getenv)
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) {
	if v := strings.TrimSpace(getenv(EnvPin)); v != "" {
		cfg.Pin = v
	}
	if v := strings.TrimSpace(getenv(EnvInfluxToken)); v != "" {
		cfg.Influx.Token = v
	}
}

// Validate checks the pin, sensor, unit, interval and the influx settings.
func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.Pin) == "" {
		return fmt.Errorf("config missing pin")
	}
	sensorType, err := dht.ParseSensorType(cfg.Sensor)
	if err != nil {
		return err
	}
	if _, err := dht.ParseTemperatureUnit(cfg.Unit); err != nil {
		return err
	}
	if cfg.Interval.Duration < sensorType.MinInterval() {
		return fmt.Errorf("interval %v below %v minimum of %v", cfg.Interval.Duration, sensorType, sensorType.MinInterval())
	}
	if strings.TrimSpace(cfg.HTTP.Addr) == "" {
		return fmt.Errorf("config missing http addr")
	}
	if cfg.Influx.Enabled() {
		if cfg.Influx.Org == "" || cfg.Influx.Bucket == "" {
			return fmt.Errorf("influx org and bucket are required when url is set")
		}
		if cfg.Influx.Measurement == "" {
			return fmt.Errorf("influx measurement is required when url is set")
		}
	}
	return nil
}

// SensorType and TemperatureUnit are only valid after Validate.
func (c Config) SensorType() dht.SensorType {
	s, _ := dht.ParseSensorType(c.Sensor)
	return s
}

// TemperatureUnit is the parsed unit.
func (c Config) TemperatureUnit() dht.TemperatureUnit {
	u, _ := dht.ParseTemperatureUnit(c.Unit)
	return u
}
