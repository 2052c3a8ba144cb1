// Package exporter publishes sensor readings as prometheus metrics and over HTTP.
package exporter

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	dht "github.com/arbona-robin/pxt-DHT11-DHT22"
)

// Values of the outcome label.
const (
	OutcomeOK            = "ok"
	OutcomeChecksumError = "checksum_error"
	OutcomeNoResponse    = "no_response"
)

// Outcome classifies a query result for the queries_total counter.
func Outcome(r dht.Result) string {
	switch {
	case !r.SensorResponded:
		return OutcomeNoResponse
	case !r.ChecksumValid:
		return OutcomeChecksumError
	}
	return OutcomeOK
}

// Metrics holds the collectors of one sensor.
type Metrics struct {
	humidity    prometheus.Gauge
	temperature *prometheus.GaugeVec
	queries     *prometheus.CounterVec
	duration    prometheus.Histogram
	lastSuccess prometheus.Gauge
}

// NewMetrics registers the sensor metrics on reg, labelled with sensor and pin.
func NewMetrics(reg prometheus.Registerer, sensor, pin string) *Metrics {
	labels := prometheus.Labels{"sensor": sensor, "pin": pin}
	m := &Metrics{
		humidity: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "dht",
			Name:        "humidity_percent",
			Help:        "Relative humidity of the last valid query.",
			ConstLabels: labels,
		}),
		temperature: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   "dht",
			Name:        "temperature",
			Help:        "Temperature of the last valid query.",
			ConstLabels: labels,
		}, []string{"unit"}),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "dht",
			Name:        "queries_total",
			Help:        "Sensor queries by outcome.",
			ConstLabels: labels,
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "dht",
			Name:        "query_duration_seconds",
			Help:        "Time from start signal to last bit.",
			ConstLabels: labels,
			Buckets:     prometheus.LinearBuckets(0.018, 0.001, 10),
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "dht",
			Name:        "last_success_timestamp_seconds",
			Help:        "Unix time of the last query with a valid checksum.",
			ConstLabels: labels,
		}),
	}
	reg.MustRegister(m.humidity, m.temperature, m.queries, m.duration, m.lastSuccess)
	for _, outcome := range []string{OutcomeOK, OutcomeChecksumError, OutcomeNoResponse} {
		m.queries.WithLabelValues(outcome)
	}
	return m
}

// Observe records r. Values are only exported for queries with a valid checksum.
func (m *Metrics) Observe(r dht.Result, at time.Time) {
	outcome := Outcome(r)
	m.queries.WithLabelValues(outcome).Inc()
	if !r.SensorResponded {
		return
	}
	m.duration.Observe(r.Duration.Seconds())
	if outcome != OutcomeOK {
		return
	}
	m.humidity.Set(r.Humidity)
	// drop the series of a previously selected unit
	m.temperature.Reset()
	m.temperature.WithLabelValues(unitLabel(r.Unit)).Set(r.Temperature)
	m.lastSuccess.Set(float64(at.Unix()))
}

func unitLabel(u dht.TemperatureUnit) string {
	if u == dht.Fahrenheit {
		return "fahrenheit"
	}
	return "celsius"
}
