package exporter

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	dht "github.com/arbona-robin/pxt-DHT11-DHT22"
)

// Source is the sensor state served over HTTP, *dht.DHT implements it.
type Source interface {
	LastResult() dht.Result
	SensorType() dht.SensorType
}

// Reading is the JSON body of /reading.
type Reading struct {
	Sensor          string   `json:"sensor"`
	Humidity        *float64 `json:"humidity"`
	Temperature     *float64 `json:"temperature"`
	Unit            string   `json:"unit"`
	ChecksumValid   bool     `json:"checksumValid"`
	SensorResponded bool     `json:"sensorResponded"`
	DurationMicros  int64    `json:"durationMicros"`
}

// NewReading converts r, Unset values become null.
func NewReading(sensorType dht.SensorType, r dht.Result) Reading {
	reading := Reading{
		Sensor:          sensorType.String(),
		Unit:            unitLabel(r.Unit),
		ChecksumValid:   r.ChecksumValid,
		SensorResponded: r.SensorResponded,
		DurationMicros:  r.Duration.Microseconds(),
	}
	if r.Humidity != dht.Unset {
		h := r.Humidity
		reading.Humidity = &h
	}
	if r.Temperature != dht.Unset {
		t := r.Temperature
		reading.Temperature = &t
	}
	return reading
}

// NewRouter serves /reading, /healthz and /metrics.
func NewRouter(src Source, gatherer prometheus.Gatherer, logger logrus.FieldLogger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	router.GET("/reading", func(c *gin.Context) {
		c.JSON(http.StatusOK, NewReading(src.SensorType(), src.LastResult()))
	})
	router.GET("/healthz", func(c *gin.Context) {
		r := src.LastResult()
		status := http.StatusOK
		if !r.SensorResponded {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": Outcome(r)})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	return router
}

func requestLogger(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		entry := logger.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     path,
			"status":   status,
			"duration": time.Since(start),
		})
		if status >= 500 {
			entry.Warn("http_request")
		} else {
			entry.Debug("http_request")
		}
	}
}
