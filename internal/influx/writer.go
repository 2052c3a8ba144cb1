// Package influx writes sensor readings to InfluxDB.
package influx

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	dht "github.com/arbona-robin/pxt-DHT11-DHT22"
	"github.com/arbona-robin/pxt-DHT11-DHT22/internal/config"
)

type pointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// Writer stores readings with a valid checksum, one point per query.
type Writer struct {
	client      influxdb2.Client
	api         pointWriter
	measurement string
	tags        map[string]string
}

// New connects lazily, nothing is sent before the first Write.
func New(cfg config.InfluxConfig, tags map[string]string) *Writer {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &Writer{
		client:      client,
		api:         client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		measurement: cfg.Measurement,
		tags:        tags,
	}
}

// Point builds the point for r, ok is false when r has nothing worth storing.
func (w *Writer) Point(r dht.Result, at time.Time) (p *write.Point, ok bool) {
	if !r.SensorResponded || !r.ChecksumValid {
		return nil, false
	}
	tags := make(map[string]string, len(w.tags)+1)
	for k, v := range w.tags {
		tags[k] = v
	}
	tags["unit"] = r.Unit.String()
	fields := map[string]interface{}{
		"humidity":        r.Humidity,
		"temperature":     r.Temperature,
		"duration_micros": r.Duration.Microseconds(),
	}
	return influxdb2.NewPoint(w.measurement, tags, fields, at), true
}

// Write sends r, skipping failed queries.
func (w *Writer) Write(ctx context.Context, r dht.Result, at time.Time) error {
	p, ok := w.Point(r, at)
	if !ok {
		return nil
	}
	if err := w.api.WritePoint(ctx, p); err != nil {
		return fmt.Errorf("influx write failed: %w", err)
	}
	return nil
}

// Close releases the client connections.
func (w *Writer) Close() {
	if w.client != nil {
		w.client.Close()
	}
}
