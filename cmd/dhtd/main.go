// Command dhtd polls a DHT sensor and serves the readings over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	dht "github.com/arbona-robin/pxt-DHT11-DHT22"
	"github.com/arbona-robin/pxt-DHT11-DHT22/internal/config"
	"github.com/arbona-robin/pxt-DHT11-DHT22/internal/exporter"
	"github.com/arbona-robin/pxt-DHT11-DHT22/internal/influx"
	"github.com/arbona-robin/pxt-DHT11-DHT22/internal/logging"
)

var configPath = flag.String("config", "dhtd.toml", "path to the TOML config, empty for defaults and environment only")

func main() {
	flag.Parse()

	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.Warnf("load .env: %v", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatal(err)
	}
	logger := logging.Configure(cfg.LogLevel)
	gin.SetMode(gin.ReleaseMode)

	if err := dht.HostInit(); err != nil {
		logger.Fatalf("host init: %v", err)
	}
	sensor, err := dht.NewDHT(cfg.Pin, cfg.TemperatureUnit(), cfg.SensorType(),
		dht.WithLogger(logger), dht.WithPullUp(cfg.PullUp))
	if err != nil {
		logger.Fatalf("dht: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := exporter.NewMetrics(prometheus.DefaultRegisterer, cfg.SensorType().String(), cfg.Pin)

	var writer *influx.Writer
	if cfg.Influx.Enabled() {
		writer = influx.New(cfg.Influx, map[string]string{
			"sensor":   cfg.SensorType().String(),
			"pin":      cfg.Pin,
			"location": cfg.Location,
		})
		defer writer.Close()
	}

	srv := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: exporter.NewRouter(sensor, prometheus.DefaultGatherer, logger),
	}
	go func() {
		logger.Infof("listening on %s", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("http server: %v", err)
		}
	}()

	opts := dht.QueryOptions{PullUp: cfg.PullUp, Log: cfg.Log}
	err = sensor.ReadBackground(ctx, opts, cfg.Interval.Duration, func(r dht.Result) {
		now := time.Now()
		metrics.Observe(r, now)
		if writer == nil {
			return
		}
		wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := writer.Write(wctx, r, now); err != nil {
			logger.Warn(err)
		}
	})
	logger.Infof("stopping: %v", err)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}
}
