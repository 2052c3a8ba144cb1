// Package logging configures the logrus standard logger for the commands.
package logging

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Environment variables read by Configure.
const (
	EnvLogLevel   = "DHT_LOG_LEVEL"
	EnvLogJSON    = "DHT_LOG_JSON"
	EnvLogNoColor = "DHT_LOG_NOCOLOR"
)

// Configure sets the level and formatter of the standard logger and returns it.
// Environment variables take precedence over level.
func Configure(level string) *logrus.Logger {
	logger := logrus.StandardLogger()
	apply(logger, level, os.Getenv)
	return logger
}

func apply(logger *logrus.Logger, level string, getenv func(string) string) {
	if raw := getenv(EnvLogLevel); strings.TrimSpace(raw) != "" {
		level = raw
	}
	lvl, ok := parseLevel(level)
	if !ok {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	if parseBool(getenv(EnvLogJSON)) {
		logger.SetFormatter(&logrus.JSONFormatter{})
		return
	}
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
		DisableColors: parseBool(getenv(EnvLogNoColor)),
	})
}

func parseLevel(raw string) (logrus.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return logrus.InfoLevel, false
	case "off", "none", "disabled":
		return logrus.PanicLevel, true
	}
	lvl, err := logrus.ParseLevel(strings.TrimSpace(raw))
	if err != nil {
		return logrus.InfoLevel, false
	}
	return lvl, true
}

func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "t", "true", "yes", "on":
		return true
	}
	return false
}
