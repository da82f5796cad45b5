// Package config loads service settings from environment variables.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// SnapTolerance is the default endpoint-snapping epsilon in working-CRS
	// units; requests may override it per build.
	SnapTolerance float64
	// CoordPrecision is the decimal precision of numeric INP fields.
	CoordPrecision int

	// Kafka progress publishing (feature-flagged: enabled when brokers are
	// configured unless explicitly disabled).
	KafkaBrokers       []string
	KafkaProgressTopic string
	KafkaEnabled       bool
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	snapTolerance, err := parseFloat("SNAP_TOLERANCE", "0.01")
	if err != nil || snapTolerance <= 0 {
		return nil, errors.New("invalid SNAP_TOLERANCE")
	}

	precision, err := parseInt("COORD_PRECISION", "4")
	if err != nil || precision < 0 || precision > 12 {
		return nil, errors.New("invalid COORD_PRECISION")
	}

	brokers := parseBrokers(os.Getenv("KAFKA_BROKERS"))
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_PROGRESS_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		SnapTolerance:  snapTolerance,
		CoordPrecision: precision,

		KafkaBrokers:       brokers,
		KafkaProgressTopic: envOrDefault("KAFKA_PROGRESS_TOPIC", "network-build-progress"),
		KafkaEnabled:       kafkaEnabled,
	}

	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_PROGRESS_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaProgressTopic == "" {
		return nil, errors.New("KAFKA_PROGRESS_TOPIC is required when progress publishing is enabled")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return d, nil
}

func parseFloat(key, def string) (float64, error) {
	f, err := strconv.ParseFloat(envOrDefault(key, def), 64)
	if err != nil {
		return 0, errors.New("invalid " + key)
	}
	return f, nil
}

func parseInt(key, def string) (int, error) {
	n, err := strconv.Atoi(envOrDefault(key, def))
	if err != nil {
		return 0, errors.New("invalid " + key)
	}
	return n, nil
}

func parseBrokers(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
