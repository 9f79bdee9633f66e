package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr         string
	HTTPWriteTimeout time.Duration
	LogLevel         string
	LogFormat        string
	LogFile          string
	ShutdownTimeout  time.Duration

	// Report output.
	OutputDir string

	// DWS upstream configuration.
	DWSBaseURL         string
	DWSTimeout         time.Duration
	DWSRequestInterval time.Duration

	// Optional Kafka summary publishing; disabled when no brokers are set.
	KafkaBrokers      []string
	KafkaSummaryTopic string
}

// PublishEnabled reports whether region averages should be published to Kafka.
func (c *Config) PublishEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	writeTimeout, err := parsePositiveDuration("HTTP_WRITE_TIMEOUT", "5m")
	if err != nil {
		return nil, err
	}

	dwsTimeout, err := parsePositiveDuration("DWS_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	interval, err := time.ParseDuration(sharedcfg.EnvOrDefault("DWS_REQUEST_INTERVAL", "0s"))
	if err != nil || interval < 0 {
		return nil, errors.New("invalid DWS_REQUEST_INTERVAL")
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	cfg := &Config{
		HTTPAddr:         sharedcfg.EnvOrDefault("HTTP_ADDR", ":5000"),
		HTTPWriteTimeout: writeTimeout,
		LogLevel:         sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:        sharedcfg.EnvOrDefault("LOG_FORMAT", "text"),
		LogFile:          os.Getenv("LOG_FILE"),
		ShutdownTimeout:  shutdownTimeout,

		OutputDir: sharedcfg.EnvOrDefault("OUTPUT_DIR", "outputs"),

		DWSBaseURL:         sharedcfg.EnvOrDefault("DWS_BASE_URL", "https://www.dws.gov.za"),
		DWSTimeout:         dwsTimeout,
		DWSRequestInterval: interval,

		KafkaBrokers:      brokers,
		KafkaSummaryTopic: sharedcfg.EnvOrDefault("KAFKA_SUMMARY_TOPIC", "dam-level-summaries"),
	}

	if cfg.OutputDir == "" {
		return nil, errors.New("OUTPUT_DIR is required")
	}
	if u, err := url.Parse(cfg.DWSBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.New("invalid DWS_BASE_URL")
	}
	if cfg.PublishEnabled() && cfg.KafkaSummaryTopic == "" {
		return nil, errors.New("KAFKA_SUMMARY_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}
