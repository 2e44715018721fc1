package main

import (
	"time"

	"github.com/spf13/pflag"

	"book-search/common"
	"book-search/internal/gutendex"
)

// config is resolved from flags, then environment (including .env), then defaults.
type config struct {
	BaseURL     string
	Timeout     time.Duration
	Rate        float64
	Burst       int
	ProxyURL    string
	LogLevel    string
	LogFormat   string
	KafkaBroker string
	EventsTopic string
	RedisAddr   string
	StatusTTL   time.Duration
	MetricsAddr string
}

func configFromEnv() config {
	return config{
		BaseURL:     common.GetEnv("CATALOGUE_BASE_URL", gutendex.DefaultBaseURL),
		Timeout:     common.ParseDuration(common.GetEnv("HTTP_TIMEOUT", "30s"), gutendex.DefaultTotalTimeout),
		Rate:        common.ParseFloat(common.GetEnv("CATALOGUE_RATE", "0"), 0),
		Burst:       common.ParseInt(common.GetEnv("CATALOGUE_BURST", "1"), 1),
		ProxyURL:    common.GetEnv("PROXY_URL", ""),
		LogLevel:    common.GetEnv("LOG_LEVEL", "info"),
		LogFormat:   common.GetEnv("LOG_FORMAT", "console"),
		KafkaBroker: common.GetEnv("KAFKA_BROKER", ""),
		EventsTopic: common.GetEnv("KAFKA_EVENTS_TOPIC", "booksearch.search.events"),
		RedisAddr:   common.GetEnv("REDIS_ADDR", ""),
		StatusTTL:   common.ParseDuration(common.GetEnv("STATUS_TTL", "24h"), 24*time.Hour),
		MetricsAddr: common.GetEnv("METRICS_ADDR", ""),
	}
}

// bindFlags registers the shared flags. Their defaults are empty so that unset
// flags fall through to the environment in applyFlags.
func bindFlags(fs *pflag.FlagSet, f *config) {
	fs.StringVar(&f.BaseURL, "base-url", "", "Catalogue base URL (env CATALOGUE_BASE_URL)")
	fs.DurationVar(&f.Timeout, "timeout", 0, "Total HTTP timeout per request (env HTTP_TIMEOUT)")
	fs.Float64Var(&f.Rate, "rate", 0, "Max catalogue requests per second, 0 for unlimited (env CATALOGUE_RATE)")
	fs.StringVar(&f.LogLevel, "log-level", "", "Log level: debug, info, warn, error (env LOG_LEVEL)")
	fs.StringVar(&f.KafkaBroker, "kafka-broker", "", "Kafka broker for search events; empty disables (env KAFKA_BROKER)")
	fs.StringVar(&f.RedisAddr, "redis-addr", "", "Redis address for session status; empty disables (env REDIS_ADDR)")
	fs.StringVar(&f.MetricsAddr, "metrics-addr", "", "Serve /metrics on this address (env METRICS_ADDR)")
}

// applyFlags overlays flags the user actually set onto env.
func applyFlags(fs *pflag.FlagSet, flags, env config) config {
	cfg := env
	if fs.Changed("base-url") {
		cfg.BaseURL = flags.BaseURL
	}
	if fs.Changed("timeout") {
		cfg.Timeout = flags.Timeout
	}
	if fs.Changed("rate") {
		cfg.Rate = flags.Rate
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = flags.LogLevel
	}
	if fs.Changed("kafka-broker") {
		cfg.KafkaBroker = flags.KafkaBroker
	}
	if fs.Changed("redis-addr") {
		cfg.RedisAddr = flags.RedisAddr
	}
	if fs.Changed("metrics-addr") {
		cfg.MetricsAddr = flags.MetricsAddr
	}
	return cfg
}
