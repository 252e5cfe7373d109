package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/onnwee/barnes-hut-sim/internal/utils"
)

// Config holds application configuration derived from environment variables.
type Config struct {
	LogLevel string

	// Simulation parameters.
	BodyCount           int
	DT                  float32
	Theta               float32
	Epsilon             float32
	UseAlternateBackend bool
	TickInterval        time.Duration

	// HTTP server.
	Port string

	// Sentry / error reporting.
	SentryDSN         string
	SentryEnvironment string
	SentryRelease     string

	// OpenTelemetry tracing.
	OTELEnabled    bool
	OTELEndpoint   string
	OTELSampleRate float64

	// Rate limiting.
	RateLimitRequestsPerSecond float64
	RateLimitBurst             int

	// Frame snapshot cache.
	CacheMaxItems int64
	CacheMaxBytes int64
}

var cached *Config

// Load reads env vars once and caches them.
func Load() *Config {
	if cached != nil {
		return cached
	}

	cached = &Config{
		LogLevel: strings.ToLower(envOrDefault("LOG_LEVEL", "info")),

		BodyCount:           utils.GetEnvAsInt("SIM_BODY_COUNT", 5000),
		DT:                  float32(utils.GetEnvAsFloat("SIM_DT", 0.05)),
		Theta:               float32(utils.GetEnvAsFloat("SIM_THETA", 1.0)),
		Epsilon:             float32(utils.GetEnvAsFloat("SIM_EPSILON", 1.0)),
		UseAlternateBackend: utils.GetEnvAsBool("SIM_USE_ALTERNATE_BACKEND", false),
		TickInterval:        time.Duration(utils.GetEnvAsInt("SIM_TICK_INTERVAL_MS", 16)) * time.Millisecond,

		Port: envOrDefault("PORT", "8000"),

		SentryDSN:         os.Getenv("SENTRY_DSN"),
		SentryEnvironment: envOrDefault("SENTRY_ENVIRONMENT", "development"),
		SentryRelease:     envOrDefault("SENTRY_RELEASE", "dev"),

		OTELEnabled:    utils.GetEnvAsBool("OTEL_ENABLED", false),
		OTELEndpoint:   envOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		OTELSampleRate: utils.GetEnvAsFloat("OTEL_SAMPLE_RATE", 1.0),

		RateLimitRequestsPerSecond: utils.GetEnvAsFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst:             utils.GetEnvAsInt("RATE_LIMIT_BURST", 40),

		CacheMaxItems: int64(utils.GetEnvAsInt("CACHE_MAX_ITEMS", 10_000)),
		CacheMaxBytes: parseByteSize(os.Getenv("CACHE_MAX_BYTES"), 64<<20),
	}
	return cached
}

func envOrDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func parseByteSize(s string, def int64) int64 {
	if s == "" {
		return def
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return def
	}
	return v
}

// ResetForTest clears cached config; for use in tests only.
func ResetForTest() { cached = nil }
