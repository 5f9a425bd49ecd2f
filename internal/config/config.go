package config

import (
	"os"
	"strconv"
	"strings"
)

// StagePolicy is the retry policy of one stage as loaded from the
// environment. Zero fields fall back to the global values.
type StagePolicy struct {
	MaxAttempts         int
	BaseBackoffMS       int
	TimeoutSeconds      int
	RateLimitMultiplier float64
}

type Config struct {
	APIPort  string
	LogLevel string

	StoragePath string

	AnalysisURL    string
	AnalysisAPIKey string
	AnalysisRPS    float64
	ExtractorMode  string // "remote" or "local"

	NATSURL     string // empty disables event publishing
	NATSSubject string

	ConcurrencyLimit int
	SummaryLength    string

	RetryMaxAttempts           int
	RetryBaseBackoffMS         int
	StageTimeoutSeconds        int
	RateLimitBackoffMultiplier float64
	StagePolicies              map[string]StagePolicy

	BreakerEnabled          bool
	BreakerMinRequests      int
	BreakerFailureRatio     float64
	BreakerOpenTimeoutSecs  int
	BreakerHalfOpenMaxCalls int
}

// StageNames lists the stage identifiers that accept per-stage policy
// overrides via STAGE_<NAME>_* environment variables.
var StageNames = []string{
	"extract",
	"summarize",
	"analyze-image",
	"analyze-structure",
	"analyze-quality",
	"analyze-specialized",
}

func Load() Config {
	cfg := Config{
		APIPort:  mustEnv("API_PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		StoragePath: mustEnv("STORAGE_PATH", "./data/files"),

		AnalysisURL:    mustEnv("ANALYSIS_URL", "http://localhost:9400"),
		AnalysisAPIKey: mustEnv("ANALYSIS_API_KEY", ""),
		AnalysisRPS:    mustEnvFloat("ANALYSIS_RPS", 5),
		ExtractorMode:  mustEnv("EXTRACTOR_MODE", "remote"),

		NATSURL:     mustEnv("NATS_URL", ""),
		NATSSubject: mustEnv("NATS_SUBJECT", "docinsight.stage.completed"),

		ConcurrencyLimit: mustEnvInt("CONCURRENCY_LIMIT", 4),
		SummaryLength:    mustEnv("SUMMARY_LENGTH", "medium"),

		RetryMaxAttempts:           mustEnvInt("RETRY_MAX_ATTEMPTS", 3),
		RetryBaseBackoffMS:         mustEnvInt("RETRY_BASE_BACKOFF_MS", 500),
		StageTimeoutSeconds:        mustEnvInt("STAGE_TIMEOUT_SECONDS", 30),
		RateLimitBackoffMultiplier: mustEnvFloat("RATE_LIMIT_BACKOFF_MULTIPLIER", 4),

		BreakerEnabled:          mustEnvBool("BREAKER_ENABLED", true),
		BreakerMinRequests:      mustEnvInt("BREAKER_MIN_REQUESTS", 10),
		BreakerFailureRatio:     mustEnvFloat("BREAKER_FAILURE_RATIO", 0.5),
		BreakerOpenTimeoutSecs:  mustEnvInt("BREAKER_OPEN_TIMEOUT_SECONDS", 30),
		BreakerHalfOpenMaxCalls: mustEnvInt("BREAKER_HALF_OPEN_MAX_CALLS", 2),
	}

	cfg.StagePolicies = make(map[string]StagePolicy, len(StageNames))
	for _, name := range StageNames {
		prefix := "STAGE_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
		cfg.StagePolicies[name] = StagePolicy{
			MaxAttempts:         mustEnvInt(prefix+"_MAX_ATTEMPTS", cfg.RetryMaxAttempts),
			BaseBackoffMS:       mustEnvInt(prefix+"_BASE_BACKOFF_MS", cfg.RetryBaseBackoffMS),
			TimeoutSeconds:      mustEnvInt(prefix+"_TIMEOUT_SECONDS", cfg.StageTimeoutSeconds),
			RateLimitMultiplier: mustEnvFloat(prefix+"_RATE_LIMIT_MULTIPLIER", cfg.RateLimitBackoffMultiplier),
		}
	}

	return cfg
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}
