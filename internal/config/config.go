package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is read once at startup, after godotenv has populated the environment.
type Config struct {
	Port string

	LLMGatewayURL string
	LLMAPIKey     string
	LLMModel      string
	UseMockLLM    bool

	TranscribeURL     string
	UseMockTranscribe bool

	ReferenceScriptPath string
	SpeakerPatternsPath string
	DatasetPath         string

	ScoringMaxAttempts    int
	ScoringBackoffStep    time.Duration
	ScoringAttemptTimeout time.Duration
	ScoringTemperature    float64

	ObjectionCacheTTL   time.Duration
	ObjectionSweepEvery time.Duration

	QueueMaxInFlight  int
	QueuePollInterval time.Duration
}

func Load() *Config {
	return &Config{
		Port: envOr("PORT", "8080"),

		LLMGatewayURL: os.Getenv("LLM_GATEWAY_URL"),
		LLMAPIKey:     os.Getenv("LLM_API_KEY"),
		LLMModel:      envOr("LLM_MODEL", "gpt-4o-mini"),
		UseMockLLM:    envBool("USE_MOCK_LLM", false),

		TranscribeURL:     os.Getenv("TRANSCRIBE_URL"),
		UseMockTranscribe: envBool("USE_MOCK_TRANSCRIBE", false),

		ReferenceScriptPath: os.Getenv("REFERENCE_SCRIPT_PATH"),
		SpeakerPatternsPath: os.Getenv("SPEAKER_PATTERNS_PATH"),
		DatasetPath:         envOr("DATASET_PATH", "calls.xlsx"),

		ScoringMaxAttempts:    envInt("SCORING_MAX_ATTEMPTS", 3),
		ScoringBackoffStep:    envDuration("SCORING_BACKOFF_STEP", time.Second),
		ScoringAttemptTimeout: envDuration("SCORING_ATTEMPT_TIMEOUT", 60*time.Second),
		ScoringTemperature:    envFloat("SCORING_TEMPERATURE", 0.2),

		ObjectionCacheTTL:   envDuration("OBJECTION_CACHE_TTL", 24*time.Hour),
		ObjectionSweepEvery: envDuration("OBJECTION_SWEEP_INTERVAL", time.Hour),

		QueueMaxInFlight:  envInt("QUEUE_MAX_IN_FLIGHT", 2),
		QueuePollInterval: envDuration("QUEUE_POLL_INTERVAL", 5*time.Second),
	}
}

func envOr(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func envBool(k string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt(k string, def int) int {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil || i < 1 {
		return def
	}
	return i
}

func envFloat(k string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func envDuration(k string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return def
	}
	return d
}
