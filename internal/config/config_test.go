package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "SCORING_MAX_ATTEMPTS", "SCORING_BACKOFF_STEP", "OBJECTION_CACHE_TTL", "QUEUE_MAX_IN_FLIGHT", "USE_MOCK_LLM"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	if got, want := cfg.Port, "8080"; got != want {
		t.Fatalf("port mismatch: got %q want %q", got, want)
	}
	if got, want := cfg.ScoringMaxAttempts, 3; got != want {
		t.Fatalf("max attempts mismatch: got %d want %d", got, want)
	}
	if got, want := cfg.ScoringBackoffStep, time.Second; got != want {
		t.Fatalf("backoff step mismatch: got %s want %s", got, want)
	}
	if got, want := cfg.ObjectionCacheTTL, 24*time.Hour; got != want {
		t.Fatalf("cache ttl mismatch: got %s want %s", got, want)
	}
	if got, want := cfg.QueueMaxInFlight, 2; got != want {
		t.Fatalf("queue in-flight mismatch: got %d want %d", got, want)
	}
	if cfg.UseMockLLM {
		t.Fatal("mock llm should default to false")
	}
}

func TestLoadOverridesAndBadValues(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SCORING_MAX_ATTEMPTS", "5")
	t.Setenv("SCORING_BACKOFF_STEP", "250ms")
	t.Setenv("SCORING_TEMPERATURE", "not-a-number")
	t.Setenv("QUEUE_MAX_IN_FLIGHT", "0")
	t.Setenv("USE_MOCK_LLM", "true")

	cfg := Load()
	if got, want := cfg.Port, "9090"; got != want {
		t.Fatalf("port mismatch: got %q want %q", got, want)
	}
	if got, want := cfg.ScoringMaxAttempts, 5; got != want {
		t.Fatalf("max attempts mismatch: got %d want %d", got, want)
	}
	if got, want := cfg.ScoringBackoffStep, 250*time.Millisecond; got != want {
		t.Fatalf("backoff step mismatch: got %s want %s", got, want)
	}
	if got, want := cfg.ScoringTemperature, 0.2; got != want {
		t.Fatalf("temperature should fall back to default: got %v want %v", got, want)
	}
	if got, want := cfg.QueueMaxInFlight, 2; got != want {
		t.Fatalf("non-positive in-flight should fall back: got %d want %d", got, want)
	}
	if !cfg.UseMockLLM {
		t.Fatal("USE_MOCK_LLM=true not honored")
	}
}
