package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTPPort != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.HTTPPort)
	}
	if cfg.IdempotencyTTL != 24*time.Hour {
		t.Errorf("expected 24h idempotency TTL, got %s", cfg.IdempotencyTTL)
	}
	if cfg.RiskLargeAmountThreshold != "10000" {
		t.Errorf("expected threshold 10000, got %s", cfg.RiskLargeAmountThreshold)
	}
	if cfg.EventStreamPrefix != "events" {
		t.Errorf("expected stream prefix events, got %s", cfg.EventStreamPrefix)
	}
	if cfg.OutboxRetention != 168*time.Hour {
		t.Errorf("expected 168h outbox retention, got %s", cfg.OutboxRetention)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("SCHEDULER_INTERVAL", "1m")
	t.Setenv("RATE_LIMIT_RPS", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTPPort != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.HTTPPort)
	}
	if cfg.SchedulerInterval != time.Minute {
		t.Errorf("expected 1m scheduler interval, got %s", cfg.SchedulerInterval)
	}
	if cfg.RateLimitRPS != 5 {
		t.Errorf("expected rps 5, got %f", cfg.RateLimitRPS)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("DATABASE_TIMEOUT", "not-a-duration")

	if _, err := Load(); err == nil {
		t.Fatal("expected parse error for bad duration")
	}
}
