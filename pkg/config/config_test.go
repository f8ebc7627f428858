package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const minimalYAML = `
environment: test
server:
  port: 8080
clickhouse:
  host: localhost
  database: tiltguard
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMinimal(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Environment != "test" || cfg.ClickHouse.Host != "localhost" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestEngineDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	e := cfg.Engine
	sum := e.Weights.ActionRate + e.Weights.CancelRatio + e.Weights.LossStreak + e.Weights.SizeEscalation + e.Weights.Volatility
	if sum != 10 {
		t.Fatalf("default weights should sum to 10, got %v", sum)
	}
	if e.LockDuration != 300*time.Second {
		t.Fatalf("expected 300s default lock, got %v", e.LockDuration)
	}
	if e.Thresholds.SoftNudge != 3 || e.Thresholds.Critical != 6 || e.Thresholds.HardLock != 8.5 {
		t.Fatalf("unexpected default thresholds %+v", e.Thresholds)
	}
}

func TestEngineOverrides(t *testing.T) {
	yaml := minimalYAML + `
engine:
  thresholds:
    soft_nudge: 2
    critical: 5
    hard_lock: 9
  lock_duration: 10m
`
	cfg, err := Load(writeConfig(t, yaml))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Engine.Thresholds.Critical != 5 {
		t.Fatalf("override lost: %+v", cfg.Engine.Thresholds)
	}
	if cfg.Engine.LockDuration != 10*time.Minute {
		t.Fatalf("expected 10m lock, got %v", cfg.Engine.LockDuration)
	}
	// untouched fields still defaulted
	if cfg.Engine.Weights.LossStreak != 3.0 {
		t.Fatalf("defaults not applied alongside overrides")
	}
}

func TestValidateRejectsBadThresholds(t *testing.T) {
	yaml := minimalYAML + `
engine:
  thresholds:
    soft_nudge: 6
    critical: 3
    hard_lock: 8.5
`
	if _, err := Load(writeConfig(t, yaml)); err == nil {
		t.Fatalf("expected validation error for non-increasing thresholds")
	}
}

func TestValidateRequiresEnvironment(t *testing.T) {
	if _, err := Load(writeConfig(t, "server:\n  port: 1\nclickhouse:\n  host: x\n")); err == nil {
		t.Fatalf("expected validation error for missing environment")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("MARKETDATA_API_KEY", "k-123")

	cfg, err := LoadWithEnv(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.Redis.Enabled || cfg.Redis.Addr != "redis:6379" {
		t.Fatalf("redis env override lost: %+v", cfg.Redis)
	}
	if cfg.MarketData.APIKey != "k-123" {
		t.Fatalf("api key env override lost")
	}
}
