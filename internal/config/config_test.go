package config

import (
	"testing"
	"time"
)

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "test-secret")
	if _, err := Load(); err == nil {
		t.Fatal("Load must fail without DATABASE_URL")
	}
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/matchpulse")
	t.Setenv("JWT_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatal("Load must fail without JWT_SECRET")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/matchpulse")
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.JWTSecret != "test-secret" {
		t.Fatalf("JWTSecret=%q", cfg.JWTSecret)
	}
	if cfg.VotingWindowHours != 24 {
		t.Fatalf("VotingWindowHours=%d want=24", cfg.VotingWindowHours)
	}
	if cfg.ReminderOffsetHours != 12 {
		t.Fatalf("ReminderOffsetHours=%d want=12", cfg.ReminderOffsetHours)
	}
	if cfg.DispatchInterval != 90*time.Second {
		t.Fatalf("DispatchInterval=%s want=90s", cfg.DispatchInterval)
	}
}
