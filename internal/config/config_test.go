package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := []byte(`
server:
  port: "9090"
log:
  level: debug
auth:
  secret: s3cret
redis:
  addr: localhost:6379
  db: 2
postgres:
  url: postgres://localhost/quiz
rabbit:
  url: amqp://localhost
quiz:
  default_duration: 45m
`)
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("port = %q", cfg.Server.Port)
	}
	if cfg.Auth.Secret != "s3cret" {
		t.Fatalf("secret = %q", cfg.Auth.Secret)
	}
	if cfg.Redis.DB != 2 {
		t.Fatalf("redis db = %d", cfg.Redis.DB)
	}
	if got := Duration(cfg.Quiz.DefaultDuration, time.Hour); got != 45*time.Minute {
		t.Fatalf("default duration = %v", got)
	}
}

func TestLoadSecretFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("auth:\n  secret: from-file\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("QUIZ_AUTH_SECRET", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Auth.Secret != "from-env" {
		t.Fatalf("secret = %q", cfg.Auth.Secret)
	}
}

func TestDurationFallback(t *testing.T) {
	if got := Duration("", time.Hour); got != time.Hour {
		t.Fatalf("empty: %v", got)
	}
	if got := Duration("not-a-duration", time.Minute); got != time.Minute {
		t.Fatalf("invalid: %v", got)
	}
	if got := Duration("90s", time.Hour); got != 90*time.Second {
		t.Fatalf("valid: %v", got)
	}
}
