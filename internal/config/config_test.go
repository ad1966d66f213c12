package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)
	return logger
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load(newTestLogger())

	if cfg.SpecURL != DefaultSpecURL {
		t.Errorf("SpecURL = %q, want default", cfg.SpecURL)
	}
	if cfg.StorageDir != "api_specs" {
		t.Errorf("StorageDir = %q, want api_specs", cfg.StorageDir)
	}
	if cfg.CheckInterval != 60*time.Minute {
		t.Errorf("CheckInterval = %v, want 60m", cfg.CheckInterval)
	}
	if cfg.UseOasdiff {
		t.Error("UseOasdiff = true, want false")
	}
	if cfg.OasdiffPath != "oasdiff" {
		t.Errorf("OasdiffPath = %q, want oasdiff", cfg.OasdiffPath)
	}
	if cfg.OasdiffTimeout != 30*time.Second {
		t.Errorf("OasdiffTimeout = %v, want 30s", cfg.OasdiffTimeout)
	}
	if got := cfg.ServerAddr(); got != "127.0.0.1:8000" {
		t.Errorf("ServerAddr() = %q, want 127.0.0.1:8000", got)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SPECWATCH_SPEC_URL", "https://example.com/openapi.yaml")
	t.Setenv("SPECWATCH_STORAGE_DIR", "/var/lib/specwatch")
	t.Setenv("SPECWATCH_WEBHOOK_URL", "https://hooks.example.com/spec")
	t.Setenv("SPECWATCH_WEBHOOK_SECRET", "s3cret")
	t.Setenv("SPECWATCH_CHECK_INTERVAL_MINUTES", "5")
	t.Setenv("SPECWATCH_SERVER_HOST", "0.0.0.0")
	t.Setenv("SPECWATCH_SERVER_PORT", "9090")
	t.Setenv("SPECWATCH_USE_OASDIFF", "true")
	t.Setenv("SPECWATCH_OASDIFF_PATH", "/usr/local/bin/oasdiff")

	cfg := Load(newTestLogger())

	if cfg.SpecURL != "https://example.com/openapi.yaml" {
		t.Errorf("SpecURL = %q", cfg.SpecURL)
	}
	if cfg.StorageDir != "/var/lib/specwatch" {
		t.Errorf("StorageDir = %q", cfg.StorageDir)
	}
	if cfg.WebhookSecret != "s3cret" {
		t.Errorf("WebhookSecret = %q", cfg.WebhookSecret)
	}
	if cfg.CheckInterval != 5*time.Minute {
		t.Errorf("CheckInterval = %v, want 5m", cfg.CheckInterval)
	}
	if !cfg.UseOasdiff {
		t.Error("UseOasdiff = false, want true")
	}
	if cfg.OasdiffPath != "/usr/local/bin/oasdiff" {
		t.Errorf("OasdiffPath = %q", cfg.OasdiffPath)
	}
	if got := cfg.ServerAddr(); got != "0.0.0.0:9090" {
		t.Errorf("ServerAddr() = %q, want 0.0.0.0:9090", got)
	}
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("SPECWATCH_CHECK_INTERVAL_MINUTES", "soon")
	t.Setenv("SPECWATCH_SERVER_PORT", "not-a-port")
	t.Setenv("SPECWATCH_USE_OASDIFF", "maybe")

	cfg := Load(newTestLogger())

	if cfg.CheckInterval != 60*time.Minute {
		t.Errorf("CheckInterval = %v, want default 60m", cfg.CheckInterval)
	}
	if cfg.ServerPort != 8000 {
		t.Errorf("ServerPort = %d, want default 8000", cfg.ServerPort)
	}
	if cfg.UseOasdiff {
		t.Error("UseOasdiff = true, want default false")
	}
}
