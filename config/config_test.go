package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Renderer.NavigationTimeout != 60*time.Second {
		t.Fatalf("unexpected navigation timeout: %v", cfg.Renderer.NavigationTimeout)
	}
	if cfg.Extraction.ScrollPause != 1500*time.Millisecond || cfg.Extraction.MaxScrollSteps != 30 {
		t.Fatalf("unexpected reveal defaults: %+v", cfg.Extraction)
	}
	if cfg.Classifier.BatchSize != 4 {
		t.Fatalf("unexpected batch size: %d", cfg.Classifier.BatchSize)
	}
	if cfg.Classifier.Endpoint != "https://api-inference.huggingface.co/models/unitary/toxic-bert" {
		t.Fatalf("unexpected classifier endpoint: %s", cfg.Classifier.Endpoint)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := `{
		"server": {"port": 9000},
		"renderer": {"type": "static"},
		"extraction": {"scroll_pause": "10ms", "max_scroll_steps": 3},
		"classifier": {"endpoint": "http://localhost:8080/predict/", "batch_size": 8}
	}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Fatalf("expected port 9000, got %d", cfg.Server.Port)
	}
	if cfg.Renderer.Type != "static" {
		t.Fatalf("expected static renderer, got %s", cfg.Renderer.Type)
	}
	if cfg.Extraction.ScrollPause != 10*time.Millisecond || cfg.Extraction.MaxScrollSteps != 3 {
		t.Fatalf("unexpected extraction config: %+v", cfg.Extraction)
	}
	if cfg.Classifier.Endpoint != "http://localhost:8080/predict" {
		t.Fatalf("expected trailing slash trimmed, got %s", cfg.Classifier.Endpoint)
	}
	if cfg.Classifier.BatchSize != 8 {
		t.Fatalf("expected batch size 8, got %d", cfg.Classifier.BatchSize)
	}
	if len(cfg.Extraction.SitePatterns) != 2 {
		t.Fatalf("expected default site patterns, got %#v", cfg.Extraction.SitePatterns)
	}
}

func TestLoadConfigPortFromEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{}`), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("PORT", "7001")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Port != 7001 {
		t.Fatalf("expected port from PORT env, got %d", cfg.Server.Port)
	}
}

func TestLoadConfigRejectsUnknownRenderer(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"renderer": {"type": "webkit"}}`), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected validation error for unknown renderer")
	}
}
