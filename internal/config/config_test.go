package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"xknowledge/pkg/log"
)

func env(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg := FromEnv(env(nil))

	if cfg.Port != DefaultPort {
		t.Errorf("Port: got %v, want %v", cfg.Port, DefaultPort)
	}
	if cfg.LogLevel != log.Info {
		t.Errorf("LogLevel: got %v, want INFO", cfg.LogLevel)
	}
	if cfg.MediaCacheTTL != DefaultMediaCacheTTL {
		t.Errorf("MediaCacheTTL: got %v, want %v", cfg.MediaCacheTTL, DefaultMediaCacheTTL)
	}
	if cfg.AIBaseURL != DefaultAIBaseURL || cfg.AIModel != DefaultAIModel {
		t.Errorf("AI: got %v %v", cfg.AIBaseURL, cfg.AIModel)
	}
	if cfg.AnalyzeBatchSize != DefaultAnalyzeBatchSize {
		t.Errorf("AnalyzeBatchSize: got %v, want %v", cfg.AnalyzeBatchSize, DefaultAnalyzeBatchSize)
	}
	if cfg.CaptureRateLimit != DefaultCaptureRateLimit {
		t.Errorf("CaptureRateLimit: got %v, want %v", cfg.CaptureRateLimit, DefaultCaptureRateLimit)
	}
	if !strings.HasSuffix(cfg.DataDir, ".xknowledge") {
		t.Errorf("DataDir: got %v, want suffix .xknowledge", cfg.DataDir)
	}
	if cfg.AnalyzerEnabled() || cfg.NotionEnabled() {
		t.Error("integrations should be disabled without credentials")
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	dir := t.TempDir()
	cfg := FromEnv(env(map[string]string{
		"PORT":                    "8080",
		"LOG_LEVEL":               "debug",
		"DATA_DIR":                dir,
		"MEDIA_CACHE_TTL_MINUTES": "5",
		"AI_API_KEY":              " sk-test ",
		"ANALYZE_SCHEDULE":        "@every 1h",
		"NOTION_TOKEN":            "secret",
		"NOTION_DATABASE_ID":      "db",
		"CAPTURE_RATE_LIMIT":      "3",
	}))

	if cfg.Port != "8080" {
		t.Errorf("Port: got %v, want 8080", cfg.Port)
	}
	if cfg.LogLevel != log.Debug {
		t.Errorf("LogLevel: got %v, want DEBUG", cfg.LogLevel)
	}
	if cfg.MediaCacheTTL != 5*time.Minute {
		t.Errorf("MediaCacheTTL: got %v, want 5m", cfg.MediaCacheTTL)
	}
	if cfg.AIAPIKey != "sk-test" || !cfg.AnalyzerEnabled() {
		t.Errorf("AIAPIKey: got %q", cfg.AIAPIKey)
	}
	if !cfg.NotionEnabled() {
		t.Error("NotionEnabled: got false, want true")
	}
	if cfg.CaptureRateLimit != 3 {
		t.Errorf("CaptureRateLimit: got %v, want 3", cfg.CaptureRateLimit)
	}
	if cfg.DatabasePath() != filepath.Join(dir, "xknowledge.db") {
		t.Errorf("DatabasePath: got %v", cfg.DatabasePath())
	}
}

func TestFromEnv_InvalidNumbers_FallBack(t *testing.T) {
	cfg := FromEnv(env(map[string]string{
		"MEDIA_CACHE_TTL_MINUTES": "soon",
		"ANALYZE_BATCH_SIZE":      "-2",
		"LOG_LEVEL":               "chatty",
	}))

	if cfg.MediaCacheTTL != DefaultMediaCacheTTL {
		t.Errorf("MediaCacheTTL: got %v, want default", cfg.MediaCacheTTL)
	}
	if cfg.AnalyzeBatchSize != DefaultAnalyzeBatchSize {
		t.Errorf("AnalyzeBatchSize: got %v, want default", cfg.AnalyzeBatchSize)
	}
	if cfg.LogLevel != log.Info {
		t.Errorf("LogLevel: got %v, want INFO", cfg.LogLevel)
	}
}
