// Package config loads runtime settings from the environment.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"xknowledge/pkg/log"
)

// Config holds every runtime setting.
type Config struct {
	Port     string
	LogLevel log.Level
	DataDir  string

	MediaCacheTTL time.Duration

	AIAPIKey      string
	AIBaseURL     string
	AIModel       string
	AIPromptsFile string

	AnalyzeSchedule  string
	AnalyzeBatchSize int

	NotionToken      string
	NotionDatabaseID string

	ChromePath       string
	XAuthCookie      string
	CaptureRateLimit int
}

const (
	DefaultPort             = "3000"
	DefaultAIBaseURL        = "https://api.siliconflow.cn/v1"
	DefaultAIModel          = "deepseek-ai/DeepSeek-R1-Distill-Qwen-7B"
	DefaultPromptsFile      = "config/prompts.yaml"
	DefaultMediaCacheTTL    = 60 * time.Minute
	DefaultAnalyzeBatchSize = 10
	DefaultCaptureRateLimit = 30
)

// Load reads an optional .env file, then the environment.
func Load() Config {
	// A missing .env is fine in production.
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv. Invalid numbers fall back to
// defaults with a warning.
func FromEnv(getenv func(string) string) Config {
	cfg := Config{
		Port:             orDefault(getenv("PORT"), DefaultPort),
		LogLevel:         parseLevel(getenv("LOG_LEVEL")),
		DataDir:          dataDir(getenv("DATA_DIR")),
		MediaCacheTTL:    time.Duration(intOr(getenv, "MEDIA_CACHE_TTL_MINUTES", 60)) * time.Minute,
		AIAPIKey:         strings.TrimSpace(getenv("AI_API_KEY")),
		AIBaseURL:        orDefault(getenv("AI_BASE_URL"), DefaultAIBaseURL),
		AIModel:          orDefault(getenv("AI_MODEL"), DefaultAIModel),
		AIPromptsFile:    orDefault(getenv("AI_PROMPTS_FILE"), DefaultPromptsFile),
		AnalyzeSchedule:  strings.TrimSpace(getenv("ANALYZE_SCHEDULE")),
		AnalyzeBatchSize: intOr(getenv, "ANALYZE_BATCH_SIZE", DefaultAnalyzeBatchSize),
		NotionToken:      strings.TrimSpace(getenv("NOTION_TOKEN")),
		NotionDatabaseID: strings.TrimSpace(getenv("NOTION_DATABASE_ID")),
		ChromePath:       getenv("CHROME_PATH"),
		XAuthCookie:      getenv("X_AUTH_COOKIE"),
		CaptureRateLimit: intOr(getenv, "CAPTURE_RATE_LIMIT", DefaultCaptureRateLimit),
	}
	return cfg
}

// DatabasePath is the SQLite file inside DataDir.
func (c Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "xknowledge.db")
}

// LogPath is the JSON log file inside DataDir.
func (c Config) LogPath() string {
	return filepath.Join(c.DataDir, "logs", "xknowledge.log")
}

// AnalyzerEnabled reports whether an AI key is configured.
func (c Config) AnalyzerEnabled() bool {
	return c.AIAPIKey != ""
}

// NotionEnabled reports whether both Notion settings are present.
func (c Config) NotionEnabled() bool {
	return c.NotionToken != "" && c.NotionDatabaseID != ""
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}

func intOr(getenv func(string) string, key string, def int) int {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		log.GlobalWarn("invalid numeric setting, using default", "key", key, "value", raw, "default", def)
		return def
	}
	return n
}

func parseLevel(raw string) log.Level {
	if raw == "" {
		return log.Info
	}
	level, err := log.ParseLevel(raw)
	if err != nil {
		log.GlobalWarn("invalid LOG_LEVEL, using INFO", "value", raw)
		return log.Info
	}
	return level
}

func dataDir(raw string) string {
	if raw = strings.TrimSpace(raw); raw != "" {
		return raw
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".xknowledge"
	}
	return filepath.Join(home, ".xknowledge")
}
