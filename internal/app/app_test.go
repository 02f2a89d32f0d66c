package app

import (
	"context"
	"os"
	"testing"

	"xknowledge/internal/config"
	"xknowledge/internal/domain"
	"xknowledge/pkg/log"
)

func testConfig(t *testing.T) config.Config {
	cfg := config.FromEnv(func(string) string { return "" })
	cfg.DataDir = t.TempDir()
	return cfg
}

func TestNew_WiresUseCasesWithoutBrowser(t *testing.T) {
	// Arrange
	cfg := testConfig(t)

	// Act
	a, err := New(cfg, log.Default())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	// Assert
	if a.Capture != nil {
		t.Error("Capture: got use case, want nil until EnableBrowser")
	}
	deps := a.WebDeps()
	if deps.Ingest == nil || deps.List == nil || deps.Export == nil || deps.Media == nil {
		t.Errorf("WebDeps: missing dependency in %+v", deps)
	}
	if _, err := os.Stat(cfg.DatabasePath()); err != nil {
		t.Errorf("database file: %v", err)
	}
}

func TestNew_OptionalIntegrationsDisabled(t *testing.T) {
	// Arrange
	a, err := New(testConfig(t), log.Default())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()
	ctx := context.Background()

	// Act
	_, analyzeErr := a.Analyze.Execute(ctx, nil)
	_, notionErr := a.Notion.Execute(ctx, "1")

	// Assert
	if analyzeErr != domain.ErrAnalyzerDisabled {
		t.Errorf("Analyze: got %v, want %v", analyzeErr, domain.ErrAnalyzerDisabled)
	}
	if notionErr != domain.ErrNotionDisabled {
		t.Errorf("Notion: got %v, want %v", notionErr, domain.ErrNotionDisabled)
	}
}

func TestNewLogger_WritesLogFile(t *testing.T) {
	// Arrange
	cfg := testConfig(t)
	cfg.LogLevel = log.Info
	logger, closeLogger := NewLogger(cfg, true)

	// Act
	logger.Info("hello", "k", "v")
	closeLogger()

	// Assert
	data, err := os.ReadFile(cfg.LogPath())
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if len(data) == 0 {
		t.Error("log file: got empty, want one entry")
	}
}
