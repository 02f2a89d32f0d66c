// Package app wires configuration, adapters and use cases together for the
// server and the CLI.
package app

import (
	"fmt"
	"os"

	"xknowledge/internal/adapters/ai"
	"xknowledge/internal/adapters/browser"
	"xknowledge/internal/adapters/cache"
	"xknowledge/internal/adapters/export"
	"xknowledge/internal/adapters/media"
	"xknowledge/internal/adapters/notion"
	"xknowledge/internal/adapters/store"
	"xknowledge/internal/adapters/web"
	"xknowledge/internal/config"
	"xknowledge/internal/domain"
	"xknowledge/internal/usecases"
	"xknowledge/pkg/log"
	"xknowledge/pkg/log/transporters"
)

// App holds the wired components.
type App struct {
	Config config.Config
	Logger *log.Logger

	Store   *store.SQLiteStore
	Media   *cache.MemoryCache
	Prompts *ai.PromptConfig
	Browser *browser.BrowserPool

	Ingest     *usecases.IngestBookmarksUseCase
	List       *usecases.ListBookmarksUseCase
	Get        *usecases.GetBookmarkUseCase
	Delete     *usecases.DeleteBookmarkUseCase
	Categories *usecases.ListCategoriesUseCase
	Captures   *usecases.ListCapturesUseCase
	Analyze    *usecases.AnalyzeBookmarksUseCase
	Export     *usecases.ExportBookmarksUseCase
	Notion     *usecases.PushToNotionUseCase
	Capture    *usecases.CaptureBookmarksUseCase

	fetcher media.Fetcher
}

// NewLogger builds the process logger: JSON lines to stdout (stderr for the
// CLI, whose stdout carries command output) and to the log file in the data
// directory. The returned func flushes the logger and closes the file.
func NewLogger(cfg config.Config, stderr bool) (*log.Logger, func()) {
	console := transporters.NewStdout()
	if stderr {
		console = transporters.NewStderr()
	}

	file, err := transporters.NewFile(cfg.LogPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "log file unavailable, logging to console only: %v\n", err)
		logger := log.New(cfg.LogLevel, console)
		return logger, logger.Close
	}

	logger := log.New(cfg.LogLevel, console, file)
	return logger, func() {
		logger.Close()
		_ = file.Close()
	}
}

// New opens the store and builds every use case. The browser is started
// separately by EnableBrowser.
func New(cfg config.Config, logger *log.Logger) (*App, error) {
	s, err := store.Open(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	prompts, err := ai.LoadPrompts(cfg.AIPromptsFile)
	if err != nil {
		logger.Debug("prompt file not loaded, using default prompt", "path", cfg.AIPromptsFile, "error", err)
		prompts = ai.DefaultPrompts()
	}

	mediaCache := cache.NewMemoryCache(cfg.MediaCacheTTL)
	fetcher := media.NewCachingFetcher(media.NewHTTPFetcher(), mediaCache)

	analyzer := ai.NewAnalyzer(ai.Config{APIKey: cfg.AIAPIKey, BaseURL: cfg.AIBaseURL, Model: cfg.AIModel}, prompts)
	notionClient := notion.NewClient(cfg.NotionToken, cfg.NotionDatabaseID)

	a := &App{
		Config:  cfg,
		Logger:  logger,
		Store:   s,
		Media:   mediaCache,
		Prompts: prompts,
		fetcher: fetcher,

		Ingest:     usecases.NewIngestBookmarksUseCase(s, logger.Named("extractor")),
		List:       usecases.NewListBookmarksUseCase(s),
		Get:        usecases.NewGetBookmarkUseCase(s),
		Delete:     usecases.NewDeleteBookmarkUseCase(s),
		Categories: usecases.NewListCategoriesUseCase(s),
		Captures:   usecases.NewListCapturesUseCase(s),
		Analyze:    usecases.NewAnalyzeBookmarksUseCase(s, analyzer, cfg.AnalyzeBatchSize),
		Export:     usecases.NewExportBookmarksUseCase(s, export.NewExporter(fetcher)),
		Notion:     usecases.NewPushToNotionUseCase(s, notionClient),
	}

	logger.Info("app initialized",
		"data_dir", cfg.DataDir,
		"analyzer", analyzer.Enabled(),
		"notion", notionClient.Enabled(),
	)
	return a, nil
}

// EnableBrowser starts Chrome and the capture use case.
func (a *App) EnableBrowser() error {
	if a.Browser != nil {
		return nil
	}
	pool, err := browser.NewBrowserPool(browser.PoolOptions{ChromePath: a.Config.ChromePath})
	if err != nil {
		return fmt.Errorf("%w: start browser: %v", domain.ErrCaptureFailed, err)
	}
	a.Browser = pool
	capturer := browser.NewCapturer(pool, a.Config.XAuthCookie, usecases.IsBookmarkEndpoint)
	a.Capture = usecases.NewCaptureBookmarksUseCase(capturer, a.Ingest)
	return nil
}

// WebDeps exposes the use cases to the HTTP layer.
func (a *App) WebDeps() web.Deps {
	return web.Deps{
		Ingest:     a.Ingest,
		List:       a.List,
		Get:        a.Get,
		Delete:     a.Delete,
		Categories: a.Categories,
		Captures:   a.Captures,
		Analyze:    a.Analyze,
		Export:     a.Export,
		Notion:     a.Notion,
		Capture:    a.Capture,
		Media:      a.fetcher,
	}
}

// Close releases everything New and EnableBrowser acquired. The logger is
// left to its owner.
func (a *App) Close() {
	if a.Browser != nil {
		a.Browser.Close()
	}
	a.Prompts.Close()
	a.Media.Close()
	if err := a.Store.Close(); err != nil {
		a.Logger.Error("close store", "error", err)
	}
}
