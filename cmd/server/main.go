package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"xknowledge/internal/adapters/web"
	"xknowledge/internal/app"
	"xknowledge/internal/config"
	"xknowledge/internal/jobs"
	"xknowledge/pkg/log"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "x-knowledge:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	logger, closeLogger := app.NewLogger(cfg, false)
	log.SetDefault(logger)
	defer closeLogger()

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize", "error", err)
		return err
	}
	defer a.Close()

	// Browser capture needs a session cookie; without one the endpoint
	// answers 502 and pushed payloads still work.
	if cfg.XAuthCookie != "" {
		if err := a.EnableBrowser(); err != nil {
			logger.Warn("browser capture disabled", "error", err)
		}
	}

	handlers := web.NewHandlers(a.WebDeps())
	rateLimiter := web.NewRateLimiter(cfg.CaptureRateLimit, time.Minute)
	defer rateLimiter.Close()

	scheduler := jobs.NewScheduler()
	if err := scheduler.ScheduleAnalysis(cfg.AnalyzeSchedule, a.Analyze); err != nil {
		logger.Fatal("invalid ANALYZE_SCHEDULE", "schedule", cfg.AnalyzeSchedule, "error", err)
		return err
	}
	scheduler.Start()

	server := fiber.New(fiber.Config{
		AppName:               "X-Knowledge",
		BodyLimit:             32 * 1024 * 1024,
		DisableStartupMessage: true,
	})

	server.Use(recover.New())
	server.Use(requestid.New(web.RequestIDConfig()))
	server.Use(web.RequestIDToContextMiddleware())
	server.Use(web.RequestLoggerMiddleware())

	web.SetupRoutes(server, handlers, rateLimiter)

	go func() {
		logger.Info("starting X-Knowledge", "port", cfg.Port, "scheduled_jobs", scheduler.Jobs())
		if err := server.Listen(":" + cfg.Port); err != nil {
			logger.Error("server stopped", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	scheduler.Stop(ctx)
	if err := server.ShutdownWithContext(ctx); err != nil {
		logger.Error("shutdown", "error", err)
		return err
	}
	return nil
}
