package web

import (
	"github.com/gofiber/fiber/v2"
)

// SetupRoutes configures the application routes.
func SetupRoutes(app *fiber.App, handlers *Handlers, captureLimiter *RateLimiter) {
	// Pages
	app.Get("/", handlers.Library)
	app.Get("/open", handlers.Open)
	app.Get("/bookmarks/:id", handlers.Reader)

	app.Get("/media", handlers.Media)
	app.Get("/healthz", handlers.Healthz)
	app.Get("/export/:format", handlers.Export)

	api := app.Group("/api")

	// Captures are rate limited per IP
	api.Post("/captures", captureLimiter.Middleware(), handlers.CreateCapture)
	api.Post("/captures/browser", captureLimiter.Middleware(), handlers.RunCapture)
	api.Get("/captures", handlers.ListCaptures)

	api.Get("/bookmarks", handlers.ListBookmarks)
	api.Post("/bookmarks/analyze", handlers.AnalyzeBookmarks)
	api.Get("/bookmarks/:id", handlers.GetBookmark)
	api.Delete("/bookmarks/:id", handlers.DeleteBookmark)
	api.Post("/bookmarks/:id/notion", handlers.PushToNotion)
}
