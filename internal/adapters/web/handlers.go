package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"xknowledge/internal/adapters/export"
	"xknowledge/internal/adapters/media"
	"xknowledge/internal/domain"
	"xknowledge/internal/usecases"
	"xknowledge/pkg/log"
)

const (
	analyzeTimeout = 5 * time.Minute
	captureTimeout = 3 * time.Minute
	requestTimeout = 30 * time.Second
	mediaMaxAge    = "public, max-age=86400"
)

// MediaFetcher downloads media for the proxy.
type MediaFetcher interface {
	Fetch(ctx context.Context, url string) (domain.Blob, error)
}

// Deps are the use cases behind the HTTP surface. Capture may be nil when
// no browser is available.
type Deps struct {
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
	Media      MediaFetcher
}

// Handlers contains the HTTP handlers for the web application.
type Handlers struct {
	d Deps
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(d Deps) *Handlers {
	return &Handlers{d: d}
}

// captureBody is a capture submission. Either field may carry the bodies.
type captureBody struct {
	SourceURL string            `json:"sourceUrl"`
	Payload   json.RawMessage   `json:"payload"`
	Payloads  []json.RawMessage `json:"payloads"`
}

// CreateCapture ingests payloads posted by a browser extension or script.
func (h *Handlers) CreateCapture(c *fiber.Ctx) error {
	var body captureBody
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return h.apiError(c, domain.ErrInvalidPayload)
	}

	req := usecases.CaptureRequest{SourceURL: body.SourceURL}
	if len(body.Payload) > 0 {
		req.Bodies = append(req.Bodies, body.Payload)
	}
	for _, p := range body.Payloads {
		req.Bodies = append(req.Bodies, p)
	}
	if len(req.Bodies) == 0 {
		return h.apiError(c, domain.ErrInvalidPayload)
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
	defer cancel()

	result, err := h.d.Ingest.Execute(ctx, req)
	if err != nil {
		return h.apiError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// browserCaptureBody selects the page and scroll count of a browser run.
type browserCaptureBody struct {
	URL     string `json:"url"`
	Scrolls *int   `json:"scrolls"`
}

// RunCapture drives the headless browser over the bookmarks page. Options
// come from the JSON body; url and scrolls query parameters fill what the
// body leaves out.
func (h *Handlers) RunCapture(c *fiber.Ctx) error {
	if h.d.Capture == nil {
		return h.apiError(c, domain.ErrCaptureFailed)
	}

	var body browserCaptureBody
	if len(bytes.TrimSpace(c.Body())) > 0 {
		if err := json.Unmarshal(c.Body(), &body); err != nil {
			return h.apiError(c, domain.ErrInvalidPayload)
		}
	}
	opts := domain.CaptureOptions{URL: body.URL, Scrolls: c.QueryInt("scrolls")}
	if opts.URL == "" {
		opts.URL = c.Query("url")
	}
	if body.Scrolls != nil {
		opts.Scrolls = *body.Scrolls
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), captureTimeout)
	defer cancel()

	result, err := h.d.Capture.Execute(ctx, opts)
	if err != nil {
		return h.apiError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

func (h *Handlers) ListCaptures(c *fiber.Ctx) error {
	batches, err := h.d.Captures.Execute(c.UserContext(), c.QueryInt("limit", 50))
	if err != nil {
		return h.apiError(c, err)
	}
	return c.JSON(batches)
}

func (h *Handlers) ListBookmarks(c *fiber.Ctx) error {
	records, err := h.d.List.Execute(c.UserContext(), filterFrom(c))
	if err != nil {
		return h.apiError(c, err)
	}
	return c.JSON(records)
}

func (h *Handlers) GetBookmark(c *fiber.Ctx) error {
	r, err := h.d.Get.Execute(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.apiError(c, err)
	}
	return c.JSON(r)
}

func (h *Handlers) DeleteBookmark(c *fiber.Ctx) error {
	if err := h.d.Delete.Execute(c.UserContext(), c.Params("id")); err != nil {
		return h.apiError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AnalyzeBookmarks analyzes the posted ids, or the pending batch when the
// body is empty.
func (h *Handlers) AnalyzeBookmarks(c *fiber.Ctx) error {
	var body struct {
		IDs []string `json:"ids"`
	}
	if len(bytes.TrimSpace(c.Body())) > 0 {
		if err := json.Unmarshal(c.Body(), &body); err != nil {
			return h.apiError(c, domain.ErrInvalidPayload)
		}
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), analyzeTimeout)
	defer cancel()

	result, err := h.d.Analyze.Execute(ctx, body.IDs)
	if err != nil {
		return h.apiError(c, err)
	}
	return c.JSON(result)
}

func (h *Handlers) PushToNotion(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
	defer cancel()

	pageID, err := h.d.Notion.Execute(ctx, c.Params("id"))
	if err != nil {
		return h.apiError(c, err)
	}
	return c.JSON(fiber.Map{"pageId": pageID})
}

// Export downloads the selected records in the requested format.
func (h *Handlers) Export(c *fiber.Ctx) error {
	format, err := export.ParseFormat(c.Params("format"))
	if err != nil {
		return h.apiError(c, err)
	}

	var buf bytes.Buffer
	if err := h.d.Export.Execute(c.UserContext(), &buf, string(format), splitIDs(c.Query("ids"))); err != nil {
		return h.apiError(c, err)
	}

	c.Attachment(format.Filename(time.Now().Format(time.DateOnly)))
	c.Set(fiber.HeaderContentType, format.ContentType())
	return c.Send(buf.Bytes())
}

// Media proxies a CDN media URL through the cache.
func (h *Handlers) Media(c *fiber.Ctx) error {
	target := c.Query("url")
	if !media.IsMediaURL(target) {
		return h.apiError(c, domain.ErrInvalidURL)
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
	defer cancel()

	blob, err := h.d.Media.Fetch(ctx, target)
	if err != nil {
		log.GlobalWarnCtx(ctx, "media proxy fetch failed", "url", target, "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "media unavailable"})
	}
	c.Set(fiber.HeaderContentType, blob.ContentType)
	c.Set(fiber.HeaderCacheControl, mediaMaxAge)
	return c.Send(blob.Data)
}

func (h *Handlers) Healthz(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Library renders the record list page.
func (h *Handlers) Library(c *fiber.Ctx) error {
	ctx := c.UserContext()
	filter := filterFrom(c)

	records, err := h.d.List.Execute(ctx, filter)
	if err != nil {
		return h.renderError(c, err)
	}
	categories, err := h.d.Categories.Execute(ctx)
	if err != nil {
		return h.renderError(c, err)
	}
	return render(c, LibraryPage(LibraryData{Records: records, Categories: categories, Filter: filter}))
}

// Reader renders one record as a reading page.
func (h *Handlers) Reader(c *fiber.Ctx) error {
	r, err := h.d.Get.Execute(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.renderError(c, err)
	}
	md := export.Markdown([]domain.Record{*r}, export.Options{})
	return render(c, ReaderPage(*r, renderMarkdown(md)))
}

// Open redirects a pasted post URL to its reader page.
func (h *Handlers) Open(c *fiber.Ctx) error {
	_, id, err := ParseStatusURL(c.Query("url"))
	if err != nil {
		log.GlobalDebugCtx(c.UserContext(), "invalid post URL", "url", c.Query("url"))
		return h.renderError(c, err)
	}
	return c.Redirect("/bookmarks/"+id, fiber.StatusSeeOther)
}

func filterFrom(c *fiber.Ctx) domain.ListFilter {
	return domain.ListFilter{
		Category: c.Query("category"),
		Handle:   c.Query("handle"),
		Query:    c.Query("q"),
		Limit:    c.QueryInt("limit"),
		Offset:   c.QueryInt("offset"),
	}
}

func splitIDs(raw string) []string {
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// apiError writes err as a JSON error response.
func (h *Handlers) apiError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		log.GlobalErrorCtx(c.UserContext(), "request failed", "path", c.Path(), "error", err)
	}
	return c.Status(status).JSON(fiber.Map{"error": friendlyError(err)})
}

// renderError renders a full-page error.
func (h *Handlers) renderError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		log.GlobalErrorCtx(c.UserContext(), "page failed", "path", c.Path(), "error", err)
	}
	return renderStatus(c, status, ErrorPage(friendlyError(err)))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrRecordNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrInvalidPayload),
		errors.Is(err, domain.ErrInvalidURL),
		errors.Is(err, domain.ErrUnsupportedFormat):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrRateLimited):
		return fiber.StatusTooManyRequests
	case errors.Is(err, domain.ErrAnalyzerDisabled),
		errors.Is(err, domain.ErrNotionDisabled):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, domain.ErrNotionRejected),
		errors.Is(err, domain.ErrCaptureFailed):
		return fiber.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout
	default:
		return fiber.StatusInternalServerError
	}
}

// friendlyError returns a neutral, non-blaming error message.
func friendlyError(err error) string {
	switch {
	case errors.Is(err, domain.ErrRecordNotFound):
		return "This bookmark isn't in your library."
	case errors.Is(err, domain.ErrInvalidPayload):
		return "That capture couldn't be read. Send a JSON object with a payload or payloads field."
	case errors.Is(err, domain.ErrInvalidURL):
		return "That doesn't look like a post URL. Try a link from x.com or twitter.com."
	case errors.Is(err, domain.ErrUnsupportedFormat):
		return "Export format must be markdown, zip or json."
	case errors.Is(err, domain.ErrRateLimited):
		return "Too many captures. Please wait a moment and try again."
	case errors.Is(err, domain.ErrAnalyzerDisabled):
		return "AI analysis isn't configured. Set AI_API_KEY to enable it."
	case errors.Is(err, domain.ErrNotionDisabled):
		return "Notion export isn't configured. Set NOTION_TOKEN and NOTION_DATABASE_ID."
	case errors.Is(err, domain.ErrNotionRejected):
		return "Notion didn't accept this page. Check the database properties."
	case errors.Is(err, domain.ErrCaptureFailed):
		return "The bookmarks page couldn't be captured right now."
	default:
		return "Something went wrong. Please try again in a moment."
	}
}
