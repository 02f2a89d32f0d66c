package domain

import "errors"

var (
	// ErrRecordNotFound is returned when no stored record has the given ID.
	ErrRecordNotFound = errors.New("bookmark not found")

	// ErrInvalidPayload is returned when a capture body cannot be decoded.
	ErrInvalidPayload = errors.New("invalid capture payload")

	// ErrInvalidURL is returned when a post URL cannot be parsed.
	ErrInvalidURL = errors.New("invalid post URL")

	// ErrCaptureFailed is returned when the browser capture could not run.
	ErrCaptureFailed = errors.New("failed to capture bookmarks")

	// ErrRateLimited is returned when rate limit is exceeded.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrAnalyzerDisabled is returned when no AI API key is configured.
	ErrAnalyzerDisabled = errors.New("ai analyzer is not configured")

	// ErrEmptyText is returned when there is no text to analyze.
	ErrEmptyText = errors.New("nothing to analyze")

	// ErrAnalysisUnparseable is returned when the model reply is not the
	// expected JSON object.
	ErrAnalysisUnparseable = errors.New("ai analysis could not be parsed")

	// ErrNotionDisabled is returned when Notion token or database is missing.
	ErrNotionDisabled = errors.New("notion export is not configured")

	// ErrNotionRejected is returned when the Notion API answers non-2xx.
	ErrNotionRejected = errors.New("notion rejected the page")

	// ErrUnsupportedFormat is returned for unknown export formats.
	ErrUnsupportedFormat = errors.New("unsupported export format")
)
