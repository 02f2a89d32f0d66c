package domain

import "time"

// CaptureOptions controls one headless capture of the bookmarks page.
type CaptureOptions struct {
	URL string
	// Scrolls is how many times the page is scrolled to load more; negative
	// disables scrolling and zero uses the default.
	Scrolls int
	Wait    time.Duration
}

// CapturedPayload is one intercepted response body.
type CapturedPayload struct {
	URL  string
	Body []byte
}
