package usecases

import (
	"context"

	"xknowledge/internal/domain"
)

// PayloadCapturer drives a browser and returns intercepted responses.
type PayloadCapturer interface {
	Capture(ctx context.Context, opts domain.CaptureOptions) ([]domain.CapturedPayload, error)
}

// CaptureBookmarksUseCase captures the bookmarks page and ingests what it
// intercepted.
type CaptureBookmarksUseCase struct {
	capturer PayloadCapturer
	ingest   *IngestBookmarksUseCase
}

// NewCaptureBookmarksUseCase creates a new CaptureBookmarksUseCase.
func NewCaptureBookmarksUseCase(capturer PayloadCapturer, ingest *IngestBookmarksUseCase) *CaptureBookmarksUseCase {
	return &CaptureBookmarksUseCase{capturer: capturer, ingest: ingest}
}

func (uc *CaptureBookmarksUseCase) Execute(ctx context.Context, opts domain.CaptureOptions) (*IngestResult, error) {
	payloads, err := uc.capturer.Capture(ctx, opts)
	if err != nil {
		return nil, err
	}

	req := CaptureRequest{SourceURL: opts.URL, Bodies: make([][]byte, 0, len(payloads))}
	for _, p := range payloads {
		if req.SourceURL == "" {
			req.SourceURL = p.URL
		}
		req.Bodies = append(req.Bodies, p.Body)
	}
	return uc.ingest.Execute(ctx, req)
}
