package usecases

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"xknowledge/internal/domain"
	"xknowledge/internal/extractor"
	"xknowledge/pkg/jsonnode"
	"xknowledge/pkg/log"
)

// RecordSaver persists extracted records and capture batches.
type RecordSaver interface {
	SaveNew(ctx context.Context, records []domain.Record, batchID string) (int, error)
	RecordBatch(ctx context.Context, b domain.CaptureBatch) error
}

// CaptureRequest carries the raw response bodies of one capture.
type CaptureRequest struct {
	SourceURL string
	Bodies    [][]byte
}

// IngestResult summarizes one ingest.
type IngestResult struct {
	BatchID           string `json:"batchId"`
	Payloads          int    `json:"payloads"`
	Extracted         int    `json:"extracted"`
	Inserted          int    `json:"inserted"`
	UnresolvedAuthors int    `json:"unresolvedAuthors"`
	FailedPayloads    int    `json:"failedPayloads"`
}

// IngestBookmarksUseCase extracts records from captured payloads and stores
// the new ones.
type IngestBookmarksUseCase struct {
	store     RecordSaver
	extractor *extractor.Extractor
	now       func() time.Time

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewIngestBookmarksUseCase creates a new IngestBookmarksUseCase.
func NewIngestBookmarksUseCase(store RecordSaver, logger *log.Logger) *IngestBookmarksUseCase {
	return &IngestBookmarksUseCase{
		store:     store,
		extractor: extractor.New(extractor.WithDiagnostics(extractor.LogSink{Logger: logger})),
		now:       time.Now,
		entropy:   ulid.Monotonic(rand.Reader, 0),
	}
}

// Execute ingests req. Bodies that are not valid JSON count as failed
// payloads and keep their index as empty payloads. Finding no records is
// not an error.
func (uc *IngestBookmarksUseCase) Execute(ctx context.Context, req CaptureRequest) (*IngestResult, error) {
	if req.SourceURL != "" && !IsBookmarkEndpoint(req.SourceURL) {
		log.GlobalDebugCtx(ctx, "capture from non-bookmark endpoint", "source_url", req.SourceURL)
	}

	received := uc.now()
	result := &IngestResult{BatchID: uc.newBatchID(received), Payloads: len(req.Bodies)}

	payloads := make([]any, 0, len(req.Bodies))
	for i, body := range req.Bodies {
		node, err := jsonnode.Parse(body)
		if err != nil {
			result.FailedPayloads++
			log.GlobalWarnCtx(ctx, "payload is not valid json", "payload", i, "bytes", len(body), "error", err)
			node = nil
		}
		payloads = append(payloads, node)
	}

	run := uc.extractor.Run(payloads)
	result.Extracted = len(run.Records)
	result.UnresolvedAuthors = run.Count(extractor.AuthorUnresolved)
	result.FailedPayloads += run.Count(extractor.PayloadFailed)

	inserted, err := uc.store.SaveNew(ctx, run.Records, result.BatchID)
	if err != nil {
		return nil, fmt.Errorf("save records: %w", err)
	}
	result.Inserted = inserted

	batch := domain.CaptureBatch{
		ID:           result.BatchID,
		SourceURL:    req.SourceURL,
		PayloadCount: result.Payloads,
		Extracted:    result.Extracted,
		Inserted:     result.Inserted,
		ReceivedAt:   received,
	}
	if err := uc.store.RecordBatch(ctx, batch); err != nil {
		return nil, fmt.Errorf("record batch: %w", err)
	}

	log.GlobalInfoCtx(ctx, "bookmarks ingested",
		"batch_id", result.BatchID,
		"payloads", result.Payloads,
		"extracted", result.Extracted,
		"inserted", result.Inserted,
		"unresolved_authors", result.UnresolvedAuthors,
		"failed_payloads", result.FailedPayloads,
	)
	return result, nil
}

func (uc *IngestBookmarksUseCase) newBatchID(t time.Time) string {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), uc.entropy).String()
}

// IsBookmarkEndpoint reports whether url is a GraphQL call that serves the
// bookmark timeline.
func IsBookmarkEndpoint(url string) bool {
	u := strings.ToLower(url)
	if !strings.Contains(u, "/graphql/") {
		return false
	}
	return strings.Contains(u, "/bookmarks") ||
		strings.Contains(u, "bookmark_timeline") ||
		strings.Contains(u, "bookmarktimeline")
}
