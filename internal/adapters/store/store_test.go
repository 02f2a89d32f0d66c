package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"xknowledge/internal/domain"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// fixedClock makes captured_at deterministic; each call advances one second.
func fixedClock(s *SQLiteStore) {
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	n := 0
	s.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
}

func record(id, handle, text string) domain.Record {
	return domain.Record{
		ID:           id,
		AuthorName:   "Name " + handle,
		AuthorHandle: handle,
		Text:         text,
		Media:        []domain.Media{},
		CreatedAt:    "Wed Oct 10 20:19:24 +0000 2018",
	}
}

func ids(records []domain.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func TestOpen_CreatesDatabaseInWALMode(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", ".xknowledge")

	s, err := Open(dir)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(filepath.Join(dir, "xknowledge.db"))
	require.NoError(t, err)

	var mode string
	require.NoError(t, s.db.QueryRow("PRAGMA journal_mode;").Scan(&mode))
	require.Equal(t, "wal", mode)

	version, err := userVersion(s.db)
	require.NoError(t, err)
	require.Equal(t, CurrentSchemaVersion, version)
}

func TestOpen_Reopen_KeepsData(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	_, err = s.SaveNew(context.Background(), []domain.Record{record("1", "ann", "hi")}, "")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s2, err := Open(dir)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.Get(context.Background(), "1")
	require.NoError(t, err)
	require.Equal(t, "hi", got.Text)
}

func TestSaveNew_RoundTripsAllFields(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	fixedClock(s)

	in := record("100", "grace", "compilers")
	in.AuthorAvatar = "https://pbs.twimg.com/a.jpg"
	in.Media = []domain.Media{
		{Type: domain.MediaPhoto, URL: "https://pbs.twimg.com/p.jpg", Width: 10, Height: 20},
		{Type: domain.MediaVideo, URL: "https://video.twimg.com/v.mp4", PreviewURL: "https://pbs.twimg.com/poster.jpg"},
	}
	in.Metrics = domain.Metrics{ReplyCount: 1, RetweetCount: 2, LikeCount: 3, BookmarkCount: 4}

	n, err := s.SaveNew(ctx, []domain.Record{in}, "01BATCH")
	require.NoError(t, err)
	require.Equal(t, 1, n)

	got, err := s.Get(ctx, "100")
	require.NoError(t, err)
	require.Equal(t, in.Media, got.Media)
	require.Equal(t, in.Metrics, got.Metrics)
	require.Equal(t, in.AuthorAvatar, got.AuthorAvatar)
	require.Equal(t, in.CreatedAt, got.CreatedAt)
	require.Equal(t, "01BATCH", got.BatchID)
	require.Nil(t, got.Analysis)
	require.False(t, got.CapturedAt.IsZero())
}

func TestSaveNew_ExistingIDs_NotOverwritten(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.SaveNew(ctx, []domain.Record{record("1", "ann", "original")}, "")
	require.NoError(t, err)
	require.NoError(t, s.SetAnalysis(ctx, "1", domain.Analysis{Category: "Tech", Summary: "s", Tags: []string{"go"}}))

	n, err := s.SaveNew(ctx, []domain.Record{record("1", "ann", "recaptured"), record("2", "bo", "new")}, "")
	require.NoError(t, err)
	require.Equal(t, 1, n)

	got, err := s.Get(ctx, "1")
	require.NoError(t, err)
	require.Equal(t, "original", got.Text)
	require.NotNil(t, got.Analysis)
	require.Equal(t, "Tech", got.Analysis.Category)
}

func TestSaveNew_DuplicateWithinInput_InsertedOnce(t *testing.T) {
	s := openTestStore(t)

	n, err := s.SaveNew(context.Background(), []domain.Record{record("1", "a", "x"), record("1", "a", "y")}, "")

	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestSaveNew_Empty_NoOp(t *testing.T) {
	s := openTestStore(t)

	n, err := s.SaveNew(context.Background(), nil, "")

	require.NoError(t, err)
	require.Zero(t, n)
}

func TestList_NewestCaptureFirst_ExtractionOrderWithinCapture(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	fixedClock(s)

	_, err := s.SaveNew(ctx, []domain.Record{record("a1", "x", "1"), record("a2", "x", "2")}, "")
	require.NoError(t, err)
	_, err = s.SaveNew(ctx, []domain.Record{record("b1", "x", "3"), record("b2", "x", "4")}, "")
	require.NoError(t, err)

	got, err := s.List(ctx, domain.ListFilter{})
	require.NoError(t, err)
	require.Equal(t, []string{"b1", "b2", "a1", "a2"}, ids(got))

	page, err := s.List(ctx, domain.ListFilter{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Equal(t, []string{"b2", "a1"}, ids(page))
}

func TestList_Filters(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.SaveNew(ctx, []domain.Record{
		record("1", "Grace", "compilers and COBOL"),
		record("2", "ada", "the analytical engine"),
		record("3", "ken", "100% unix"),
	}, "")
	require.NoError(t, err)
	require.NoError(t, s.SetAnalysis(ctx, "2", domain.Analysis{Category: "History"}))

	byHandle, err := s.List(ctx, domain.ListFilter{Handle: "@grace"})
	require.NoError(t, err)
	require.Equal(t, []string{"1"}, ids(byHandle))

	byCategory, err := s.List(ctx, domain.ListFilter{Category: "History"})
	require.NoError(t, err)
	require.Equal(t, []string{"2"}, ids(byCategory))

	byQuery, err := s.List(ctx, domain.ListFilter{Query: "engine"})
	require.NoError(t, err)
	require.Equal(t, []string{"2"}, ids(byQuery))

	percent, err := s.List(ctx, domain.ListFilter{Query: "100%"})
	require.NoError(t, err)
	require.Equal(t, []string{"3"}, ids(percent))

	none, err := s.List(ctx, domain.ListFilter{Query: "rust"})
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestPending_SkipsAnalyzedAndEmptyText(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.SaveNew(ctx, []domain.Record{
		record("1", "a", "needs analysis"),
		record("2", "a", ""),
		record("3", "a", "done"),
	}, "")
	require.NoError(t, err)
	require.NoError(t, s.SetAnalysis(ctx, "3", domain.Analysis{Category: "Tech"}))

	got, err := s.Pending(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, []string{"1"}, ids(got))
}

func TestGetMissing_ReturnsNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Get(context.Background(), "nope")

	require.True(t, errors.Is(err, domain.ErrRecordNotFound))
}

func TestGetMany_KeepsRequestedOrderSkipsUnknown(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	_, err := s.SaveNew(ctx, []domain.Record{record("1", "a", "x"), record("2", "b", "y")}, "")
	require.NoError(t, err)

	got, err := s.GetMany(ctx, []string{"2", "missing", "1"})

	require.NoError(t, err)
	require.Equal(t, []string{"2", "1"}, ids(got))
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	_, err := s.SaveNew(ctx, []domain.Record{record("1", "a", "x")}, "")
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "1"))
	require.ErrorIs(t, s.Delete(ctx, "1"), domain.ErrRecordNotFound)
	require.ErrorIs(t, s.SetAnalysis(ctx, "1", domain.Analysis{}), domain.ErrRecordNotFound)
}

func TestCategories_Distinct(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	_, err := s.SaveNew(ctx, []domain.Record{record("1", "a", "x"), record("2", "b", "y"), record("3", "c", "z")}, "")
	require.NoError(t, err)
	require.NoError(t, s.SetAnalysis(ctx, "1", domain.Analysis{Category: "Tech"}))
	require.NoError(t, s.SetAnalysis(ctx, "2", domain.Analysis{Category: "Art"}))
	require.NoError(t, s.SetAnalysis(ctx, "3", domain.Analysis{Category: "Tech"}))

	got, err := s.Categories(ctx)

	require.NoError(t, err)
	require.Equal(t, []string{"Art", "Tech"}, got)
}

func TestBatches_RecordAndList(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	t0 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.RecordBatch(ctx, domain.CaptureBatch{ID: "01A", SourceURL: "https://x.com/i/api/graphql/q/Bookmarks", PayloadCount: 2, Extracted: 5, Inserted: 4, ReceivedAt: t0}))
	require.NoError(t, s.RecordBatch(ctx, domain.CaptureBatch{ID: "01B", PayloadCount: 1, ReceivedAt: t0.Add(time.Minute)}))

	got, err := s.ListBatches(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "01B", got[0].ID)
	require.Equal(t, "", got[0].SourceURL)
	require.Equal(t, 4, got[1].Inserted)
	require.True(t, got[1].ReceivedAt.Equal(t0))
}
