package extractor

import (
	"reflect"
	"strings"
	"testing"

	"xknowledge/internal/domain"
	"xknowledge/pkg/jsonnode"
	"xknowledge/test/fixtures"
)

func ids(records []domain.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func TestExtract_SingleEntry_NormalizesRecord(t *testing.T) {
	// Arrange
	payload := jsonnode.MustParse(`{"data":{"entries":[{"content":{"itemContent":{"tweet_results":{"result":{
		"core":{"user_results":{"result":{"legacy":{"name":"Ann","screen_name":"ann"}}}},
		"legacy":{"id_str":"100","full_text":"hello"}}}}}}]}}`)

	// Act
	records := Extract([]any{payload})

	// Assert
	if len(records) != 1 {
		t.Fatalf("records: got %d, want 1", len(records))
	}
	got := records[0]
	if got.ID != "100" {
		t.Errorf("ID: got %v, want 100", got.ID)
	}
	if got.Text != "hello" {
		t.Errorf("Text: got %v, want hello", got.Text)
	}
	if got.AuthorName != "Ann" {
		t.Errorf("AuthorName: got %v, want Ann", got.AuthorName)
	}
	if got.AuthorHandle != "ann" {
		t.Errorf("AuthorHandle: got %v, want ann", got.AuthorHandle)
	}
	if got.Media == nil || len(got.Media) != 0 {
		t.Errorf("Media: got %#v, want empty non-nil slice", got.Media)
	}
}

func TestExtract_DuplicateEntries_KeepsFirst(t *testing.T) {
	// Arrange
	payload := jsonnode.MustParse(`{"entries":[
		{"tweet_results":{"result":{"legacy":{"id_str":"200","full_text":"first"}}}},
		{"tweet_results":{"result":{"legacy":{"id_str":"200","full_text":"retweet copy"}}}}
	]}`)

	// Act
	records := Extract([]any{payload})

	// Assert
	if len(records) != 1 {
		t.Fatalf("records: got %d, want 1", len(records))
	}
	if records[0].Text != "first" {
		t.Errorf("Text: got %v, want first", records[0].Text)
	}
}

func TestExtract_DuplicateAcrossPayloads_KeepsFirst(t *testing.T) {
	// Arrange
	body := fixtures.BookmarkTimeline
	payloads := []any{jsonnode.MustParse(body), jsonnode.MustParse(body)}

	// Act
	records := Extract(payloads)

	// Assert
	if !reflect.DeepEqual(ids(records), fixtures.BookmarkTimelineIDs) {
		t.Errorf("IDs: got %v, want %v", ids(records), fixtures.BookmarkTimelineIDs)
	}
}

func TestExtract_VideoVariants_PicksHighestBitrateMP4(t *testing.T) {
	// Arrange
	payload := jsonnode.MustParse(`{"tweet_results":{"result":{"legacy":{"id_str":"300",
		"extended_entities":{"media":[{"type":"video","media_url_https":"https://img/poster.jpg",
		"original_info":{"width":640,"height":360},
		"video_info":{"variants":[
			{"content_type":"video/mp4","bitrate":800,"url":"https://v/800.mp4"},
			{"content_type":"video/mp4","bitrate":2000,"url":"https://v/2000.mp4"},
			{"content_type":"application/x-mpegURL","bitrate":5000,"url":"https://v/pl.m3u8"}
		]}}]}}}}}`)

	// Act
	records := Extract([]any{payload})

	// Assert
	if len(records) != 1 || len(records[0].Media) != 1 {
		t.Fatalf("unexpected shape: %+v", records)
	}
	want := domain.Media{
		Type:       domain.MediaVideo,
		URL:        "https://v/2000.mp4",
		PreviewURL: "https://img/poster.jpg",
		Width:      640,
		Height:     360,
	}
	if records[0].Media[0] != want {
		t.Errorf("Media: got %+v, want %+v", records[0].Media[0], want)
	}
}

func TestExtract_VideoWithoutMP4_DropsOnlyThatEntry(t *testing.T) {
	// Arrange
	payload := jsonnode.MustParse(`{"tweet_results":{"result":{"legacy":{"id_str":"301",
		"extended_entities":{"media":[
			{"type":"video","video_info":{"variants":[{"content_type":"application/x-mpegURL","url":"https://v/pl.m3u8"}]}},
			{"type":"animated_gif","video_info":{}},
			{"type":"photo","media_url_https":"https://img/p.jpg"}
		]}}}}}`)

	// Act
	records := Extract([]any{payload})

	// Assert
	media := records[0].Media
	if len(media) != 1 {
		t.Fatalf("Media: got %d items, want 1", len(media))
	}
	if media[0].Type != domain.MediaPhoto || media[0].URL != "https://img/p.jpg" {
		t.Errorf("Media[0]: got %+v, want photo https://img/p.jpg", media[0])
	}
}

func TestExtract_MissingIdentifier_DropsNodeOnly(t *testing.T) {
	// Arrange
	payload := jsonnode.MustParse(`[
		{"tweet_results":{"result":{"legacy":{"full_text":"no id"}}}},
		{"tweet_results":{"result":{"rest_id":"401","legacy":{"full_text":"rest id only"}}}}
	]`)

	// Act
	records := Extract([]any{payload})

	// Assert
	if !reflect.DeepEqual(ids(records), []string{"401"}) {
		t.Errorf("IDs: got %v, want [401]", ids(records))
	}
}

func TestExtract_UnresolvedAuthor_UsesSentinels(t *testing.T) {
	// Arrange
	rec := &Recorder{}
	ex := New(WithDiagnostics(rec))
	payload := jsonnode.MustParse(`{"tweet_results":{"result":{
		"core":{"user_results":{"result":{"__typename":"User","rest_id":"7"}}},
		"legacy":{"id_str":"500","full_text":"who wrote this"}}}}`)

	// Act
	result := ex.Run([]any{payload})

	// Assert
	if len(result.Records) != 1 {
		t.Fatalf("records: got %d, want 1", len(result.Records))
	}
	got := result.Records[0]
	if got.AuthorName != domain.UnknownAuthorName {
		t.Errorf("AuthorName: got %v, want %v", got.AuthorName, domain.UnknownAuthorName)
	}
	if got.AuthorHandle != domain.UnknownAuthorHandle {
		t.Errorf("AuthorHandle: got %v, want %v", got.AuthorHandle, domain.UnknownAuthorHandle)
	}
	if got.AuthorAvatar != "" {
		t.Errorf("AuthorAvatar: got %v, want empty", got.AuthorAvatar)
	}
	if rec.Count(AuthorUnresolved) != 1 {
		t.Errorf("sink AuthorUnresolved: got %d, want 1", rec.Count(AuthorUnresolved))
	}
	if result.Count(AuthorUnresolved) != 1 {
		t.Errorf("result AuthorUnresolved: got %d, want 1", result.Count(AuthorUnresolved))
	}
	d := result.Diagnostics[0]
	if d.TweetID != "500" {
		t.Errorf("TweetID: got %v, want 500", d.TweetID)
	}
	if !reflect.DeepEqual(d.UserKeys, []string{"__typename", "rest_id"}) {
		t.Errorf("UserKeys: got %v, want [__typename rest_id]", d.UserKeys)
	}
}

func TestExtract_ScalarAndEmptyPayloads_ReturnEmpty(t *testing.T) {
	payloads := []any{
		nil,
		"just a string",
		float64(42),
		true,
		jsonnode.MustParse(`{}`),
		jsonnode.MustParse(`[]`),
		map[string]any{},
	}

	for _, p := range payloads {
		records := Extract([]any{p})
		if records == nil || len(records) != 0 {
			t.Errorf("payload %#v: got %v, want empty", p, records)
		}
	}
}

func TestExtract_NoPayloads_ReturnsEmpty(t *testing.T) {
	records := Extract(nil)

	if records == nil || len(records) != 0 {
		t.Errorf("records: got %v, want empty", records)
	}
}

func TestExtract_UnrelatedResponse_ReturnsEmpty(t *testing.T) {
	// Arrange
	rec := &Recorder{}
	ex := New(WithDiagnostics(rec))

	// Act
	records := ex.Extract([]any{jsonnode.MustParse(fixtures.ViewerQuery)})

	// Assert
	if len(records) != 0 {
		t.Errorf("records: got %d, want 0", len(records))
	}
	if len(rec.All()) != 0 {
		t.Errorf("diagnostics: got %v, want none", rec.All())
	}
}

func TestExtract_Tombstone_DroppedSilently(t *testing.T) {
	// Arrange
	rec := &Recorder{}
	ex := New(WithDiagnostics(rec))

	// Act
	records := ex.Extract([]any{jsonnode.MustParse(fixtures.TombstoneEntry)})

	// Assert
	if len(records) != 0 {
		t.Errorf("records: got %d, want 0", len(records))
	}
	if len(rec.All()) != 0 {
		t.Errorf("diagnostics: got %v, want none", rec.All())
	}
}

func TestExtract_SameInputTwice_SameRecords(t *testing.T) {
	// Arrange
	payloads := []any{jsonnode.MustParse(fixtures.BookmarkTimeline)}
	ex := New()

	// Act
	first := ex.Extract(payloads)
	second := ex.Extract(payloads)

	// Assert
	if !reflect.DeepEqual(first, second) {
		t.Errorf("second run differs:\n got %+v\nwant %+v", second, first)
	}
}

func TestExtract_BookmarkTimeline_FullRecords(t *testing.T) {
	// Act
	records := Extract([]any{jsonnode.MustParse(fixtures.BookmarkTimeline)})

	// Assert
	if !reflect.DeepEqual(ids(records), fixtures.BookmarkTimelineIDs) {
		t.Fatalf("IDs: got %v, want %v", ids(records), fixtures.BookmarkTimelineIDs)
	}

	grace := records[0]
	if grace.AuthorHandle != "grace" || grace.AuthorName != "Grace Hopper" {
		t.Errorf("1001 author: got %v/%v, want Grace Hopper/grace", grace.AuthorName, grace.AuthorHandle)
	}
	if grace.AuthorAvatar != "https://pbs.twimg.com/profile_images/11/grace_normal.jpg" {
		t.Errorf("1001 avatar: got %v", grace.AuthorAvatar)
	}
	wantMetrics := domain.Metrics{ReplyCount: 3, RetweetCount: 5, LikeCount: 42, BookmarkCount: 7}
	if grace.Metrics != wantMetrics {
		t.Errorf("1001 metrics: got %+v, want %+v", grace.Metrics, wantMetrics)
	}
	if grace.CreatedAt != "Wed Oct 10 20:19:24 +0000 2018" {
		t.Errorf("1001 createdAt: got %v", grace.CreatedAt)
	}
	wantPhoto := domain.Media{Type: domain.MediaPhoto, URL: "https://pbs.twimg.com/media/A1.jpg", Width: 1200, Height: 800}
	if len(grace.Media) != 1 || grace.Media[0] != wantPhoto {
		t.Errorf("1001 media: got %+v, want [%+v]", grace.Media, wantPhoto)
	}

	ada := records[1]
	if !strings.HasSuffix(ada.Text, "flowers and leaves.") {
		t.Errorf("1002 text: got %q, want note text", ada.Text)
	}
	if ada.AuthorHandle != "ada" || ada.AuthorAvatar != "https://pbs.twimg.com/profile_images/12/ada_normal.jpg" {
		t.Errorf("1002 author: got %v %v", ada.AuthorHandle, ada.AuthorAvatar)
	}
	if len(ada.Media) != 1 {
		t.Fatalf("1002 media: got %d, want 1", len(ada.Media))
	}
	if ada.Media[0].URL != "https://video.twimg.com/1002/1280x720.mp4" {
		t.Errorf("1002 video: got %v, want first 2176000 rendition", ada.Media[0].URL)
	}
	if ada.Metrics != (domain.Metrics{ReplyCount: 1, LikeCount: 10}) {
		t.Errorf("1002 metrics: got %+v", ada.Metrics)
	}

	linus := records[2]
	if linus.AuthorHandle != "linus" || linus.AuthorName != "Linus" {
		t.Errorf("1003 author: got %v/%v", linus.AuthorName, linus.AuthorHandle)
	}
	if len(linus.Media) != 1 || linus.Media[0].Type != domain.MediaAnimatedGIF {
		t.Errorf("1003 media: got %+v, want one animated_gif", linus.Media)
	}

	ken := records[3]
	if ken.AuthorHandle != "ken" || ken.Text != "Write programs that do one thing" {
		t.Errorf("1004: got %v %q", ken.AuthorHandle, ken.Text)
	}
}

func TestExtract_PanickingPayload_RolledBackOthersKept(t *testing.T) {
	// Arrange
	rec := &Recorder{}
	ex := New(WithDiagnostics(rec))
	bad := map[string]any{
		"a": map[string]any{"tweet_results": map[string]any{"result": map[string]any{
			"legacy": map[string]any{"id_str": "10"},
		}}},
		"b": map[string]any{"tweet_results": map[string]any{"result": map[string]any{
			"legacy": map[string]any{"id_str": explodingID{}},
		}}},
	}
	payloads := []any{
		jsonnode.MustParse(`{"tweet_results":{"result":{"legacy":{"id_str":"1"}}}}`),
		bad,
		jsonnode.MustParse(`[{"tweet_results":{"result":{"legacy":{"id_str":"10"}}}},
			{"tweet_results":{"result":{"legacy":{"id_str":"3"}}}}]`),
	}

	// Act
	result := ex.Run(payloads)

	// Assert
	if !reflect.DeepEqual(ids(result.Records), []string{"1", "10", "3"}) {
		t.Errorf("IDs: got %v, want [1 10 3]", ids(result.Records))
	}
	if rec.Count(PayloadFailed) != 1 {
		t.Fatalf("PayloadFailed: got %d, want 1", rec.Count(PayloadFailed))
	}
	for _, d := range rec.All() {
		if d.Kind == PayloadFailed && d.Payload != 1 {
			t.Errorf("failed payload index: got %d, want 1", d.Payload)
		}
		if d.Kind == AuthorUnresolved && d.Payload == 1 {
			t.Errorf("diagnostic from rolled back payload was reported: %v", d)
		}
	}
}

type explodingID struct{}

func (explodingID) String() string { panic("boom") }

func TestExtract_MetricsAbsentOrNegative_DefaultToZero(t *testing.T) {
	// Arrange
	payload := jsonnode.MustParse(`{"tweet_results":{"result":{"legacy":{"id_str":"600",
		"reply_count":-4,"retweet_count":"12","favorite_count":null}}}}`)

	// Act
	records := Extract([]any{payload})

	// Assert
	want := domain.Metrics{RetweetCount: 12}
	if records[0].Metrics != want {
		t.Errorf("Metrics: got %+v, want %+v", records[0].Metrics, want)
	}
}

func TestExtract_StringCounters_Decimal(t *testing.T) {
	// Arrange
	payload := jsonnode.MustParse(`{"tweet_results":{"result":{"legacy":{"id_str":"601",
		"favorite_count":"010","retweet_count":" 7 ","reply_count":"12.0","bookmark_count":"lots"}}}}`)

	// Act
	records := Extract([]any{payload})

	// Assert
	want := domain.Metrics{LikeCount: 10, RetweetCount: 7, ReplyCount: 12}
	if records[0].Metrics != want {
		t.Errorf("Metrics: got %+v, want %+v", records[0].Metrics, want)
	}
}

func TestExtract_NumericIdentifier_Coerced(t *testing.T) {
	payload := jsonnode.MustParse(`{"__typename":"Tweet","rest_id":700,"legacy":{"full_text":"x"}}`)

	records := Extract([]any{payload})

	if len(records) != 1 || records[0].ID != "700" {
		t.Errorf("records: got %+v, want one with ID 700", records)
	}
}

func TestExtract_LegacyViaTweetResults_Used(t *testing.T) {
	payload := jsonnode.MustParse(`{"tweet_results":{"result":{"tweet_results":{"result":{"legacy":{"id_str":"710","full_text":"nested"}}}}}}`)

	records := Extract([]any{payload})

	if len(records) == 0 || records[0].ID != "710" || records[0].Text != "nested" {
		t.Errorf("records: got %+v, want 710 nested", records)
	}
}

func TestExtract_DeepAuthorFallback_SkipsMediaEntities(t *testing.T) {
	// Arrange
	payload := jsonnode.MustParse(`{"tweet_results":{"result":{
		"legacy":{"id_str":"800","extended_entities":{"media":[{"type":"photo","media_url_https":"https://img/x.jpg",
			"features":{"tagged":{"tags":[{"screen_name":"tagged_person"}]}}}]}},
		"meta":{"author_info":{"name":"Deep","screen_name":"deep"}}}}}`)

	// Act
	records := Extract([]any{payload})

	// Assert
	if records[0].AuthorHandle != "deep" || records[0].AuthorName != "Deep" {
		t.Errorf("author: got %v/%v, want Deep/deep", records[0].AuthorName, records[0].AuthorHandle)
	}
}

func TestExtract_DeepAuthorFallback_BoundedDepth(t *testing.T) {
	// screen_name at depth 9 from the matched node is out of reach.
	payload := jsonnode.MustParse(`{"tweet_results":{"result":{"legacy":{"id_str":"801"},
		"a":{"b":{"c":{"d":{"e":{"f":{"g":{"h":{"screen_name":"far"}}}}}}}}}}}`)

	records := Extract([]any{payload})

	if records[0].AuthorHandle != domain.UnknownAuthorHandle {
		t.Errorf("AuthorHandle: got %v, want %v", records[0].AuthorHandle, domain.UnknownAuthorHandle)
	}
}

func TestExtract_ResolvedHandleWithoutName_NameSentinel(t *testing.T) {
	payload := jsonnode.MustParse(`{"tweet_results":{"result":{
		"core":{"user_results":{"result":{"legacy":{"screen_name":"nameless"}}}},
		"legacy":{"id_str":"900"}}}}`)
	rec := &Recorder{}

	records := New(WithDiagnostics(rec)).Extract([]any{payload})

	if records[0].AuthorName != domain.UnknownAuthorName || records[0].AuthorHandle != "nameless" {
		t.Errorf("author: got %v/%v", records[0].AuthorName, records[0].AuthorHandle)
	}
	if rec.Count(AuthorUnresolved) != 0 {
		t.Errorf("AuthorUnresolved: got %d, want 0", rec.Count(AuthorUnresolved))
	}
}

func TestExtract_WithMaxDepth_StopsEarly(t *testing.T) {
	payload := jsonnode.MustParse(`{"a":{"b":{"c":{"tweet_results":{"result":{"legacy":{"id_str":"1"}}}}}}}`)

	shallow := New(WithMaxDepth(2)).Extract([]any{payload})
	deep := New(WithMaxDepth(3)).Extract([]any{payload})

	if len(shallow) != 0 {
		t.Errorf("depth 2: got %d records, want 0", len(shallow))
	}
	if len(deep) != 1 {
		t.Errorf("depth 3: got %d records, want 1", len(deep))
	}
}

func TestExtract_PlainMaps_Supported(t *testing.T) {
	payload := map[string]any{
		"tweet_results": map[string]any{"result": map[string]any{
			"legacy": map[string]any{"id_str": "1100", "full_text": "decoded elsewhere", "favorite_count": float64(3)},
		}},
	}

	records := Extract([]any{payload})

	if len(records) != 1 || records[0].Metrics.LikeCount != 3 {
		t.Errorf("records: got %+v", records)
	}
}
