// Package extractor finds tweets inside captured bookmark-timeline
// payloads and normalizes them into domain records.
//
// Payloads are untyped JSON trees, usually produced by jsonnode.Parse.
// Tweets are located by shape anywhere in the tree, so unrelated responses
// yield nothing. Identifiers are deduplicated across all payloads of one
// call; separate calls share no state.
package extractor

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"

	"xknowledge/internal/domain"
	"xknowledge/pkg/jsonnode"
	"xknowledge/pkg/treesearch"
)

// DefaultMaxDepth bounds the payload walk.
const DefaultMaxDepth = treesearch.DefaultMaxDepth

// Result is the outcome of one run.
type Result struct {
	Records     []domain.Record
	Diagnostics []Diagnostic
}

// Count returns how many diagnostics of kind the run produced.
func (r Result) Count(kind DiagnosticKind) int {
	return countKind(r.Diagnostics, kind)
}

// Extractor is safe for concurrent use; it holds configuration only.
type Extractor struct {
	sink        Diagnostics
	maxDepth    int
	authorDepth int
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithDiagnostics forwards every diagnostic to d as it is produced.
func WithDiagnostics(d Diagnostics) Option {
	return func(e *Extractor) {
		if d != nil {
			e.sink = d
		}
	}
}

// WithMaxDepth overrides the payload walk bound.
func WithMaxDepth(depth int) Option {
	return func(e *Extractor) {
		if depth > 0 {
			e.maxDepth = depth
		}
	}
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		sink:        discard{},
		maxDepth:    DefaultMaxDepth,
		authorDepth: AuthorSearchDepth,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract runs a default Extractor over payloads.
func Extract(payloads []any) []domain.Record {
	return New().Extract(payloads)
}

// Extract returns the records found in payloads, in first-encounter order.
func (e *Extractor) Extract(payloads []any) []domain.Record {
	return e.Run(payloads).Records
}

// Run extracts records and also returns the diagnostics of this call.
func (e *Extractor) Run(payloads []any) Result {
	r := &run{ex: e, seen: make(map[string]struct{})}
	for i, p := range payloads {
		r.payload(i, p)
	}
	if r.records == nil {
		r.records = []domain.Record{}
	}
	return Result{Records: r.records, Diagnostics: r.diags}
}

// run is the state of one Run call.
type run struct {
	ex      *Extractor
	seen    map[string]struct{}
	records []domain.Record
	diags   []Diagnostic

	// current payload
	index   int
	added   []string
	pending []Diagnostic
}

// payload walks one payload. A panic aborts it and rolls back everything
// it contributed, so a later payload may still emit the same IDs.
func (r *run) payload(index int, payload any) {
	r.index = index
	r.added = r.added[:0]
	r.pending = r.pending[:0]
	mark := len(r.records)

	defer func() {
		if v := recover(); v != nil {
			r.records = r.records[:mark]
			for _, id := range r.added {
				delete(r.seen, id)
			}
			r.report(Diagnostic{Kind: PayloadFailed, Payload: index, Detail: fmt.Sprint(v)})
			return
		}
		for _, d := range r.pending {
			r.report(d)
		}
	}()

	treesearch.Walk(payload, treesearch.Options{MaxDepth: r.ex.maxDepth}, func(node any, _ int) treesearch.Action {
		if target, ok := matchTweetNode(node); ok {
			r.extract(target)
		}
		return treesearch.Continue
	})
}

func (r *run) extract(input any) {
	node, ok := unwrap(input)
	if !ok {
		return
	}
	id := node.id()
	if id == "" {
		return
	}
	if _, dup := r.seen[id]; dup {
		return
	}
	r.seen[id] = struct{}{}
	r.added = append(r.added, id)

	a, resolved := r.ex.resolveAuthor(node)
	if !resolved {
		r.pending = append(r.pending, Diagnostic{
			Kind:     AuthorUnresolved,
			Payload:  r.index,
			TweetID:  id,
			UserKeys: jsonnode.Keys(jsonnode.Lookup(node.tweet, "core", "user_results", "result")),
		})
	}
	if a.name == "" {
		a.name = domain.UnknownAuthorName
	}
	if a.handle == "" {
		a.handle = domain.UnknownAuthorHandle
	}

	r.records = append(r.records, domain.Record{
		ID:           id,
		AuthorName:   a.name,
		AuthorHandle: a.handle,
		AuthorAvatar: a.avatar,
		Text:         node.text(),
		Media:        extractMedia(node.legacy),
		CreatedAt:    scalarString(jsonnode.Field(node.legacy, "created_at")),
		Metrics: domain.Metrics{
			ReplyCount:    count(jsonnode.Field(node.legacy, "reply_count")),
			RetweetCount:  count(jsonnode.Field(node.legacy, "retweet_count")),
			LikeCount:     count(jsonnode.Field(node.legacy, "favorite_count")),
			BookmarkCount: count(jsonnode.Field(node.legacy, "bookmark_count")),
		},
	})
}

func (r *run) report(d Diagnostic) {
	r.diags = append(r.diags, d)
	r.ex.sink.Report(d)
}

// scalarString renders a truthy scalar as text. Containers give "".
func scalarString(v any) string {
	if !jsonnode.Truthy(v) || jsonnode.IsContainer(v) {
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return s
}

// count coerces a counter to a non-negative int.
func count(v any) int {
	if jsonnode.IsContainer(v) {
		return 0
	}
	var n int
	switch x := v.(type) {
	case float64:
		n = int(x)
	case string:
		// cast reads "010" as octal; counters are always decimal.
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
		n = int(f)
	default:
		n = cast.ToInt(v)
	}
	if n < 0 {
		return 0
	}
	return n
}
