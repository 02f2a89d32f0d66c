package extractor

import (
	"fmt"
	"sync"

	"xknowledge/pkg/log"
)

// DiagnosticKind classifies a non-fatal extraction event.
type DiagnosticKind string

const (
	// AuthorUnresolved means a record was emitted with sentinel author values.
	AuthorUnresolved DiagnosticKind = "author_unresolved"
	// PayloadFailed means one payload was abandoned and its records rolled back.
	PayloadFailed DiagnosticKind = "payload_failed"
)

// Diagnostic describes one event observed during a run.
type Diagnostic struct {
	Kind    DiagnosticKind
	Payload int // index into the payload sequence
	TweetID string
	// UserKeys lists the members found at core.user_results.result of the
	// tweet, if that object exists.
	UserKeys []string
	Detail   string
}

func (d Diagnostic) String() string {
	switch d.Kind {
	case AuthorUnresolved:
		return fmt.Sprintf("payload %d: author unresolved for tweet %s (user_results.result keys: %v)", d.Payload, d.TweetID, d.UserKeys)
	case PayloadFailed:
		return fmt.Sprintf("payload %d: extraction aborted: %s", d.Payload, d.Detail)
	}
	return fmt.Sprintf("payload %d: %s %s", d.Payload, d.Kind, d.Detail)
}

// Diagnostics receives events as they are produced.
type Diagnostics interface {
	Report(d Diagnostic)
}

type discard struct{}

func (discard) Report(Diagnostic) {}

// Recorder keeps every reported diagnostic in memory.
type Recorder struct {
	mu   sync.Mutex
	list []Diagnostic
}

func (r *Recorder) Report(d Diagnostic) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.list = append(r.list, d)
}

// All returns a copy of the recorded diagnostics in report order.
func (r *Recorder) All() []Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Diagnostic(nil), r.list...)
}

// Count returns how many diagnostics of kind were recorded.
func (r *Recorder) Count(kind DiagnosticKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return countKind(r.list, kind)
}

// LogSink forwards diagnostics to a logger: unresolved authors at WARN,
// failed payloads at ERROR. A nil Logger uses the global default.
type LogSink struct {
	Logger *log.Logger
}

func (s LogSink) Report(d Diagnostic) {
	logger := s.Logger
	if logger == nil {
		logger = log.Default()
	}
	switch d.Kind {
	case AuthorUnresolved:
		logger.Warn("author unresolved",
			"payload", d.Payload,
			"tweet_id", d.TweetID,
			"user_result_keys", d.UserKeys,
		)
	case PayloadFailed:
		logger.Error("payload extraction failed",
			"payload", d.Payload,
			"detail", d.Detail,
		)
	default:
		logger.Info("extraction diagnostic", "kind", string(d.Kind), "payload", d.Payload)
	}
}

func countKind(list []Diagnostic, kind DiagnosticKind) int {
	n := 0
	for _, d := range list {
		if d.Kind == kind {
			n++
		}
	}
	return n
}
