// Package domain contains the core business entities and rules.
package domain

import "time"

// Author sentinels used when a tweet's author cannot be resolved.
const (
	UnknownAuthorName   = "Unknown Author"
	UnknownAuthorHandle = "unknown"
)

// Record is one bookmarked post in normalized form.
type Record struct {
	ID           string    `json:"id"`
	AuthorName   string    `json:"authorName"`
	AuthorHandle string    `json:"authorHandle"`
	AuthorAvatar string    `json:"authorAvatar"`
	Text         string    `json:"text"`
	Media        []Media   `json:"media"`
	CreatedAt    string    `json:"createdAt"` // platform-native form, e.g. "Wed Oct 10 20:19:24 +0000 2018"
	Metrics      Metrics   `json:"metrics"`
	Analysis     *Analysis `json:"aiAnalysis,omitempty"`

	// Set by the store.
	CapturedAt time.Time `json:"capturedAt,omitempty"`
	BatchID    string    `json:"batchId,omitempty"`
}

// URL returns the canonical post URL.
func (r Record) URL() string {
	return "https://x.com/" + r.AuthorHandle + "/status/" + r.ID
}

// HasKnownAuthor reports whether author resolution succeeded.
func (r Record) HasKnownAuthor() bool {
	return r.AuthorHandle != UnknownAuthorHandle
}

// MediaType is the kind of attached media.
type MediaType string

const (
	MediaPhoto       MediaType = "photo"
	MediaVideo       MediaType = "video"
	MediaAnimatedGIF MediaType = "animated_gif"
)

// IsMotion reports whether the media plays (video or looping gif).
func (t MediaType) IsMotion() bool {
	return t == MediaVideo || t == MediaAnimatedGIF
}

// Media is a single attachment. For motion types URL is the chosen MP4
// rendition and PreviewURL the poster image.
type Media struct {
	Type       MediaType `json:"type"`
	URL        string    `json:"url"`
	PreviewURL string    `json:"previewUrl,omitempty"`
	Width      int       `json:"width,omitempty"`
	Height     int       `json:"height,omitempty"`
}

// Metrics holds engagement counters. Absent counters are zero.
type Metrics struct {
	ReplyCount    int `json:"replyCount"`
	RetweetCount  int `json:"retweetCount"`
	LikeCount     int `json:"likeCount"`
	BookmarkCount int `json:"bookmarkCount"`
}

// Analysis is AI-generated enrichment attached after capture.
type Analysis struct {
	Category string   `json:"category"`
	Summary  string   `json:"summary"`
	Tags     []string `json:"tags"`
}

// CaptureBatch records one ingestion of intercepted payloads.
type CaptureBatch struct {
	ID           string    `json:"id"`
	SourceURL    string    `json:"sourceUrl,omitempty"`
	PayloadCount int       `json:"payloadCount"`
	Extracted    int       `json:"extracted"`
	Inserted     int       `json:"inserted"`
	ReceivedAt   time.Time `json:"receivedAt"`
}

// Blob is downloaded media content.
type Blob struct {
	Data        []byte
	ContentType string
}

// ListFilter narrows a record listing. Zero values match everything;
// Limit 0 means no limit.
type ListFilter struct {
	Category string
	Handle   string
	Query    string
	Limit    int
	Offset   int
}
