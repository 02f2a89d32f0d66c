package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"xknowledge/internal/domain"
	"xknowledge/pkg/log"
)

// Format is an export target.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatZip      Format = "zip"
	FormatJSON     Format = "json"
)

// ParseFormat accepts the format names and the md shorthand.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "markdown", "md":
		return FormatMarkdown, nil
	case "zip":
		return FormatZip, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, s)
}

// ContentType is the HTTP media type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatZip:
		return "application/zip"
	}
	return "application/json"
}

// Filename is the download name for an export made on date (YYYY-MM-DD).
func (f Format) Filename(date string) string {
	switch f {
	case FormatMarkdown:
		return "x-knowledge-export.md"
	case FormatZip:
		return "x-knowledge-offline-export-" + date + ".zip"
	}
	return "x-knowledge-export-" + date + ".json"
}

// WriteJSON writes records as an indented array. No records give [].
func WriteJSON(w io.Writer, records []domain.Record) error {
	if records == nil {
		records = []domain.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(records)
}

// Exporter writes records in any supported format.
type Exporter struct {
	fetcher MediaFetcher
	now     func() time.Time
}

// NewExporter returns an exporter that downloads ZIP media with fetcher.
func NewExporter(fetcher MediaFetcher) *Exporter {
	return &Exporter{fetcher: fetcher, now: time.Now}
}

// Export renders records to w in the named format.
func (e *Exporter) Export(ctx context.Context, w io.Writer, format string, records []domain.Record) error {
	f, err := ParseFormat(format)
	if err != nil {
		return err
	}
	opts := Options{Now: e.now()}

	switch f {
	case FormatMarkdown:
		_, err = io.WriteString(w, Markdown(records, opts))
		return err
	case FormatZip:
		stats, err := WriteZip(ctx, w, records, e.fetcher, opts)
		if err != nil {
			return err
		}
		log.GlobalInfoCtx(ctx, "zip export written", "records", len(records), "assets", stats.Assets, "failed_media", stats.Failed)
		return nil
	}
	return WriteJSON(w, records)
}
