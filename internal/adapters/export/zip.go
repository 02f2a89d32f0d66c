package export

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"strings"

	"xknowledge/internal/domain"
	"xknowledge/pkg/log"
)

// ArchiveMarkdownName is the document inside an offline archive.
const ArchiveMarkdownName = "x-knowledge-export.md"

// MediaFetcher downloads one media URL.
type MediaFetcher interface {
	Fetch(ctx context.Context, url string) (domain.Blob, error)
}

// ZipStats summarizes an archive.
type ZipStats struct {
	Assets int
	Failed int
}

// WriteZip writes an offline archive: every media file under assets/ and
// the Markdown document with media links rewritten to them. Media that
// cannot be fetched keeps its remote link. No records give an empty archive.
func WriteZip(ctx context.Context, w io.Writer, records []domain.Record, fetcher MediaFetcher, opts Options) (ZipStats, error) {
	zw := zip.NewWriter(w)
	var stats ZipStats

	if len(records) == 0 {
		return stats, zw.Close()
	}

	local := make(map[string]string, len(opts.LocalMedia))
	for k, v := range opts.LocalMedia {
		local[k] = v
	}

	for _, r := range records {
		for i, m := range r.Media {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			if m.URL == "" {
				continue
			}
			if _, done := local[m.URL]; done {
				continue
			}

			blob, err := fetcher.Fetch(ctx, m.URL)
			if err != nil {
				stats.Failed++
				log.GlobalWarnCtx(ctx, "media fetch failed, keeping remote link", "url", m.URL, "error", err)
				continue
			}

			name := AssetName(r.ID, i, m.Type, blob.ContentType)
			f, err := zw.CreateHeader(&zip.FileHeader{Name: "assets/" + name, Method: zip.Store})
			if err != nil {
				return stats, fmt.Errorf("add asset %s: %w", name, err)
			}
			if _, err := f.Write(blob.Data); err != nil {
				return stats, fmt.Errorf("write asset %s: %w", name, err)
			}
			local[m.URL] = "./assets/" + name
			stats.Assets++
		}
	}

	opts.LocalMedia = local
	f, err := zw.Create(ArchiveMarkdownName)
	if err != nil {
		return stats, fmt.Errorf("add markdown: %w", err)
	}
	if _, err := io.WriteString(f, Markdown(records, opts)); err != nil {
		return stats, fmt.Errorf("write markdown: %w", err)
	}

	if err := zw.Close(); err != nil {
		return stats, fmt.Errorf("finish archive: %w", err)
	}
	return stats, nil
}

// AssetName is <id>-<index>.<ext>: mp4 for motion media, png when the
// content type says so, jpg otherwise.
func AssetName(id string, index int, kind domain.MediaType, contentType string) string {
	ext := "jpg"
	switch {
	case kind.IsMotion():
		ext = "mp4"
	case strings.Contains(contentType, "png"):
		ext = "png"
	}
	return fmt.Sprintf("%s-%d.%s", id, index, ext)
}
