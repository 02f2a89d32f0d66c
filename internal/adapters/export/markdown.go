// Package export renders records as Markdown, offline ZIP archives and JSON.
package export

import (
	"fmt"
	"strings"
	"time"

	"xknowledge/internal/domain"
)

// Uncategorized labels records without an analysis.
const Uncategorized = "Uncategorized"

// Options tunes rendering.
type Options struct {
	// Now stamps generated documents; zero means time.Now().
	Now time.Time
	// LocalMedia maps remote media URLs to local paths.
	LocalMedia map[string]string
}

func (o Options) now() time.Time {
	if o.Now.IsZero() {
		return time.Now()
	}
	return o.Now
}

func (o Options) mediaURL(url string) string {
	if local, ok := o.LocalMedia[url]; ok && local != "" {
		return local
	}
	return url
}

// Markdown renders one record with YAML frontmatter, or several records as
// one document with batch frontmatter. No records give "".
func Markdown(records []domain.Record, opts Options) string {
	switch len(records) {
	case 0:
		return ""
	case 1:
		return singleMarkdown(records[0], opts)
	}

	now := opts.now()
	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString("title: \"X-Knowledge Export\"\n")
	fmt.Fprintf(&b, "date: %s\n", now.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "count: %d\n", len(records))
	b.WriteString("---\n\n")
	b.WriteString("# X-Knowledge Bookmarks Export\n\n")
	fmt.Fprintf(&b, "Generated on %s\n\n", now.Format(time.DateOnly))
	b.WriteString("---\n\n")

	for _, r := range records {
		fmt.Fprintf(&b, "## %s (@%s)\n\n", r.AuthorName, r.AuthorHandle)
		fmt.Fprintf(&b, "📅 %s | 🔗 [Original Tweet](%s)\n\n", displayDate(r.CreatedAt), r.URL())

		if r.Analysis != nil {
			fmt.Fprintf(&b, "**Category**: %s | **Tags**: %s\n\n", r.Analysis.Category, strings.Join(r.Analysis.Tags, ", "))
			fmt.Fprintf(&b, "> **💡 AI Summary**: %s\n\n", r.Analysis.Summary)
		}
		b.WriteString(r.Text)
		b.WriteString("\n\n")
		writeMedia(&b, r.Media, opts)
		b.WriteString("---\n\n")
	}
	return b.String()
}

func singleMarkdown(r domain.Record, opts Options) string {
	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "id: %q\n", r.ID)
	fmt.Fprintf(&b, "author: %s\n", yamlQuote(r.AuthorName))
	fmt.Fprintf(&b, "handle: %s\n", yamlQuote("@"+r.AuthorHandle))
	fmt.Fprintf(&b, "date: %s\n", r.CreatedAt)
	fmt.Fprintf(&b, "url: %q\n", r.URL())
	if r.Analysis != nil {
		fmt.Fprintf(&b, "category: %s\n", yamlQuote(r.Analysis.Category))
		if len(r.Analysis.Tags) > 0 {
			b.WriteString("tags:\n")
			for _, tag := range r.Analysis.Tags {
				fmt.Fprintf(&b, "  - %s\n", yamlQuote(strings.TrimPrefix(tag, "#")))
			}
		}
	} else {
		fmt.Fprintf(&b, "category: %q\n", Uncategorized)
	}
	b.WriteString("---\n\n")

	fmt.Fprintf(&b, "# %s (@%s)\n\n", r.AuthorName, r.AuthorHandle)
	if r.Analysis != nil {
		fmt.Fprintf(&b, "> **💡 AI Summary**: %s\n\n", r.Analysis.Summary)
	}
	b.WriteString(r.Text)
	b.WriteString("\n\n")
	writeMedia(&b, r.Media, opts)

	fmt.Fprintf(&b, "---\n*Saved from [X/Twitter](%s) on %s*\n", r.URL(), opts.now().Format(time.DateOnly))
	return b.String()
}

func writeMedia(b *strings.Builder, media []domain.Media, opts Options) {
	for _, m := range media {
		if m.URL == "" {
			continue
		}
		url := opts.mediaURL(m.URL)
		if m.Type == domain.MediaPhoto {
			fmt.Fprintf(b, "![Image](%s)\n\n", url)
		} else {
			fmt.Fprintf(b, "🎬 [Watch Video](%s)\n\n", url)
		}
	}
}

// displayDate turns the platform timestamp into YYYY-MM-DD when it parses.
func displayDate(createdAt string) string {
	t, err := time.Parse(time.RubyDate, createdAt)
	if err != nil {
		return createdAt
	}
	return t.Format(time.DateOnly)
}

func yamlQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
