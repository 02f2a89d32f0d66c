package web

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"

	"github.com/a-h/templ"

	"xknowledge/internal/domain"
)

const pageStyle = `body{font-family:system-ui,sans-serif;max-width:760px;margin:0 auto;padding:1rem;color:#0f1419}
a{color:#1d9bf0;text-decoration:none}
.card{border:1px solid #eff3f4;border-radius:12px;padding:1rem;margin:0 0 1rem}
.meta{color:#536471;font-size:.875rem}
.tag{background:#eff3f4;border-radius:9999px;padding:0 .5rem;margin-right:.25rem;font-size:.75rem}
.filters a{margin-right:.75rem}
img,video{max-width:100%;border-radius:8px}
.error{color:#f4212e}`

// esc writes s HTML-escaped.
func esc(w io.Writer, s string) error {
	_, err := io.WriteString(w, templ.EscapeString(s))
	return err
}

// href sanitizes u for use in an attribute.
func href(u string) string {
	return templ.EscapeString(string(templ.URL(u)))
}

// Layout wraps body in the page chrome.
func Layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`+
			`<meta name="viewport" content="width=device-width, initial-scale=1"><title>`); err != nil {
			return err
		}
		if err := esc(w, title); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `</title><style>`+pageStyle+`</style></head><body>`+
			`<header><a href="/"><strong>X-Knowledge</strong></a></header><main>`); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</main></body></html>`)
		return err
	})
}

// LibraryData is what the library page shows.
type LibraryData struct {
	Records    []domain.Record
	Categories []string
	Filter     domain.ListFilter
}

// pageWriter remembers the first write error and skips later writes.
type pageWriter struct {
	w   io.Writer
	err error
}

func (p *pageWriter) printf(format string, args ...any) {
	if p.err == nil {
		_, p.err = fmt.Fprintf(p.w, format, args...)
	}
}

func (p *pageWriter) str(s string) {
	if p.err == nil {
		_, p.err = io.WriteString(p.w, s)
	}
}

// LibraryPage lists records with category filters and export links.
func LibraryPage(d LibraryData) templ.Component {
	return Layout("X-Knowledge", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &pageWriter{w: w}
		p.printf(`<form method="get" action="/"><input name="q" placeholder="Search" value="%s"> <button>Search</button></form>`,
			templ.EscapeString(d.Filter.Query))

		p.str(`<p class="filters"><a href="/">All</a>`)
		for _, c := range d.Categories {
			p.printf(`<a href="/?category=%s">%s</a>`, href(url.QueryEscape(c)), templ.EscapeString(c))
		}
		p.str(`</p><p class="meta">Export: <a href="/export/markdown">Markdown</a> · <a href="/export/zip">ZIP</a> · <a href="/export/json">JSON</a></p>`)

		if len(d.Records) == 0 {
			p.str(`<p class="meta">No bookmarks yet.</p>`)
			return p.err
		}
		for _, r := range d.Records {
			recordCard(p, r)
		}
		return p.err
	}))
}

func recordCard(p *pageWriter, r domain.Record) {
	p.printf(`<article class="card"><div class="meta"><strong>%s</strong> @%s · %s</div>`,
		templ.EscapeString(r.AuthorName), templ.EscapeString(r.AuthorHandle), templ.EscapeString(r.CreatedAt))
	p.printf(`<p>%s</p>`, templ.EscapeString(r.Text))
	if a := r.Analysis; a != nil {
		p.printf(`<p class="meta">%s · %s</p><p>`, templ.EscapeString(a.Category), templ.EscapeString(a.Summary))
		for _, tag := range a.Tags {
			p.printf(`<span class="tag">%s</span>`, templ.EscapeString(tag))
		}
		p.str(`</p>`)
	}
	p.printf(`<p class="meta">%s media · ♥ %s · <a href="/bookmarks/%s">Read</a> · <a href="%s">Original</a></p></article>`,
		strconv.Itoa(len(r.Media)), strconv.Itoa(r.Metrics.LikeCount), href(url.PathEscape(r.ID)), href(r.URL()))
}

// ReaderPage shows one record rendered from its Markdown export.
func ReaderPage(r domain.Record, rendered string) templ.Component {
	return Layout(r.AuthorName+" (@"+r.AuthorHandle+")", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<article class="card">`); err != nil {
			return err
		}
		if err := templ.Raw(rendered).Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</article>`)
		return err
	}))
}

// ErrorPage shows a neutral error message.
func ErrorPage(message string) templ.Component {
	return Layout("X-Knowledge", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<p class="error">%s</p><p><a href="/">Back to library</a></p>`, templ.EscapeString(message))
		return err
	}))
}
