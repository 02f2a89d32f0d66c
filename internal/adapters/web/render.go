package web

import (
	"bytes"
	"strings"

	"github.com/a-h/templ"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/yuin/goldmark"
)

// render writes a templ component as a 200 response.
func render(c *fiber.Ctx, component templ.Component) error {
	return renderStatus(c, fiber.StatusOK, component)
}

// renderStatus writes a templ component with status. The status must go
// through templ since the adaptor overwrites the fiber one.
func renderStatus(c *fiber.Ctx, status int, component templ.Component) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return adaptor.HTTPHandler(templ.Handler(component, templ.WithStatus(status)))(c)
}

// renderMarkdown converts a Markdown document to HTML, dropping any YAML
// frontmatter. Raw HTML in the source is not passed through.
func renderMarkdown(md string) string {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(stripFrontmatter(md)), &buf); err != nil {
		return templ.EscapeString(md)
	}
	return buf.String()
}

func stripFrontmatter(md string) string {
	rest, ok := strings.CutPrefix(md, "---\n")
	if !ok {
		return md
	}
	_, body, found := strings.Cut(rest, "\n---\n")
	if !found {
		return md
	}
	return strings.TrimLeft(body, "\n")
}
