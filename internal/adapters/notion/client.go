// Package notion pushes records to a Notion database as pages.
package notion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/buger/jsonparser"
	"github.com/gofiber/fiber/v2"

	"xknowledge/internal/domain"
	"xknowledge/pkg/log"
)

const (
	DefaultBaseURL = "https://api.notion.com"
	APIVersion     = "2022-06-28"

	// maxTextLength is the per rich-text limit of the Notion API.
	maxTextLength  = 2000
	defaultTimeout = 20 * time.Second
)

// Client creates pages through the Notion REST API.
type Client struct {
	token      string
	databaseID string
	baseURL    string
	timeout    time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another API root.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(url, "/") }
}

// NewClient returns a client for databaseID. Empty credentials give a
// disabled client.
func NewClient(token, databaseID string, opts ...Option) *Client {
	c := &Client{
		token:      token,
		databaseID: databaseID,
		baseURL:    DefaultBaseURL,
		timeout:    defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enabled reports whether credentials are configured.
func (c *Client) Enabled() bool {
	return c != nil && c.token != "" && c.databaseID != ""
}

// Push creates one page for r and returns its page ID.
func (c *Client) Push(ctx context.Context, r domain.Record) (string, error) {
	if !c.Enabled() {
		return "", domain.ErrNotionDisabled
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	agent := fiber.Post(c.baseURL+"/v1/pages").
		Timeout(c.timeout).
		Set(fiber.HeaderAuthorization, "Bearer "+c.token).
		Set("Notion-Version", APIVersion).
		JSON(PageFor(c.databaseID, r))

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return "", fmt.Errorf("notion request: %w", errs[0])
	}
	if code < 200 || code > 299 {
		msg, _ := jsonparser.GetString(body, "message")
		if msg == "" {
			msg = string(body)
		}
		log.GlobalErrorCtx(ctx, "notion rejected page", "status", code, "record_id", r.ID, "message", msg)
		return "", fmt.Errorf("%w: status %d: %s", domain.ErrNotionRejected, code, msg)
	}

	pageID, _ := jsonparser.GetString(body, "id")
	log.GlobalInfoCtx(ctx, "notion page created", "record_id", r.ID, "page_id", pageID)
	return pageID, nil
}

// Page is the create-page request body.
type Page struct {
	Parent     Parent              `json:"parent"`
	Properties map[string]Property `json:"properties"`
	Children   []Block             `json:"children"`
}

type Parent struct {
	DatabaseID string `json:"database_id"`
}

type Property struct {
	Title       []RichText     `json:"title,omitempty"`
	URL         string         `json:"url,omitempty"`
	Date        *DateValue     `json:"date,omitempty"`
	Select      *SelectOption  `json:"select,omitempty"`
	MultiSelect []SelectOption `json:"multi_select,omitempty"`
}

type DateValue struct {
	Start string `json:"start"`
}

type SelectOption struct {
	Name string `json:"name"`
}

type RichText struct {
	Type        string       `json:"type"`
	Text        Text         `json:"text"`
	Annotations *Annotations `json:"annotations,omitempty"`
}

type Text struct {
	Content string `json:"content"`
	Link    *Link  `json:"link,omitempty"`
}

type Link struct {
	URL string `json:"url"`
}

type Annotations struct {
	Bold bool `json:"bold"`
}

type Block struct {
	Object    string     `json:"object"`
	Type      string     `json:"type"`
	Paragraph *TextBlock `json:"paragraph,omitempty"`
	Callout   *Callout   `json:"callout,omitempty"`
	Bookmark  *Link      `json:"bookmark,omitempty"`
}

type TextBlock struct {
	RichText []RichText `json:"rich_text"`
}

type Callout struct {
	RichText []RichText `json:"rich_text"`
	Icon     Icon       `json:"icon"`
}

type Icon struct {
	Emoji string `json:"emoji"`
}

// PageFor maps a record to a page in databaseID.
func PageFor(databaseID string, r domain.Record) Page {
	props := map[string]Property{
		"Name": {Title: []RichText{plain(r.AuthorName + " on X")}},
		"URL":  {URL: r.URL()},
	}
	if t, err := time.Parse(time.RubyDate, r.CreatedAt); err == nil {
		props["Date"] = Property{Date: &DateValue{Start: t.UTC().Format(time.RFC3339)}}
	}

	var children []Block
	if a := r.Analysis; a != nil {
		if a.Category != "" {
			props["Category"] = Property{Select: &SelectOption{Name: a.Category}}
		}
		if len(a.Tags) > 0 {
			tags := make([]SelectOption, 0, len(a.Tags))
			for _, tag := range a.Tags {
				tags = append(tags, SelectOption{Name: strings.TrimPrefix(tag, "#")})
			}
			props["Tags"] = Property{MultiSelect: tags}
		}
		children = append(children, Block{
			Object:  "block",
			Type:    "callout",
			Callout: &Callout{RichText: []RichText{plain("AI Summary: " + a.Summary)}, Icon: Icon{Emoji: "💡"}},
		})
	}

	for _, line := range strings.Split(r.Text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		children = append(children, paragraph(plain(truncate(line, maxTextLength))))
	}

	for _, m := range r.Media {
		if m.URL == "" {
			continue
		}
		if m.Type == domain.MediaPhoto {
			children = append(children, Block{Object: "block", Type: "bookmark", Bookmark: &Link{URL: m.URL}})
			continue
		}
		children = append(children, paragraph(
			RichText{Type: "text", Text: Text{Content: "🎬 Watch Video: "}, Annotations: &Annotations{Bold: true}},
			RichText{Type: "text", Text: Text{Content: m.URL, Link: &Link{URL: m.URL}}},
		))
	}

	if children == nil {
		children = []Block{}
	}
	return Page{Parent: Parent{DatabaseID: databaseID}, Properties: props, Children: children}
}

func plain(s string) RichText {
	return RichText{Type: "text", Text: Text{Content: s}}
}

func paragraph(parts ...RichText) Block {
	return Block{Object: "block", Type: "paragraph", Paragraph: &TextBlock{RichText: parts}}
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
