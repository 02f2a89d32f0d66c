package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"xknowledge/internal/domain"
	"xknowledge/pkg/log"
)

const (
	// BookmarksURL is the page that loads the bookmark timeline.
	BookmarksURL = "https://x.com/i/bookmarks"

	defaultWait    = 3 * time.Second
	defaultScrolls = 3
	cookieDomain   = ".x.com"
)

// Tabs hands out exclusive browser tabs.
type Tabs interface {
	WithTab(ctx context.Context, fn func(tabCtx context.Context) error) error
}

func withDefaults(o domain.CaptureOptions) domain.CaptureOptions {
	if o.URL == "" {
		o.URL = BookmarksURL
	}
	if o.Scrolls < 0 {
		o.Scrolls = 0
	} else if o.Scrolls == 0 {
		o.Scrolls = defaultScrolls
	}
	if o.Wait <= 0 {
		o.Wait = defaultWait
	}
	return o
}

// Capturer records the JSON bodies of bookmark endpoint responses.
type Capturer struct {
	tabs    Tabs
	cookies []*network.CookieParam
	filter  func(url string) bool
}

// NewCapturer returns a capturer that authenticates with rawCookie and keeps
// responses whose URL passes filter.
func NewCapturer(tabs Tabs, rawCookie string, filter func(url string) bool) *Capturer {
	if filter == nil {
		filter = func(url string) bool { return strings.Contains(url, "/graphql/") }
	}
	return &Capturer{tabs: tabs, cookies: ParseCookies(rawCookie), filter: filter}
}

// Capture opens the page, scrolls it to trigger pagination and returns the
// matching responses in arrival order.
func (c *Capturer) Capture(ctx context.Context, opts domain.CaptureOptions) ([]domain.CapturedPayload, error) {
	opts = withDefaults(opts)
	var payloads []domain.CapturedPayload

	err := c.tabs.WithTab(ctx, func(tabCtx context.Context) error {
		w := newWatcher(c.filter)
		chromedp.ListenTarget(tabCtx, w.handle)

		actions := []chromedp.Action{network.Enable()}
		if len(c.cookies) > 0 {
			actions = append(actions, network.SetCookies(c.cookies))
		}
		actions = append(actions, chromedp.Navigate(opts.URL), chromedp.Sleep(opts.Wait))
		for i := 0; i < opts.Scrolls; i++ {
			actions = append(actions,
				chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
				chromedp.Sleep(opts.Wait),
			)
		}
		actions = append(actions, chromedp.ActionFunc(func(ctx context.Context) error {
			payloads = w.collect(ctx)
			return nil
		}))

		return chromedp.Run(tabCtx, actions...)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCaptureFailed, err)
	}

	log.GlobalInfoCtx(ctx, "capture finished", "url", opts.URL, "scrolls", opts.Scrolls, "payloads", len(payloads))
	return payloads, nil
}

// watcher tracks matching responses until their bodies finish loading.
type watcher struct {
	filter func(string) bool

	mu       sync.Mutex
	pending  map[network.RequestID]string
	finished []finishedResponse
}

type finishedResponse struct {
	id  network.RequestID
	url string
}

func newWatcher(filter func(string) bool) *watcher {
	return &watcher{filter: filter, pending: make(map[network.RequestID]string)}
}

func (w *watcher) handle(ev any) {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch e := ev.(type) {
	case *network.EventResponseReceived:
		if e.Response != nil && w.filter(e.Response.URL) {
			w.pending[e.RequestID] = e.Response.URL
		}
	case *network.EventLoadingFinished:
		if url, ok := w.pending[e.RequestID]; ok {
			delete(w.pending, e.RequestID)
			w.finished = append(w.finished, finishedResponse{id: e.RequestID, url: url})
		}
	case *network.EventLoadingFailed:
		delete(w.pending, e.RequestID)
	}
}

// collect fetches the finished bodies. Bodies that are gone or not JSON are
// skipped.
func (w *watcher) collect(ctx context.Context) []domain.CapturedPayload {
	w.mu.Lock()
	finished := append([]finishedResponse(nil), w.finished...)
	w.mu.Unlock()

	payloads := make([]domain.CapturedPayload, 0, len(finished))
	for _, f := range finished {
		body, err := network.GetResponseBody(f.id).Do(ctx)
		if err != nil {
			log.GlobalWarnCtx(ctx, "response body unavailable", "url", f.url, "error", err)
			continue
		}
		if !json.Valid(body) {
			log.GlobalWarnCtx(ctx, "response body is not json", "url", f.url, "bytes", len(body))
			continue
		}
		payloads = append(payloads, domain.CapturedPayload{URL: f.url, Body: body})
	}
	return payloads
}

// ParseCookies turns "name=value; name2=value2" into cookie params for the
// platform domain. A bare value is taken as the auth_token cookie.
func ParseCookies(raw string) []*network.CookieParam {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if !strings.Contains(raw, "=") {
		return []*network.CookieParam{cookie("auth_token", raw)}
	}

	var out []*network.CookieParam
	for _, part := range strings.Split(raw, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			continue
		}
		out = append(out, cookie(name, strings.TrimSpace(value)))
	}
	return out
}

func cookie(name, value string) *network.CookieParam {
	return &network.CookieParam{
		Name:     name,
		Value:    value,
		Domain:   cookieDomain,
		Path:     "/",
		Secure:   true,
		HTTPOnly: name == "auth_token",
	}
}
