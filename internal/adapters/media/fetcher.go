// Package media downloads post media for offline export and the media proxy.
package media

import (
	"context"
	"fmt"
	"net/http"
	neturl "net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"xknowledge/internal/domain"
	"xknowledge/pkg/log"
)

const (
	defaultTimeout = 30 * time.Second
	maxRedirects   = 5
	maxMediaBytes  = 64 << 20
	userAgent      = "xknowledge/1.0"
)

// allowedHosts are the media CDNs the proxy may fetch from.
var allowedHosts = []string{"pbs.twimg.com", "video.twimg.com", "abs.twimg.com"}

// HTTPFetcher downloads blobs with the fiber HTTP client.
type HTTPFetcher struct {
	timeout   time.Duration
	maxBytes  int
	allow     func(url string) bool
	userAgent string
}

// NewHTTPFetcher returns a fetcher limited to the platform media CDNs.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{timeout: defaultTimeout, maxBytes: maxMediaBytes, allow: IsMediaURL, userAgent: userAgent}
}

// AllowAnyHost lifts the CDN restriction. Tests use it with local servers.
func (f *HTTPFetcher) AllowAnyHost() *HTTPFetcher {
	f.allow = func(string) bool { return true }
	return f
}

// Fetch downloads url. Redirects are followed by hand so every hop passes
// the host check. Non-2xx responses and bodies over the size cap are errors.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (domain.Blob, error) {
	if err := ctx.Err(); err != nil {
		return domain.Blob{}, err
	}

	timeout := f.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}

	target := url
	for hop := 0; ; hop++ {
		if !f.allow(target) {
			return domain.Blob{}, fmt.Errorf("media host not allowed: %s", target)
		}
		blob, next, err := f.get(target, timeout)
		if err != nil {
			return domain.Blob{}, err
		}
		if next == "" {
			return blob, nil
		}
		if hop >= maxRedirects {
			return domain.Blob{}, fmt.Errorf("fetch %s: too many redirects", url)
		}
		if err := ctx.Err(); err != nil {
			return domain.Blob{}, err
		}
		target = next
	}
}

// get performs one request. A redirect yields its resolved Location as next.
func (f *HTTPFetcher) get(target string, timeout time.Duration) (blob domain.Blob, next string, err error) {
	resp := fiber.AcquireResponse()
	defer fiber.ReleaseResponse(resp)

	agent := fiber.Get(target).
		Timeout(timeout).
		UserAgent(f.userAgent)
	if agent.HostClient != nil {
		agent.MaxResponseBodySize = f.maxBytes
	}
	agent.SetResponse(resp)

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return domain.Blob{}, "", fmt.Errorf("fetch %s: %w", target, errs[0])
	}
	if code >= 300 && code <= 399 {
		location := string(resp.Header.Peek(fiber.HeaderLocation))
		if location == "" {
			return domain.Blob{}, "", fmt.Errorf("fetch %s: redirect without location", target)
		}
		base, err := neturl.Parse(target)
		if err != nil {
			return domain.Blob{}, "", fmt.Errorf("fetch %s: %w", target, err)
		}
		ref, err := neturl.Parse(location)
		if err != nil {
			return domain.Blob{}, "", fmt.Errorf("fetch %s: bad redirect %q: %w", target, location, err)
		}
		return domain.Blob{}, base.ResolveReference(ref).String(), nil
	}
	if code < 200 || code > 299 {
		return domain.Blob{}, "", fmt.Errorf("fetch %s: unexpected status %d", target, code)
	}
	if len(body) > f.maxBytes {
		return domain.Blob{}, "", fmt.Errorf("fetch %s: body exceeds %d bytes", target, f.maxBytes)
	}

	contentType := string(resp.Header.ContentType())
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}
	return domain.Blob{Data: body, ContentType: contentType}, "", nil
}

// IsMediaURL reports whether url points at a known media CDN over https.
func IsMediaURL(url string) bool {
	rest, ok := strings.CutPrefix(url, "https://")
	if !ok {
		return false
	}
	host, _, _ := strings.Cut(rest, "/")
	for _, h := range allowedHosts {
		if host == h {
			return true
		}
	}
	return false
}

// Fetcher downloads one media URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (domain.Blob, error)
}

// Cache stores downloaded blobs by URL.
type Cache interface {
	Get(url string) (domain.Blob, bool)
	Set(url string, blob domain.Blob)
}

// CachingFetcher serves from the cache and fills it on miss.
type CachingFetcher struct {
	next  Fetcher
	cache Cache
}

// NewCachingFetcher wraps next with cache.
func NewCachingFetcher(next Fetcher, cache Cache) *CachingFetcher {
	return &CachingFetcher{next: next, cache: cache}
}

func (f *CachingFetcher) Fetch(ctx context.Context, url string) (domain.Blob, error) {
	if blob, ok := f.cache.Get(url); ok {
		log.GlobalTraceCtx(ctx, "media cache hit", "url", url)
		return blob, nil
	}
	blob, err := f.next.Fetch(ctx, url)
	if err != nil {
		return domain.Blob{}, err
	}
	f.cache.Set(url, blob)
	return blob, nil
}
