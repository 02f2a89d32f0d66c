package web

import (
	"regexp"
	"strings"

	"xknowledge/internal/domain"
)

// statusURLRegex matches post URLs on twitter.com, x.com and their www and
// mobile hosts. Query parameters are ignored.
var statusURLRegex = regexp.MustCompile(
	`^https?://(?:(?:www|mobile)\.)?(?:twitter\.com|x\.com)/(\w+)/status/(\d+)`,
)

var numericID = regexp.MustCompile(`^\d+$`)

// ParseStatusURL extracts the handle and post ID from a post URL. A bare
// numeric ID is accepted with an empty handle.
func ParseStatusURL(raw string) (handle string, id string, err error) {
	raw = strings.TrimSpace(raw)
	if numericID.MatchString(raw) {
		return "", raw, nil
	}
	matches := statusURLRegex.FindStringSubmatch(raw)
	if matches == nil {
		return "", "", domain.ErrInvalidURL
	}
	return matches[1], matches[2], nil
}
