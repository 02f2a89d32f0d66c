package extractor

import (
	"github.com/spf13/cast"

	"xknowledge/internal/domain"
	"xknowledge/pkg/jsonnode"
)

const mp4ContentType = "video/mp4"

// extractMedia reads legacy.extended_entities.media, falling back to
// legacy.entities.media.
func extractMedia(legacy any) []domain.Media {
	entities := firstTruthy(
		jsonnode.Field(legacy, "extended_entities"),
		jsonnode.Field(legacy, "entities"),
	)
	items, _ := jsonnode.Field(entities, "media").([]any)

	media := make([]domain.Media, 0, len(items))
	for _, item := range items {
		if m, ok := mediaItem(item); ok {
			media = append(media, m)
		}
	}
	return media
}

func mediaItem(item any) (domain.Media, bool) {
	if !jsonnode.IsObject(item) {
		return domain.Media{}, false
	}
	width := count(jsonnode.Lookup(item, "original_info", "width"))
	height := count(jsonnode.Lookup(item, "original_info", "height"))

	kind := domain.MediaType(scalarString(jsonnode.Field(item, "type")))
	if kind.IsMotion() {
		variant, ok := bestMP4(jsonnode.Lookup(item, "video_info", "variants"))
		if !ok {
			return domain.Media{}, false
		}
		return domain.Media{
			Type:       kind,
			URL:        scalarString(jsonnode.Field(variant, "url")),
			PreviewURL: scalarString(jsonnode.Field(item, "media_url_https")),
			Width:      width,
			Height:     height,
		}, true
	}

	// A photo without media_url_https is still kept, with an empty URL.
	return domain.Media{
		Type:   domain.MediaPhoto,
		URL:    scalarString(jsonnode.Field(item, "media_url_https")),
		Width:  width,
		Height: height,
	}, true
}

// bestMP4 returns the highest-bitrate MP4 variant that has a URL. Equal
// bitrates keep the earlier variant.
func bestMP4(variants any) (any, bool) {
	list, _ := variants.([]any)

	var best any
	var bestRate float64
	found := false
	for _, v := range list {
		if scalarString(jsonnode.Field(v, "content_type")) != mp4ContentType {
			continue
		}
		if scalarString(jsonnode.Field(v, "url")) == "" {
			continue
		}
		rate := cast.ToFloat64(jsonnode.Field(v, "bitrate"))
		if !found || rate > bestRate {
			best, bestRate, found = v, rate, true
		}
	}
	return best, found
}
