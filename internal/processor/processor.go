package processor

import (
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed"
	"gorm.io/datatypes"

	"neuralnews/internal/storage"
)

const (
	// summaries are capped at 300 characters; longer text is cut to 297 + "..."
	summaryLimit    = 300
	summaryCut      = 297
	fallbackTitle   = "Untitled"
	defaultCategory = "general"
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// Normalizer turns one raw feed entry into a storage draft. It is
// deterministic given Now, which tests override.
type Normalizer struct {
	Now func() time.Time
}

func NewNormalizer() *Normalizer {
	return &Normalizer{Now: time.Now}
}

// Normalize builds a News draft from a feed entry and its owning source.
// The caller assigns the id on insert; CreatedAt carries the resolved
// publish date. Normalize never fails: every missing or malformed field
// has a fallback.
func (n *Normalizer) Normalize(src *storage.Source, item *gofeed.Item) storage.News {
	summary := stripTags(item.Description)

	return storage.News{
		Title:     resolveTitle(item.Title),
		Summary:   summary,
		Content:   resolveContent(item, summary),
		Source:    src.Name,
		SourceURL: item.Link,
		ImageURL:  resolveImage(item),
		Category:  resolveCategory(item.Categories),
		ExtraData: resolveExtra(item),
		CreatedAt: n.resolvePublished(item),
	}
}

func resolveTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return fallbackTitle
	}
	return title
}

// stripTags removes markup, trims, and truncates to the summary limit.
func stripTags(s string) string {
	s = tagPattern.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	rs := []rune(s)
	if len(rs) > summaryLimit {
		return string(rs[:summaryCut]) + "..."
	}
	return s
}

func resolveContent(item *gofeed.Item, summary string) string {
	// gofeed maps content:encoded onto Content for RSS items
	if item.Content != "" {
		return item.Content
	}
	return summary
}

func resolveImage(item *gofeed.Item) string {
	for _, enc := range item.Enclosures {
		if enc != nil && enc.URL != "" {
			return enc.URL
		}
	}
	if media, ok := item.Extensions["media"]; ok {
		for _, ext := range media["content"] {
			if url := ext.Attrs["url"]; url != "" {
				return url
			}
		}
	}
	return ""
}

func resolveCategory(categories []string) string {
	if len(categories) > 0 && strings.TrimSpace(categories[0]) != "" {
		return strings.TrimSpace(categories[0])
	}
	return defaultCategory
}

// resolvePublished tries the pre-parsed publish date, then the raw publish
// string, then Dublin Core dates. Anything unparseable falls back to now;
// this path never errors.
func (n *Normalizer) resolvePublished(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil && !item.PublishedParsed.IsZero() {
		return *item.PublishedParsed
	}
	if item.Published != "" {
		if t, err := dateparse.ParseAny(item.Published); err == nil && !t.IsZero() {
			return t
		}
	}
	if item.DublinCoreExt != nil {
		for _, raw := range item.DublinCoreExt.Date {
			if t, err := dateparse.ParseAny(raw); err == nil && !t.IsZero() {
				return t
			}
		}
	}
	return n.Now()
}

func resolveExtra(item *gofeed.Item) datatypes.JSONMap {
	extra := datatypes.JSONMap{}
	if item.GUID != "" {
		extra["guid"] = item.GUID
	}
	if item.Author != nil && item.Author.Name != "" {
		extra["author"] = item.Author.Name
	}
	if len(extra) == 0 {
		return nil
	}
	return extra
}
