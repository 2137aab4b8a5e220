package fetcher

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"
)

// MaxBodyLength caps the sanitized body, bounding storage and translation cost.
const MaxBodyLength = 2000

var (
	stripPolicy    = bluemonday.StrictPolicy()
	entityPattern  = regexp.MustCompile(`&#?[a-zA-Z0-9]+;`)
	spacesPattern  = regexp.MustCompile(`\s+`)
	imageExtension = regexp.MustCompile(`(?i)\.(jpe?g|png|gif|webp|svg|bmp)(\?|$)`)
)

// SanitizeBody strips markup from raw feed HTML, collapses entities and
// whitespace runs, and truncates the result to MaxBodyLength.
func SanitizeBody(raw string) string {
	text := stripPolicy.Sanitize(raw)
	text = entityPattern.ReplaceAllString(text, " ")
	// The sanitizer decodes &nbsp; to the literal non-breaking space.
	text = strings.ReplaceAll(text, " ", " ")
	text = spacesPattern.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)
	if runes := []rune(text); len(runes) > MaxBodyLength {
		text = string(runes[:MaxBodyLength])
	}
	return text
}

// ExtractImageURL finds an image for a feed item.
// Priority: enclosure URL, media:thumbnail, media:content, then an
// <img> tag inside the item's HTML. The first plausible URL wins;
// an empty string means the article is created without an image.
func ExtractImageURL(item *gofeed.Item) string {
	for _, enc := range item.Enclosures {
		if plausibleImageURL(enc.URL) {
			return enc.URL
		}
	}

	if mediaExt, ok := item.Extensions["media"]; ok {
		if thumbnails, ok := mediaExt["thumbnail"]; ok {
			for _, thumb := range thumbnails {
				if u := thumb.Attrs["url"]; plausibleImageURL(u) {
					return u
				}
			}
		}
		if contents, ok := mediaExt["content"]; ok {
			for _, content := range contents {
				if u := content.Attrs["url"]; plausibleImageURL(u) {
					return u
				}
			}
		}
	}

	for _, html := range []string{item.Content, item.Description} {
		if u := imageFromHTML(html); u != "" {
			return u
		}
	}
	return ""
}

// imageFromHTML returns the src of the first plausible <img> tag.
func imageFromHTML(html string) string {
	if html == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	var found string
	doc.Find("img").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		src, ok := sel.Attr("src")
		if ok && plausibleImageURL(src) {
			found = src
			return false
		}
		return true
	})
	return found
}

// plausibleImageURL reports whether a URL looks like it points at an image:
// a known image file extension, or "image"/"photo" somewhere in the URL.
func plausibleImageURL(u string) bool {
	if u == "" || !strings.HasPrefix(u, "http") {
		return false
	}
	if imageExtension.MatchString(u) {
		return true
	}
	lower := strings.ToLower(u)
	return strings.Contains(lower, "image") || strings.Contains(lower, "photo")
}
