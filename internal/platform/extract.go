package platform

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// lazyImageAttrs are checked before src: marketplace grids lazy-load
// images and leave a placeholder in src until the card scrolls into view.
var lazyImageAttrs = []string{"data-image", "data-src", "data-original", "data-lazy-src"}

// ListingImage extracts the best image URL from an <img> selection,
// preferring lazy-load attributes over src and rejecting placeholder
// sources outright.
func ListingImage(img *goquery.Selection) string {
	for _, attr := range lazyImageAttrs {
		if v := strings.TrimSpace(img.AttrOr(attr, "")); v != "" {
			return v
		}
	}
	src := strings.TrimSpace(img.AttrOr("src", ""))
	if IsPlaceholderImage(src) {
		return ""
	}
	return src
}

// IsPlaceholderImage reports whether src is a lazy-load stand-in rather
// than a real photo.
func IsPlaceholderImage(src string) bool {
	if src == "" {
		return true
	}
	if strings.HasPrefix(src, "data:") {
		return true
	}
	lower := strings.ToLower(src)
	for _, frag := range []string{"blank.gif", "spacer", "grey.gif", "loading", "placeholder", "1x1"} {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return false
}

// NodeText returns the trimmed text of the first matched node.
func NodeText(sel *goquery.Selection) string {
	return strings.TrimSpace(sel.First().Text())
}

// FirstNonEmpty returns the first value with non-whitespace content.
func FirstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

var intPattern = regexp.MustCompile(`[\d,]+`)

// ExtractCount pulls a result total out of banner text like
// "1-48 of 12,345 products". Banners mix page numbers and ranges with the
// total, and the total is the largest number present, so that is what
// comes back. Returns nil when no digits are present so an absent count
// never reads as zero.
func ExtractCount(s string) *int {
	var best *int
	for _, match := range intPattern.FindAllString(s, -1) {
		n, err := strconv.Atoi(strings.ReplaceAll(match, ",", ""))
		if err != nil {
			continue
		}
		if best == nil || n > *best {
			v := n
			best = &v
		}
	}
	return best
}
