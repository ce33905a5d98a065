package platform

import (
	"net/url"
	"strings"
)

// AbsoluteURL resolves an href scraped from a listing against the
// platform's base URL. Marketplace markup mixes absolute links,
// protocol-relative ("//www.example.com/p/1"), root-relative and
// path-relative hrefs; all of them come back absolute. Unparseable or
// non-HTTP hrefs (javascript:, mailto:) resolve to "".
func AbsoluteURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}

	b, err := url.Parse(base)
	if err != nil {
		b = &url.URL{}
	}

	resolved := b.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	if resolved.Host == "" {
		return ""
	}
	return resolved.String()
}
