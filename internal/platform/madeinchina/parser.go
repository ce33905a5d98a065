// Package madeinchina integrates Made-in-China.com search. Result pages
// render server-side, so both text and image search parse plain HTML.
package madeinchina

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/Nirmal2000/suppliercanvas-sub000/internal/platform"
)

// Listing is one raw search hit before normalization.
type Listing struct {
	Title        string
	URL          string
	Image        string
	Images       []string
	Price        string
	MOQ          string
	ProductID    string
	SupplierID   string
	SupplierName string
	SupplierURL  string
	Location     string
	Audited      bool
	Diamond      bool
	Attributes   map[string]string
	Raw          map[string]any
}

// ParseResult is the outcome of parsing one search page.
type ParseResult struct {
	Listings   []Listing
	TotalCount *int
}

type strategy struct {
	name  string
	parse func(doc *goquery.Document, base string) []Listing
}

// Strategies are tried in order, first non-empty result wins. The company
// card layout comes last; it only appears on supplier-directory pages.
var strategies = []strategy{
	{"prod-info", parseProdInfoNodes},
	{"list-node", parseListNodes},
	{"company-card", parseCompanyCards},
}

// ParseSearchHTML extracts listings from a search result page. A page
// that matches no known layout is an empty result, not an error.
func ParseSearchHTML(html, base string) (*ParseResult, error) {
	if strings.TrimSpace(html) == "" {
		return nil, eris.New("empty document")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, eris.Wrap(err, "parse document")
	}

	var listings []Listing
	for _, s := range strategies {
		got := s.parse(doc, base)
		if len(got) == 0 {
			continue
		}
		for i := range got {
			if got[i].Raw == nil {
				got[i].Raw = map[string]any{}
			}
			got[i].Raw["layout"] = s.name
		}
		listings = got
		break
	}

	return &ParseResult{
		Listings:   keepUsable(listings),
		TotalCount: totalHint(doc),
	}, nil
}

func keepUsable(in []Listing) []Listing {
	out := in[:0]
	for _, l := range in {
		if l.Title == "" && l.URL == "" {
			continue
		}
		out = append(out, l)
	}
	return out
}

func parseProdInfoNodes(doc *goquery.Document, base string) []Listing {
	var listings []Listing
	doc.Find("div.prod-info").Each(func(_ int, card *goquery.Selection) {
		titleLink := card.Find("h2.product-name a").First()
		l := Listing{
			Title: platform.FirstNonEmpty(
				titleLink.AttrOr("title", ""),
				platform.NodeText(titleLink),
			),
			Price:      platform.NodeText(card.Find(".product-price .price")),
			MOQ:        platform.NodeText(card.Find(".product-moq .value")),
			Attributes: map[string]string{},
		}

		l.URL = platform.AbsoluteURL(base, titleLink.AttrOr("href", ""))
		l.ProductID = productIDFromURL(l.URL)

		if src := platform.ListingImage(card.Find(".prod-image img").First()); src != "" {
			l.Image = platform.AbsoluteURL(base, src)
			l.Images = []string{l.Image}
		}

		card.Find(".product-property .prop-item").Each(func(_ int, item *goquery.Selection) {
			key, value, ok := strings.Cut(platform.NodeText(item), ":")
			if !ok {
				return
			}
			key = strings.TrimSpace(key)
			value = strings.TrimSpace(value)
			if key != "" && value != "" {
				l.Attributes[key] = value
			}
		})

		company := card.Find(".company-info a.company-name").First()
		l.SupplierName = strings.TrimSpace(company.Text())
		l.SupplierURL = platform.AbsoluteURL(base, company.AttrOr("href", ""))
		l.SupplierID = card.AttrOr("data-member-id", "")
		l.Location = platform.NodeText(card.Find(".company-address"))
		l.Audited = card.Find(".icon-audit").Length() > 0
		l.Diamond = card.Find(".icon-diamond").Length() > 0

		listings = append(listings, l)
	})
	return listings
}

// parseListNodes handles the compact list layout, which exposes fewer
// supplier details than the prod-info cards.
func parseListNodes(doc *goquery.Document, base string) []Listing {
	var listings []Listing
	doc.Find("div.list-node").Each(func(_ int, card *goquery.Selection) {
		titleLink := card.Find("a.product-title").First()
		l := Listing{
			Title: platform.FirstNonEmpty(
				titleLink.AttrOr("title", ""),
				platform.NodeText(titleLink),
			),
			Price: platform.NodeText(card.Find(".price-info .price")),
		}

		l.URL = platform.AbsoluteURL(base, titleLink.AttrOr("href", ""))
		l.ProductID = productIDFromURL(l.URL)

		if src := platform.ListingImage(card.Find(".img-wrap img").First()); src != "" {
			l.Image = platform.AbsoluteURL(base, src)
			l.Images = []string{l.Image}
		}

		seller := card.Find("a.com-name").First()
		l.SupplierName = strings.TrimSpace(seller.Text())
		l.SupplierURL = platform.AbsoluteURL(base, seller.AttrOr("href", ""))

		listings = append(listings, l)
	})
	return listings
}

// parseCompanyCards handles the supplier-directory view: company cards
// with a strip of recommended products. Each product becomes a listing
// carrying the company's fields.
func parseCompanyCards(doc *goquery.Document, base string) []Listing {
	var listings []Listing
	doc.Find("div.company-card").Each(func(_ int, card *goquery.Selection) {
		nameLink := card.Find("a.company-card__name").First()
		name := strings.TrimSpace(nameLink.Text())
		supplierURL := platform.AbsoluteURL(base, nameLink.AttrOr("href", ""))
		supplierID := card.AttrOr("data-member-id", "")
		location := platform.NodeText(card.Find(".company-card__address"))
		audited := card.Find(".icon-audit").Length() > 0
		diamond := card.Find(".icon-diamond").Length() > 0

		card.Find("a.rec-product").Each(func(_ int, tile *goquery.Selection) {
			l := Listing{
				Title: platform.FirstNonEmpty(
					tile.AttrOr("title", ""),
					platform.NodeText(tile.Find(".rec-product__title")),
				),
				SupplierID:   supplierID,
				SupplierName: name,
				SupplierURL:  supplierURL,
				Location:     location,
				Audited:      audited,
				Diamond:      diamond,
			}
			l.URL = platform.AbsoluteURL(base, tile.AttrOr("href", ""))
			l.ProductID = productIDFromURL(l.URL)
			if src := platform.ListingImage(tile.Find("img").First()); src != "" {
				l.Image = platform.AbsoluteURL(base, src)
				l.Images = []string{l.Image}
			}
			listings = append(listings, l)
		})
	})
	return listings
}

// Product detail URLs embed an opaque alphanumeric ID:
// https://seller.en.made-in-china.com/product/AbCdEfGhIJkl/China-Chair.html
var productIDPattern = regexp.MustCompile(`/product/([A-Za-z0-9]+)/`)

func productIDFromURL(url string) string {
	m := productIDPattern.FindStringSubmatch(url)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// Result banners mix the product total with a supplier total ("4,479
// products found from 147,965 Suppliers"), so the number attached to
// "products" is preferred over the biggest number on the page.
var productsCountPattern = regexp.MustCompile(`(?i)([\d,]+)\s*products?`)

func totalHint(doc *goquery.Document) *int {
	for _, sel := range []string{".search-total", ".found-txt"} {
		text := platform.NodeText(doc.Find(sel))
		if text == "" {
			continue
		}
		if m := productsCountPattern.FindStringSubmatch(text); len(m) == 2 {
			if n := platform.ExtractCount(m[1]); n != nil {
				return n
			}
		}
		if n := platform.ExtractCount(text); n != nil {
			return n
		}
	}
	return nil
}
