// Package alibaba integrates Alibaba.com search: scraped result pages for
// text queries and the picture-search JSON API for image queries.
package alibaba

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/Nirmal2000/suppliercanvas-sub000/internal/platform"
)

// Listing is one raw search hit before normalization. Fields hold
// whatever the page exposed; empty means absent.
type Listing struct {
	Title          string
	URL            string
	Image          string
	Images         []string
	Price          string
	MOQ            string
	ProductID      string
	SupplierID     string
	SupplierName   string
	SupplierURL    string
	Location       string
	GoldYears      int
	Verified       bool
	TradeAssurance bool
	Attributes     map[string]string
	Raw            map[string]any
}

// ParseResult is the outcome of parsing one search payload.
type ParseResult struct {
	Listings   []Listing
	TotalCount *int
}

// Alibaba has shipped several search layouts and serves different ones to
// different sessions. Strategies are tried in order; the first one that
// yields any listings wins.
type strategy struct {
	name  string
	parse func(doc *goquery.Document, base string) []Listing
}

var strategies = []strategy{
	{"fy23-card", parseFY23Cards},
	{"organic-offer", parseOrganicOffers},
	{"app-gallery", parseGalleryItems},
	{"supplier-card", parseSupplierCards},
}

// ParseSearchHTML extracts listings from a text-search result page.
// A page that parses but matches no layout is an empty result, not an
// error.
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

// keepUsable drops hits that exposed neither a title nor a URL; there is
// nothing to show and nothing to link.
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

func parseYears(s string) int {
	n := platform.ExtractCount(s)
	if n == nil {
		return 0
	}
	return *n
}

func parseFY23Cards(doc *goquery.Document, base string) []Listing {
	var listings []Listing
	doc.Find("div.fy23-search-card").Each(func(_ int, card *goquery.Selection) {
		l := Listing{
			Title:      platform.NodeText(card.Find("h2.search-card-e-title")),
			Price:      platform.NodeText(card.Find(".search-card-e-price-main")),
			Attributes: map[string]string{},
		}

		href := platform.FirstNonEmpty(
			card.Find("a.search-card-e-detail").AttrOr("href", ""),
			card.Find("h2.search-card-e-title a").AttrOr("href", ""),
		)
		l.URL = platform.AbsoluteURL(base, href)
		l.ProductID = platform.FirstNonEmpty(card.AttrOr("data-product-id", ""), productIDFromURL(l.URL))

		card.Find(".search-card-e-slider__img img").Each(func(_ int, img *goquery.Selection) {
			if src := platform.ListingImage(img); src != "" {
				l.Images = append(l.Images, platform.AbsoluteURL(base, src))
			}
		})
		if len(l.Images) > 0 {
			l.Image = l.Images[0]
		}

		// Sale features carry MOQ plus loose key:value attributes.
		card.Find(".search-card-m-sale-features__item").Each(func(_ int, item *goquery.Selection) {
			text := platform.NodeText(item)
			key, value, ok := strings.Cut(text, ":")
			if !ok {
				return
			}
			key = strings.TrimSpace(key)
			value = strings.TrimSpace(value)
			if strings.EqualFold(key, "Min. order") || strings.EqualFold(key, "Min order") {
				l.MOQ = value
				return
			}
			if key != "" && value != "" {
				l.Attributes[key] = value
			}
		})

		company := card.Find("a.search-card-e-company").First()
		l.SupplierName = strings.TrimSpace(company.Text())
		l.SupplierURL = platform.AbsoluteURL(base, company.AttrOr("href", ""))
		l.SupplierID = card.AttrOr("data-company-id", "")
		l.Location = strings.TrimSpace(card.Find(".search-card-e-country-flag img").AttrOr("alt", ""))
		l.GoldYears = parseYears(platform.NodeText(card.Find(".search-card-e-supplier-year")))
		l.Verified = card.Find(".search-card-e-icon__verified").Length() > 0
		l.TradeAssurance = card.Find(".search-card-e-icon__ta").Length() > 0

		listings = append(listings, l)
	})
	return listings
}

func parseOrganicOffers(doc *goquery.Document, base string) []Listing {
	var listings []Listing
	doc.Find("div.organic-gallery-offer-outter, div.organic-list-offer-outter").Each(func(_ int, card *goquery.Selection) {
		titleLink := card.Find("a.elements-title-normal").First()
		l := Listing{
			Title: platform.FirstNonEmpty(
				platform.NodeText(card.Find(".elements-title-normal__content")),
				titleLink.AttrOr("title", ""),
			),
			Price:      platform.NodeText(card.Find(".elements-offer-price-normal__price")),
			MOQ:        platform.NodeText(card.Find(".element-offer-minorder-normal__value")),
			Attributes: map[string]string{},
		}

		l.URL = platform.AbsoluteURL(base, titleLink.AttrOr("href", ""))
		l.ProductID = productIDFromURL(l.URL)

		if src := platform.ListingImage(card.Find(".seb-img-switcher__imgs img").First()); src != "" {
			l.Image = platform.AbsoluteURL(base, src)
			l.Images = []string{l.Image}
		}

		seller := card.Find("a.organic-gallery-offer__seller-company").First()
		l.SupplierName = strings.TrimSpace(seller.Text())
		l.SupplierURL = platform.AbsoluteURL(base, seller.AttrOr("href", ""))
		l.GoldYears = parseYears(platform.NodeText(card.Find(".supplier-year-icon")))
		l.Verified = card.Find(".icon-gold-supplier").Length() > 0
		l.Location = strings.TrimSpace(card.Find("img.location-flag").AttrOr("alt", ""))

		listings = append(listings, l)
	})
	return listings
}

// parseGalleryItems handles the stripped-down gallery layout, which shows
// products without supplier blocks. Those listings land in the
// unknown-supplier group downstream.
func parseGalleryItems(doc *goquery.Document, base string) []Listing {
	var listings []Listing
	doc.Find("div.m-gallery-product-item-v2").Each(func(_ int, card *goquery.Selection) {
		title := card.Find(".item-title").First()
		l := Listing{
			Title: platform.FirstNonEmpty(title.AttrOr("title", ""), platform.NodeText(title)),
			Price: platform.NodeText(card.Find(".item-price")),
		}

		l.URL = platform.AbsoluteURL(base, card.Find("a.item-main").AttrOr("href", ""))
		l.ProductID = productIDFromURL(l.URL)

		if src := platform.ListingImage(card.Find(".item-img img").First()); src != "" {
			l.Image = platform.AbsoluteURL(base, src)
			l.Images = []string{l.Image}
		}

		listings = append(listings, l)
	})
	return listings
}

// parseSupplierCards handles the supplier-search view, where each card is
// a company with a strip of representative products. Every product tile
// becomes a listing carrying the card's supplier fields.
func parseSupplierCards(doc *goquery.Document, base string) []Listing {
	var listings []Listing
	doc.Find("div.J-supplier-card, div.supplier-search-card").Each(func(_ int, card *goquery.Selection) {
		title := card.Find("a.supplier-title").First()
		name := strings.TrimSpace(title.Text())
		supplierURL := platform.AbsoluteURL(base, title.AttrOr("href", ""))
		location := platform.NodeText(card.Find(".supplier-location"))
		years := parseYears(platform.NodeText(card.Find(".supplier-year")))
		verified := card.Find(".verified-supplier-icon").Length() > 0

		card.Find("a.product-tile").Each(func(_ int, tile *goquery.Selection) {
			l := Listing{
				Title: platform.FirstNonEmpty(
					tile.AttrOr("title", ""),
					platform.NodeText(tile.Find(".product-tile__title")),
				),
				Price:        platform.NodeText(tile.Find(".product-tile__price")),
				SupplierName: name,
				SupplierURL:  supplierURL,
				Location:     location,
				GoldYears:    years,
				Verified:     verified,
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

// productIDFromURL digs the numeric offer ID out of a detail URL like
// .../product-detail/Ergonomic-Chair_1601234567890.html.
var productIDPattern = regexp.MustCompile(`_(\d{6,})\.html`)

func productIDFromURL(url string) string {
	m := productIDPattern.FindStringSubmatch(url)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

func totalHint(doc *goquery.Document) *int {
	if v, ok := doc.Find("[data-total-count]").First().Attr("data-total-count"); ok {
		if n := platform.ExtractCount(v); n != nil {
			return n
		}
	}
	for _, sel := range []string{".seb-pagination__total", ".searchx-result-count", ".total-result"} {
		if n := platform.ExtractCount(platform.NodeText(doc.Find(sel))); n != nil {
			return n
		}
	}
	return nil
}

// imageOffer is one record in the picture-search JSON envelope.
type imageOffer struct {
	OfferID          json.Number `json:"offerId"`
	Subject          string      `json:"subject"`
	ImgURL           string      `json:"imgUrl"`
	Images           []string    `json:"images"`
	Price            string      `json:"price"`
	MinOrder         string      `json:"minOrder"`
	DetailURL        string      `json:"detailUrl"`
	CompanyID        json.Number `json:"companyId"`
	CompanyName      string      `json:"companyName"`
	CompanyURL       string      `json:"companyUrl"`
	City             string      `json:"city"`
	Province         string      `json:"province"`
	GoldYears        int         `json:"goldYears"`
	VerifiedSupplier bool        `json:"verifiedSupplier"`
	TradeAssurance   bool        `json:"tradeAssurance"`
}

// ParseImageSearchJSON extracts listings from a picture-search response.
// Individual malformed records are skipped; only an undecodable envelope
// is an error. The full raw record rides along for downstream consumers.
func ParseImageSearchJSON(data []byte, base string) (*ParseResult, error) {
	var env struct {
		Success bool `json:"success"`
		Data    struct {
			OfferList  []json.RawMessage `json:"offerList"`
			TotalCount *int              `json:"totalCount"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, eris.Wrap(err, "decode picture search response")
	}

	var listings []Listing
	for _, raw := range env.Data.OfferList {
		var off imageOffer
		if err := json.Unmarshal(raw, &off); err != nil {
			continue
		}
		var rawMap map[string]any
		_ = json.Unmarshal(raw, &rawMap)

		l := Listing{
			Title:          off.Subject,
			URL:            platform.AbsoluteURL(base, off.DetailURL),
			Price:          off.Price,
			MOQ:            off.MinOrder,
			ProductID:      off.OfferID.String(),
			SupplierID:     off.CompanyID.String(),
			SupplierName:   off.CompanyName,
			SupplierURL:    platform.AbsoluteURL(base, off.CompanyURL),
			Location:       joinLocation(off.City, off.Province),
			GoldYears:      off.GoldYears,
			Verified:       off.VerifiedSupplier,
			TradeAssurance: off.TradeAssurance,
			Raw:            rawMap,
		}
		if img := platform.AbsoluteURL(base, off.ImgURL); img != "" {
			l.Image = img
			l.Images = append(l.Images, img)
		}
		for _, extra := range off.Images {
			if img := platform.AbsoluteURL(base, extra); img != "" && img != l.Image {
				l.Images = append(l.Images, img)
			}
		}

		listings = append(listings, l)
	}

	return &ParseResult{
		Listings:   keepUsable(listings),
		TotalCount: env.Data.TotalCount,
	}, nil
}

func joinLocation(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}
