package alibaba

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBase = "https://www.alibaba.com"

const fy23PageHTML = `<!DOCTYPE html>
<html><body>
<div class="seb-pagination__total">1 - 48 of 8,334 products</div>
<div class="fy23-search-card" data-product-id="1601112223334" data-company-id="23456">
  <div class="search-card-e-slider">
    <div class="search-card-e-slider__img">
      <img data-image="//s.alicdn.com/@sc04/kf/chair-main.jpg" src="data:image/gif;base64,R0lGOD">
    </div>
    <div class="search-card-e-slider__img">
      <img src="//s.alicdn.com/@sc04/kf/chair-side.jpg">
    </div>
  </div>
  <h2 class="search-card-e-title"><a href="//www.alibaba.com/product-detail/Ergonomic-Mesh-Office-Chair_1601112223334.html"><span>Ergonomic Mesh Office Chair</span></a></h2>
  <div class="search-card-e-price-main">US$23.50-28.00</div>
  <div class="search-card-m-sale-features">
    <div class="search-card-m-sale-features__item">Min. order: 2 pieces</div>
    <div class="search-card-m-sale-features__item">Material: Mesh</div>
  </div>
  <a class="search-card-e-company" href="//foshanseating.en.alibaba.com/minisiteentrance.html">Foshan Comfort Seating Co., Ltd.</a>
  <span class="search-card-e-supplier-year">11 yrs</span>
  <span class="search-card-e-country-flag"><img alt="CN" src="//img.alicdn.com/flags/cn.png"></span>
  <i class="search-card-e-icon__verified"></i>
  <i class="search-card-e-icon__ta"></i>
</div>
<div class="fy23-search-card">
  <div class="search-card-e-price-main">US$1.00</div>
</div>
</body></html>`

const organicPageHTML = `<!DOCTYPE html>
<html><body>
<div class="organic-gallery-offer-outter">
  <div class="seb-img-switcher__imgs"><img data-src="https://s.alicdn.com/@sc04/kf/desk.jpg"></div>
  <a class="elements-title-normal" title="Standing Desk Frame" href="https://www.alibaba.com/product-detail/Standing-Desk-Frame_62011223344556.html">
    <span class="elements-title-normal__content">Standing Desk Frame</span>
  </a>
  <div class="elements-offer-price-normal__price">$55.90</div>
  <div class="element-offer-minorder-normal__value">10 sets</div>
  <a class="organic-gallery-offer__seller-company" href="/company/luoyang-steelart.html">Luoyang Steelart Co., Ltd.</a>
  <span class="supplier-year-icon">7YRS</span>
  <i class="icon-gold-supplier"></i>
  <img class="location-flag" alt="CN" src="/img/flags/cn.png">
</div>
</body></html>`

const galleryPageHTML = `<!DOCTYPE html>
<html><body>
<div class="m-gallery-product-item-v2">
  <a class="item-main" href="/product-detail/Gaming-Chair-RGB_60733812345.html">
    <div class="item-img"><img src="https://s.alicdn.com/@sc04/kf/gaming.jpg"></div>
    <div class="item-title" title="Gaming Chair RGB">Gaming Chair RGB</div>
  </a>
  <div class="item-price">US $39.00</div>
</div>
</body></html>`

func TestParseSearchHTMLFY23Layout(t *testing.T) {
	t.Parallel()

	res, err := ParseSearchHTML(fy23PageHTML, testBase)
	require.NoError(t, err)

	// The card with neither title nor URL is dropped.
	require.Len(t, res.Listings, 1)
	l := res.Listings[0]

	assert.Equal(t, "Ergonomic Mesh Office Chair", l.Title)
	assert.Equal(t, "https://www.alibaba.com/product-detail/Ergonomic-Mesh-Office-Chair_1601112223334.html", l.URL)
	assert.Equal(t, "1601112223334", l.ProductID)
	assert.Equal(t, "US$23.50-28.00", l.Price)
	assert.Equal(t, "2 pieces", l.MOQ)
	assert.Equal(t, map[string]string{"Material": "Mesh"}, l.Attributes)

	assert.Equal(t, "https://s.alicdn.com/@sc04/kf/chair-main.jpg", l.Image)
	assert.Equal(t, []string{
		"https://s.alicdn.com/@sc04/kf/chair-main.jpg",
		"https://s.alicdn.com/@sc04/kf/chair-side.jpg",
	}, l.Images)

	assert.Equal(t, "Foshan Comfort Seating Co., Ltd.", l.SupplierName)
	assert.Equal(t, "https://foshanseating.en.alibaba.com/minisiteentrance.html", l.SupplierURL)
	assert.Equal(t, "23456", l.SupplierID)
	assert.Equal(t, "CN", l.Location)
	assert.Equal(t, 11, l.GoldYears)
	assert.True(t, l.Verified)
	assert.True(t, l.TradeAssurance)
	assert.Equal(t, "fy23-card", l.Raw["layout"])

	require.NotNil(t, res.TotalCount)
	assert.Equal(t, 8334, *res.TotalCount)
}

func TestParseSearchHTMLOrganicLayout(t *testing.T) {
	t.Parallel()

	res, err := ParseSearchHTML(organicPageHTML, testBase)
	require.NoError(t, err)
	require.Len(t, res.Listings, 1)
	l := res.Listings[0]

	assert.Equal(t, "Standing Desk Frame", l.Title)
	assert.Equal(t, "https://www.alibaba.com/product-detail/Standing-Desk-Frame_62011223344556.html", l.URL)
	assert.Equal(t, "62011223344556", l.ProductID)
	assert.Equal(t, "$55.90", l.Price)
	assert.Equal(t, "10 sets", l.MOQ)
	assert.Equal(t, "https://s.alicdn.com/@sc04/kf/desk.jpg", l.Image)
	assert.Equal(t, "Luoyang Steelart Co., Ltd.", l.SupplierName)
	assert.Equal(t, "https://www.alibaba.com/company/luoyang-steelart.html", l.SupplierURL)
	assert.Equal(t, 7, l.GoldYears)
	assert.True(t, l.Verified)
	assert.Equal(t, "CN", l.Location)
	assert.Equal(t, "organic-offer", l.Raw["layout"])

	assert.Nil(t, res.TotalCount)
}

func TestParseSearchHTMLGalleryLayout(t *testing.T) {
	t.Parallel()

	res, err := ParseSearchHTML(galleryPageHTML, testBase)
	require.NoError(t, err)
	require.Len(t, res.Listings, 1)
	l := res.Listings[0]

	assert.Equal(t, "Gaming Chair RGB", l.Title)
	assert.Equal(t, "https://www.alibaba.com/product-detail/Gaming-Chair-RGB_60733812345.html", l.URL)
	assert.Equal(t, "60733812345", l.ProductID)
	assert.Equal(t, "US $39.00", l.Price)
	assert.Equal(t, "https://s.alicdn.com/@sc04/kf/gaming.jpg", l.Image)
	assert.Empty(t, l.SupplierName)
	assert.Equal(t, "app-gallery", l.Raw["layout"])
}

const supplierPageHTML = `<!DOCTYPE html>
<html><body>
<div class="J-supplier-card">
  <a class="supplier-title" href="//greattech.en.alibaba.com/company_profile.html">Shenzhen Great Tech Co., Ltd.</a>
  <span class="supplier-location">Guangdong, China</span>
  <span class="supplier-year">5 yrs</span>
  <i class="verified-supplier-icon"></i>
  <a class="product-tile" href="//www.alibaba.com/product-detail/Wireless-Mouse_1600999888777.html" title="Wireless Mouse">
    <img data-src="//s.alicdn.com/@sc04/kf/mouse.jpg" src="//s.alicdn.com/spacer.gif">
    <span class="product-tile__price">US$3.20</span>
  </a>
  <a class="product-tile" href="//www.alibaba.com/product-detail/Mechanical-Keyboard_1600999888778.html" title="Mechanical Keyboard">
    <img src="//s.alicdn.com/@sc04/kf/keyboard.jpg">
  </a>
</div>
</body></html>`

func TestParseSearchHTMLSupplierView(t *testing.T) {
	t.Parallel()

	res, err := ParseSearchHTML(supplierPageHTML, testBase)
	require.NoError(t, err)
	require.Len(t, res.Listings, 2)

	first := res.Listings[0]
	assert.Equal(t, "Wireless Mouse", first.Title)
	assert.Equal(t, "https://www.alibaba.com/product-detail/Wireless-Mouse_1600999888777.html", first.URL)
	assert.Equal(t, "1600999888777", first.ProductID)
	assert.Equal(t, "https://s.alicdn.com/@sc04/kf/mouse.jpg", first.Image)
	assert.Equal(t, "US$3.20", first.Price)
	assert.Equal(t, "supplier-card", first.Raw["layout"])

	for _, l := range res.Listings {
		assert.Equal(t, "Shenzhen Great Tech Co., Ltd.", l.SupplierName)
		assert.Equal(t, "https://greattech.en.alibaba.com/company_profile.html", l.SupplierURL)
		assert.Equal(t, "Guangdong, China", l.Location)
		assert.Equal(t, 5, l.GoldYears)
		assert.True(t, l.Verified)
	}
}

func TestParseSearchHTMLStrategyOrder(t *testing.T) {
	t.Parallel()

	// A page carrying both layouts resolves to the first strategy that
	// matched; the later layout's cards are not mixed in.
	mixed := fy23PageHTML + organicPageHTML
	res, err := ParseSearchHTML(mixed, testBase)
	require.NoError(t, err)
	require.Len(t, res.Listings, 1)
	assert.Equal(t, "fy23-card", res.Listings[0].Raw["layout"])
}

func TestParseSearchHTMLNoListingsIsNotError(t *testing.T) {
	t.Parallel()

	res, err := ParseSearchHTML("<html><body><p>No results for your query.</p></body></html>", testBase)
	require.NoError(t, err)
	assert.Empty(t, res.Listings)
	assert.Nil(t, res.TotalCount)
}

func TestParseSearchHTMLEmptyDocument(t *testing.T) {
	t.Parallel()

	_, err := ParseSearchHTML("   ", testBase)
	assert.Error(t, err)
}

func TestProductIDFromURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url  string
		want string
	}{
		{"https://www.alibaba.com/product-detail/Chair_1601112223334.html", "1601112223334"},
		{"https://www.alibaba.com/product-detail/Chair_123.html", ""},
		{"https://www.alibaba.com/showroom/office-chair.html", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, productIDFromURL(tt.url), tt.url)
	}
}

func TestParseImageSearchJSON(t *testing.T) {
	t.Parallel()

	payload := `{
	  "success": true,
	  "data": {
	    "totalCount": 1204,
	    "offerList": [
	      {
	        "offerId": 1601000111222,
	        "subject": "Velvet Accent Chair",
	        "imgUrl": "//s.alicdn.com/@sc04/kf/velvet.jpg",
	        "images": ["//s.alicdn.com/@sc04/kf/velvet.jpg", "//s.alicdn.com/@sc04/kf/velvet-2.jpg"],
	        "price": "US$45.00-52.00",
	        "minOrder": "50 pieces",
	        "detailUrl": "//www.alibaba.com/product-detail/Velvet-Accent-Chair_1601000111222.html",
	        "companyId": 88991,
	        "companyName": "Anji Velvet Furniture Co., Ltd.",
	        "companyUrl": "//anjivelvet.en.alibaba.com",
	        "city": "Huzhou",
	        "province": "Zhejiang",
	        "goldYears": 9,
	        "verifiedSupplier": true,
	        "tradeAssurance": true
	      },
	      "not-an-object",
	      {"offerId": 1601000333444, "subject": "", "detailUrl": ""}
	    ]
	  }
	}`

	res, err := ParseImageSearchJSON([]byte(payload), testBase)
	require.NoError(t, err)

	// One malformed record skipped, one empty record dropped.
	require.Len(t, res.Listings, 1)
	l := res.Listings[0]

	assert.Equal(t, "Velvet Accent Chair", l.Title)
	assert.Equal(t, "https://www.alibaba.com/product-detail/Velvet-Accent-Chair_1601000111222.html", l.URL)
	assert.Equal(t, "1601000111222", l.ProductID)
	assert.Equal(t, "US$45.00-52.00", l.Price)
	assert.Equal(t, "50 pieces", l.MOQ)
	assert.Equal(t, "88991", l.SupplierID)
	assert.Equal(t, "Anji Velvet Furniture Co., Ltd.", l.SupplierName)
	assert.Equal(t, "https://anjivelvet.en.alibaba.com", l.SupplierURL)
	assert.Equal(t, "Huzhou, Zhejiang", l.Location)
	assert.Equal(t, 9, l.GoldYears)
	assert.True(t, l.Verified)
	assert.True(t, l.TradeAssurance)
	assert.Equal(t, []string{
		"https://s.alicdn.com/@sc04/kf/velvet.jpg",
		"https://s.alicdn.com/@sc04/kf/velvet-2.jpg",
	}, l.Images)
	assert.Equal(t, "Velvet Accent Chair", l.Raw["subject"])

	require.NotNil(t, res.TotalCount)
	assert.Equal(t, 1204, *res.TotalCount)
}

func TestParseImageSearchJSONMissingTotal(t *testing.T) {
	t.Parallel()

	res, err := ParseImageSearchJSON([]byte(`{"success":true,"data":{"offerList":[]}}`), testBase)
	require.NoError(t, err)
	assert.Empty(t, res.Listings)
	assert.Nil(t, res.TotalCount)
}

func TestParseImageSearchJSONBadEnvelope(t *testing.T) {
	t.Parallel()

	_, err := ParseImageSearchJSON([]byte("{not json"), testBase)
	assert.Error(t, err)
}
