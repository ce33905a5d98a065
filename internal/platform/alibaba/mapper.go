package alibaba

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Nirmal2000/suppliercanvas-sub000/internal/model"
	"github.com/Nirmal2000/suppliercanvas-sub000/internal/platform"
)

// MapListing normalizes one raw listing into the unified product shape.
// Mapping is total: every listing yields a product, absent fields stay
// nil or empty instead of failing the batch.
func MapListing(l Listing) model.UnifiedProduct {
	p := model.UnifiedProduct{
		ID:         productKey(l.ProductID),
		Platform:   model.PlatformAlibaba,
		Title:      l.Title,
		Image:      l.Image,
		Images:     l.Images,
		ProductURL: l.URL,
		Supplier: model.SupplierRef{
			ID:       l.SupplierID,
			Name:     l.SupplierName,
			URL:      l.SupplierURL,
			Location: l.Location,
			Badges:   supplierBadges(l),
		},
	}
	if l.Price != "" {
		price := l.Price
		p.Price = &price
		p.Currency = platform.DetectCurrency(l.Price)
	}
	if l.MOQ != "" {
		moq := l.MOQ
		p.MOQ = &moq
	}
	if len(l.Attributes) > 0 {
		p.Attributes = l.Attributes
	}
	if len(l.Raw) > 0 {
		p.PlatformSpecific = l.Raw
	}
	return p
}

// MapListings maps a parsed batch in order.
func MapListings(listings []Listing) []model.UnifiedProduct {
	products := make([]model.UnifiedProduct, 0, len(listings))
	for _, l := range listings {
		products = append(products, MapListing(l))
	}
	return products
}

// productKey builds a stable ID from the platform product ID. Listings
// without one get a random suffix so distinct products never collapse
// during dedup.
func productKey(productID string) string {
	if productID == "" {
		return "alibaba-" + uuid.NewString()
	}
	return "alibaba-" + productID
}

func supplierBadges(l Listing) []string {
	var badges []string
	if l.GoldYears > 0 {
		badges = append(badges, fmt.Sprintf("Gold Supplier %d yrs", l.GoldYears))
	}
	if l.Verified {
		badges = append(badges, "Verified Supplier")
	}
	if l.TradeAssurance {
		badges = append(badges, "Trade Assurance")
	}
	return badges
}
