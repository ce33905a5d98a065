package madeinchina

import (
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
		Platform:   model.PlatformMadeInChina,
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

func productKey(productID string) string {
	if productID == "" {
		return "made-in-china-" + uuid.NewString()
	}
	return "made-in-china-" + productID
}

func supplierBadges(l Listing) []string {
	var badges []string
	if l.Audited {
		badges = append(badges, "Audited Supplier")
	}
	if l.Diamond {
		badges = append(badges, "Diamond Member")
	}
	return badges
}
