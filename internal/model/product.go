package model

// SupplierRef is the supplier block attached to a single product listing.
// Fields are whatever the source page exposed; any of them may be empty.
type SupplierRef struct {
	ID       string   `json:"id,omitempty"`
	Name     string   `json:"name,omitempty"`
	URL      string   `json:"url,omitempty"`
	Location string   `json:"location,omitempty"`
	Badges   []string `json:"badges,omitempty"`
}

// UnifiedProduct is one product listing normalized into the shared shape
// all platforms map into. Price and MOQ keep the platform's display
// strings; Currency is detected separately so callers can still show the
// original text. Nil pointers mean the page did not expose the value.
type UnifiedProduct struct {
	ID               string            `json:"id"`
	Platform         PlatformType      `json:"platform"`
	Title            string            `json:"title"`
	Image            string            `json:"image,omitempty"`
	Images           []string          `json:"images,omitempty"`
	Price            *string           `json:"price,omitempty"`
	Currency         *string           `json:"currency,omitempty"`
	MOQ              *string           `json:"moq,omitempty"`
	ProductURL       string            `json:"product_url"`
	Attributes       map[string]string `json:"attributes,omitempty"`
	Supplier         SupplierRef       `json:"supplier"`
	PlatformSpecific map[string]any    `json:"platform_specific,omitempty"`
}
