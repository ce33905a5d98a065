package model

// UnknownSupplierName is the grouping fallback for listings whose supplier
// block exposed neither an ID nor a name. Distinct anonymous suppliers on
// the same platform collapse into one group under this name.
const UnknownSupplierName = "Unknown Supplier"

// UnifiedSupplier is a supplier-centric group of products assembled from
// search results. Summary fields (URL, Location, Badges, Price, MOQ,
// Images) come from the first product seen for the supplier; later
// products only extend Products and MatchedInputIDs.
type UnifiedSupplier struct {
	ID              string           `json:"id"`
	Platform        PlatformType     `json:"platform"`
	Name            string           `json:"name"`
	URL             string           `json:"url,omitempty"`
	Location        string           `json:"location,omitempty"`
	Badges          []string         `json:"badges,omitempty"`
	Price           *string          `json:"price,omitempty"`
	MOQ             *string          `json:"moq,omitempty"`
	Images          []string         `json:"images,omitempty"`
	Products        []UnifiedProduct `json:"products"`
	MatchedInputIDs []string         `json:"matched_input_ids"`
}
