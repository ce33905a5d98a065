package search

import (
	"github.com/Nirmal2000/suppliercanvas-sub000/internal/model"
)

// TaggedProduct pairs a normalized product with the search input that
// surfaced it.
type TaggedProduct struct {
	Product model.UnifiedProduct
	InputID string
}

// GroupBySupplier folds a flattened product stream into supplier buckets
// in a single pass. Buckets appear in first-encounter order and are never
// sorted afterward; with concurrent searches upstream that order follows
// task completion, which is accepted nondeterminism. Summary fields are
// seeded from the first product of each bucket, products are deduped by
// ID within the bucket, and input IDs accumulate in first-seen order.
func GroupBySupplier(tagged []TaggedProduct) []model.UnifiedSupplier {
	index := make(map[string]int, len(tagged))
	out := []model.UnifiedSupplier{}

	for _, tp := range tagged {
		key := supplierKey(tp.Product)
		i, ok := index[key]
		if !ok {
			out = append(out, seedBucket(tp.Product))
			i = len(out) - 1
			index[key] = i
		}
		bucket := &out[i]

		if !hasProduct(bucket.Products, tp.Product.ID) {
			bucket.Products = append(bucket.Products, tp.Product)
		}
		if tp.InputID != "" && !hasString(bucket.MatchedInputIDs, tp.InputID) {
			bucket.MatchedInputIDs = append(bucket.MatchedInputIDs, tp.InputID)
		}
	}
	return out
}

// supplierKey scopes suppliers per platform and falls back from stable ID
// to display name to a shared unknown bucket. The name fallback can merge
// distinct suppliers that share a name; that matches how the data behaves
// upstream and is kept as-is.
func supplierKey(p model.UnifiedProduct) string {
	id := p.Supplier.ID
	if id == "" {
		id = p.Supplier.Name
	}
	if id == "" {
		id = model.UnknownSupplierName
	}
	return string(p.Platform) + "-" + id
}

func seedBucket(p model.UnifiedProduct) model.UnifiedSupplier {
	name := p.Supplier.Name
	if name == "" {
		name = model.UnknownSupplierName
	}
	return model.UnifiedSupplier{
		ID:       supplierKey(p),
		Platform: p.Platform,
		Name:     name,
		URL:      p.Supplier.URL,
		Location: p.Supplier.Location,
		Badges:   p.Supplier.Badges,
		Price:    p.Price,
		MOQ:      p.MOQ,
		Images:   productImages(p),
	}
}

func productImages(p model.UnifiedProduct) []string {
	if len(p.Images) > 0 {
		return p.Images
	}
	if p.Image != "" {
		return []string{p.Image}
	}
	return nil
}

func hasProduct(products []model.UnifiedProduct, id string) bool {
	for _, p := range products {
		if p.ID == id {
			return true
		}
	}
	return false
}

func hasString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
