// Package platform defines the contract every marketplace integration
// implements, plus the fetch and normalization helpers they share.
package platform

import (
	"context"

	"github.com/Nirmal2000/suppliercanvas-sub000/internal/model"
)

// SearchPage is one page of normalized search results from a single
// platform. TotalCount is nil when the page exposed no usable result
// count; it is never zero-by-default.
type SearchPage struct {
	Products   []model.UnifiedProduct `json:"products"`
	TotalCount *int                   `json:"total_count,omitempty"`
	HasMore    bool                   `json:"has_more"`
}

// Service is a single marketplace integration. Implementations normalize
// their platform's listings into model.UnifiedProduct and never retry
// failed fetches; the caller decides what a failure means.
type Service interface {
	Platform() model.PlatformType
	SearchText(ctx context.Context, query string, page int) (*SearchPage, error)
	SearchImage(ctx context.Context, img model.ImageAttachment, page int) (*SearchPage, error)
}
