package platform

import (
	"fmt"

	"github.com/Nirmal2000/suppliercanvas-sub000/internal/model"
)

// FetchError reports a failure to obtain a page: transport errors, backend
// errors, or a non-2xx status from the target site. StatusCode is zero
// when the failure happened before any HTTP status existed.
type FetchError struct {
	Platform   model.PlatformType
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: fetch %s: status %d", e.Platform, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s: fetch %s: %v", e.Platform, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError reports a payload that could not be interpreted at all.
// A page that parses into zero listings is an empty result, not a
// ParseError.
type ParseError struct {
	Platform model.PlatformType
	URL      string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: parse %s: %v", e.Platform, e.URL, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
