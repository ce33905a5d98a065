package model

import (
	"encoding/base64"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// InputType describes what kind of search term an input carries.
type InputType string

const (
	InputTypeText  InputType = "text"
	InputTypeImage InputType = "image"
)

// ParseInputType converts a user-supplied string into an InputType.
func ParseInputType(s string) (InputType, error) {
	switch InputType(strings.ToLower(strings.TrimSpace(s))) {
	case InputTypeText:
		return InputTypeText, nil
	case InputTypeImage:
		return InputTypeImage, nil
	default:
		return "", eris.Errorf("unknown input type %q", s)
	}
}

// PlatformType identifies a supported marketplace.
type PlatformType string

const (
	PlatformAlibaba     PlatformType = "alibaba"
	PlatformMadeInChina PlatformType = "made-in-china"
)

// AllPlatforms lists every supported marketplace in display order.
func AllPlatforms() []PlatformType {
	return []PlatformType{PlatformAlibaba, PlatformMadeInChina}
}

// ParsePlatform converts a user-supplied string into a PlatformType.
func ParsePlatform(s string) (PlatformType, error) {
	switch PlatformType(strings.ToLower(strings.TrimSpace(s))) {
	case PlatformAlibaba:
		return PlatformAlibaba, nil
	case PlatformMadeInChina, "madeinchina", "mic":
		return PlatformMadeInChina, nil
	default:
		return "", eris.Errorf("unknown platform %q", s)
	}
}

// SearchInput is a single search term submitted by a caller. Text inputs
// carry the query string in Value; image inputs carry a label or filename,
// with the bytes delivered separately as an ImageAttachment keyed by ID.
type SearchInput struct {
	ID    string    `json:"id"`
	Type  InputType `json:"type"`
	Value string    `json:"value"`
}

// ImageAttachment holds the bytes for an image-type SearchInput.
type ImageAttachment struct {
	InputID  string `json:"input_id"`
	Filename string `json:"filename"`
	MIME     string `json:"mime"`
	Data     []byte `json:"-"`
}

// DecodeDataURI parses a data: URI (as produced by browsers and by
// agent-originated image inputs) into an ImageAttachment. The input ID is
// left for the caller to assign.
func DecodeDataURI(uri string) (*ImageAttachment, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, eris.New("not a data URI")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, eris.New("malformed data URI: missing payload")
	}
	mime := "application/octet-stream"
	encoded := false
	for i, part := range strings.Split(meta, ";") {
		if i == 0 && part != "" {
			mime = part
			continue
		}
		if part == "base64" {
			encoded = true
		}
	}
	if !encoded {
		return nil, eris.New("unsupported data URI encoding: want base64")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, eris.Wrap(err, "decode data URI payload")
	}
	return &ImageAttachment{MIME: mime, Data: data}, nil
}

// IsDataURI reports whether a value looks like an inline image payload
// rather than a plain search term.
func IsDataURI(v string) bool {
	return strings.HasPrefix(v, "data:image/")
}

// AggregatedSearchResult is the final output of a unified search: the
// inputs that were searched and the supplier groups they produced.
type AggregatedSearchResult struct {
	Inputs    []SearchInput     `json:"inputs"`
	Results   []UnifiedSupplier `json:"results"`
	Timestamp time.Time         `json:"timestamp"`
}
