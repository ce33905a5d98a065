// Package agent exposes the search pipeline to an LLM as a single
// supplier_search tool and runs the conversational loop around it.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/Nirmal2000/suppliercanvas-sub000/internal/model"
	"github.com/Nirmal2000/suppliercanvas-sub000/pkg/anthropic"
)

// ToolName is the tool identifier advertised to the model.
const ToolName = "supplier_search"

// digestLimit caps how many suppliers are serialized back to the model per
// tool call. The full list still reaches the caller through the artifact.
const digestLimit = 20

// Searcher runs a unified search across marketplaces.
type Searcher interface {
	Search(ctx context.Context, inputs []model.SearchInput, platforms []model.PlatformType, attachments map[string]model.ImageAttachment) (*model.AggregatedSearchResult, error)
}

// ToolInput is the argument payload of a supplier_search call.
type ToolInput struct {
	Queries    []string `json:"queries"`
	SearchType string   `json:"searchType,omitempty"`
}

// Artifact is the structured search result surfaced alongside the agent's
// reply, for callers that render supplier cards instead of prose.
type Artifact struct {
	Queries []string                `json:"queries"`
	Results []model.UnifiedSupplier `json:"results"`
	Count   int                     `json:"count"`
	Inputs  []model.SearchInput     `json:"inputs"`
}

// ToolResult pairs the text fed back to the model with the artifact kept
// for the caller.
type ToolResult struct {
	Summary  string
	Artifact Artifact
}

// SearchTool adapts the orchestrator to the model-facing tool contract.
type SearchTool struct {
	searcher Searcher
}

// NewSearchTool builds the supplier_search tool around a searcher.
func NewSearchTool(searcher Searcher) *SearchTool {
	return &SearchTool{searcher: searcher}
}

// Definition describes the tool to the model.
func (t *SearchTool) Definition() anthropic.ToolDefinition {
	return anthropic.ToolDefinition{
		Name: ToolName,
		Description: "Search Alibaba and Made-in-China for products and their suppliers. " +
			"Use searchType \"text\" with product keywords, or \"image\" to search by images the user uploaded.",
		InputSchema: anthropic.ToolInputSchema{
			Properties: map[string]any{
				"queries": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Search terms. For image searches, reference uploaded images by filename or position.",
				},
				"searchType": map[string]any{
					"type":        "string",
					"enum":        []string{"text", "image"},
					"description": "Whether queries are product keywords or refer to uploaded images. Defaults to text.",
				},
			},
			Required: []string{"queries"},
		},
	}
}

// Execute runs one supplier_search call. Uploaded attachments pair with
// image queries by filename first, then by position. Queries that are data
// URIs are decoded into attachments of their own regardless of searchType.
func (t *SearchTool) Execute(ctx context.Context, raw json.RawMessage, uploads []model.ImageAttachment) (*ToolResult, error) {
	var in ToolInput
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, eris.Wrap(err, "agent: decode supplier_search arguments")
	}
	if len(in.Queries) == 0 {
		return nil, eris.New("agent: supplier_search needs at least one query")
	}

	searchType := model.InputTypeText
	if in.SearchType != "" {
		st, err := model.ParseInputType(in.SearchType)
		if err != nil {
			return nil, eris.Wrap(err, "agent: supplier_search arguments")
		}
		searchType = st
	}

	inputs := make([]model.SearchInput, 0, len(in.Queries))
	attachments := make(map[string]model.ImageAttachment)
	// echo mirrors in.Queries with data URIs replaced by their labels, so
	// summaries and artifacts never carry megabytes of base64.
	echo := make([]string, len(in.Queries))
	for i, q := range in.Queries {
		id := uuid.NewString()
		switch {
		case model.IsDataURI(q):
			att, err := model.DecodeDataURI(q)
			if err != nil {
				return nil, eris.Wrapf(err, "agent: image query %d", i+1)
			}
			label := fmt.Sprintf("inline-image-%d", i+1)
			att.InputID = id
			attachments[id] = *att
			inputs = append(inputs, model.SearchInput{ID: id, Type: model.InputTypeImage, Value: label})
			echo[i] = label
		case searchType == model.InputTypeImage:
			att, ok := matchUpload(uploads, q, i)
			if !ok {
				return nil, eris.Errorf("agent: no uploaded image matches query %q", q)
			}
			att.InputID = id
			attachments[id] = att
			inputs = append(inputs, model.SearchInput{ID: id, Type: model.InputTypeImage, Value: q})
			echo[i] = q
		default:
			inputs = append(inputs, model.SearchInput{ID: id, Type: model.InputTypeText, Value: q})
			echo[i] = q
		}
	}

	res, err := t.searcher.Search(ctx, inputs, nil, attachments)
	if err != nil {
		return nil, eris.Wrap(err, "agent: supplier search")
	}

	artifact := Artifact{
		Queries: echo,
		Results: res.Results,
		Count:   len(res.Results),
		Inputs:  res.Inputs,
	}
	return &ToolResult{Summary: summarize(echo, res.Results), Artifact: artifact}, nil
}

// matchUpload resolves an image query against the uploaded attachments,
// preferring a filename match over the query's position.
func matchUpload(uploads []model.ImageAttachment, query string, idx int) (model.ImageAttachment, bool) {
	for _, u := range uploads {
		if u.Filename != "" && strings.EqualFold(u.Filename, query) {
			return u, true
		}
	}
	if idx < len(uploads) {
		return uploads[idx], true
	}
	return model.ImageAttachment{}, false
}

// summarize renders the model-facing tool result: one line of counts plus a
// capped JSON digest the model can quote suppliers from.
func summarize(queries []string, suppliers []model.UnifiedSupplier) string {
	if len(suppliers) == 0 {
		return fmt.Sprintf("No suppliers found for %s.", quoteList(queries))
	}

	products := 0
	var platforms []string
	seen := make(map[model.PlatformType]bool)
	for _, s := range suppliers {
		products += len(s.Products)
		if !seen[s.Platform] {
			seen[s.Platform] = true
			platforms = append(platforms, string(s.Platform))
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d suppliers with %d products on %s for %s.\n",
		len(suppliers), products, strings.Join(platforms, " and "), quoteList(queries))
	b.WriteString("Supplier digest (JSON):\n")
	b.Write(digest(suppliers))
	return b.String()
}

type supplierDigest struct {
	Name     string  `json:"name"`
	Platform string  `json:"platform"`
	Location string  `json:"location,omitempty"`
	Products int     `json:"products"`
	Price    *string `json:"price,omitempty"`
	URL      string  `json:"url,omitempty"`
}

func digest(suppliers []model.UnifiedSupplier) []byte {
	n := len(suppliers)
	if n > digestLimit {
		n = digestLimit
	}
	out := make([]supplierDigest, n)
	for i, s := range suppliers[:n] {
		out[i] = supplierDigest{
			Name:     s.Name,
			Platform: string(s.Platform),
			Location: s.Location,
			Products: len(s.Products),
			Price:    s.Price,
			URL:      s.URL,
		}
	}
	buf, _ := json.Marshal(out)
	return buf
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		if len(s) > 60 {
			s = s[:60] + "..."
		}
		quoted[i] = strconv.Quote(s)
	}
	return strings.Join(quoted, ", ")
}
