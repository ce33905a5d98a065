package agent

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nirmal2000/suppliercanvas-sub000/internal/model"
)

// fakeSearcher records the last search request and plays back a canned result.
type fakeSearcher struct {
	inputs      []model.SearchInput
	platforms   []model.PlatformType
	attachments map[string]model.ImageAttachment
	calls       int

	results []model.UnifiedSupplier
	err     error
}

func (f *fakeSearcher) Search(ctx context.Context, inputs []model.SearchInput, platforms []model.PlatformType, attachments map[string]model.ImageAttachment) (*model.AggregatedSearchResult, error) {
	f.calls++
	f.inputs = inputs
	f.platforms = platforms
	f.attachments = attachments
	if f.err != nil {
		return nil, f.err
	}
	return &model.AggregatedSearchResult{
		Inputs:    inputs,
		Results:   f.results,
		Timestamp: time.Now().UTC(),
	}, nil
}

func supplier(name string, platform model.PlatformType, products int) model.UnifiedSupplier {
	s := model.UnifiedSupplier{
		ID:       string(platform) + "-" + name,
		Platform: platform,
		Name:     name,
		Location: "Shenzhen, Guangdong",
		URL:      "https://example.com/" + name,
	}
	for i := 0; i < products; i++ {
		s.Products = append(s.Products, model.UnifiedProduct{
			ID:       fmt.Sprintf("%s-%s-p%d", platform, name, i),
			Platform: platform,
			Title:    fmt.Sprintf("%s product %d", name, i),
		})
	}
	return s
}

func TestToolDefinition(t *testing.T) {
	t.Parallel()

	def := NewSearchTool(&fakeSearcher{}).Definition()

	assert.Equal(t, "supplier_search", def.Name)
	assert.NotEmpty(t, def.Description)
	assert.Equal(t, []string{"queries"}, def.InputSchema.Required)
	require.Contains(t, def.InputSchema.Properties, "queries")
	require.Contains(t, def.InputSchema.Properties, "searchType")

	st := def.InputSchema.Properties["searchType"].(map[string]any)
	assert.Equal(t, []string{"text", "image"}, st["enum"])
}

func TestExecuteTextQueries(t *testing.T) {
	t.Parallel()

	fs := &fakeSearcher{results: []model.UnifiedSupplier{
		supplier("Acme", model.PlatformAlibaba, 2),
		supplier("Beta", model.PlatformMadeInChina, 1),
	}}
	tool := NewSearchTool(fs)

	res, err := tool.Execute(context.Background(), json.RawMessage(`{"queries":["sofa","lamp"]}`), nil)
	require.NoError(t, err)

	require.Len(t, fs.inputs, 2)
	assert.Equal(t, model.InputTypeText, fs.inputs[0].Type)
	assert.Equal(t, "sofa", fs.inputs[0].Value)
	assert.Equal(t, "lamp", fs.inputs[1].Value)
	assert.NotEmpty(t, fs.inputs[0].ID)
	assert.NotEqual(t, fs.inputs[0].ID, fs.inputs[1].ID)
	assert.Nil(t, fs.platforms)
	assert.Empty(t, fs.attachments)

	assert.Equal(t, []string{"sofa", "lamp"}, res.Artifact.Queries)
	assert.Equal(t, 2, res.Artifact.Count)
	assert.Len(t, res.Artifact.Results, 2)
	assert.Equal(t, fs.inputs, res.Artifact.Inputs)

	assert.Contains(t, res.Summary, "Found 2 suppliers with 3 products")
	assert.Contains(t, res.Summary, "alibaba and made-in-china")
	assert.Contains(t, res.Summary, `"sofa", "lamp"`)
	assert.Contains(t, res.Summary, `"name":"Acme"`)
}

func TestExecuteImageQueryPairsByFilename(t *testing.T) {
	t.Parallel()

	uploads := []model.ImageAttachment{
		{Filename: "desk.png", MIME: "image/png", Data: []byte{1, 2}},
		{Filename: "chair.jpg", MIME: "image/jpeg", Data: []byte{3, 4}},
	}
	fs := &fakeSearcher{}
	tool := NewSearchTool(fs)

	_, err := tool.Execute(context.Background(), json.RawMessage(`{"queries":["chair.jpg"],"searchType":"image"}`), uploads)
	require.NoError(t, err)

	require.Len(t, fs.inputs, 1)
	assert.Equal(t, model.InputTypeImage, fs.inputs[0].Type)
	assert.Equal(t, "chair.jpg", fs.inputs[0].Value)

	att, ok := fs.attachments[fs.inputs[0].ID]
	require.True(t, ok)
	assert.Equal(t, []byte{3, 4}, att.Data)
	assert.Equal(t, fs.inputs[0].ID, att.InputID)
}

func TestExecuteImageQueryPairsByPosition(t *testing.T) {
	t.Parallel()

	uploads := []model.ImageAttachment{
		{MIME: "image/jpeg", Data: []byte{9}},
	}
	fs := &fakeSearcher{}
	tool := NewSearchTool(fs)

	_, err := tool.Execute(context.Background(), json.RawMessage(`{"queries":["front view"],"searchType":"image"}`), uploads)
	require.NoError(t, err)

	require.Len(t, fs.inputs, 1)
	att := fs.attachments[fs.inputs[0].ID]
	assert.Equal(t, []byte{9}, att.Data)
}

func TestExecuteImageQueryWithoutUpload(t *testing.T) {
	t.Parallel()

	tool := NewSearchTool(&fakeSearcher{})

	_, err := tool.Execute(context.Background(), json.RawMessage(`{"queries":["anything"],"searchType":"image"}`), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no uploaded image")
}

func TestExecuteDataURIQuery(t *testing.T) {
	t.Parallel()

	raw := []byte{0x89, 0x50, 0x4E, 0x47}
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw)
	fs := &fakeSearcher{}
	tool := NewSearchTool(fs)

	payload, err := json.Marshal(ToolInput{Queries: []string{uri}})
	require.NoError(t, err)

	res, err := tool.Execute(context.Background(), payload, nil)
	require.NoError(t, err)

	require.Len(t, fs.inputs, 1)
	assert.Equal(t, model.InputTypeImage, fs.inputs[0].Type)
	assert.Equal(t, "inline-image-1", fs.inputs[0].Value)

	att := fs.attachments[fs.inputs[0].ID]
	assert.Equal(t, raw, att.Data)
	assert.Equal(t, "image/png", att.MIME)

	// The artifact echoes the label, never the base64 payload.
	assert.Equal(t, []string{"inline-image-1"}, res.Artifact.Queries)
	assert.NotContains(t, res.Summary, base64.StdEncoding.EncodeToString(raw))
}

func TestExecuteRejectsEmptyQueries(t *testing.T) {
	t.Parallel()

	tool := NewSearchTool(&fakeSearcher{})

	_, err := tool.Execute(context.Background(), json.RawMessage(`{"queries":[]}`), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one query")
}

func TestExecuteRejectsMalformedArguments(t *testing.T) {
	t.Parallel()

	tool := NewSearchTool(&fakeSearcher{})

	_, err := tool.Execute(context.Background(), json.RawMessage(`{"queries":`), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode supplier_search arguments")
}

func TestExecuteRejectsUnknownSearchType(t *testing.T) {
	t.Parallel()

	fs := &fakeSearcher{}
	tool := NewSearchTool(fs)

	_, err := tool.Execute(context.Background(), json.RawMessage(`{"queries":["sofa"],"searchType":"video"}`), nil)
	require.Error(t, err)
	assert.Zero(t, fs.calls)
}

func TestExecutePropagatesSearcherError(t *testing.T) {
	t.Parallel()

	fs := &fakeSearcher{err: assert.AnError}
	tool := NewSearchTool(fs)

	_, err := tool.Execute(context.Background(), json.RawMessage(`{"queries":["sofa"]}`), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "supplier search")
}

func TestExecuteEmptyResultSummary(t *testing.T) {
	t.Parallel()

	tool := NewSearchTool(&fakeSearcher{})

	res, err := tool.Execute(context.Background(), json.RawMessage(`{"queries":["unobtainium widget"]}`), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Artifact.Count)
	assert.Contains(t, res.Summary, "No suppliers found")
	assert.Contains(t, res.Summary, `"unobtainium widget"`)
}

func TestSummaryDigestIsCapped(t *testing.T) {
	t.Parallel()

	var many []model.UnifiedSupplier
	for i := 0; i < digestLimit+5; i++ {
		many = append(many, supplier(fmt.Sprintf("S%02d", i), model.PlatformAlibaba, 1))
	}
	fs := &fakeSearcher{results: many}
	tool := NewSearchTool(fs)

	res, err := tool.Execute(context.Background(), json.RawMessage(`{"queries":["bolt"]}`), nil)
	require.NoError(t, err)

	// The artifact keeps everything, the model-facing digest does not.
	assert.Len(t, res.Artifact.Results, digestLimit+5)
	assert.Equal(t, digestLimit, strings.Count(res.Summary, `"name"`))
}
