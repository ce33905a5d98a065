package agent

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nirmal2000/suppliercanvas-sub000/internal/model"
	"github.com/Nirmal2000/suppliercanvas-sub000/pkg/anthropic"
)

// scriptClient plays back one response per CreateMessage call and records
// every request. The agent loop is sequential, so no locking is needed.
type scriptClient struct {
	reqs  []anthropic.MessageRequest
	resps []*anthropic.MessageResponse
	err   error
}

func (c *scriptClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	c.reqs = append(c.reqs, req)
	if c.err != nil {
		return nil, c.err
	}
	if len(c.resps) == 0 {
		return nil, assert.AnError
	}
	resp := c.resps[0]
	// The last scripted response replays forever, which lets round-cap
	// tests script a single endlessly repeated tool call.
	if len(c.resps) > 1 {
		c.resps = c.resps[1:]
	}
	return resp, nil
}

func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		ID:         "msg_text",
		Content:    []anthropic.ContentBlock{anthropic.TextBlock(text)},
		StopReason: "end_turn",
		Usage:      anthropic.TokenUsage{InputTokens: 100, OutputTokens: 20},
	}
}

func toolCallResponse(id string, input string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		ID: "msg_tool",
		Content: []anthropic.ContentBlock{
			anthropic.TextBlock("Let me search."),
			anthropic.ToolUseBlock(id, ToolName, json.RawMessage(input)),
		},
		StopReason: "tool_use",
		Usage:      anthropic.TokenUsage{InputTokens: 200, OutputTokens: 40},
	}
}

func newTestAgent(client anthropic.Client, fs *fakeSearcher, cfg Config) *Agent {
	return New(client, NewSearchTool(fs), cfg)
}

func TestRunDirectAnswer(t *testing.T) {
	client := &scriptClient{resps: []*anthropic.MessageResponse{
		textResponse("You can compare MOQ and unit price per supplier."),
	}}
	a := newTestAgent(client, &fakeSearcher{}, Config{})

	res, err := a.Run(context.Background(), "How should I compare suppliers?", nil)
	require.NoError(t, err)

	assert.Equal(t, "You can compare MOQ and unit price per supplier.", res.Reply)
	assert.Equal(t, 1, res.Rounds)
	assert.Empty(t, res.Artifacts)

	require.Len(t, client.reqs, 1)
	req := client.reqs[0]
	assert.Equal(t, defaultModel, req.Model)
	require.Len(t, req.Tools, 1)
	assert.Equal(t, ToolName, req.Tools[0].Name)
	require.NotEmpty(t, req.System)
	assert.NotNil(t, req.System[0].CacheControl)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, "user", req.Messages[0].Role)
}

func TestRunToolLoop(t *testing.T) {
	fs := &fakeSearcher{results: []model.UnifiedSupplier{
		supplier("Acme", model.PlatformAlibaba, 2),
	}}
	client := &scriptClient{resps: []*anthropic.MessageResponse{
		toolCallResponse("toolu_1", `{"queries":["sofa"]}`),
		textResponse("Acme looks like the strongest match."),
	}}
	a := newTestAgent(client, fs, Config{})

	res, err := a.Run(context.Background(), "find me sofa suppliers", nil)
	require.NoError(t, err)

	assert.Equal(t, "Acme looks like the strongest match.", res.Reply)
	assert.Equal(t, 2, res.Rounds)
	require.Len(t, res.Artifacts, 1)
	assert.Equal(t, []string{"sofa"}, res.Artifacts[0].Queries)
	assert.Equal(t, 1, res.Artifacts[0].Count)

	// Round 2 request replays the assistant turn and answers the tool call.
	require.Len(t, client.reqs, 2)
	msgs := client.reqs[1].Messages
	require.Len(t, msgs, 3)
	assert.Equal(t, "assistant", msgs[1].Role)
	assert.Equal(t, "tool_use", msgs[1].Content[1].Type)

	result := msgs[2].Content[0]
	assert.Equal(t, "tool_result", result.Type)
	assert.Equal(t, "toolu_1", result.ToolUseID)
	assert.False(t, result.IsError)
	assert.Contains(t, result.Text, "Found 1 suppliers")
}

func TestRunToolFailureBecomesErrorResult(t *testing.T) {
	fs := &fakeSearcher{err: assert.AnError}
	client := &scriptClient{resps: []*anthropic.MessageResponse{
		toolCallResponse("toolu_1", `{"queries":["sofa"]}`),
		textResponse("The search backend is unavailable right now."),
	}}
	a := newTestAgent(client, fs, Config{})

	res, err := a.Run(context.Background(), "find me sofa suppliers", nil)
	require.NoError(t, err)

	assert.Empty(t, res.Artifacts)
	assert.Equal(t, "The search backend is unavailable right now.", res.Reply)

	result := client.reqs[1].Messages[2].Content[0]
	assert.True(t, result.IsError)
	assert.Contains(t, result.Text, "search failed")
}

func TestRunUnknownToolRejected(t *testing.T) {
	fs := &fakeSearcher{}
	client := &scriptClient{resps: []*anthropic.MessageResponse{
		{
			ID: "msg_weird",
			Content: []anthropic.ContentBlock{
				anthropic.ToolUseBlock("toolu_9", "weather_report", json.RawMessage(`{}`)),
			},
			StopReason: "tool_use",
		},
		textResponse("Sorry, I can only search suppliers."),
	}}
	a := newTestAgent(client, fs, Config{})

	res, err := a.Run(context.Background(), "what's the weather", nil)
	require.NoError(t, err)

	assert.Zero(t, fs.calls)
	assert.Empty(t, res.Artifacts)
	result := client.reqs[1].Messages[2].Content[0]
	assert.True(t, result.IsError)
	assert.Contains(t, result.Text, "unknown tool")
	assert.Equal(t, "Sorry, I can only search suppliers.", res.Reply)
}

func TestRunRoundCap(t *testing.T) {
	fs := &fakeSearcher{}
	// The scripted client keeps replaying the same tool call forever.
	client := &scriptClient{resps: []*anthropic.MessageResponse{
		toolCallResponse("toolu_loop", `{"queries":["sofa"]}`),
	}}
	a := newTestAgent(client, fs, Config{MaxRounds: 2})

	res, err := a.Run(context.Background(), "find sofas", nil)
	require.NoError(t, err)

	assert.Len(t, client.reqs, 2)
	assert.Equal(t, 2, res.Rounds)
	assert.Contains(t, res.Reply, "tool-call limit")
	assert.Len(t, res.Artifacts, 2)
}

func TestRunRejectsEmptyMessage(t *testing.T) {
	a := newTestAgent(&scriptClient{}, &fakeSearcher{}, Config{})

	_, err := a.Run(context.Background(), "   ", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty message")
}

func TestRunAttachesUploadedImages(t *testing.T) {
	client := &scriptClient{resps: []*anthropic.MessageResponse{
		textResponse("Nice desk lamp."),
	}}
	a := newTestAgent(client, &fakeSearcher{}, Config{})

	uploads := []model.ImageAttachment{
		{Filename: "lamp.jpg", MIME: "image/jpeg", Data: []byte{0xFF, 0xD8}},
	}
	_, err := a.Run(context.Background(), "what is this?", uploads)
	require.NoError(t, err)

	blocks := client.reqs[0].Messages[0].Content
	require.Len(t, blocks, 2)
	assert.Equal(t, "text", blocks[0].Type)
	assert.Equal(t, "image", blocks[1].Type)
	assert.Equal(t, "image/jpeg", blocks[1].MediaType)
	assert.Equal(t, []byte{0xFF, 0xD8}, blocks[1].Data)
}

func TestRunImageOnlyMessage(t *testing.T) {
	client := &scriptClient{resps: []*anthropic.MessageResponse{
		textResponse("Searching by image."),
	}}
	a := newTestAgent(client, &fakeSearcher{}, Config{})

	uploads := []model.ImageAttachment{{MIME: "image/png", Data: []byte{1}}}
	_, err := a.Run(context.Background(), "", uploads)
	require.NoError(t, err)

	blocks := client.reqs[0].Messages[0].Content
	require.Len(t, blocks, 1)
	assert.Equal(t, "image", blocks[0].Type)
}

func TestRunAPIErrorSurfaces(t *testing.T) {
	client := &scriptClient{err: assert.AnError}
	a := newTestAgent(client, &fakeSearcher{}, Config{})

	_, err := a.Run(context.Background(), "find sofas", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "agent: round 1")
}

func TestRunAccumulatesUsage(t *testing.T) {
	fs := &fakeSearcher{}
	client := &scriptClient{resps: []*anthropic.MessageResponse{
		toolCallResponse("toolu_1", `{"queries":["sofa"]}`),
		textResponse("Done."),
	}}
	a := newTestAgent(client, fs, Config{})

	res, err := a.Run(context.Background(), "find sofas", nil)
	require.NoError(t, err)

	// 200+100 input, 40+20 output across the two rounds.
	assert.Equal(t, int64(300), res.Usage.InputTokens)
	assert.Equal(t, int64(60), res.Usage.OutputTokens)
}
