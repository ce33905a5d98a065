package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Nirmal2000/suppliercanvas-sub000/internal/model"
	"github.com/Nirmal2000/suppliercanvas-sub000/pkg/anthropic"
)

// defaultSystemPrompt steers the model toward the supplier_search tool.
const defaultSystemPrompt = `You are SupplierCanvas, a sourcing assistant for B2B buyers.
You help users find products and suppliers on Alibaba and Made-in-China.

Use the supplier_search tool whenever the user wants products, suppliers,
prices or alternatives. Derive concise search queries from the conversation;
when the user uploaded images, search by image. Answer from the tool results:
name concrete suppliers, prices and locations, and say so plainly when a
search came back empty. Do not invent suppliers.`

const (
	defaultModel     = "claude-sonnet-4-5-20250929"
	defaultMaxTokens = 2048
	defaultMaxRounds = 6
)

// Config tunes the agent loop.
type Config struct {
	Model        string
	MaxTokens    int64
	MaxRounds    int
	SystemPrompt string
}

// Agent drives the tool-call loop between the model and the search tool.
type Agent struct {
	client       anthropic.Client
	tool         *SearchTool
	model        string
	maxTokens    int64
	maxRounds    int
	systemPrompt string
}

// New builds an Agent, applying defaults for unset config fields.
func New(client anthropic.Client, tool *SearchTool, cfg Config) *Agent {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = defaultMaxRounds
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = defaultSystemPrompt
	}
	return &Agent{
		client:       client,
		tool:         tool,
		model:        cfg.Model,
		maxTokens:    cfg.MaxTokens,
		maxRounds:    cfg.MaxRounds,
		systemPrompt: cfg.SystemPrompt,
	}
}

// RunResult is the outcome of one agent conversation turn.
type RunResult struct {
	Reply     string
	Artifacts []Artifact
	Usage     anthropic.TokenUsage
	Rounds    int
}

// Run sends the user message (plus any uploaded images) through the tool
// loop and returns the model's final reply with the collected artifacts.
// Tool failures are reported back to the model as error results rather than
// aborting the run; only transport failures toward the API surface as errors.
func (a *Agent) Run(ctx context.Context, message string, uploads []model.ImageAttachment) (*RunResult, error) {
	message = strings.TrimSpace(message)
	if message == "" && len(uploads) == 0 {
		return nil, eris.New("agent: empty message")
	}

	blocks := make([]anthropic.ContentBlock, 0, len(uploads)+1)
	if message != "" {
		blocks = append(blocks, anthropic.TextBlock(message))
	}
	for _, u := range uploads {
		blocks = append(blocks, anthropic.ImageBlock(u.MIME, u.Data))
	}

	msgs := []anthropic.Message{anthropic.UserMessage(blocks...)}
	system := anthropic.BuildCachedSystemBlocks(a.systemPrompt)
	tools := []anthropic.ToolDefinition{a.tool.Definition()}

	result := &RunResult{}
	for round := 1; round <= a.maxRounds; round++ {
		resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
			Model:     a.model,
			MaxTokens: a.maxTokens,
			System:    system,
			Messages:  msgs,
			Tools:     tools,
		})
		if err != nil {
			return nil, eris.Wrapf(err, "agent: round %d", round)
		}
		result.Rounds = round
		addUsage(&result.Usage, resp.Usage)
		resp.Usage.LogCost(a.model, "agent")

		uses := resp.ToolUses()
		if resp.StopReason != "tool_use" || len(uses) == 0 {
			result.Reply = resp.Text()
			return result, nil
		}

		msgs = append(msgs, anthropic.AssistantMessage(resp.Content...))

		results := make([]anthropic.ContentBlock, 0, len(uses))
		for _, use := range uses {
			results = append(results, a.runTool(ctx, use, uploads, result))
		}
		msgs = append(msgs, anthropic.UserMessage(results...))
	}

	zap.L().Warn("agent: round cap reached", zap.Int("rounds", a.maxRounds))
	result.Reply = "I hit the tool-call limit before finishing. The searches that did complete are attached."
	return result, nil
}

// runTool executes one tool_use block. Failures become error tool results
// so the model can recover or rephrase instead of the run aborting.
func (a *Agent) runTool(ctx context.Context, use anthropic.ContentBlock, uploads []model.ImageAttachment, result *RunResult) anthropic.ContentBlock {
	if use.Name != ToolName {
		zap.L().Warn("agent: unknown tool requested", zap.String("tool", use.Name))
		return anthropic.ToolResultBlock(use.ID, fmt.Sprintf("unknown tool %q", use.Name), true)
	}

	res, err := a.tool.Execute(ctx, use.Input, uploads)
	if err != nil {
		zap.L().Warn("agent: tool call failed", zap.String("tool", use.Name), zap.Error(err))
		return anthropic.ToolResultBlock(use.ID, "search failed: "+err.Error(), true)
	}

	result.Artifacts = append(result.Artifacts, res.Artifact)
	return anthropic.ToolResultBlock(use.ID, res.Summary, false)
}

func addUsage(total *anthropic.TokenUsage, u anthropic.TokenUsage) {
	total.InputTokens += u.InputTokens
	total.OutputTokens += u.OutputTokens
	total.CacheCreationInputTokens += u.CacheCreationInputTokens
	total.CacheReadInputTokens += u.CacheReadInputTokens
}
