package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"
)

const defaultMaxTokens = 1024

type Usage struct {
	InputTokens              int64
	OutputTokens             int64
	CacheCreationInputTokens int64
	CacheReadInputTokens     int64
}

func (u Usage) TotalTokens() int64 {
	return u.InputTokens + u.OutputTokens + u.CacheCreationInputTokens + u.CacheReadInputTokens
}

// Client sends single-turn prompts to the Anthropic Messages API.
type Client struct {
	api       anthropic.Client
	model     string
	maxTokens int64
	logger    *zap.Logger
}

func NewClient(apiKey, model string, logger *zap.Logger, opts ...option.RequestOption) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Client{
		api:       anthropic.NewClient(opts...),
		model:     model,
		maxTokens: defaultMaxTokens,
		logger:    logger,
	}
}

func (c *Client) Model() string {
	return c.model
}

// Complete returns the first text block of the reply.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, Usage, error) {
	message, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt, CacheControl: anthropic.NewCacheControlEphemeralParam()},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		c.logger.Warn("llm anthropic error", zap.String("model", c.model), zap.Error(err))
		return "", Usage{}, fmt.Errorf("anthropic API error: %w", err)
	}
	usage := Usage{
		InputTokens:              message.Usage.InputTokens,
		OutputTokens:             message.Usage.OutputTokens,
		CacheCreationInputTokens: message.Usage.CacheCreationInputTokens,
		CacheReadInputTokens:     message.Usage.CacheReadInputTokens,
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			c.logger.Debug("llm anthropic response",
				zap.Int("size", len(block.Text)),
				zap.Int64("tokens_in", usage.InputTokens),
				zap.Int64("tokens_out", usage.OutputTokens),
			)
			return block.Text, usage, nil
		}
	}
	return "", usage, fmt.Errorf("no text content in Anthropic response")
}

// StripCodeFence removes a surrounding ```json fence from a model reply.
func StripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
