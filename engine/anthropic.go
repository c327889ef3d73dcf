package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/recallsh/recall/memory"
)

// AnthropicClient streams completions from the Anthropic Messages API.
type AnthropicClient struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropicClient creates a streaming client for the given model.
func NewAnthropicClient(apiKey, model string) *AnthropicClient {
	return &AnthropicClient{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     model,
		maxTokens: 4096,
	}
}

// Complete streams the reply, invoking onDelta per text delta, and returns
// the assembled text accumulated from the event stream.
func (c *AnthropicClient) Complete(ctx context.Context, system string, turns []memory.Turn, onDelta func(chunk string)) (string, error) {
	messages := make([]anthropic.MessageParam, 0, len(turns))
	for _, turn := range turns {
		block := anthropic.NewTextBlock(turn.Content)
		if turn.Role == memory.RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(block))
		} else {
			messages = append(messages, anthropic.NewUserMessage(block))
		}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages:  messages,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	stream := c.client.Messages.NewStreaming(ctx, params)
	defer stream.Close()

	message := anthropic.Message{}
	for stream.Next() {
		event := stream.Current()
		if err := message.Accumulate(event); err != nil {
			continue
		}

		switch evt := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			switch delta := evt.Delta.AsAny().(type) {
			case anthropic.TextDelta:
				if onDelta != nil {
					onDelta(delta.Text)
				}
			}
		}
	}
	if err := stream.Err(); err != nil {
		return "", fmt.Errorf("anthropic stream: %w", err)
	}

	var full strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			full.WriteString(block.Text)
		}
	}
	return full.String(), nil
}
