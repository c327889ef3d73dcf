package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/recallsh/recall/memory"
)

// OpenRouterClient streams chat completions from an OpenAI-compatible
// endpoint. The default wiring points it at OpenRouter.
type OpenRouterClient struct {
	client *openai.Client
	model  string
}

// NewOpenRouterClient creates a streaming client. baseURL may be empty for
// the standard OpenAI endpoint.
func NewOpenRouterClient(apiKey, baseURL, model string) *OpenRouterClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenRouterClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Complete streams the reply, invoking onDelta per content chunk, and
// returns the assembled text.
func (c *OpenRouterClient) Complete(ctx context.Context, system string, turns []memory.Turn, onDelta func(chunk string)) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(turns)+1)
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	for _, turn := range turns {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    turn.Role,
			Content: turn.Content,
		})
	}

	stream, err := c.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   true,
	})
	if err != nil {
		return "", fmt.Errorf("create completion stream: %w", err)
	}
	defer stream.Close()

	var full strings.Builder
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("stream recv: %w", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		chunk := resp.Choices[0].Delta.Content
		if chunk == "" {
			continue
		}
		full.WriteString(chunk)
		if onDelta != nil {
			onDelta(chunk)
		}
	}

	return full.String(), nil
}
