package engine

import (
	"context"

	"github.com/recallsh/recall/memory"
)

// CompletionClient is the remote text-completion service. The engine only
// needs the final assembled text; deltas are surfaced through onDelta as
// they stream in (onDelta may be nil).
//
// Implementations: OpenRouterClient (OpenAI-compatible endpoints) and
// AnthropicClient.
type CompletionClient interface {
	Complete(ctx context.Context, system string, turns []memory.Turn, onDelta func(chunk string)) (string, error)
}
