// Package engine runs the assistant loop: it folds relevant long-term
// memories and the bounded conversation buffer into a prompt, streams the
// completion, and records the exchange back into memory. It also carries
// the surrounding plumbing the terminal UI needs: shell execution, code
// file loading, and context-file persistence.
package engine

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/recallsh/recall/memory"
)

// DefaultSystemPrompt is used when no system prompt is configured.
const DefaultSystemPrompt = `You are a helpful shell assistant. Answer concisely in markdown. When past conversation context is provided, use it to stay consistent with earlier answers.`

// minSearchLength gates memory retrieval: very short prompts ("ok", "why")
// embed poorly and retrieve noise.
const minSearchLength = 10

// MemoryLedger is the slice of the memory core the engine consumes.
// A nil ledger disables vector memory; the session still works on the
// bounded buffer alone.
type MemoryLedger interface {
	Record(ctx context.Context, role, content string, metadata map[string]string) (string, error)
	RecordCode(ctx context.Context, role, content, filePath, language string, metadata map[string]string) (string, error)
	Search(ctx context.Context, query string, topK int, filter memory.Filter) ([]memory.ScoredRecord, error)
}

// Engine orchestrates one interactive session.
type Engine struct {
	completion  CompletionClient
	ledger      MemoryLedger
	buffer      *memory.Buffer
	contextPath string
	maxRounds   int
	topK        int
	system      string
}

// Option configures the engine.
type Option func(*Engine)

// WithLedger enables vector memory.
func WithLedger(l MemoryLedger) Option {
	return func(e *Engine) {
		e.ledger = l
	}
}

// WithContextFile persists the conversation buffer to path after each
// exchange and restores it at construction time.
func WithContextFile(path string) Option {
	return func(e *Engine) {
		e.contextPath = path
	}
}

// WithSystemPrompt overrides the default system prompt.
func WithSystemPrompt(prompt string) Option {
	return func(e *Engine) {
		e.system = prompt
	}
}

// WithTopK sets how many memories are retrieved per prompt. Default 3.
func WithTopK(k int) Option {
	return func(e *Engine) {
		e.topK = k
	}
}

// New creates an engine keeping at most maxRounds conversation rounds in
// its prompt buffer. If a context file is configured, previous turns are
// restored and re-trimmed immediately.
func New(completion CompletionClient, maxRounds int, opts ...Option) *Engine {
	e := &Engine{
		completion: completion,
		buffer:     memory.NewBuffer(),
		maxRounds:  maxRounds,
		topK:       3,
		system:     DefaultSystemPrompt,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.contextPath != "" {
		turns, err := LoadContext(e.contextPath)
		if err != nil {
			log.Printf("[ENGINE] Failed to load context: %v", err)
		} else {
			e.buffer.Restore(turns, e.maxRounds)
		}
	}

	return e
}

// Buffer exposes the conversation buffer for the surrounding UI
// (/history, /clear).
func (e *Engine) Buffer() *memory.Buffer {
	return e.buffer
}

// Chat runs one exchange: retrieve relevant memories, stream the reply
// through onDelta, record both sides into the ledger, and persist the
// trimmed buffer.
//
// A memory search failure degrades the turn to buffer-only context and is
// reported on the log. A record failure is returned alongside the reply;
// the conversation itself succeeded and the caller decides how loudly to
// complain.
func (e *Engine) Chat(ctx context.Context, prompt string, onDelta func(chunk string)) (string, error) {
	var preamble string
	if e.ledger != nil && len(prompt) > minSearchLength {
		hits, err := e.ledger.Search(ctx, prompt, e.topK, memory.Filter{})
		if err != nil {
			log.Printf("[ENGINE] Memory search failed, continuing without: %v", err)
		} else if len(hits) > 0 {
			preamble = formatRelevant(hits)
		}
	}

	e.buffer.Append(memory.Turn{
		Role:    memory.RoleUser,
		Content: preamble + "Current question: " + prompt,
	})

	reply, err := e.completion.Complete(ctx, e.system, e.buffer.Turns(), onDelta)
	if err != nil {
		return "", fmt.Errorf("completion: %w", err)
	}

	var recordErr error
	if e.ledger != nil {
		if _, err := e.ledger.Record(ctx, memory.RoleUser, prompt, map[string]string{memory.MetaType: "query"}); err != nil {
			recordErr = err
		}
		if reply != "" {
			if _, err := e.ledger.Record(ctx, memory.RoleAssistant, reply, map[string]string{memory.MetaType: "response"}); err != nil && recordErr == nil {
				recordErr = err
			}
		}
	}

	if reply != "" {
		e.buffer.Append(memory.Turn{Role: memory.RoleAssistant, Content: reply})
		e.buffer.Trim(e.maxRounds)
		e.saveContext()
	}

	if recordErr != nil {
		return reply, fmt.Errorf("record memory: %w", recordErr)
	}
	return reply, nil
}

// ClearHistory empties the conversation buffer and persists the empty
// context. Long-term memories are untouched; clearing those is the
// ledger's job.
func (e *Engine) ClearHistory() {
	e.buffer.Clear()
	e.saveContext()
}

func (e *Engine) saveContext() {
	if e.contextPath == "" {
		return
	}
	if err := SaveContext(e.contextPath, e.buffer.Turns()); err != nil {
		log.Printf("[ENGINE] Failed to save context: %v", err)
	}
}

// formatRelevant renders retrieved memories as a prompt preamble, one line
// per hit, contents clipped so the preamble cannot crowd out the question.
func formatRelevant(hits []memory.ScoredRecord) string {
	var b strings.Builder
	b.WriteString("Relevant past conversation:\n")
	for _, hit := range hits {
		b.WriteString(fmt.Sprintf("- %s: %s\n", hit.Metadata[memory.MetaRole], clip(hit.Content, 150)))
	}
	b.WriteString("\n")
	return b.String()
}

func clip(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
