// Command recall is a terminal assistant with persistent vector memory.
// Conversations are embedded and stored locally; each new prompt is
// enriched with the most relevant past exchanges before completion.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/charmbracelet/glamour"
	"github.com/chzyer/readline"
	"github.com/joho/godotenv"

	"github.com/recallsh/recall/engine"
	"github.com/recallsh/recall/memory"
	"github.com/recallsh/recall/memory/embedder/cached"
	"github.com/recallsh/recall/memory/embedder/mock"
	"github.com/recallsh/recall/memory/embedder/openai"
	"github.com/recallsh/recall/memory/store/chromem"
)

const banner = `recall — shell assistant with memory
-------------------------------------------------
  plain text        chat (context + relevant memories)
  !<command>        run an allowlisted shell command
  /load <path>      load a code file into context and memory
  /history          show the current conversation buffer
  /recent [n]       show the newest long-term memories
  /stats            show memory statistics
  /clear            clear the conversation buffer
  /clear-memory     wipe all long-term memories
  /exit             quit
-------------------------------------------------`

func main() {
	_ = godotenv.Load()

	cfg, err := engine.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ledger := buildLedger(cfg)

	var completion engine.CompletionClient
	switch cfg.Provider {
	case "anthropic":
		if cfg.AnthropicKey == "" {
			log.Fatal("ANTHROPIC_API_KEY is required for the anthropic provider")
		}
		completion = engine.NewAnthropicClient(cfg.AnthropicKey, cfg.AnthropicModel)
	default:
		if cfg.APIKey == "" {
			log.Fatal("OPENROUTER_API_KEY is required")
		}
		completion = engine.NewOpenRouterClient(cfg.APIKey, cfg.BaseURL, cfg.Model)
	}

	opts := []engine.Option{
		engine.WithContextFile(cfg.ContextFile()),
		engine.WithTopK(cfg.TopK),
	}
	if ledger != nil {
		opts = append(opts, engine.WithLedger(ledger))
	}
	eng := engine.New(completion, cfg.MaxRounds, opts...)

	fmt.Println(banner)
	runREPL(eng, ledger, cfg)
}

// buildLedger assembles embedder, store, and ledger. Any failure degrades
// to a session without vector memory rather than refusing to start.
func buildLedger(cfg *engine.Config) *memory.Ledger {
	if cfg.DisableMemory {
		return nil
	}

	var embedder memory.Embedder
	switch cfg.EmbeddingProvider {
	case "mock":
		embedder = mock.New()
	default:
		key := cfg.EmbeddingAPIKey
		if key == "" {
			key = cfg.APIKey
		}
		e, err := openai.New(openai.Config{
			APIKey:     key,
			Model:      cfg.EmbeddingModel,
			Dimensions: cfg.EmbeddingDimensions,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] vector memory disabled: %v\n", err)
			return nil
		}
		embedder = e
	}

	cache, err := cached.New(embedder, 32<<20)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] vector memory disabled: %v\n", err)
		return nil
	}

	store, err := chromem.New(chromem.Config{
		Path:           cfg.VectorDir(),
		Dimensions:     cache.Dimensions(),
		OnIncompatible: chromem.IncompatiblePolicy(cfg.OnIncompatible),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] vector memory disabled: %v\n", err)
		return nil
	}

	ledger, err := memory.New(context.Background(), store, cache)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] vector memory disabled: %v\n", err)
		return nil
	}

	fmt.Println("Vector memory enabled")
	return ledger
}

func runREPL(eng *engine.Engine, ledger *memory.Ledger, cfg *engine.Config) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "You: ",
		HistoryFile:     cfg.HistoryFile(),
		HistoryLimit:    500,
		InterruptPrompt: "^C",
		EOFPrompt:       "/exit",
	})
	if err != nil {
		log.Fatalf("readline: %v", err)
	}
	defer rl.Close()

	ctx := context.Background()

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				fmt.Println("(type /exit to quit)")
				continue
			}
			if err == io.EOF {
				fmt.Println("Goodbye!")
				return
			}
			fmt.Fprintf(os.Stderr, "read input: %v\n", err)
			continue
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		switch {
		case input == "/exit":
			fmt.Println("Goodbye!")
			return

		case input == "/clear":
			eng.ClearHistory()
			fmt.Println("Conversation buffer cleared")

		case input == "/clear-memory":
			if ledger == nil {
				fmt.Println("Vector memory is not enabled")
				continue
			}
			if err := ledger.Clear(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "clear memory: %v\n", err)
				continue
			}
			eng.ClearHistory()
			fmt.Println("All memories and conversation history cleared")

		case input == "/history":
			printHistory(eng.Buffer().Turns())

		case input == "/stats":
			if ledger == nil {
				fmt.Println("Vector memory is not enabled")
				continue
			}
			printStats(ctx, ledger)

		case strings.HasPrefix(input, "/recent"):
			if ledger == nil {
				fmt.Println("Vector memory is not enabled")
				continue
			}
			printRecent(ctx, ledger, input)

		case strings.HasPrefix(input, "/load "):
			path := strings.TrimSpace(strings.TrimPrefix(input, "/load "))
			preview, err := eng.LoadCodeFile(ctx, path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "load file: %v\n", err)
			}
			if preview != "" {
				fmt.Printf("Loaded %q (%s) into context.\n\n%s\n", path, engine.DetectLanguage(path), preview)
			}

		case strings.HasPrefix(input, "!"):
			out, err := engine.ExecuteShell(ctx, strings.TrimPrefix(input, "!"))
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				continue
			}
			fmt.Println(out)

		default:
			chat(ctx, eng, input)
		}
	}
}

func chat(ctx context.Context, eng *engine.Engine, prompt string) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " thinking..."
	s.Start()

	// The spinner covers the wait for the first streamed token; once tokens
	// flow the model is committed and the full reply lands shortly after.
	received := false
	reply, err := eng.Chat(ctx, prompt, func(chunk string) {
		if !received {
			s.Suffix = " writing..."
			received = true
		}
	})
	s.Stop()

	if err != nil {
		// A record failure still carries the reply; report and move on.
		fmt.Fprintf(os.Stderr, "[WARN] %v\n", err)
		if reply == "" {
			return
		}
	}

	if rendered, renderErr := renderMarkdown(reply); renderErr == nil {
		fmt.Print("Assistant:\n" + rendered)
	} else {
		fmt.Println("Assistant: " + reply)
	}
}

func renderMarkdown(text string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return "", err
	}
	return r.Render(text)
}

func printHistory(turns []memory.Turn) {
	if len(turns) == 0 {
		fmt.Println("Conversation buffer is empty")
		return
	}
	for i, turn := range turns {
		prefix := "User"
		if turn.Role == memory.RoleAssistant {
			prefix = "AI"
		}
		content := turn.Content
		if len(content) > 200 {
			content = content[:200] + "..."
		}
		fmt.Printf("%d. %s: %s\n", i+1, prefix, content)
	}
}

func printStats(ctx context.Context, ledger *memory.Ledger) {
	stats, err := ledger.Stats(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "stats: %v\n", err)
		return
	}
	fmt.Printf("Total memories: %d\n", stats.TotalRecords)
	for role, n := range stats.ByRole {
		fmt.Printf("  role %-10s %d\n", role, n)
	}
	for typ, n := range stats.ByType {
		fmt.Printf("  type %-10s %d\n", typ, n)
	}
}

func printRecent(ctx context.Context, ledger *memory.Ledger, input string) {
	limit := 10
	if _, err := fmt.Sscanf(input, "/recent %d", &limit); err != nil {
		limit = 10
	}
	recs, err := ledger.Recent(ctx, limit, memory.Filter{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "recent: %v\n", err)
		return
	}
	if len(recs) == 0 {
		fmt.Println("No memories yet")
		return
	}
	for _, rec := range recs {
		content := rec.Document
		if len(content) > 120 {
			content = content[:120] + "..."
		}
		fmt.Printf("[%s] %s: %s\n", rec.Metadata[memory.MetaTimestamp], rec.Metadata[memory.MetaRole], content)
	}
}
