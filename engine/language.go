package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/recallsh/recall/memory"
)

var languageByExtension = map[string]string{
	".py":   "Python",
	".js":   "JavaScript",
	".ts":   "TypeScript",
	".java": "Java",
	".cpp":  "C++",
	".c":    "C",
	".go":   "Go",
	".rs":   "Rust",
	".rb":   "Ruby",
	".php":  "PHP",
	".html": "HTML",
	".css":  "CSS",
	".sql":  "SQL",
	".md":   "Markdown",
	".sh":   "Shell",
	".json": "JSON",
	".xml":  "XML",
	".yaml": "YAML",
	".yml":  "YAML",
	".txt":  "Text",
	".csv":  "CSV",
	".ini":  "INI",
	".cfg":  "Config",
	".toml": "TOML",
}

// DetectLanguage guesses a language from the file extension.
func DetectLanguage(filename string) string {
	if lang, ok := languageByExtension[strings.ToLower(filepath.Ext(filename))]; ok {
		return lang
	}
	return "Unknown"
}

// LoadCodeFile reads a source file into the conversation: the fenced file
// content becomes a user turn, and a code memory is recorded so later
// sessions can retrieve it semantically. Returns a short preview of the
// loaded content.
func (e *Engine) LoadCodeFile(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}

	language := DetectLanguage(path)
	message := fmt.Sprintf("The following is a %s source code file named `%s`:\n```\n%s\n```",
		language, filepath.Base(path), string(data))

	e.buffer.Append(memory.Turn{Role: memory.RoleUser, Content: message})

	var recordErr error
	if e.ledger != nil {
		if _, err := e.ledger.RecordCode(ctx, memory.RoleUser, message, path, language,
			map[string]string{memory.MetaType: "code_load"}); err != nil {
			recordErr = fmt.Errorf("record code memory: %w", err)
		}
	}

	e.buffer.Trim(e.maxRounds)
	e.saveContext()

	return preview(string(data), 10), recordErr
}

// preview returns the first n lines with an ellipsis when truncated.
func preview(content string, n int) string {
	lines := strings.Split(content, "\n")
	if len(lines) <= n {
		return content
	}
	return strings.Join(lines[:n], "\n") + "\n..."
}
