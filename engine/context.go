package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/recallsh/recall/memory"
)

// LoadContext reads persisted conversation turns from path. A missing file
// is an empty conversation, not an error.
func LoadContext(path string) ([]memory.Turn, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read context file: %w", err)
	}

	var turns []memory.Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, fmt.Errorf("decode context file: %w", err)
	}
	return turns, nil
}

// SaveContext writes conversation turns to path, creating parent
// directories as needed.
func SaveContext(path string, turns []memory.Turn) error {
	data, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("encode context: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create context directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write context file: %w", err)
	}
	return nil
}
