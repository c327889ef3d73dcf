package memory

import (
	"fmt"
	"testing"
)

func TestBufferTrimKeepsNewestRounds(t *testing.T) {
	b := NewBuffer()
	for i := 0; i < 10; i++ {
		b.Append(Turn{Role: RoleUser, Content: fmt.Sprintf("q%d", i)})
		b.Append(Turn{Role: RoleAssistant, Content: fmt.Sprintf("a%d", i)})
	}

	b.Trim(3)

	turns := b.Turns()
	if len(turns) != 6 {
		t.Fatalf("expected 6 turns after trim, got %d", len(turns))
	}
	if turns[0].Content != "q7" {
		t.Errorf("expected oldest kept turn q7, got %q", turns[0].Content)
	}
	if turns[5].Content != "a9" {
		t.Errorf("expected newest kept turn a9, got %q", turns[5].Content)
	}

	// A second trim with the same bound must not drop anything.
	b.Trim(3)
	if b.Len() != 6 {
		t.Errorf("trim is not idempotent: got %d turns", b.Len())
	}
}

func TestBufferTrimUnderLimitIsNoop(t *testing.T) {
	b := NewBuffer()
	b.Append(Turn{Role: RoleUser, Content: "hello"})
	b.Trim(5)
	if b.Len() != 1 {
		t.Fatalf("expected 1 turn, got %d", b.Len())
	}
}

func TestBufferTrimZeroRounds(t *testing.T) {
	b := NewBuffer()
	b.Append(Turn{Role: RoleUser, Content: "hello"})
	b.Append(Turn{Role: RoleAssistant, Content: "hi"})
	b.Trim(0)
	if b.Len() != 0 {
		t.Fatalf("expected empty buffer, got %d turns", b.Len())
	}
}

func TestBufferRestoreAppliesBound(t *testing.T) {
	saved := make([]Turn, 0, 8)
	for i := 0; i < 4; i++ {
		saved = append(saved, Turn{Role: RoleUser, Content: fmt.Sprintf("q%d", i)})
		saved = append(saved, Turn{Role: RoleAssistant, Content: fmt.Sprintf("a%d", i)})
	}

	b := NewBuffer()
	b.Restore(saved, 2)

	turns := b.Turns()
	if len(turns) != 4 {
		t.Fatalf("expected 4 turns after restore, got %d", len(turns))
	}
	if turns[0].Content != "q2" {
		t.Errorf("expected restore to keep newest rounds, got %q first", turns[0].Content)
	}

	// Mutating the source slice must not leak into the buffer.
	saved[7].Content = "mutated"
	if b.Turns()[3].Content == "mutated" {
		t.Error("restore aliased the caller's slice")
	}
}

func TestBufferTurnsReturnsCopy(t *testing.T) {
	b := NewBuffer()
	b.Append(Turn{Role: RoleUser, Content: "original"})

	turns := b.Turns()
	turns[0].Content = "changed"

	if b.Turns()[0].Content != "original" {
		t.Error("Turns exposed internal storage")
	}
}

func TestBufferClear(t *testing.T) {
	b := NewBuffer()
	b.Append(Turn{Role: RoleUser, Content: "hello"})
	b.Clear()
	if b.Len() != 0 {
		t.Fatalf("expected empty buffer after clear, got %d turns", b.Len())
	}
	b.Append(Turn{Role: RoleUser, Content: "again"})
	if b.Len() != 1 {
		t.Fatal("buffer unusable after clear")
	}
}
