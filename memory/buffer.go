package memory

// Turn is one conversational exchange entry: a plain role/content pair,
// no id, no timestamp. Turns live only in the Buffer and in the context
// file the surrounding CLI persists between runs.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Buffer is the bounded, ordered, in-memory list of recent turns used to
// build the literal prompt. It is independent of the vector ledger and is
// purely in memory; persistence is the caller's responsibility.
type Buffer struct {
	turns []Turn
}

// NewBuffer returns an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Append adds a turn to the end.
func (b *Buffer) Append(turn Turn) {
	b.turns = append(b.turns, turn)
}

// Trim drops the oldest turns until at most 2*maxRounds remain (a round is
// one user turn plus one assistant turn). Idempotent.
func (b *Buffer) Trim(maxRounds int) {
	limit := 2 * maxRounds
	if limit < 0 {
		limit = 0
	}
	if len(b.turns) > limit {
		kept := make([]Turn, limit)
		copy(kept, b.turns[len(b.turns)-limit:])
		b.turns = kept
	}
}

// Clear empties the buffer.
func (b *Buffer) Clear() {
	b.turns = nil
}

// Len returns the number of buffered turns.
func (b *Buffer) Len() int {
	return len(b.turns)
}

// Turns returns a copy of the buffered turns, oldest first.
func (b *Buffer) Turns() []Turn {
	out := make([]Turn, len(b.turns))
	copy(out, b.turns)
	return out
}

// Restore replaces the buffer contents with turns loaded from persistence
// and immediately re-applies the bound.
func (b *Buffer) Restore(turns []Turn, maxRounds int) {
	b.turns = make([]Turn, len(turns))
	copy(b.turns, turns)
	b.Trim(maxRounds)
}
