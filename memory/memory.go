package memory

import "context"

// Metadata keys present on every stored record.
const (
	MetaRole      = "role"
	MetaTimestamp = "timestamp"
	MetaType      = "type"
	MetaFilePath  = "file_path"
	MetaLanguage  = "language"
)

// Roles recorded in metadata.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Record types. Callers may supply their own tags via metadata.
const (
	TypeText = "text"
	TypeCode = "code"
)

// Schema versions of the persisted collection. A collection is either fully
// in one encoding or fully in another, never mixed; the Migrator enforces
// the transition.
const (
	// SchemaUnknown marks a collection created before version manifests
	// existed. Its encoding must be inferred from a sample document.
	SchemaUnknown = 0

	// SchemaLegacyJSON is the old encoding: documents stored as serialized
	// JSON values rather than plain text.
	SchemaLegacyJSON = 1

	// SchemaPlainText is the current encoding: documents stored verbatim.
	SchemaPlainText = 2
)

// Record is one persisted memory: an embedding, the literal document text,
// and flat string metadata. Records are immutable after creation; they are
// destroyed only by a full collection reset or replaced id-stably during
// migration.
type Record struct {
	ID        string
	Document  string
	Metadata  map[string]string
	Embedding []float32
}

// ScoredRecord is a search hit. Distance is cosine distance in [0, 2],
// smallest first. Relevance is 1 - Distance: a monotonically decreasing
// transform of distance, not a probability, and not bounded to [0, 1].
type ScoredRecord struct {
	Content   string
	Metadata  map[string]string
	Distance  float32
	Relevance float32
}

// Filter restricts search and scan results by metadata equality.
// The zero value matches everything.
type Filter struct {
	Role string
	Type string
}

func (f Filter) where() map[string]string {
	if f.Role == "" && f.Type == "" {
		return nil
	}
	where := make(map[string]string, 2)
	if f.Role != "" {
		where[MetaRole] = f.Role
	}
	if f.Type != "" {
		where[MetaType] = f.Type
	}
	return where
}

// Matches reports whether a record's metadata satisfies the filter.
func (f Filter) Matches(metadata map[string]string) bool {
	if f.Role != "" && metadata[MetaRole] != f.Role {
		return false
	}
	if f.Type != "" && metadata[MetaType] != f.Type {
		return false
	}
	return true
}

// Stats summarizes the collection contents.
type Stats struct {
	TotalRecords int
	ByRole       map[string]int
	ByType       map[string]int
}

// Embedder converts text to a fixed-length vector.
// Implementations: openai (API-based), cached (ristretto wrapper),
// mock (deterministic, offline).
type Embedder interface {
	// Embed converts a single text to an embedding vector.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int
}

// Store is the vector storage backend. Implementations must serialize
// concurrent access internally and keep mutations durable: a process
// restart observes previously inserted records.
type Store interface {
	// Insert appends one record. Fails with ErrStorage if the embedding
	// dimensionality disagrees with the collection's configuration.
	Insert(ctx context.Context, rec Record) error

	// Query returns up to topK records ordered by ascending cosine
	// distance, restricted to records whose metadata matches every
	// where entry. An empty collection yields an empty result, not an
	// error. Relevance on the returned hits is left to the caller.
	Query(ctx context.Context, embedding []float32, topK int, where map[string]string) ([]ScoredRecord, error)

	// GetAll scans the whole collection in a deterministic order.
	GetAll(ctx context.Context) ([]Record, error)

	// Reset destroys all records. The collection keeps its name and
	// metric configuration and is usable immediately after.
	Reset(ctx context.Context) error

	// Count returns the number of stored records.
	Count() int

	// SchemaVersion reports the collection's document encoding.
	SchemaVersion() int

	// SetSchemaVersion stamps the collection's document encoding.
	SetSchemaVersion(version int) error

	// Close releases resources.
	Close() error
}
