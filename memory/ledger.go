package memory

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Ledger coordinates the vector store and the embedding provider. It is the
// only writer to the store: every record passes through here to get its id,
// timestamp, and embedding.
//
// Construction runs the legacy-format migration, so a ready Ledger always
// sits on a collection in the current encoding.
type Ledger struct {
	store    Store
	embedder Embedder
	now      func() time.Time
}

// Option configures the ledger.
type Option func(*Ledger)

// WithClock overrides the timestamp source. Intended for tests that need
// controlled record ordering.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// New creates a Ledger on the given store and embedder and runs the
// startup migration. A migration failure leaves the store untouched and is
// returned as an error wrapping ErrMigration.
func New(ctx context.Context, store Store, embedder Embedder, opts ...Option) (*Ledger, error) {
	l := &Ledger{
		store:    store,
		embedder: embedder,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}

	if err := Migrate(ctx, store, embedder); err != nil {
		return nil, err
	}

	return l, nil
}

// Record embeds content and stores it as a memory. Metadata defaults
// (role, timestamp, type "text") can be overridden by the caller's map.
// Returns the new record's id.
//
// An embedding failure propagates to the caller: a silently dropped record
// would erode retrieval quality with no observable symptom.
func (l *Ledger) Record(ctx context.Context, role, content string, metadata map[string]string) (string, error) {
	embedding, err := l.embedder.Embed(ctx, content)
	if err != nil {
		return "", fmt.Errorf("%w: embed content: %v", ErrEmbedding, err)
	}

	meta := l.baseMetadata(role, TypeText)
	for k, v := range metadata {
		meta[k] = v
	}

	id := uuid.New().String()
	rec := Record{
		ID:        id,
		Document:  content,
		Metadata:  meta,
		Embedding: embedding,
	}
	if err := l.store.Insert(ctx, rec); err != nil {
		return "", err
	}

	return id, nil
}

// RecordCode stores a source-code memory. The document is the content
// followed by a provenance marker line naming the language and file path,
// and the marker is part of the embedded text so code retrieval keys on
// both.
func (l *Ledger) RecordCode(ctx context.Context, role, content, filePath, language string, metadata map[string]string) (string, error) {
	marker := fmt.Sprintf("\n\n# [%s] CODE MEMORY: %s\n", strings.ToUpper(language), filePath)
	document := content + marker

	embedding, err := l.embedder.Embed(ctx, document)
	if err != nil {
		return "", fmt.Errorf("%w: embed content: %v", ErrEmbedding, err)
	}

	meta := l.baseMetadata(role, TypeCode)
	meta[MetaFilePath] = filePath
	meta[MetaLanguage] = language
	for k, v := range metadata {
		meta[k] = v
	}

	id := uuid.New().String()
	rec := Record{
		ID:        id,
		Document:  document,
		Metadata:  meta,
		Embedding: embedding,
	}
	if err := l.store.Insert(ctx, rec); err != nil {
		return "", err
	}

	return id, nil
}

// Search embeds the query and returns the topK most similar records,
// most similar first. An empty result is valid: there may be no relevant
// memory yet.
func (l *Ledger) Search(ctx context.Context, query string, topK int, filter Filter) ([]ScoredRecord, error) {
	embedding, err := l.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", ErrEmbedding, err)
	}

	hits, err := l.store.Query(ctx, embedding, topK, filter.where())
	if err != nil {
		return nil, err
	}

	for i := range hits {
		hits[i].Relevance = 1 - hits[i].Distance
	}

	log.Printf("[MEMORY] Search returned %d hits for query: %q", len(hits), truncate(query, 50))
	return hits, nil
}

// Recent returns up to limit records, newest first. This is a full scan
// with a client-side sort; cost is linear in collection size, which is
// fine for a diagnostic path.
func (l *Ledger) Recent(ctx context.Context, limit int, filter Filter) ([]Record, error) {
	recs, err := l.store.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	filtered := recs[:0:0]
	for _, rec := range recs {
		if filter.Matches(rec.Metadata) {
			filtered = append(filtered, rec)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return parseTimestamp(filtered[i].Metadata).After(parseTimestamp(filtered[j].Metadata))
	})

	if limit > 0 && len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered, nil
}

// Clear resets the store to empty. Idempotent.
func (l *Ledger) Clear(ctx context.Context) error {
	if err := l.store.Reset(ctx); err != nil {
		return err
	}
	log.Printf("[MEMORY] All memories cleared")
	return nil
}

// Stats aggregates record counts by role and type over a full scan.
func (l *Ledger) Stats(ctx context.Context) (*Stats, error) {
	recs, err := l.store.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		TotalRecords: len(recs),
		ByRole:       make(map[string]int),
		ByType:       make(map[string]int),
	}
	for _, rec := range recs {
		role := rec.Metadata[MetaRole]
		if role == "" {
			role = "unknown"
		}
		typ := rec.Metadata[MetaType]
		if typ == "" {
			typ = "unknown"
		}
		stats.ByRole[role]++
		stats.ByType[typ]++
	}
	return stats, nil
}

func (l *Ledger) baseMetadata(role, typ string) map[string]string {
	return map[string]string{
		MetaRole:      role,
		MetaTimestamp: l.now().Format(time.RFC3339Nano),
		MetaType:      typ,
	}
}

func parseTimestamp(metadata map[string]string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, metadata[MetaTimestamp])
	if err != nil {
		return time.Time{}
	}
	return ts
}

// truncate shortens text for logging.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return "..."
	}
	return s[:maxLen-3] + "..."
}
