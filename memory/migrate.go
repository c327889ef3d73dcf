package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
)

// Migrate rewrites a legacy-encoded collection into the current plain-text
// encoding. Legacy collections stored documents as serialized JSON values;
// returning those to callers verbatim would hand them garbage, so the whole
// collection is rebuilt in one pass.
//
// The operation is all-or-nothing: every document is decoded and re-embedded
// before the store is touched, and any single undecodable record aborts the
// migration with the prior collection intact. An empty collection is a
// no-op. Collections that predate version manifests (SchemaUnknown) are
// classified by sniffing one sample document, the heuristic the legacy
// population was written under.
func Migrate(ctx context.Context, store Store, embedder Embedder) error {
	version := store.SchemaVersion()
	if version == SchemaPlainText {
		return nil
	}

	recs, err := store.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("%w: scan collection: %v", ErrMigration, err)
	}
	if len(recs) == 0 {
		if err := store.SetSchemaVersion(SchemaPlainText); err != nil {
			return fmt.Errorf("%w: stamp schema version: %v", ErrMigration, err)
		}
		return nil
	}

	if version == SchemaUnknown && !looksLegacy(recs[0].Document) {
		// Pre-manifest collection already holding plain text.
		if err := store.SetSchemaVersion(SchemaPlainText); err != nil {
			return fmt.Errorf("%w: stamp schema version: %v", ErrMigration, err)
		}
		return nil
	}

	log.Printf("[MEMORY] Migrating %d records from legacy encoding", len(recs))

	// Decode and re-embed everything before touching the store, so a bad
	// record or a dead embedding provider leaves the collection as it was.
	// Legacy vectors were computed over the encoded form, so the decoded
	// text gets a fresh embedding.
	migrated := make([]Record, 0, len(recs))
	for _, rec := range recs {
		text, err := decodeLegacyDocument(rec.Document)
		if err != nil {
			return fmt.Errorf("%w: record %s: %v", ErrMigration, rec.ID, err)
		}
		embedding, err := embedder.Embed(ctx, text)
		if err != nil {
			return fmt.Errorf("%w: re-embed record %s: %v", ErrMigration, rec.ID, err)
		}
		migrated = append(migrated, Record{
			ID:        rec.ID,
			Document:  text,
			Metadata:  rec.Metadata,
			Embedding: embedding,
		})
	}

	if err := store.Reset(ctx); err != nil {
		return fmt.Errorf("%w: rebuild collection: %v", ErrMigration, err)
	}
	for _, rec := range migrated {
		if err := store.Insert(ctx, rec); err != nil {
			return fmt.Errorf("%w: reinsert record %s: %v", ErrMigration, rec.ID, err)
		}
	}
	if err := store.SetSchemaVersion(SchemaPlainText); err != nil {
		return fmt.Errorf("%w: stamp schema version: %v", ErrMigration, err)
	}

	log.Printf("[MEMORY] Migration completed: %d records rewritten", len(migrated))
	return nil
}

// looksLegacy sniffs whether a document is in the legacy JSON encoding.
// Only consulted for pre-manifest collections; versioned collections carry
// the answer in their manifest.
func looksLegacy(document string) bool {
	return strings.HasPrefix(strings.TrimSpace(document), "{")
}

// decodeLegacyDocument recovers the plain text from a legacy JSON document.
// Legacy writers stored either {"content": "..."} or a single-entry object.
func decodeLegacyDocument(document string) (string, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(document), &obj); err != nil {
		return "", fmt.Errorf("decode legacy document: %v", err)
	}

	if text, ok := obj["content"].(string); ok {
		return text, nil
	}
	if len(obj) == 1 {
		for _, v := range obj {
			if text, ok := v.(string); ok {
				return text, nil
			}
		}
	}
	return "", errors.New("legacy document has no recoverable text")
}
