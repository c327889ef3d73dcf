package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/recallsh/recall/memory/embedder/mock"
)

func legacyStore(version int, docs ...string) *fakeStore {
	store := newFakeStore()
	store.version = version
	for i, doc := range docs {
		store.recs = append(store.recs, Record{
			ID:       string(rune('a' + i)),
			Document: doc,
			Metadata: map[string]string{
				MetaRole: RoleUser,
				MetaType: TypeText,
			},
			Embedding: make([]float32, mock.New().Dimensions()),
		})
	}
	return store
}

func TestMigrateRewritesLegacyDocuments(t *testing.T) {
	store := legacyStore(SchemaLegacyJSON,
		`{"content": "how do I restart nginx"}`,
		`{"note": "single entry value"}`,
	)

	if err := Migrate(context.Background(), store, mock.New()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	if store.version != SchemaPlainText {
		t.Errorf("expected schema %d after migration, got %d", SchemaPlainText, store.version)
	}
	if store.resets != 1 {
		t.Errorf("expected exactly one rebuild, got %d", store.resets)
	}
	if store.Count() != 2 {
		t.Fatalf("expected 2 records after migration, got %d", store.Count())
	}

	if store.recs[0].ID != "a" || store.recs[1].ID != "b" {
		t.Errorf("migration changed record ids: %q, %q", store.recs[0].ID, store.recs[1].ID)
	}
	if store.recs[0].Document != "how do I restart nginx" {
		t.Errorf("content key not decoded: %q", store.recs[0].Document)
	}
	if store.recs[1].Document != "single entry value" {
		t.Errorf("single-entry object not decoded: %q", store.recs[1].Document)
	}
	if store.recs[0].Metadata[MetaRole] != RoleUser {
		t.Errorf("metadata lost in migration: %v", store.recs[0].Metadata)
	}

	// Decoded text gets a fresh embedding, not the stale zero vector.
	allZero := true
	for _, v := range store.recs[0].Embedding {
		if v != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		t.Error("migrated record kept its stale embedding")
	}
}

func TestMigrateUndecodableAbortsUntouched(t *testing.T) {
	store := legacyStore(SchemaLegacyJSON,
		`{"content": "fine"}`,
		`{"count": 7}`,
	)

	err := Migrate(context.Background(), store, mock.New())
	if !errors.Is(err, ErrMigration) {
		t.Fatalf("expected ErrMigration, got %v", err)
	}

	if store.resets != 0 {
		t.Error("failed migration must not touch the collection")
	}
	if store.version != SchemaLegacyJSON {
		t.Errorf("failed migration must not stamp the schema, got %d", store.version)
	}
	if store.recs[0].Document != `{"content": "fine"}` {
		t.Errorf("record rewritten despite abort: %q", store.recs[0].Document)
	}
}

func TestMigrateEmbedFailureAbortsUntouched(t *testing.T) {
	store := legacyStore(SchemaLegacyJSON, `{"content": "fine"}`)

	err := Migrate(context.Background(), store, failEmbedder{})
	if !errors.Is(err, ErrMigration) {
		t.Fatalf("expected ErrMigration, got %v", err)
	}
	if store.resets != 0 || store.version != SchemaLegacyJSON {
		t.Error("failed migration must leave the collection as it was")
	}
}

func TestMigratePlainTextIsNoop(t *testing.T) {
	store := legacyStore(SchemaPlainText, "already plain text")

	if err := Migrate(context.Background(), store, mock.New()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if store.resets != 0 {
		t.Error("current-schema collection must not be rebuilt")
	}
	if store.recs[0].Document != "already plain text" {
		t.Errorf("record rewritten: %q", store.recs[0].Document)
	}
}

func TestMigrateEmptyCollectionStampsSchema(t *testing.T) {
	store := legacyStore(SchemaUnknown)

	if err := Migrate(context.Background(), store, mock.New()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if store.version != SchemaPlainText {
		t.Errorf("empty collection not stamped, got schema %d", store.version)
	}
	if store.resets != 0 {
		t.Error("empty collection must not be rebuilt")
	}
}

func TestMigrateUnknownSchemaSniffsPlainText(t *testing.T) {
	store := legacyStore(SchemaUnknown, "a plain text memory from before manifests")

	if err := Migrate(context.Background(), store, mock.New()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if store.version != SchemaPlainText {
		t.Errorf("sniffed plain-text collection not stamped, got %d", store.version)
	}
	if store.resets != 0 {
		t.Error("plain-text collection must not be rebuilt")
	}
}

func TestMigrateUnknownSchemaSniffsLegacy(t *testing.T) {
	store := legacyStore(SchemaUnknown, `  {"content": "leading whitespace still counts"}`)

	if err := Migrate(context.Background(), store, mock.New()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if store.recs[0].Document != "leading whitespace still counts" {
		t.Errorf("sniffed legacy collection not rewritten: %q", store.recs[0].Document)
	}
	if store.version != SchemaPlainText {
		t.Errorf("expected schema %d, got %d", SchemaPlainText, store.version)
	}
}

func TestDecodeLegacyDocument(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"content key", `{"content": "hello"}`, "hello", false},
		{"content key wins over size", `{"content": "hello", "role": "user"}`, "hello", false},
		{"single entry", `{"anything": "value"}`, "value", false},
		{"non-string value", `{"n": 42}`, "", true},
		{"multiple entries without content", `{"a": "x", "b": "y"}`, "", true},
		{"not json", `plain text`, "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := decodeLegacyDocument(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("decodeLegacyDocument: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}
