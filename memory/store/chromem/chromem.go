// Package chromem implements the memory.Store interface on chromem-go,
// a pure Go embedded vector database. Embeddings are computed by the
// caller, the collection metric is cosine, and persistence is a directory
// on disk (or nothing, for in-memory test stores).
//
// Alongside the chromem data the store keeps a small manifest file per
// collection recording the schema version and embedding dimensionality.
// The manifest lets startup answer "does this collection need migration"
// and "was it written by a different embedding model" without inspecting
// document content.
package chromem

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	chromem "github.com/philippgille/chromem-go"

	"github.com/recallsh/recall/memory"
)

// IncompatiblePolicy decides what happens when the on-disk collection was
// written with a different embedding dimensionality than configured.
type IncompatiblePolicy string

const (
	// ResetOnIncompatible deletes and recreates the collection from empty.
	// This loses data by design; callers needing durability across
	// embedding-model changes must export externally first.
	ResetOnIncompatible IncompatiblePolicy = "reset"

	// FailOnIncompatible refuses to open the collection.
	FailOnIncompatible IncompatiblePolicy = "fail"
)

// Config configures the store.
type Config struct {
	// Path is the persistence directory. Empty means in-memory only.
	Path string

	// Collection names the single collection this store manages.
	// Defaults to "shell_assistant".
	Collection string

	// Dimensions is the embedding dimensionality every record must have.
	Dimensions int

	// OnIncompatible selects the policy for a dimensionality mismatch
	// with existing data. Defaults to ResetOnIncompatible.
	OnIncompatible IncompatiblePolicy
}

type manifest struct {
	SchemaVersion int    `json:"schema_version"`
	Dimensions    int    `json:"dimensions"`
	Collection    string `json:"collection"`
}

// Store is a memory.Store backed by a single chromem-go collection.
type Store struct {
	cfg     Config
	db      *chromem.DB
	mu      sync.RWMutex
	col     *chromem.Collection
	version int
}

// New opens or creates the named collection. An existing collection whose
// manifest records a different dimensionality is handled per
// cfg.OnIncompatible; a collection with data but no manifest is left at
// memory.SchemaUnknown for the migrator to classify.
func New(cfg Config) (*Store, error) {
	if cfg.Collection == "" {
		cfg.Collection = "shell_assistant"
	}
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("%w: dimensions must be positive", memory.ErrStorage)
	}
	if cfg.OnIncompatible == "" {
		cfg.OnIncompatible = ResetOnIncompatible
	}

	var db *chromem.DB
	var err error
	if cfg.Path == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(cfg.Path, false)
		if err != nil {
			return nil, fmt.Errorf("%w: open database: %v", memory.ErrStorage, err)
		}
	}

	s := &Store{cfg: cfg, db: db}

	col, err := db.GetOrCreateCollection(cfg.Collection, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: open collection: %v", memory.ErrStorage, err)
	}
	s.col = col

	if cfg.Path == "" {
		s.version = memory.SchemaPlainText
		return s, nil
	}

	m, err := s.readManifest()
	switch {
	case err != nil:
		return nil, err
	case m == nil && col.Count() > 0:
		// Data written before manifests existed. The migrator decides.
		s.version = memory.SchemaUnknown
	case m == nil:
		s.version = memory.SchemaPlainText
		if err := s.writeManifest(); err != nil {
			return nil, err
		}
	case m.Dimensions != cfg.Dimensions:
		if cfg.OnIncompatible == FailOnIncompatible {
			return nil, fmt.Errorf("%w: collection %q holds %d-dimensional embeddings, embedder produces %d",
				memory.ErrStorage, cfg.Collection, m.Dimensions, cfg.Dimensions)
		}
		log.Printf("[CHROMEM] Collection %q has incompatible dimensionality (%d != %d), recreating",
			cfg.Collection, m.Dimensions, cfg.Dimensions)
		if err := s.recreate(); err != nil {
			return nil, err
		}
	default:
		s.version = m.SchemaVersion
	}

	return s, nil
}

// Insert appends one record to durable storage.
func (s *Store) Insert(ctx context.Context, rec memory.Record) error {
	if len(rec.Embedding) != s.cfg.Dimensions {
		return fmt.Errorf("%w: embedding has %d dimensions, collection expects %d",
			memory.ErrStorage, len(rec.Embedding), s.cfg.Dimensions)
	}

	s.mu.RLock()
	col := s.col
	s.mu.RUnlock()

	doc := chromem.Document{
		ID:        rec.ID,
		Content:   rec.Document,
		Embedding: rec.Embedding,
		Metadata:  rec.Metadata,
	}
	if err := col.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("%w: add document: %v", memory.ErrStorage, err)
	}
	return nil
}

// Query returns up to topK records by ascending cosine distance.
// chromem reports cosine similarity, so distance is 1 - similarity.
//
// chromem rejects result counts larger than the (filtered) document count,
// so the requested topK is walked down until the query fits; an empty
// collection or an unmatched filter yields an empty result.
func (s *Store) Query(ctx context.Context, embedding []float32, topK int, where map[string]string) ([]memory.ScoredRecord, error) {
	s.mu.RLock()
	col := s.col
	s.mu.RUnlock()

	if topK > col.Count() {
		topK = col.Count()
	}
	if topK <= 0 {
		return nil, nil
	}

	var results []chromem.Result
	for n := topK; n >= 1; n-- {
		var err error
		results, err = col.QueryEmbedding(ctx, embedding, n, where, nil)
		if err == nil {
			break
		}
		if isInsufficientDocsError(err) {
			if n == 1 {
				return nil, nil
			}
			continue
		}
		return nil, fmt.Errorf("%w: query collection: %v", memory.ErrStorage, err)
	}

	hits := make([]memory.ScoredRecord, 0, len(results))
	for _, res := range results {
		hits = append(hits, memory.ScoredRecord{
			Content:  res.Content,
			Metadata: res.Metadata,
			Distance: 1 - res.Similarity,
		})
	}
	return hits, nil
}

// GetAll scans the collection via a probe query sized to the full document
// count and returns the records sorted by timestamp then id, so repeated
// scans see a stable order.
func (s *Store) GetAll(ctx context.Context) ([]memory.Record, error) {
	s.mu.RLock()
	col := s.col
	s.mu.RUnlock()

	count := col.Count()
	if count == 0 {
		return nil, nil
	}

	probe := make([]float32, s.cfg.Dimensions)
	probe[0] = 1
	results, err := col.QueryEmbedding(ctx, probe, count, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: scan collection: %v", memory.ErrStorage, err)
	}

	recs := make([]memory.Record, 0, len(results))
	for _, res := range results {
		recs = append(recs, memory.Record{
			ID:        res.ID,
			Document:  res.Content,
			Metadata:  res.Metadata,
			Embedding: res.Embedding,
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		ti := recTimestamp(recs[i])
		tj := recTimestamp(recs[j])
		if ti.Equal(tj) {
			return recs[i].ID < recs[j].ID
		}
		return ti.Before(tj)
	})
	return recs, nil
}

// Reset destroys all records. The recreated collection keeps its name and
// metric and is stamped with the current schema version.
func (s *Store) Reset(ctx context.Context) error {
	return s.recreate()
}

// Count returns the number of stored records.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.col.Count()
}

// SchemaVersion reports the collection's document encoding.
func (s *Store) SchemaVersion() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// SetSchemaVersion stamps the collection's document encoding in the
// manifest.
func (s *Store) SetSchemaVersion(version int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version = version
	return s.writeManifestLocked()
}

// Close releases resources. chromem keeps its working set in memory and
// flushes on write, so there is nothing to tear down.
func (s *Store) Close() error {
	return nil
}

func (s *Store) recreate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.DeleteCollection(s.cfg.Collection); err != nil {
		return fmt.Errorf("%w: delete collection: %v", memory.ErrStorage, err)
	}
	col, err := s.db.CreateCollection(s.cfg.Collection, nil, nil)
	if err != nil {
		return fmt.Errorf("%w: recreate collection: %v", memory.ErrStorage, err)
	}
	s.col = col
	s.version = memory.SchemaPlainText
	return s.writeManifestLocked()
}

func (s *Store) manifestPath() string {
	return filepath.Join(s.cfg.Path, s.cfg.Collection+".manifest.json")
}

func (s *Store) readManifest() (*manifest, error) {
	data, err := os.ReadFile(s.manifestPath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read manifest: %v", memory.ErrStorage, err)
	}
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: decode manifest: %v", memory.ErrStorage, err)
	}
	return &m, nil
}

func (s *Store) writeManifest() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeManifestLocked()
}

func (s *Store) writeManifestLocked() error {
	if s.cfg.Path == "" {
		return nil
	}
	m := manifest{
		SchemaVersion: s.version,
		Dimensions:    s.cfg.Dimensions,
		Collection:    s.cfg.Collection,
	}
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("%w: encode manifest: %v", memory.ErrStorage, err)
	}
	if err := os.WriteFile(s.manifestPath(), data, 0o600); err != nil {
		return fmt.Errorf("%w: write manifest: %v", memory.ErrStorage, err)
	}
	return nil
}

func recTimestamp(rec memory.Record) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, rec.Metadata[memory.MetaTimestamp])
	if err != nil {
		return time.Time{}
	}
	return ts
}

// isInsufficientDocsError matches chromem's complaint when nResults exceeds
// the number of documents left after filtering.
func isInsufficientDocsError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "nResults must be") || strings.Contains(msg, "number of documents")
}
