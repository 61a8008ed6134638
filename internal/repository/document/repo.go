// Package document persists perfume search documents in the store as JSON,
// keyed by perfume id, with full-replace upsert semantics.
package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/scentlab/scentdex/internal/db"
	"github.com/scentlab/scentdex/internal/domain"
	domdoc "github.com/scentlab/scentdex/internal/domain/document"
)

// store is the consumer interface for documents (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Repo implements the document write/read port over the store.
type Repo struct {
	store store
}

// New creates a document repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Upsert fully replaces the document keyed by its id.
func (r *Repo) Upsert(ctx context.Context, doc *domdoc.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document %s: %w", doc.ID, err)
	}

	key := Key(doc.ID)
	if err := r.store.JSONSet(ctx, key, "$", data); err != nil {
		return fmt.Errorf("json.set %s: %w: %w", key, domain.ErrStoreUnavailable, err)
	}
	return nil
}

// Get returns a document by id; domain.ErrNotFound when absent.
func (r *Repo) Get(ctx context.Context, id string) (domdoc.Document, error) {
	key := Key(id)
	raw, err := r.store.JSONGet(ctx, key, "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domdoc.Document{}, domain.ErrNotFound
		}
		return domdoc.Document{}, fmt.Errorf("json.get %s: %w: %w", key, domain.ErrStoreUnavailable, err)
	}
	return parseJSONGetResult(raw)
}

// Delete removes a document. Deleting an absent id is a no-op success.
func (r *Repo) Delete(ctx context.Context, id string) error {
	key := Key(id)
	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w: %w", key, domain.ErrStoreUnavailable, err)
	}
	return nil
}

// Exists reports whether a document is present.
func (r *Repo) Exists(ctx context.Context, id string) (bool, error) {
	ok, err := r.store.Exists(ctx, Key(id))
	if err != nil {
		return false, fmt.Errorf("exists %s: %w: %w", id, domain.ErrStoreUnavailable, err)
	}
	return ok, nil
}

// Count returns the number of indexed documents.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n, err := r.store.SearchCount(ctx, IndexName, "*")
	if err != nil {
		return 0, fmt.Errorf("search count: %w: %w", domain.ErrStoreUnavailable, err)
	}
	return n, nil
}

// EnsureIndex creates the perfume FT index if it does not exist yet.
// Concurrent creation is tolerated.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, IndexName)
	if err != nil {
		return fmt.Errorf("index exists: %w: %w", domain.ErrStoreUnavailable, err)
	}
	if exists {
		return nil
	}

	if err := r.store.CreateIndex(ctx, IndexDefinition()); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("create index: %w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// IndexDefinition describes the FT schema over perfume JSON documents.
func IndexDefinition() *db.IndexDefinition {
	return &db.IndexDefinition{
		Name:        IndexName,
		StorageType: db.StorageJSON,
		Prefixes:    []string{keyPrefix},
		Fields: []db.IndexField{
			{Name: "$.name", Alias: "name", Type: db.IndexFieldText, Sortable: true},
			{Name: "$.description", Alias: "description", Type: db.IndexFieldText},
			{Name: "$.brandName", Alias: "brand_text", Type: db.IndexFieldText},
			{Name: "$.designerNames[*]", Alias: "designers", Type: db.IndexFieldText},
			{Name: "$.brandName", Alias: "brand", Type: db.IndexFieldTag},
			{Name: "$.noteTokens[*]", Alias: "note_tokens", Type: db.IndexFieldTag},
			{Name: "$.noteNames[*]", Alias: "note_names", Type: db.IndexFieldTag},
			{Name: "$.accordNames[*]", Alias: "accords", Type: db.IndexFieldTag},
			{Name: "$.releaseYear", Alias: "release_year", Type: db.IndexFieldNumeric, Sortable: true},
			{Name: "$.rating", Alias: "rating", Type: db.IndexFieldNumeric, Sortable: true},
			{Name: "$.reviewCount", Alias: "review_count", Type: db.IndexFieldNumeric},
			{Name: "$.approved", Alias: "approved", Type: db.IndexFieldTag},
		},
	}
}
