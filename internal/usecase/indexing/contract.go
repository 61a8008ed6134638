package indexing

import (
	"context"

	domdoc "github.com/scentlab/scentdex/internal/domain/document"
	domperfume "github.com/scentlab/scentdex/internal/domain/perfume"
)

// CatalogueReader loads perfume snapshots from the relational catalogue.
type CatalogueReader interface {
	Load(ctx context.Context, id string) (*domperfume.Aggregate, error)
	EachID(ctx context.Context, fn func(id string) error) error
}

// DocumentStore is the search-side write contract for documents.
type DocumentStore interface {
	Upsert(ctx context.Context, doc *domdoc.Document) error
	Delete(ctx context.Context, id string) error
	EnsureIndex(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}
