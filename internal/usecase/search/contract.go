package search

import (
	"context"

	domdoc "github.com/scentlab/scentdex/internal/domain/document"
	dompref "github.com/scentlab/scentdex/internal/domain/preference"
	domsearch "github.com/scentlab/scentdex/internal/domain/search"
)

// Repository is the read contract against the search index.
type Repository interface {
	Search(ctx context.Context, c *domsearch.Criteria) (domsearch.Page, error)
	FindSimilar(ctx context.Context, id string, limit int) ([]domdoc.Document, error)
	FindRecommended(ctx context.Context, v dompref.Vector, limit int) ([]domdoc.Document, error)
}

// PreferenceReader loads stored member preference vectors.
type PreferenceReader interface {
	Get(ctx context.Context, memberID string) (dompref.Vector, error)
}
