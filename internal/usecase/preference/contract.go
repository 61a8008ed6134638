package preference

import (
	"context"

	dompref "github.com/scentlab/scentdex/internal/domain/preference"
)

// AffinityReader aggregates member vote signals from the catalogue.
type AffinityReader interface {
	MemberIDs(ctx context.Context) ([]string, error)
	NoteAffinity(ctx context.Context, memberID string, minRating float64) (map[string]float64, error)
	AccordAffinity(ctx context.Context, memberID string, minRating float64) (map[string]float64, error)
	BrandAffinity(ctx context.Context, memberID string, minRating float64) (map[string]float64, error)
}

// VectorStore persists computed preference vectors.
type VectorStore interface {
	Put(ctx context.Context, memberID string, v dompref.Vector) error
	Get(ctx context.Context, memberID string) (dompref.Vector, error)
	Delete(ctx context.Context, memberID string) error
}
