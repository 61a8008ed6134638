// Package search validates queries and fronts the ranked read paths:
// multi-criteria search, similarity and preference recommendations.
package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/scentlab/scentdex/internal/domain"
	domdoc "github.com/scentlab/scentdex/internal/domain/document"
	dompref "github.com/scentlab/scentdex/internal/domain/preference"
	domsearch "github.com/scentlab/scentdex/internal/domain/search"
	"github.com/scentlab/scentdex/internal/metrics"
)

// DefaultLimit is the result count for similarity and recommendation
// queries when the caller omits one.
const DefaultLimit = 10

// MaxLimit caps caller-supplied similarity and recommendation limits.
const MaxLimit = 50

// Service fronts the search read paths.
type Service struct {
	repo  Repository
	prefs PreferenceReader
}

// New creates a search service.
func New(repo Repository, prefs PreferenceReader) *Service {
	return &Service{repo: repo, prefs: prefs}
}

// Search normalizes and validates criteria, then returns one ranked page.
func (s *Service) Search(ctx context.Context, c *domsearch.Criteria) (domsearch.Page, error) {
	c.Normalize()
	if err := c.Validate(); err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("search", "invalid").Inc()
		return domsearch.Page{}, err
	}

	page, err := s.repo.Search(ctx, c)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("search", "error").Inc()
		return domsearch.Page{}, fmt.Errorf("search: %w", err)
	}
	metrics.SearchRequestsTotal.WithLabelValues("search", "ok").Inc()
	return page, nil
}

// Similar returns documents ranked by overlap with the given perfume.
func (s *Service) Similar(ctx context.Context, id string, limit int) ([]domdoc.Document, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: perfume id is required", domain.ErrInvalidCriteria)
	}

	docs, err := s.repo.FindSimilar(ctx, id, clampLimit(limit))
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("similar", "error").Inc()
		return nil, fmt.Errorf("find similar: %w", err)
	}
	metrics.SearchRequestsTotal.WithLabelValues("similar", "ok").Inc()
	return docs, nil
}

// Recommend ranks documents against the member's stored preference vector.
// Members without a vector get an empty list, not an error.
func (s *Service) Recommend(ctx context.Context, memberID string, limit int) ([]domdoc.Document, error) {
	if memberID == "" {
		return nil, fmt.Errorf("%w: member id is required", domain.ErrInvalidCriteria)
	}

	v, err := s.prefs.Get(ctx, memberID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.SearchRequestsTotal.WithLabelValues("recommend", "cold").Inc()
			return []domdoc.Document{}, nil
		}
		metrics.SearchRequestsTotal.WithLabelValues("recommend", "error").Inc()
		return nil, fmt.Errorf("load preference vector: %w", err)
	}

	return s.RecommendByVector(ctx, v, limit)
}

// RecommendByVector ranks documents against a caller-supplied vector.
func (s *Service) RecommendByVector(ctx context.Context, v dompref.Vector, limit int) ([]domdoc.Document, error) {
	docs, err := s.repo.FindRecommended(ctx, v, clampLimit(limit))
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("recommend", "error").Inc()
		return nil, fmt.Errorf("find recommended: %w", err)
	}
	metrics.SearchRequestsTotal.WithLabelValues("recommend", "ok").Inc()
	return docs, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
