// Package search composes multi-criteria perfume queries against the FT
// index and ranks candidates with a total, deterministic order so pagination
// stays stable.
package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/scentlab/scentdex/internal/db"
	"github.com/scentlab/scentdex/internal/domain"
	domdoc "github.com/scentlab/scentdex/internal/domain/document"
	"github.com/scentlab/scentdex/internal/domain/preference"
	domsearch "github.com/scentlab/scentdex/internal/domain/search"
	docrepo "github.com/scentlab/scentdex/internal/repository/document"
)

// DefaultCandidateCap bounds how many candidates a single ranking pass pulls
// from the store. Pages past the cap are not reachable; the cap is a tunable.
const DefaultCandidateCap = 10000

// store is the consumer interface for search operations (ISP).
type store interface {
	Search(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error)
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
}

// Repo implements the search/similarity/recommendation read port.
type Repo struct {
	store        store
	candidateCap int
}

// New creates a search repository.
func New(s store) *Repo {
	return &Repo{store: s, candidateCap: DefaultCandidateCap}
}

// WithCandidateCap overrides the ranking candidate bound.
func (r *Repo) WithCandidateCap(n int) *Repo {
	if n > 0 {
		r.candidateCap = n
	}
	return r
}

// Search runs a multi-criteria query and returns one ranked page.
// Criteria are assumed validated by the caller; an implicit approved filter
// is always applied so unapproved documents never surface.
func (r *Repo) Search(ctx context.Context, c *domsearch.Criteria) (domsearch.Page, error) {
	query := buildQuery(c)
	withScores := c.SortBy == domsearch.SortRelevance && c.HasKeyword()

	sr, err := r.store.Search(ctx, &db.SearchQuery{
		IndexName:    docrepo.IndexName,
		Query:        query,
		WithScores:   withScores,
		Offset:       0,
		Limit:        r.candidateCap,
		ReturnFields: []string{"$"},
	})
	if err != nil {
		return domsearch.Page{}, fmt.Errorf("search: %w: %w", domain.ErrStoreUnavailable, err)
	}

	hits := parseHits(sr)
	sortHits(hits, c.SortBy)

	page := domsearch.Page{
		Total:     sr.Total,
		PageIndex: c.PageIndex,
		PageSize:  c.PageSize,
	}

	start := c.PageIndex * c.PageSize
	if start >= len(hits) {
		page.Items = []domdoc.Document{}
		return page, nil
	}
	end := start + c.PageSize
	if end > len(hits) {
		end = len(hits)
	}

	page.Items = make([]domdoc.Document, 0, end-start)
	for _, h := range hits[start:end] {
		page.Items = append(page.Items, h.doc)
	}
	return page, nil
}

// FindSimilar ranks approved documents by weighted overlap with the
// reference document. An absent reference yields an empty result, not an
// error: search is best-effort.
func (r *Repo) FindSimilar(ctx context.Context, id string, limit int) ([]domdoc.Document, error) {
	if limit <= 0 {
		return []domdoc.Document{}, nil
	}

	raw, err := r.store.JSONGet(ctx, docrepo.Key(id), "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return []domdoc.Document{}, nil
		}
		return nil, fmt.Errorf("load reference %s: %w: %w", id, domain.ErrStoreUnavailable, err)
	}

	ref, err := docrepo.ParseEntryJSON(string(raw))
	if err != nil {
		return nil, fmt.Errorf("parse reference %s: %w", id, err)
	}

	query := buildSimilarQuery(&ref)
	if query == "" {
		return []domdoc.Document{}, nil
	}

	sr, err := r.store.Search(ctx, &db.SearchQuery{
		IndexName:    docrepo.IndexName,
		Query:        query,
		Offset:       0,
		Limit:        r.candidateCap,
		ReturnFields: []string{"$"},
	})
	if err != nil {
		return nil, fmt.Errorf("similar candidates: %w: %w", domain.ErrStoreUnavailable, err)
	}

	hits := parseHits(sr)
	scored := make([]hit, 0, len(hits))
	for _, h := range hits {
		if h.doc.ID == ref.ID {
			continue
		}
		h.score = similarityScore(&ref, &h.doc)
		scored = append(scored, h)
	}

	sortByScore(scored)
	return takeDocs(scored, limit), nil
}

// FindRecommended scores approved documents against a member preference
// vector. A vector without positive weights yields an empty result.
func (r *Repo) FindRecommended(
	ctx context.Context, v preference.Vector, limit int,
) ([]domdoc.Document, error) {
	if limit <= 0 || v.IsZero() {
		return []domdoc.Document{}, nil
	}

	query := buildRecommendQuery(v)
	if query == "" {
		return []domdoc.Document{}, nil
	}

	sr, err := r.store.Search(ctx, &db.SearchQuery{
		IndexName:    docrepo.IndexName,
		Query:        query,
		Offset:       0,
		Limit:        r.candidateCap,
		ReturnFields: []string{"$"},
	})
	if err != nil {
		return nil, fmt.Errorf("recommend candidates: %w: %w", domain.ErrStoreUnavailable, err)
	}

	hits := parseHits(sr)
	scored := make([]hit, 0, len(hits))
	for _, h := range hits {
		score := preferenceScore(v, &h.doc)
		if score <= 0 {
			continue
		}
		h.score = score
		scored = append(scored, h)
	}

	sortByScore(scored)
	return takeDocs(scored, limit), nil
}

// --- query building ---

const approvedFilter = "@approved:{true}"

func buildQuery(c *domsearch.Criteria) string {
	clauses := []string{approvedFilter}

	if c.BrandName != "" {
		clauses = append(clauses, db.TagFilter("brand", c.BrandName))
	}
	if c.NoteName != "" {
		if c.NoteType != "" {
			token := strings.ToLower(c.NoteType) + ":" + strings.ToLower(c.NoteName)
			clauses = append(clauses, db.TagFilter("note_tokens", token))
		} else {
			clauses = append(clauses, db.TagFilter("note_names", strings.ToLower(c.NoteName)))
		}
	}
	if c.Accord != "" {
		clauses = append(clauses, db.TagFilter("accords", strings.ToLower(c.Accord)))
	}
	if c.FromYear != 0 || c.ToYear != 0 {
		clauses = append(clauses, db.NumericFilter("release_year",
			float64(c.FromYear), c.FromYear != 0,
			float64(c.ToYear), c.ToYear != 0,
		))
	}
	if c.MinRating != 0 || c.MaxRating != 0 {
		clauses = append(clauses, db.NumericFilter("rating",
			c.MinRating, c.MinRating != 0,
			c.MaxRating, c.MaxRating != 0,
		))
	}
	if c.HasKeyword() {
		clauses = append(clauses, db.TextClause(
			[]string{"name", "description", "brand_text", "designers"}, c.Keyword,
		))
	}

	return db.And(clauses...)
}

func buildSimilarQuery(ref *domdoc.Document) string {
	var dims []string

	if ref.BrandName != "" {
		dims = append(dims, db.TagFilter("brand", ref.BrandName))
	}
	if len(ref.AccordNames) > 0 {
		dims = append(dims, db.TagOrFilter("accords", ref.AccordNames))
	}
	if len(ref.NoteTokens) > 0 {
		dims = append(dims, db.TagOrFilter("note_tokens", ref.NoteTokens))
	}
	if ref.ReleaseYear != 0 {
		dims = append(dims, db.NumericFilter("release_year",
			float64(ref.ReleaseYear-similarYearWindow), true,
			float64(ref.ReleaseYear+similarYearWindow), true,
		))
	}

	group := db.OrGroup(dims...)
	if group == "" {
		return ""
	}
	return db.And(approvedFilter, group)
}

func buildRecommendQuery(v preference.Vector) string {
	var dims []string

	if names := positiveKeys(v.Notes); len(names) > 0 {
		dims = append(dims, db.TagOrFilter("note_names", names))
	}
	if names := positiveKeys(v.Accords); len(names) > 0 {
		dims = append(dims, db.TagOrFilter("accords", names))
	}
	if names := positiveKeys(v.Brands); len(names) > 0 {
		dims = append(dims, db.TagOrFilter("brand", names))
	}

	group := db.OrGroup(dims...)
	if group == "" {
		return ""
	}
	return db.And(approvedFilter, group)
}

func positiveKeys(weights map[string]float64) []string {
	keys := make([]string, 0, len(weights))
	for k, w := range weights {
		if w > 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// --- result handling ---

type hit struct {
	doc   domdoc.Document
	score float64
}

func parseHits(sr *db.SearchResult) []hit {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}
	hits := make([]hit, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		raw, ok := entry.Fields["$"]
		if !ok {
			continue
		}
		doc, err := docrepo.ParseEntryJSON(raw)
		if err != nil {
			continue
		}
		if doc.ID == "" {
			doc.ID = docrepo.IDFromKey(entry.Key)
		}
		hits = append(hits, hit{doc: doc, score: entry.Score})
	}
	return hits
}

// sortHits applies the sort mode with id as the final tiebreak, giving a
// total order for stable pagination.
func sortHits(hits []hit, mode domsearch.SortBy) {
	switch mode {
	case domsearch.SortRatingDesc:
		sort.Slice(hits, func(i, j int) bool {
			if hits[i].doc.Rating != hits[j].doc.Rating {
				return hits[i].doc.Rating > hits[j].doc.Rating
			}
			return idLess(hits[i].doc.ID, hits[j].doc.ID)
		})
	case domsearch.SortYearDesc:
		sort.Slice(hits, func(i, j int) bool {
			if hits[i].doc.ReleaseYear != hits[j].doc.ReleaseYear {
				return hits[i].doc.ReleaseYear > hits[j].doc.ReleaseYear
			}
			return idLess(hits[i].doc.ID, hits[j].doc.ID)
		})
	case domsearch.SortNameAsc:
		sort.Slice(hits, func(i, j int) bool {
			ni := strings.ToLower(hits[i].doc.Name)
			nj := strings.ToLower(hits[j].doc.Name)
			if ni != nj {
				return ni < nj
			}
			return idLess(hits[i].doc.ID, hits[j].doc.ID)
		})
	default: // relevance
		sortByScore(hits)
	}
}

// sortByScore orders score desc, then rating desc, then id asc.
func sortByScore(hits []hit) {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		if hits[i].doc.Rating != hits[j].doc.Rating {
			return hits[i].doc.Rating > hits[j].doc.Rating
		}
		return idLess(hits[i].doc.ID, hits[j].doc.ID)
	})
}

// idLess compares ids numerically when both parse as integers, falling back
// to lexical order. Keeps "2" before "10" for numeric id schemes.
func idLess(a, b string) bool {
	ai, aerr := strconv.ParseInt(a, 10, 64)
	bi, berr := strconv.ParseInt(b, 10, 64)
	if aerr == nil && berr == nil {
		return ai < bi
	}
	return a < b
}

func takeDocs(hits []hit, limit int) []domdoc.Document {
	if len(hits) > limit {
		hits = hits[:limit]
	}
	docs := make([]domdoc.Document, 0, len(hits))
	for _, h := range hits {
		docs = append(docs, h.doc)
	}
	return docs
}
