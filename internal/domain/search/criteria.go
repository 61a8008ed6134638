// Package search defines the caller-supplied query descriptor and the ranked
// page shape returned by the search repository.
package search

import (
	"fmt"
	"strings"

	"github.com/scentlab/scentdex/internal/domain"
)

// SortBy selects the result ordering.
type SortBy string

const (
	// SortRelevance orders by text relevance score (requires a keyword).
	SortRelevance SortBy = "relevance"
	// SortRatingDesc orders by average rating, highest first.
	SortRatingDesc SortBy = "rating_desc"
	// SortYearDesc orders by release year, newest first.
	SortYearDesc SortBy = "year_desc"
	// SortNameAsc orders by name, A to Z.
	SortNameAsc SortBy = "name_asc"
)

// DefaultPageSize is used when the caller omits a page size.
const DefaultPageSize = 20

// MaxPageSize caps caller-supplied page sizes.
const MaxPageSize = 100

// Criteria describes a multi-criteria perfume search. Zero values mean
// "filter absent"; year and rating bounds of 0 are unbounded.
type Criteria struct {
	Keyword   string
	BrandName string
	NoteType  string
	NoteName  string
	Accord    string

	FromYear int
	ToYear   int

	MinRating float64
	MaxRating float64

	SortBy SortBy

	PageIndex int // zero-based
	PageSize  int
}

// Normalize fills defaults and lowercases filter terms. It does not validate.
func (c *Criteria) Normalize() {
	c.Keyword = strings.TrimSpace(c.Keyword)
	c.BrandName = strings.TrimSpace(c.BrandName)
	c.NoteType = strings.ToUpper(strings.TrimSpace(c.NoteType))
	c.NoteName = strings.TrimSpace(c.NoteName)
	c.Accord = strings.TrimSpace(c.Accord)
	if c.SortBy == "" {
		c.SortBy = SortRelevance
	}
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	if c.PageSize > MaxPageSize {
		c.PageSize = MaxPageSize
	}
	if c.PageIndex < 0 {
		c.PageIndex = 0
	}
}

// Validate checks the range invariants. Violations map to ErrInvalidCriteria
// and the query is rejected before touching the store.
func (c *Criteria) Validate() error {
	if c.FromYear != 0 && c.ToYear != 0 && c.FromYear > c.ToYear {
		return fmt.Errorf("%w: fromYear %d > toYear %d", domain.ErrInvalidCriteria, c.FromYear, c.ToYear)
	}
	if c.MinRating != 0 && c.MaxRating != 0 && c.MinRating > c.MaxRating {
		return fmt.Errorf("%w: minRating %.2f > maxRating %.2f", domain.ErrInvalidCriteria, c.MinRating, c.MaxRating)
	}
	if c.MinRating < 0 || c.MaxRating < 0 {
		return fmt.Errorf("%w: rating bounds must be non-negative", domain.ErrInvalidCriteria)
	}
	switch c.SortBy {
	case SortRelevance, SortRatingDesc, SortYearDesc, SortNameAsc:
	default:
		return fmt.Errorf("%w: unknown sort mode %q", domain.ErrInvalidCriteria, c.SortBy)
	}
	if c.NoteName != "" && c.NoteType != "" {
		switch c.NoteType {
		case "TOP", "MIDDLE", "BASE":
		default:
			return fmt.Errorf("%w: unknown note type %q", domain.ErrInvalidCriteria, c.NoteType)
		}
	}
	return nil
}

// HasKeyword reports whether a keyword clause is present.
func (c *Criteria) HasKeyword() bool { return c.Keyword != "" }
