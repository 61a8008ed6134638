package search

import (
	"errors"
	"testing"

	"github.com/scentlab/scentdex/internal/domain"
	"github.com/scentlab/scentdex/internal/domain/document"
)

func TestNormalize_Defaults(t *testing.T) {
	c := Criteria{}
	c.Normalize()

	if c.SortBy != SortRelevance {
		t.Errorf("sort = %q, want relevance", c.SortBy)
	}
	if c.PageSize != DefaultPageSize {
		t.Errorf("page size = %d, want %d", c.PageSize, DefaultPageSize)
	}
	if c.PageIndex != 0 {
		t.Errorf("page index = %d, want 0", c.PageIndex)
	}
}

func TestNormalize_TrimsAndUppercasesNoteType(t *testing.T) {
	c := Criteria{
		Keyword:   "  oud  ",
		BrandName: " Dior ",
		NoteType:  " base ",
		NoteName:  " Vanilla ",
	}
	c.Normalize()

	if c.Keyword != "oud" || c.BrandName != "Dior" || c.NoteName != "Vanilla" {
		t.Errorf("trim failed: %+v", c)
	}
	if c.NoteType != "BASE" {
		t.Errorf("note type = %q, want BASE", c.NoteType)
	}
}

func TestNormalize_ClampsPageSize(t *testing.T) {
	c := Criteria{PageSize: MaxPageSize + 50, PageIndex: -3}
	c.Normalize()

	if c.PageSize != MaxPageSize {
		t.Errorf("page size = %d, want %d", c.PageSize, MaxPageSize)
	}
	if c.PageIndex != 0 {
		t.Errorf("negative page index should clamp to 0, got %d", c.PageIndex)
	}
}

func TestValidate_YearRange(t *testing.T) {
	c := Criteria{FromYear: 2020, ToYear: 2010, SortBy: SortRelevance, PageSize: 10}
	if err := c.Validate(); !errors.Is(err, domain.ErrInvalidCriteria) {
		t.Errorf("expected ErrInvalidCriteria, got %v", err)
	}
}

func TestValidate_RatingRange(t *testing.T) {
	c := Criteria{MinRating: 4.5, MaxRating: 3, SortBy: SortRelevance, PageSize: 10}
	if err := c.Validate(); !errors.Is(err, domain.ErrInvalidCriteria) {
		t.Errorf("expected ErrInvalidCriteria, got %v", err)
	}
}

func TestValidate_NegativeRating(t *testing.T) {
	c := Criteria{MinRating: -1, SortBy: SortRelevance, PageSize: 10}
	if err := c.Validate(); !errors.Is(err, domain.ErrInvalidCriteria) {
		t.Errorf("expected ErrInvalidCriteria, got %v", err)
	}
}

func TestValidate_UnknownSort(t *testing.T) {
	c := Criteria{SortBy: "popularity", PageSize: 10}
	if err := c.Validate(); !errors.Is(err, domain.ErrInvalidCriteria) {
		t.Errorf("expected ErrInvalidCriteria, got %v", err)
	}
}

func TestValidate_UnknownNoteType(t *testing.T) {
	c := Criteria{NoteType: "HEART", NoteName: "vanilla", SortBy: SortRelevance, PageSize: 10}
	if err := c.Validate(); !errors.Is(err, domain.ErrInvalidCriteria) {
		t.Errorf("expected ErrInvalidCriteria, got %v", err)
	}
}

func TestValidate_OpenEndedBoundsAllowed(t *testing.T) {
	// Zero-valued bounds mean "unbounded", so min without max is fine.
	c := Criteria{FromYear: 2010, MinRating: 3.5, SortBy: SortRatingDesc, PageSize: 10}
	if err := c.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestHasKeyword(t *testing.T) {
	c := Criteria{Keyword: "oud"}
	if !c.HasKeyword() {
		t.Error("expected keyword")
	}
	c.Keyword = ""
	if c.HasKeyword() {
		t.Error("expected no keyword")
	}
}

func TestPage_HasMore(t *testing.T) {
	p := Page{Items: make([]document.Document, 20), Total: 45, PageIndex: 1, PageSize: 20}
	if !p.HasMore() {
		t.Error("page 1 of 45/20 should have more")
	}

	p.PageIndex = 2
	p.Items = make([]document.Document, 5)
	if p.HasMore() {
		t.Error("last page should not have more")
	}
}
