package search

import "github.com/scentlab/scentdex/internal/domain/document"

// Page is one ranked slice of the full result set.
type Page struct {
	Items     []document.Document
	Total     int
	PageIndex int
	PageSize  int
}

// HasMore reports whether later pages exist.
func (p *Page) HasMore() bool {
	return (p.PageIndex+1)*p.PageSize < p.Total
}
