package chi

import (
	"fmt"
	"net/http"
	"strconv"

	domdoc "github.com/scentlab/scentdex/internal/domain/document"
	domsearch "github.com/scentlab/scentdex/internal/domain/search"
)

// ErrorCode identifies the failure class in error responses.
type ErrorCode string

const (
	// CodeBadRequest covers malformed requests.
	CodeBadRequest ErrorCode = "bad_request"
	// CodeValidationFailed covers requests that parse but violate criteria rules.
	CodeValidationFailed ErrorCode = "validation_failed"
	// CodeNotFound covers missing perfumes or members.
	CodeNotFound ErrorCode = "not_found"
	// CodeStoreUnavailable covers search store outages.
	CodeStoreUnavailable ErrorCode = "store_unavailable"
	// CodeConflict covers operations rejected because one is already in flight.
	CodeConflict ErrorCode = "conflict"
	// CodeInternalError covers everything else.
	CodeInternalError ErrorCode = "internal_error"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// NoteResponse is one note association in a perfume response.
type NoteResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// PerfumeResponse is the transport projection of an indexed perfume.
type PerfumeResponse struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Description   string         `json:"description,omitempty"`
	BrandID       int64          `json:"brandId"`
	BrandName     string         `json:"brandName"`
	ReleaseYear   int            `json:"releaseYear,omitempty"`
	Concentration string         `json:"concentration,omitempty"`
	ImageURL      string         `json:"imageUrl,omitempty"`
	Rating        float64        `json:"rating"`
	ReviewCount   int            `json:"reviewCount"`
	Notes         []NoteResponse `json:"notes,omitempty"`
	Accords       []string       `json:"accords,omitempty"`
	Designers     []string       `json:"designers,omitempty"`
}

// SearchPageResponse is one ranked page of search results.
type SearchPageResponse struct {
	Items    []PerfumeResponse `json:"items"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"pageSize"`
	HasMore  bool              `json:"hasMore"`
}

// PerfumeListResponse is an unpaged ranked list (similar, recommendations).
type PerfumeListResponse struct {
	Items []PerfumeResponse `json:"items"`
	Limit int               `json:"limit"`
}

// JobResponse reports whether a background job was started.
type JobResponse struct {
	Started bool `json:"started"`
}

// HealthResponse mirrors the health report.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func perfumeToResponse(d *domdoc.Document) PerfumeResponse {
	resp := PerfumeResponse{
		ID:            d.ID,
		Name:          d.Name,
		Description:   d.Description,
		BrandID:       d.BrandID,
		BrandName:     d.BrandName,
		ReleaseYear:   d.ReleaseYear,
		Concentration: d.Concentration,
		ImageURL:      d.ImageURL,
		Rating:        d.Rating,
		ReviewCount:   d.ReviewCount,
	}

	if len(d.Notes) > 0 {
		resp.Notes = make([]NoteResponse, len(d.Notes))
		for i, n := range d.Notes {
			resp.Notes[i] = NoteResponse{ID: n.ID, Name: n.Name, Type: string(n.Type)}
		}
	}
	if len(d.Accords) > 0 {
		resp.Accords = make([]string, len(d.Accords))
		for i, a := range d.Accords {
			resp.Accords[i] = a.Name
		}
	}
	if len(d.Designers) > 0 {
		resp.Designers = make([]string, len(d.Designers))
		for i, ds := range d.Designers {
			resp.Designers[i] = ds.Name
		}
	}
	return resp
}

func pageToResponse(p *domsearch.Page) SearchPageResponse {
	items := make([]PerfumeResponse, len(p.Items))
	for i := range p.Items {
		items[i] = perfumeToResponse(&p.Items[i])
	}
	return SearchPageResponse{
		Items:    items,
		Total:    p.Total,
		Page:     p.PageIndex,
		PageSize: p.PageSize,
		HasMore:  p.HasMore(),
	}
}

func docsToListResponse(docs []domdoc.Document, limit int) PerfumeListResponse {
	items := make([]PerfumeResponse, len(docs))
	for i := range docs {
		items[i] = perfumeToResponse(&docs[i])
	}
	return PerfumeListResponse{Items: items, Limit: limit}
}

// criteriaFromQuery builds search criteria from query parameters. Numeric
// parameters that fail to parse are rejected here; range and enum rules are
// the criteria's own job.
func criteriaFromQuery(r *http.Request) (domsearch.Criteria, error) {
	q := r.URL.Query()

	c := domsearch.Criteria{
		Keyword:   q.Get("keyword"),
		BrandName: q.Get("brand"),
		NoteType:  q.Get("noteType"),
		NoteName:  q.Get("noteName"),
		Accord:    q.Get("accord"),
		SortBy:    domsearch.SortBy(q.Get("sortBy")),
	}

	var err error
	if c.FromYear, err = intParam(q.Get("fromYear")); err != nil {
		return domsearch.Criteria{}, fmt.Errorf("fromYear: %w", err)
	}
	if c.ToYear, err = intParam(q.Get("toYear")); err != nil {
		return domsearch.Criteria{}, fmt.Errorf("toYear: %w", err)
	}
	if c.MinRating, err = floatParam(q.Get("minRating")); err != nil {
		return domsearch.Criteria{}, fmt.Errorf("minRating: %w", err)
	}
	if c.MaxRating, err = floatParam(q.Get("maxRating")); err != nil {
		return domsearch.Criteria{}, fmt.Errorf("maxRating: %w", err)
	}
	if c.PageIndex, err = intParam(q.Get("page")); err != nil {
		return domsearch.Criteria{}, fmt.Errorf("page: %w", err)
	}
	if c.PageSize, err = intParam(q.Get("pageSize")); err != nil {
		return domsearch.Criteria{}, fmt.Errorf("pageSize: %w", err)
	}

	return c, nil
}

func limitFromQuery(r *http.Request) (int, error) {
	limit, err := intParam(r.URL.Query().Get("limit"))
	if err != nil {
		return 0, fmt.Errorf("limit: %w", err)
	}
	return limit, nil
}

func intParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("not an integer: %q", raw)
	}
	return v, nil
}

func floatParam(raw string) (float64, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", raw)
	}
	return v, nil
}
