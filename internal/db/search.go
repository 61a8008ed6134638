package db

// SearchQuery is the input for an FT.SEARCH execution. Query is a fully built
// RediSearch query string (see query.go helpers).
type SearchQuery struct {
	IndexName    string
	Query        string
	WithScores   bool
	Offset       int
	Limit        int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
