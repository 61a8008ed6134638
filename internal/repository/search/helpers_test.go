package search

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/scentlab/scentdex/internal/db"
	domdoc "github.com/scentlab/scentdex/internal/domain/document"
	docrepo "github.com/scentlab/scentdex/internal/repository/document"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	searchFn  func(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error)
	jsonGetFn func(ctx context.Context, key string, paths ...string) ([]byte, error)
}

func (m *mockStore) Search(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error) {
	if m.jsonGetFn != nil {
		return m.jsonGetFn(ctx, key, paths...)
	}
	return nil, db.ErrKeyNotFound
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	repo := New(ms)
	return repo, ms
}

// entryFor marshals a document into an FT.SEARCH entry the way the store
// returns them for a "$" RETURN field.
func entryFor(t *testing.T, doc domdoc.Document) db.SearchEntry {
	t.Helper()
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal doc: %v", err)
	}
	return db.SearchEntry{
		Key:    docrepo.Key(doc.ID),
		Fields: map[string]string{"$": string(data)},
	}
}

func resultOf(t *testing.T, docs ...domdoc.Document) *db.SearchResult {
	t.Helper()
	entries := make([]db.SearchEntry, 0, len(docs))
	for _, d := range docs {
		entries = append(entries, entryFor(t, d))
	}
	return &db.SearchResult{Total: len(docs), Entries: entries}
}

func jsonGetReply(t *testing.T, doc domdoc.Document) []byte {
	t.Helper()
	data, err := json.Marshal([]domdoc.Document{doc})
	if err != nil {
		t.Fatalf("marshal doc: %v", err)
	}
	return data
}
