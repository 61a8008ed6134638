package chi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	chirouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/scentlab/scentdex/internal/domain"
	domdoc "github.com/scentlab/scentdex/internal/domain/document"
	domperfume "github.com/scentlab/scentdex/internal/domain/perfume"
	dompref "github.com/scentlab/scentdex/internal/domain/preference"
	domsearch "github.com/scentlab/scentdex/internal/domain/search"
	healthuc "github.com/scentlab/scentdex/internal/usecase/health"
	indexinguc "github.com/scentlab/scentdex/internal/usecase/indexing"
	prefuc "github.com/scentlab/scentdex/internal/usecase/preference"
	searchuc "github.com/scentlab/scentdex/internal/usecase/search"
)

type mockSearchRepo struct {
	searchFn    func(ctx context.Context, c *domsearch.Criteria) (domsearch.Page, error)
	similarFn   func(ctx context.Context, id string, limit int) ([]domdoc.Document, error)
	recommendFn func(ctx context.Context, v dompref.Vector, limit int) ([]domdoc.Document, error)
}

func (m *mockSearchRepo) Search(ctx context.Context, c *domsearch.Criteria) (domsearch.Page, error) {
	return m.searchFn(ctx, c)
}

func (m *mockSearchRepo) FindSimilar(ctx context.Context, id string, limit int) ([]domdoc.Document, error) {
	return m.similarFn(ctx, id, limit)
}

func (m *mockSearchRepo) FindRecommended(ctx context.Context, v dompref.Vector, limit int) ([]domdoc.Document, error) {
	return m.recommendFn(ctx, v, limit)
}

type mockPrefReader struct {
	getFn func(ctx context.Context, memberID string) (dompref.Vector, error)
}

func (m *mockPrefReader) Get(ctx context.Context, memberID string) (dompref.Vector, error) {
	return m.getFn(ctx, memberID)
}

type mockCatalogue struct {
	loadFn   func(ctx context.Context, id string) (*domperfume.Aggregate, error)
	eachIDFn func(ctx context.Context, fn func(id string) error) error
}

func (m *mockCatalogue) Load(ctx context.Context, id string) (*domperfume.Aggregate, error) {
	return m.loadFn(ctx, id)
}

func (m *mockCatalogue) EachID(ctx context.Context, fn func(id string) error) error {
	if m.eachIDFn == nil {
		return nil
	}
	return m.eachIDFn(ctx, fn)
}

type mockDocs struct {
	mu       sync.Mutex
	upserted []string

	upsertErr error
}

func (m *mockDocs) Upsert(_ context.Context, doc *domdoc.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upserted = append(m.upserted, doc.ID)
	return nil
}

func (m *mockDocs) Delete(context.Context, string) error { return nil }
func (m *mockDocs) EnsureIndex(context.Context) error    { return nil }
func (m *mockDocs) Count(context.Context) (int, error)   { return 0, nil }

type mockAffinity struct {
	membersFn func(ctx context.Context) ([]string, error)
}

func (m *mockAffinity) MemberIDs(ctx context.Context) ([]string, error) {
	if m.membersFn == nil {
		return nil, nil
	}
	return m.membersFn(ctx)
}

func (m *mockAffinity) NoteAffinity(context.Context, string, float64) (map[string]float64, error) {
	return nil, nil
}

func (m *mockAffinity) AccordAffinity(context.Context, string, float64) (map[string]float64, error) {
	return nil, nil
}

func (m *mockAffinity) BrandAffinity(context.Context, string, float64) (map[string]float64, error) {
	return nil, nil
}

type mockVectors struct {
	getFn func(ctx context.Context, memberID string) (dompref.Vector, error)
}

func (m *mockVectors) Put(context.Context, string, dompref.Vector) error { return nil }

func (m *mockVectors) Get(ctx context.Context, memberID string) (dompref.Vector, error) {
	if m.getFn == nil {
		return dompref.Vector{}, domain.ErrNotFound
	}
	return m.getFn(ctx, memberID)
}

func (m *mockVectors) Delete(context.Context, string) error { return nil }

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(context.Context) error { return m.err }

type serverDeps struct {
	repo      *mockSearchRepo
	prefs     *mockPrefReader
	catalogue *mockCatalogue
	docs      *mockDocs
	affinity  *mockAffinity
	vectors   *mockVectors
	store     *mockPinger
}

func defaultDeps() *serverDeps {
	return &serverDeps{
		repo: &mockSearchRepo{
			searchFn: func(context.Context, *domsearch.Criteria) (domsearch.Page, error) {
				return domsearch.Page{Items: []domdoc.Document{}}, nil
			},
			similarFn: func(context.Context, string, int) ([]domdoc.Document, error) {
				return nil, nil
			},
			recommendFn: func(context.Context, dompref.Vector, int) ([]domdoc.Document, error) {
				return nil, nil
			},
		},
		prefs:     &mockPrefReader{getFn: func(context.Context, string) (dompref.Vector, error) { return dompref.Vector{}, domain.ErrNotFound }},
		catalogue: &mockCatalogue{loadFn: func(context.Context, string) (*domperfume.Aggregate, error) { return nil, domain.ErrNotFound }},
		docs:      &mockDocs{},
		affinity:  &mockAffinity{},
		vectors:   &mockVectors{},
		store:     &mockPinger{},
	}
}

func newTestRouter(t *testing.T, deps *serverDeps) http.Handler {
	t.Helper()

	server := NewServer(
		searchuc.New(deps.repo, deps.prefs),
		indexinguc.New(deps.catalogue, deps.docs),
		prefuc.New(deps.affinity, deps.vectors),
		healthuc.New(deps.store, nil),
		zap.NewNop(),
	)

	r := chirouter.NewRouter()
	server.Routes(r)
	return r
}

func doRequest(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, http.NoBody)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return resp
}

func TestSearchPerfumes_ReturnsPage(t *testing.T) {
	deps := defaultDeps()
	deps.repo.searchFn = func(_ context.Context, c *domsearch.Criteria) (domsearch.Page, error) {
		if c.BrandName != "Dior" {
			t.Errorf("brand filter not passed through, got %q", c.BrandName)
		}
		return domsearch.Page{
			Items: []domdoc.Document{
				{ID: "1", Name: "Sauvage", BrandName: "Dior", Rating: 4.2},
			},
			Total:     11,
			PageIndex: 0,
			PageSize:  10,
		}, nil
	}
	h := newTestRouter(t, deps)

	rr := doRequest(t, h, http.MethodGet, "/api/v1/perfumes/search?brand=Dior&pageSize=10")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d, body %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp SearchPageResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].Name != "Sauvage" {
		t.Errorf("unexpected items: %+v", resp.Items)
	}
	if resp.Total != 11 || !resp.HasMore {
		t.Errorf("pagination: total=%d hasMore=%v", resp.Total, resp.HasMore)
	}
}

func TestSearchPerfumes_MalformedNumberIs400(t *testing.T) {
	h := newTestRouter(t, defaultDeps())

	rr := doRequest(t, h, http.MethodGet, "/api/v1/perfumes/search?fromYear=abc")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
	if resp := decodeError(t, rr); resp.Code != CodeBadRequest {
		t.Errorf("error code: got %s, want %s", resp.Code, CodeBadRequest)
	}
}

func TestSearchPerfumes_InvalidCriteriaIs400(t *testing.T) {
	h := newTestRouter(t, defaultDeps())

	// fromYear > toYear violates the range invariant.
	rr := doRequest(t, h, http.MethodGet, "/api/v1/perfumes/search?fromYear=2020&toYear=2010")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
	if resp := decodeError(t, rr); resp.Code != CodeValidationFailed {
		t.Errorf("error code: got %s, want %s", resp.Code, CodeValidationFailed)
	}
}

func TestSearchPerfumes_StoreDownIs503(t *testing.T) {
	deps := defaultDeps()
	deps.repo.searchFn = func(context.Context, *domsearch.Criteria) (domsearch.Page, error) {
		return domsearch.Page{}, domain.ErrStoreUnavailable
	}
	h := newTestRouter(t, deps)

	rr := doRequest(t, h, http.MethodGet, "/api/v1/perfumes/search")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
	if resp := decodeError(t, rr); resp.Code != CodeStoreUnavailable {
		t.Errorf("error code: got %s, want %s", resp.Code, CodeStoreUnavailable)
	}
}

func TestSimilarPerfumes_ReturnsList(t *testing.T) {
	deps := defaultDeps()
	deps.repo.similarFn = func(_ context.Context, id string, limit int) ([]domdoc.Document, error) {
		if id != "42" {
			t.Errorf("id not passed through, got %q", id)
		}
		if limit != 5 {
			t.Errorf("limit not passed through, got %d", limit)
		}
		return []domdoc.Document{{ID: "7", Name: "Aventus"}}, nil
	}
	h := newTestRouter(t, deps)

	rr := doRequest(t, h, http.MethodGet, "/api/v1/perfumes/42/similar?limit=5")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d, body %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp PerfumeListResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].ID != "7" {
		t.Errorf("unexpected items: %+v", resp.Items)
	}
}

func TestMemberRecommendations_ColdMemberIsEmpty200(t *testing.T) {
	h := newTestRouter(t, defaultDeps())

	rr := doRequest(t, h, http.MethodGet, "/api/v1/members/77/recommendations")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}

	var resp PerfumeListResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Items) != 0 {
		t.Errorf("cold member should get an empty list, got %+v", resp.Items)
	}
}

func TestMemberRecommendations_UsesStoredVector(t *testing.T) {
	deps := defaultDeps()
	deps.prefs.getFn = func(_ context.Context, memberID string) (dompref.Vector, error) {
		if memberID != "5" {
			t.Errorf("member id not passed through, got %q", memberID)
		}
		return dompref.Vector{Accords: map[string]float64{"woody": 1.0}}, nil
	}
	deps.repo.recommendFn = func(_ context.Context, v dompref.Vector, _ int) ([]domdoc.Document, error) {
		if v.Accords["woody"] != 1.0 {
			t.Errorf("vector not passed through: %+v", v)
		}
		return []domdoc.Document{{ID: "9"}}, nil
	}
	h := newTestRouter(t, deps)

	rr := doRequest(t, h, http.MethodGet, "/api/v1/members/5/recommendations")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d, body %s", rr.Code, http.StatusOK, rr.Body.String())
	}
}

func TestStartReindex_Accepted(t *testing.T) {
	h := newTestRouter(t, defaultDeps())

	rr := doRequest(t, h, http.MethodPost, "/api/v1/admin/reindex")
	if rr.Code != http.StatusAccepted {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusAccepted)
	}

	var resp JobResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Started {
		t.Error("expected started=true")
	}
}

func TestStartReindex_ConflictWhileRunning(t *testing.T) {
	release := make(chan struct{})
	walking := make(chan struct{})

	deps := defaultDeps()
	deps.catalogue.eachIDFn = func(_ context.Context, _ func(id string) error) error {
		close(walking)
		<-release
		return nil
	}
	h := newTestRouter(t, deps)

	first := doRequest(t, h, http.MethodPost, "/api/v1/admin/reindex")
	if first.Code != http.StatusAccepted {
		t.Fatalf("first: got %d, want %d", first.Code, http.StatusAccepted)
	}

	select {
	case <-walking:
	case <-time.After(2 * time.Second):
		t.Fatal("background reindex never started")
	}

	second := doRequest(t, h, http.MethodPost, "/api/v1/admin/reindex")
	close(release)
	if second.Code != http.StatusConflict {
		t.Fatalf("second: got %d, want %d", second.Code, http.StatusConflict)
	}
	if resp := decodeError(t, second); resp.Code != CodeConflict {
		t.Errorf("error code: got %s, want %s", resp.Code, CodeConflict)
	}
}

func TestReindexPerfume_MissingPerfumeDeletesAnd204(t *testing.T) {
	// Load returns ErrNotFound; the indexing service converges by deleting
	// the stale document, so the admin call still succeeds.
	h := newTestRouter(t, defaultDeps())

	rr := doRequest(t, h, http.MethodPost, "/api/v1/admin/reindex/404")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want %d, body %s", rr.Code, http.StatusNoContent, rr.Body.String())
	}
}

func TestReindexPerfume_StoreDownIs503(t *testing.T) {
	deps := defaultDeps()
	deps.catalogue.loadFn = func(context.Context, string) (*domperfume.Aggregate, error) {
		return &domperfume.Aggregate{ID: "3", Name: "Test", Brand: domperfume.Brand{ID: 1, Name: "House"}}, nil
	}
	deps.docs.upsertErr = domain.ErrStoreUnavailable
	h := newTestRouter(t, deps)

	rr := doRequest(t, h, http.MethodPost, "/api/v1/admin/reindex/3")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
}

func TestStartPreferenceRecompute_Accepted(t *testing.T) {
	h := newTestRouter(t, defaultDeps())

	rr := doRequest(t, h, http.MethodPost, "/api/v1/admin/preferences/recompute")
	if rr.Code != http.StatusAccepted {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusAccepted)
	}
}

func TestHealthCheck_OK(t *testing.T) {
	h := newTestRouter(t, defaultDeps())

	rr := doRequest(t, h, http.MethodGet, "/health")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}

	var resp HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" || resp.Checks["store"] != "ok" {
		t.Errorf("unexpected report: %+v", resp)
	}
}

func TestHealthCheck_DegradedIs503(t *testing.T) {
	deps := defaultDeps()
	deps.store.err = domain.ErrStoreUnavailable
	h := newTestRouter(t, deps)

	rr := doRequest(t, h, http.MethodGet, "/health")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
}
