package preference

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/scentlab/scentdex/internal/db"
	"github.com/scentlab/scentdex/internal/domain"
	dompref "github.com/scentlab/scentdex/internal/domain/preference"
)

type mockStore struct {
	jsonSetFn func(ctx context.Context, key, path string, data []byte) error
	jsonGetFn func(ctx context.Context, key string, paths ...string) ([]byte, error)
	delFn     func(ctx context.Context, key string) error
}

func (m *mockStore) JSONSet(ctx context.Context, key, path string, data []byte) error {
	if m.jsonSetFn != nil {
		return m.jsonSetFn(ctx, key, path, data)
	}
	return nil
}

func (m *mockStore) JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error) {
	if m.jsonGetFn != nil {
		return m.jsonGetFn(ctx, key, paths...)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockStore) Del(ctx context.Context, key string) error {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	return nil
}

func TestPut_WritesUnderMemberKey(t *testing.T) {
	ms := &mockStore{}
	repo := New(ms)

	var gotKey, gotPath string
	var gotData []byte
	ms.jsonSetFn = func(_ context.Context, key, path string, data []byte) error {
		gotKey, gotPath, gotData = key, path, data
		return nil
	}

	v := dompref.NewVector()
	v.Notes["vanilla"] = 1.0
	if err := repo.Put(context.Background(), "5", v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotKey != "scentdex:pref:5" {
		t.Errorf("unexpected key: %s", gotKey)
	}
	if gotPath != "$" {
		t.Errorf("unexpected path: %s", gotPath)
	}

	var stored dompref.Vector
	if err := json.Unmarshal(gotData, &stored); err != nil {
		t.Fatalf("unmarshal stored vector: %v", err)
	}
	if stored.Notes["vanilla"] != 1.0 {
		t.Errorf("unexpected stored vector: %+v", stored)
	}
}

func TestGet_RoundTrip(t *testing.T) {
	ms := &mockStore{}
	repo := New(ms)

	v := dompref.NewVector()
	v.Accords["woody"] = 0.7
	data, _ := json.Marshal([]dompref.Vector{v})

	ms.jsonGetFn = func(_ context.Context, key string, _ ...string) ([]byte, error) {
		if key != "scentdex:pref:9" {
			t.Errorf("unexpected key: %s", key)
		}
		return data, nil
	}

	got, err := repo.Get(context.Background(), "9")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Accords["woody"] != 0.7 {
		t.Errorf("unexpected vector: %+v", got)
	}
}

func TestGet_Absent(t *testing.T) {
	repo := New(&mockStore{})

	_, err := repo.Get(context.Background(), "404")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGet_StoreError(t *testing.T) {
	ms := &mockStore{
		jsonGetFn: func(_ context.Context, _ string, _ ...string) ([]byte, error) {
			return nil, errors.New("timeout")
		},
	}
	repo := New(ms)

	_, err := repo.Get(context.Background(), "5")
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestDelete_Idempotent(t *testing.T) {
	ms := &mockStore{}
	repo := New(ms)

	if err := repo.Delete(context.Background(), "absent"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
