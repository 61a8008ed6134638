// Package preference persists member preference vectors as JSON documents,
// keyed by member id. Vectors are computed offline and read at
// recommendation time.
package preference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/scentlab/scentdex/internal/db"
	"github.com/scentlab/scentdex/internal/domain"
	dompref "github.com/scentlab/scentdex/internal/domain/preference"
)

const keyPrefix = domain.KeyPrefix + "pref:"

// Key returns the store key for a member's preference vector.
func Key(memberID string) string {
	return keyPrefix + memberID
}

// store is the consumer interface for preference vectors (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	Del(ctx context.Context, key string) error
}

// Repo implements the preference vector port over the store.
type Repo struct {
	store store
}

// New creates a preference repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Put fully replaces the member's stored vector.
func (r *Repo) Put(ctx context.Context, memberID string, v dompref.Vector) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal vector %s: %w", memberID, err)
	}

	key := Key(memberID)
	if err := r.store.JSONSet(ctx, key, "$", data); err != nil {
		return fmt.Errorf("json.set %s: %w: %w", key, domain.ErrStoreUnavailable, err)
	}
	return nil
}

// Get returns the stored vector; domain.ErrNotFound when the member has none.
func (r *Repo) Get(ctx context.Context, memberID string) (dompref.Vector, error) {
	key := Key(memberID)
	raw, err := r.store.JSONGet(ctx, key, "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return dompref.Vector{}, domain.ErrNotFound
		}
		return dompref.Vector{}, fmt.Errorf("json.get %s: %w: %w", key, domain.ErrStoreUnavailable, err)
	}

	var vectors []dompref.Vector
	if err := json.Unmarshal(raw, &vectors); err != nil {
		return dompref.Vector{}, fmt.Errorf("unmarshal vector %s: %w", memberID, err)
	}
	if len(vectors) == 0 {
		return dompref.Vector{}, domain.ErrNotFound
	}
	return vectors[0], nil
}

// Delete removes a member's vector. Absent vectors delete cleanly.
func (r *Repo) Delete(ctx context.Context, memberID string) error {
	key := Key(memberID)
	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w: %w", key, domain.ErrStoreUnavailable, err)
	}
	return nil
}
