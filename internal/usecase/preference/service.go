// Package preference derives per-member taste vectors from catalogue votes.
// Vectors are recomputed offline and read by the recommendation path; the
// service never blocks a search on vote aggregation.
package preference

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	dompref "github.com/scentlab/scentdex/internal/domain/preference"
	"github.com/scentlab/scentdex/internal/logger"
)

// MinPositiveRating is the review rating floor for a vote to count as a
// positive taste signal.
const MinPositiveRating = 3.0

// Service computes and stores member preference vectors.
type Service struct {
	affinity AffinityReader
	vectors  VectorStore

	recomputing atomic.Bool
}

// New creates a preference service.
func New(affinity AffinityReader, vectors VectorStore) *Service {
	return &Service{affinity: affinity, vectors: vectors}
}

// ComputeVector aggregates a member's positive votes into a normalized
// vector and stores it. Each dimension is scaled so its strongest weight
// is 1.0; members without positive votes get an empty vector.
func (s *Service) ComputeVector(ctx context.Context, memberID string) (dompref.Vector, error) {
	notes, err := s.affinity.NoteAffinity(ctx, memberID, MinPositiveRating)
	if err != nil {
		return dompref.Vector{}, fmt.Errorf("note affinity %s: %w", memberID, err)
	}
	accords, err := s.affinity.AccordAffinity(ctx, memberID, MinPositiveRating)
	if err != nil {
		return dompref.Vector{}, fmt.Errorf("accord affinity %s: %w", memberID, err)
	}
	brands, err := s.affinity.BrandAffinity(ctx, memberID, MinPositiveRating)
	if err != nil {
		return dompref.Vector{}, fmt.Errorf("brand affinity %s: %w", memberID, err)
	}

	v := dompref.Vector{
		Notes:   normalize(notes),
		Accords: normalize(accords),
		Brands:  normalize(brands),
	}

	if err := s.vectors.Put(ctx, memberID, v); err != nil {
		return dompref.Vector{}, fmt.Errorf("store vector %s: %w", memberID, err)
	}
	return v, nil
}

// VectorFor returns the stored vector; domain.ErrNotFound for cold members.
func (s *Service) VectorFor(ctx context.Context, memberID string) (dompref.Vector, error) {
	v, err := s.vectors.Get(ctx, memberID)
	if err != nil {
		return dompref.Vector{}, fmt.Errorf("load vector %s: %w", memberID, err)
	}
	return v, nil
}

// RecomputeAll rebuilds every voting member's vector. Per-member failures
// are logged and skipped.
func (s *Service) RecomputeAll(ctx context.Context) (computed, skipped int, err error) {
	log := logger.FromContext(ctx)

	members, err := s.affinity.MemberIDs(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("list members: %w", err)
	}

	for _, memberID := range members {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return computed, skipped, ctxErr
		}
		if _, err := s.ComputeVector(ctx, memberID); err != nil {
			skipped++
			log.Warn("preference recompute: skipping member",
				zap.String("member_id", memberID), zap.Error(err))
			continue
		}
		computed++
	}

	log.Info("preference recompute complete",
		zap.Int("computed", computed), zap.Int("skipped", skipped))
	return computed, skipped, nil
}

// StartRecomputeAll launches a full recompute in the background. Only one
// runs at a time; returns false when one is already in flight.
func (s *Service) StartRecomputeAll(ctx context.Context) bool {
	if !s.recomputing.CompareAndSwap(false, true) {
		return false
	}

	log := logger.FromContext(ctx)
	bg := logger.ContextWithLogger(context.Background(), log)

	go func() {
		defer s.recomputing.Store(false)
		if _, _, err := s.RecomputeAll(bg); err != nil {
			log.Error("background preference recompute failed", zap.Error(err))
		}
	}()
	return true
}

// normalize scales weights so the strongest is 1.0.
func normalize(weights map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(weights))
	var max float64
	for _, w := range weights {
		if w > max {
			max = w
		}
	}
	if max <= 0 {
		return out
	}
	for k, w := range weights {
		if w > 0 {
			out[k] = w / max
		}
	}
	return out
}
