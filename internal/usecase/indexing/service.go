// Package indexing keeps the search index in step with the relational
// catalogue: single-perfume upserts driven by events and full rebuilds
// driven by the scheduler or the admin surface.
package indexing

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/scentlab/scentdex/internal/domain"
	"github.com/scentlab/scentdex/internal/logger"
	"github.com/scentlab/scentdex/internal/mapper"
	"github.com/scentlab/scentdex/internal/metrics"
)

// Service orchestrates catalogue reads, mapping and document writes.
type Service struct {
	catalogue CatalogueReader
	docs      DocumentStore

	reindexing atomic.Bool
}

// New creates an indexing service.
func New(catalogue CatalogueReader, docs DocumentStore) *Service {
	return &Service{catalogue: catalogue, docs: docs}
}

// IndexPerfume maps one perfume into the index. A perfume missing from the
// catalogue removes any stale document instead, so replaying events after a
// deletion converges.
func (s *Service) IndexPerfume(ctx context.Context, id string) error {
	agg, err := s.catalogue.Load(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			if delErr := s.docs.Delete(ctx, id); delErr != nil {
				metrics.IndexOpsTotal.WithLabelValues("delete", "error").Inc()
				return fmt.Errorf("delete stale document %s: %w", id, delErr)
			}
			metrics.IndexOpsTotal.WithLabelValues("delete", "ok").Inc()
			return nil
		}
		metrics.IndexOpsTotal.WithLabelValues("upsert", "error").Inc()
		return fmt.Errorf("load perfume %s: %w", id, err)
	}

	doc, err := mapper.ToDocument(agg)
	if err != nil {
		metrics.IndexOpsTotal.WithLabelValues("upsert", "invalid").Inc()
		return fmt.Errorf("map perfume %s: %w", id, err)
	}

	if err := s.docs.Upsert(ctx, &doc); err != nil {
		metrics.IndexOpsTotal.WithLabelValues("upsert", "error").Inc()
		return fmt.Errorf("upsert document %s: %w", id, err)
	}
	metrics.IndexOpsTotal.WithLabelValues("upsert", "ok").Inc()
	return nil
}

// DeletePerfume removes a perfume's document. Absent documents delete
// cleanly, so delete events replay safely.
func (s *Service) DeletePerfume(ctx context.Context, id string) error {
	if err := s.docs.Delete(ctx, id); err != nil {
		metrics.IndexOpsTotal.WithLabelValues("delete", "error").Inc()
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	metrics.IndexOpsTotal.WithLabelValues("delete", "ok").Inc()
	return nil
}

// ReindexAll walks every catalogue perfume and reindexes it. Per-perfume
// failures are logged and skipped; only walk-level failures abort. Returns
// the indexed and skipped counts.
func (s *Service) ReindexAll(ctx context.Context) (indexed, skipped int, err error) {
	log := logger.FromContext(ctx)
	start := time.Now()

	if err := s.docs.EnsureIndex(ctx); err != nil {
		return 0, 0, fmt.Errorf("ensure index: %w", err)
	}

	walkErr := s.catalogue.EachID(ctx, func(id string) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err := s.IndexPerfume(ctx, id); err != nil {
			skipped++
			metrics.IndexOpsTotal.WithLabelValues("skip", "error").Inc()
			log.Warn("reindex: skipping perfume",
				zap.String("perfume_id", id), zap.Error(err))
			return nil
		}
		indexed++
		return nil
	})
	if walkErr != nil {
		return indexed, skipped, fmt.Errorf("walk catalogue: %w", walkErr)
	}

	metrics.ReindexDuration.Observe(time.Since(start).Seconds())
	metrics.ReindexDocuments.WithLabelValues("indexed").Set(float64(indexed))
	metrics.ReindexDocuments.WithLabelValues("skipped").Set(float64(skipped))

	log.Info("reindex complete",
		zap.Int("indexed", indexed),
		zap.Int("skipped", skipped),
		zap.Duration("took", time.Since(start)))
	return indexed, skipped, nil
}

// StartReindexAll launches a full reindex in the background. Only one
// reindex runs at a time; returns false when one is already in flight.
func (s *Service) StartReindexAll(ctx context.Context) bool {
	if !s.reindexing.CompareAndSwap(false, true) {
		return false
	}

	log := logger.FromContext(ctx)
	// The request context dies with the response; the rebuild must not.
	bg := logger.ContextWithLogger(context.Background(), log)

	go func() {
		defer s.reindexing.Store(false)
		if _, _, err := s.ReindexAll(bg); err != nil {
			log.Error("background reindex failed", zap.Error(err))
		}
	}()
	return true
}

// Reindexing reports whether a background rebuild is in flight.
func (s *Service) Reindexing() bool {
	return s.reindexing.Load()
}

// DocumentCount returns the number of documents currently indexed.
func (s *Service) DocumentCount(ctx context.Context) (int, error) {
	n, err := s.docs.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}
