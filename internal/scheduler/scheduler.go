// Package scheduler drives the periodic maintenance jobs: full index
// rebuilds and preference vector recomputes. Event-driven sync keeps the
// index fresh between runs; the scheduler repairs whatever events missed.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/scentlab/scentdex/internal/logger"
)

// Reindexer launches full index rebuilds.
type Reindexer interface {
	ReindexAll(ctx context.Context) (indexed, skipped int, err error)
}

// PreferenceRecomputer rebuilds all member preference vectors.
type PreferenceRecomputer interface {
	RecomputeAll(ctx context.Context) (computed, skipped int, err error)
}

// Config holds scheduler intervals.
type Config struct {
	// ReindexInterval is how often the full reindex runs (default: 24h).
	ReindexInterval time.Duration

	// PreferenceInterval is how often preference vectors are rebuilt
	// (default: 168h).
	PreferenceInterval time.Duration

	// RunOnStart triggers both jobs immediately when the scheduler starts.
	RunOnStart bool

	// Enabled controls whether the scheduler is active.
	Enabled bool
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		ReindexInterval:    24 * time.Hour,
		PreferenceInterval: 168 * time.Hour,
		RunOnStart:         false,
		Enabled:            true,
	}
}

// Scheduler runs the periodic jobs until stopped.
type Scheduler struct {
	indexer Reindexer
	prefs   PreferenceRecomputer
	log     *zap.Logger
	config  Config

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New creates a scheduler.
func New(indexer Reindexer, prefs PreferenceRecomputer, log *zap.Logger, config Config) *Scheduler {
	if config.ReindexInterval <= 0 {
		config.ReindexInterval = 24 * time.Hour
	}
	if config.PreferenceInterval <= 0 {
		config.PreferenceInterval = 168 * time.Hour
	}
	return &Scheduler{
		indexer: indexer,
		prefs:   prefs,
		log:     log.With(zap.String("component", "scheduler")),
		config:  config,
	}
}

// Start begins the job loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	if !s.config.Enabled {
		s.log.Info("scheduler disabled")
		go func() {
			defer close(s.doneCh)
			<-s.stopCh
		}()
		return nil
	}

	s.log.Info("starting scheduler",
		zap.Duration("reindex_interval", s.config.ReindexInterval),
		zap.Duration("preference_interval", s.config.PreferenceInterval))

	go s.run(ctx)
	return nil
}

// Stop stops the job loop and waits for in-flight jobs to complete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	close(s.stopCh)
	<-s.doneCh

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.log.Info("scheduler stopped")
}

// IsRunning reports whether the scheduler is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.doneCh)

	reindex := time.NewTicker(s.config.ReindexInterval)
	defer reindex.Stop()
	prefs := time.NewTicker(s.config.PreferenceInterval)
	defer prefs.Stop()

	if s.config.RunOnStart {
		s.runReindex(ctx)
		s.runPreferenceRecompute(ctx)
	}

	for {
		select {
		case <-reindex.C:
			s.runReindex(ctx)
		case <-prefs.C:
			s.runPreferenceRecompute(ctx)
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) runReindex(ctx context.Context) {
	jobCtx := logger.ContextWithLogger(ctx, s.log)
	start := time.Now()

	indexed, skipped, err := s.indexer.ReindexAll(jobCtx)
	if err != nil {
		s.log.Error("scheduled reindex failed", zap.Error(err))
		return
	}
	s.log.Info("scheduled reindex finished",
		zap.Int("indexed", indexed),
		zap.Int("skipped", skipped),
		zap.Duration("took", time.Since(start)))
}

func (s *Scheduler) runPreferenceRecompute(ctx context.Context) {
	jobCtx := logger.ContextWithLogger(ctx, s.log)
	start := time.Now()

	computed, skipped, err := s.prefs.RecomputeAll(jobCtx)
	if err != nil {
		s.log.Error("scheduled preference recompute failed", zap.Error(err))
		return
	}
	s.log.Info("scheduled preference recompute finished",
		zap.Int("computed", computed),
		zap.Int("skipped", skipped),
		zap.Duration("took", time.Since(start)))
}
