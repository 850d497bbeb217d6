package liveness

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roylee0704/gron"
	"github.com/rpggio/codepulse/internal/metrics"
)

const (
	DefaultInterval  = 10 * time.Second
	DefaultThreshold = 30 * time.Second
	tickTimeout      = 5 * time.Second
)

// Demoter marks sessions with a heartbeat older than cutoff as offline and
// unfocused, returning how many changed.
type Demoter interface {
	DemoteStale(ctx context.Context, cutoff time.Time) (int64, error)
}

// Sweeper periodically demotes sessions that stopped sending heartbeats.
type Sweeper struct {
	store     Demoter
	interval  time.Duration
	threshold time.Duration
	logger    *slog.Logger
	metrics   metrics.Provider
	now       func() time.Time

	cron *gron.Cron

	// mu serializes sweeps; stopped is guarded by it.
	mu      sync.Mutex
	stopped bool
}

// NewSweeper creates a sweeper. Zero durations fall back to the defaults.
func NewSweeper(store Demoter, interval, threshold time.Duration, logger *slog.Logger, m metrics.Provider) *Sweeper {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = metrics.Noop()
	}
	return &Sweeper{
		store:     store,
		interval:  interval,
		threshold: threshold,
		logger:    logger,
		metrics:   m,
		now:       time.Now,
	}
}

// Sweep runs one demotion pass.
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(ctx)
}

func (s *Sweeper) sweepLocked(ctx context.Context) (int64, error) {
	started := time.Now()
	cutoff := s.now().Add(-s.threshold)
	demoted, err := s.store.DemoteStale(ctx, cutoff)
	s.metrics.ObserveSweepDuration(time.Since(started))
	if err != nil {
		return 0, fmt.Errorf("demoting stale sessions: %w", err)
	}
	s.metrics.AddSessionsDemoted(demoted)
	return demoted, nil
}

// Start schedules Sweep every interval. Failed ticks are logged and the
// schedule continues.
func (s *Sweeper) Start() {
	s.cron = gron.New()
	s.cron.AddFunc(gron.Every(s.interval), s.tick)
	s.cron.Start()
	s.logger.Info("liveness sweeper started", "interval", s.interval, "threshold", s.threshold)
}

// Stop halts the schedule and waits for a sweep already in flight, so the
// store can be closed once Stop returns. Ticks fired after Stop are skipped.
// Safe to call before Start.
func (s *Sweeper) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}

	s.mu.Lock()
	wasStopped := s.stopped
	s.stopped = true
	s.mu.Unlock()

	if s.cron != nil && !wasStopped {
		s.logger.Info("liveness sweeper stopped")
	}
}

func (s *Sweeper) tick() {
	defer func() {
		if r := recover(); r != nil {
			s.metrics.IncSweepFailures()
			s.logger.Error("liveness sweep panicked", "panic", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), tickTimeout)
	defer cancel()

	demoted, ran, err := s.scheduledSweep(ctx)
	if !ran {
		return
	}
	if err != nil {
		s.metrics.IncSweepFailures()
		s.logger.Error("liveness sweep failed", "error", err)
		return
	}
	if demoted > 0 {
		s.logger.Info("demoted stale sessions", "count", demoted)
	}
}

func (s *Sweeper) scheduledSweep(ctx context.Context) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return 0, false, nil
	}
	demoted, err := s.sweepLocked(ctx)
	return demoted, true, err
}
