package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"podium/internal/platform/tracer"
)

// DefaultInterval is how often expired auth context is purged.
const DefaultInterval = 30 * time.Second

// Sweeper purges expired auth context entries across all browser sessions.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// DurationObserver records how long a sweep took.
type DurationObserver interface {
	ObserveSweepDuration(d time.Duration)
}

// CleanupResult summarizes the deletions performed by a cleanup run.
type CleanupResult struct {
	DeletedEntries int
	Duration       time.Duration
}

// CleanupService periodically removes expired auth context. Reads already
// ignore expired entries, so a missed run only delays reclaiming space.
type CleanupService struct {
	store    Sweeper
	interval time.Duration
	logger   *slog.Logger
	observer DurationObserver
	tracer   tracer.Tracer
}

// CleanupOption configures CleanupService.
type CleanupOption func(*CleanupService)

// WithCleanupInterval overrides the cleanup interval when greater than zero.
func WithCleanupInterval(interval time.Duration) CleanupOption {
	return func(s *CleanupService) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithCleanupLogger overrides the logger used for cleanup errors.
func WithCleanupLogger(logger *slog.Logger) CleanupOption {
	return func(s *CleanupService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithDurationObserver(o DurationObserver) CleanupOption {
	return func(s *CleanupService) {
		s.observer = o
	}
}

func WithTracer(t tracer.Tracer) CleanupOption {
	return func(s *CleanupService) {
		if t != nil {
			s.tracer = t
		}
	}
}

// New constructs a CleanupService with required stores and options applied.
func New(store Sweeper, opts ...CleanupOption) (*CleanupService, error) {
	if store == nil {
		return nil, fmt.Errorf("auth context store is required")
	}
	svc := &CleanupService{
		store:    store,
		interval: DefaultInterval,
		logger:   slog.Default(),
		tracer:   tracer.NewNoop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc, nil
}

// Interval reports the configured sweep period.
func (s *CleanupService) Interval() time.Duration {
	return s.interval
}

// Start runs cleanup periodically until ctx is cancelled.
func (s *CleanupService) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.InfoContext(ctx, "auth context sweeper started", "interval", s.interval.String())
	for {
		select {
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.logger.ErrorContext(ctx, "auth context cleanup failed", "error", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RunOnce performs a single sweep.
func (s *CleanupService) RunOnce(ctx context.Context) (res CleanupResult, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanContextSweep)
	defer func() {
		span.SetAttributes(tracer.Int64(tracer.AttrDeleted, int64(res.DeletedEntries)))
		span.End(err)
	}()

	start := time.Now()
	deleted, err := s.store.Sweep(ctx)
	res.Duration = time.Since(start)
	if s.observer != nil {
		s.observer.ObserveSweepDuration(res.Duration)
	}
	if err != nil {
		return res, fmt.Errorf("sweep expired auth context: %w", err)
	}
	res.DeletedEntries = deleted
	if deleted > 0 {
		s.logger.DebugContext(ctx, "expired auth context removed", "deleted", deleted)
	}
	return res, nil
}
