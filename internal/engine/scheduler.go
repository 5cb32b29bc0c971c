package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Scheduler runs a function on a fixed interval with non-overlapping,
// synchronous executions. Stopping cancels the schedule deterministically and
// waits for an in-flight run to finish; it never touches the function's own
// state.
type Scheduler struct {
	interval time.Duration
	fn       func(context.Context)
	logger   *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewScheduler creates a stopped scheduler.
func NewScheduler(interval time.Duration, fn func(context.Context), logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{interval: interval, fn: fn, logger: logger}
}

// Start begins the periodic loop. Starting an already-running scheduler is a
// no-op; the existing schedule keeps its cadence.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.running = true
	go s.loop(ctx, s.done)
	s.logger.Info("schedule started", "interval", s.interval)
}

// Stop cancels the schedule and waits for any in-flight run. Stopping a
// stopped scheduler is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel, done := s.cancel, s.done
	s.running = false
	s.mu.Unlock()

	cancel()
	<-done
	s.logger.Info("schedule stopped")
}

// Running reports whether the schedule is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.fn(ctx)
		}
	}
}
