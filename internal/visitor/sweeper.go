package visitor

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper periodically expires visitor grants. It runs as a background
// goroutine independent of the monitoring schedule (a grant can expire while
// the camera is off) and is safe to stop via its context or the Stop method.
type Sweeper struct {
	manager  *Manager
	interval time.Duration
	logger   *slog.Logger
	onSwept  func(removed int)
	cancel   context.CancelFunc
	done     chan struct{}
}

// SweeperOption configures a Sweeper.
type SweeperOption func(*Sweeper)

// WithSweepHook registers a callback invoked after every sweep that removed
// at least one grant.
func WithSweepHook(fn func(removed int)) SweeperOption {
	return func(s *Sweeper) { s.onSwept = fn }
}

// NewSweeper creates a sweeper but does not start it. Call Start to begin the
// background loop.
func NewSweeper(manager *Manager, interval time.Duration, logger *slog.Logger, opts ...SweeperOption) *Sweeper {
	if interval <= 0 {
		interval = time.Second
	}
	s := &Sweeper{
		manager:  manager,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins the background sweep loop. It runs an immediate sweep on
// startup, then repeats on the configured interval. The loop exits when ctx is
// cancelled or Stop is called.
func (s *Sweeper) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	go s.loop(ctx)
	s.logger.Info("grant sweeper started", "interval", s.interval)
}

// Stop signals the sweeper to exit and waits for it to finish.
func (s *Sweeper) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	<-s.done
}

func (s *Sweeper) loop(ctx context.Context) {
	defer close(s.done)

	// Clean up any backlog from before the process started.
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	removed, err := s.manager.Sweep(ctx, time.Now())
	if err != nil {
		s.logger.ErrorContext(ctx, "grant sweep failed", "error", err)
		return
	}
	if removed > 0 && s.onSwept != nil {
		s.onSwept(removed)
	}
}
