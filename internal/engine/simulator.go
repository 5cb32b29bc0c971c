package engine

import (
	"context"
	"math/rand"
	"time"
)

// DefaultDetectionInterval is the simulated feed's tick cadence.
const DefaultDetectionInterval = time.Second

// StartMonitoring begins the simulated detection feed on the given interval.
// Starting while already monitoring keeps the existing schedule.
func (e *Engine) StartMonitoring(ctx context.Context, interval time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if interval <= 0 {
		interval = DefaultDetectionInterval
	}
	if e.monitor == nil {
		e.monitor = NewScheduler(interval, e.simulateTick, e.logger)
	}
	e.monitor.Start(ctx)
}

// StopMonitoring cancels the detection schedule. Roster, logs, alerts, and
// grants are untouched; the grant sweeper keeps running on its own schedule.
func (e *Engine) StopMonitoring() {
	e.mu.Lock()
	monitor := e.monitor
	e.mu.Unlock()
	if monitor != nil {
		monitor.Stop()
	}
}

// Monitoring reports whether the detection schedule is active.
func (e *Engine) Monitoring() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.monitor != nil && e.monitor.Running()
}

// simulateTick fabricates one frame of detections from the current roster:
// one to three randomly picked members, pre-resolved by identity label. An
// empty roster yields an empty frame, which reads as a clean tick.
func (e *Engine) simulateTick(ctx context.Context) {
	identities, err := e.roster.List(ctx)
	if err != nil {
		e.logger.ErrorContext(ctx, "simulated tick roster read failed", "error", err)
		return
	}

	var detections []Detection
	if len(identities) > 0 {
		count := 1 + rand.Intn(3)
		if count > len(identities) {
			count = len(identities)
		}
		for _, i := range rand.Perm(len(identities))[:count] {
			detections = append(detections, Detection{
				FrameTime: e.clock().UTC(),
				Label:     identities[i].ID.String(),
			})
		}
	}

	if _, err := e.ProcessTick(ctx, "", detections); err != nil {
		e.logger.ErrorContext(ctx, "simulated tick failed", "error", err)
	}
}
