package alert

import (
	"context"
	"log/slog"
)

// Sounder is the audible-alert side effect hook. The engine triggers it at
// most once per debounce rising edge; playback itself is an external concern.
type Sounder interface {
	Play(ctx context.Context)
}

// LogSounder logs instead of playing audio; the default when no hardware hook
// is wired.
type LogSounder struct {
	Logger *slog.Logger
}

func (s LogSounder) Play(ctx context.Context) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "alert sound triggered")
}
