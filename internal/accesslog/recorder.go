package accesslog

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"gatewatch/internal/classify"
	"gatewatch/internal/roster"
)

// Recorder writes one entry per classified detection. Persistence is
// best-effort from the engine's point of view: a failed write is logged and
// counted but never blocks alerting, and vice versa.
type Recorder struct {
	primary Store
	shadow  Store // optional durable copy
	logger  *slog.Logger
	onError func()
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithShadowStore adds a durable store written after the primary.
func WithShadowStore(s Store) RecorderOption {
	return func(r *Recorder) { r.shadow = s }
}

// WithFailureHook registers a callback invoked on every failed write, used
// for the persistence-failure metric.
func WithFailureHook(fn func()) RecorderOption {
	return func(r *Recorder) { r.onError = fn }
}

// NewRecorder constructs a recorder around the primary store.
func NewRecorder(primary Store, logger *slog.Logger, opts ...RecorderOption) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Recorder{primary: primary, logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record builds and appends the entry for one classified detection. Subject
// fields come from the resolved identity when available; an unresolved face is
// logged as "Unknown" with the alien role. Errors are swallowed by design —
// see the type comment.
func (r *Recorder) Record(ctx context.Context, c classify.Classification, subject *roster.Identity, location string, now time.Time) Entry {
	e := Entry{
		ID:          uuid.New(),
		SubjectName: "Unknown",
		SubjectRole: roster.RoleAlien,
		Timestamp:   now.UTC(),
		Action:      ActionEntry,
		Location:    location,
		Authorized:  c.Authorized(),
	}
	if subject != nil {
		id := subject.ID
		e.SubjectID = &id
		e.SubjectName = subject.Name
		e.SubjectRole = subject.Role
	}

	if err := r.primary.Append(ctx, e); err != nil {
		r.fail(ctx, "access log append failed", err)
	}
	if r.shadow != nil {
		if err := r.shadow.Append(ctx, e); err != nil {
			r.fail(ctx, "access log shadow append failed", err)
		}
	}
	return e
}

// List reads entries back from the primary store.
func (r *Recorder) List(ctx context.Context, f Filter) ([]Entry, error) {
	return r.primary.List(ctx, f)
}

func (r *Recorder) fail(ctx context.Context, msg string, err error) {
	r.logger.ErrorContext(ctx, msg, "error", err)
	if r.onError != nil {
		r.onError()
	}
}
