// Package engine owns the gate's live decision state. Every detection tick
// and every admin mutation funnels through the Engine under a single mutex,
// so classification always sees a consistent snapshot of roster and grants.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"gatewatch/internal/accesslog"
	"gatewatch/internal/alert"
	"gatewatch/internal/classify"
	enginemetrics "gatewatch/internal/engine/metrics"
	"gatewatch/internal/matcher"
	"gatewatch/internal/roster"
	"gatewatch/internal/stream"
	"gatewatch/internal/visitor"
	dErrors "gatewatch/pkg/domain-errors"
)

// Box is the detection bounding box in frame coordinates. The engine carries
// it through untouched; only the embedding or label participates in decisions.
type Box struct {
	X float64
	Y float64
	W float64
	H float64
}

// Detection is one detected face in a tick. Either Embedding is set and the
// matcher resolves it, or Label carries a pre-resolved identity ID (the
// simulated feed and upstream matchers that do their own resolution).
type Detection struct {
	FrameTime time.Time
	Box       Box
	Embedding []float32
	Label     string
	Distance  float64
}

// Result is the engine's verdict for one detection.
type Result struct {
	Classification classify.Classification
	Label          string
	Distance       float64
	Subject        *roster.Identity
	Entry          accesslog.Entry
}

// TickResult is the outcome of one full detection tick.
type TickResult struct {
	Detections []Result
	Alert      *alert.Alert
}

// Enroller receives the roster's descriptor set whenever it changes. The
// euclidean matcher implements it; remote matchers may ignore enrollment.
type Enroller interface {
	Enroll(descriptors map[string][]float32)
}

// Deps are the engine's required collaborators.
type Deps struct {
	Roster   *roster.Service
	Matcher  *matcher.Adapter
	Visitors *visitor.Manager
	Alerts   *alert.Service
	Recorder *accesslog.Recorder
}

// Engine is the identity decision core. It is safe for concurrent use; ticks
// and admin mutations serialize on one mutex.
type Engine struct {
	mu sync.Mutex

	roster   *roster.Service
	matcher  *matcher.Adapter
	enroller Enroller
	visitors *visitor.Manager
	alerts   *alert.Service
	recorder *accesslog.Recorder

	debouncer *alert.Debouncer
	sounder   alert.Sounder
	publisher stream.Publisher
	metrics   *enginemetrics.Metrics
	logger    *slog.Logger
	clock     func() time.Time
	location  string

	monitor *Scheduler
}

// Option configures an Engine.
type Option func(*Engine)

// WithSounder sets the audible-alert hook.
func WithSounder(s alert.Sounder) Option {
	return func(e *Engine) { e.sounder = s }
}

// WithPublisher sets the stream publisher for access events and alerts.
func WithPublisher(p stream.Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// WithMetrics sets the engine metrics.
func WithMetrics(m *enginemetrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithClock sets the clock function for testability.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithLocation sets the default channel for ticks that carry no location.
func WithLocation(location string) Option {
	return func(e *Engine) { e.location = location }
}

// WithEnroller sets the matcher enrollment sink refreshed on roster changes.
func WithEnroller(en Enroller) Option {
	return func(e *Engine) { e.enroller = en }
}

// New constructs an engine. Missing optional collaborators get inert
// defaults; required deps are checked.
func New(deps Deps, opts ...Option) (*Engine, error) {
	if deps.Roster == nil || deps.Matcher == nil || deps.Visitors == nil || deps.Alerts == nil || deps.Recorder == nil {
		return nil, errors.New("engine: all deps are required")
	}
	e := &Engine{
		roster:    deps.Roster,
		matcher:   deps.Matcher,
		visitors:  deps.Visitors,
		alerts:    deps.Alerts,
		recorder:  deps.Recorder,
		debouncer: alert.NewDebouncer(),
		sounder:   alert.LogSounder{},
		publisher: stream.Noop{},
		logger:    slog.Default(),
		clock:     time.Now,
		location:  "Main Gate",
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// ProcessTick classifies one frame's detections, records an access entry per
// detection, and drives the per-channel alert debouncer. A tick with several
// alertable detections raises at most one alert, taking the most severe kind.
// An empty detection list is a clean tick and re-arms the channel.
func (e *Engine) ProcessTick(ctx context.Context, location string, detections []Detection) (TickResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	wallStart := time.Now()
	defer func() { e.metrics.ObserveTickLatency(time.Since(wallStart)) }()

	if location == "" {
		location = e.location
	}
	now := e.clock().UTC()

	identities, err := e.roster.List(ctx)
	if err != nil {
		return TickResult{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "roster snapshot unavailable")
	}
	byID := make(map[string]*roster.Identity, len(identities))
	for _, identity := range identities {
		byID[identity.ID.String()] = identity
	}

	// A grant-store outage degrades to "no grants": approved visitors read
	// as expired rather than the tick aborting.
	grantsByID := make(map[uuid.UUID]visitor.Grant)
	if grants, err := e.visitors.Grants(ctx); err != nil {
		e.logger.WarnContext(ctx, "grant snapshot unavailable, classifying without grants", "error", err)
	} else {
		for _, g := range grants {
			grantsByID[g.SubjectID] = g
		}
	}

	result := TickResult{Detections: make([]Result, 0, len(detections))}
	var (
		alertKind    alert.Kind
		alertSubject *roster.Identity
	)
	for _, d := range detections {
		match := e.resolve(ctx, d)
		identity := byID[match.Label]

		var grant *visitor.Grant
		if identity != nil {
			if g, ok := grantsByID[identity.ID]; ok {
				grant = &g
			}
		}

		c := classify.Classify(now, match, identity, grant)
		e.metrics.IncClassification(string(c))

		entry := e.recorder.Record(ctx, c, identity, location, now)
		e.publisher.Publish(ctx, stream.Event{Type: stream.EventAccessEntry, Timestamp: now, Payload: entry})

		if kind, ok := alert.KindFor(c); ok {
			if alertKind == "" || alert.MoreSevere(kind, alertKind) {
				alertKind = kind
				alertSubject = identity
			}
		}

		result.Detections = append(result.Detections, Result{
			Classification: c,
			Label:          match.Label,
			Distance:       match.Distance,
			Subject:        identity,
			Entry:          entry,
		})
	}

	if edge := e.debouncer.Observe(location, alertKind != ""); edge {
		// The sound fires on the edge even when the alert store is down.
		e.sounder.Play(ctx)
		raised, err := e.alerts.Raise(ctx, alertKind, alertSubject, location, now)
		if err != nil {
			e.logger.ErrorContext(ctx, "alert write failed", "kind", alertKind, "error", err)
			e.metrics.IncPersistenceFailure()
		} else {
			e.debouncer.NoteAlert(location, raised.ID)
			e.publisher.Publish(ctx, stream.Event{Type: stream.EventAlert, Timestamp: now, Payload: raised})
			e.metrics.IncAlert(string(alertKind))
			result.Alert = &raised
		}
	}

	return result, nil
}

// resolve turns one detection into a matcher result, preferring a
// pre-resolved label over the embedding.
func (e *Engine) resolve(ctx context.Context, d Detection) matcher.Result {
	if d.Label != "" {
		return matcher.Result{Label: d.Label, Distance: d.Distance}
	}
	return e.matcher.Match(ctx, d.Embedding)
}

// ActiveAlert reports the open alert for a channel, if any.
func (e *Engine) ActiveAlert(location string) (uuid.UUID, bool) {
	if location == "" {
		location = e.location
	}
	return e.debouncer.ActiveAlert(location)
}

// RefreshEnrollment rebuilds matcher enrollment from the roster. Called on
// boot so a durable roster is enrolled before the first tick; roster admin
// operations refresh automatically.
func (e *Engine) RefreshEnrollment(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.refreshEnrollment(ctx)
}

// refreshEnrollment pushes the current roster descriptor set to the matcher.
// Callers hold e.mu.
func (e *Engine) refreshEnrollment(ctx context.Context) {
	if e.enroller == nil {
		return
	}
	identities, err := e.roster.List(ctx)
	if err != nil {
		e.logger.ErrorContext(ctx, "enrollment refresh failed", "error", err)
		return
	}
	descriptors := make(map[string][]float32)
	for _, identity := range identities {
		if len(identity.Descriptor) > 0 {
			descriptors[identity.ID.String()] = identity.Descriptor
		}
	}
	e.enroller.Enroll(descriptors)
}
