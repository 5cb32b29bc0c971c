package visitor

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	dErrors "gatewatch/pkg/domain-errors"
	"gatewatch/pkg/platform/sentinel"
)

// Manager tracks pending visitor requests and active grants. Approval opens a
// fixed validity window; the sweep closes expired windows on a 1s cadence.
type Manager struct {
	mu       sync.Mutex
	requests map[uuid.UUID]Request

	grants   GrantStore
	grantTTL time.Duration
	logger   *slog.Logger
	clock    func() time.Time

	// lastSwept is the monotonic floor for expiry comparisons. A system
	// clock that moves backwards must not resurrect already-swept grants.
	lastSwept time.Time
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the manager logger.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) { m.logger = logger }
}

// WithClock sets the clock function for testability.
func WithClock(clock func() time.Time) ManagerOption {
	return func(m *Manager) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// NewManager constructs a visitor grant manager.
func NewManager(grants GrantStore, grantTTL time.Duration, opts ...ManagerOption) (*Manager, error) {
	if grants == nil {
		return nil, errors.New("grant store is required")
	}
	if grantTTL <= 0 {
		return nil, errors.New("grant ttl must be positive")
	}
	m := &Manager{
		requests: make(map[uuid.UUID]Request),
		grants:   grants,
		grantTTL: grantTTL,
		logger:   slog.Default(),
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Register queues a visitor request for operator review.
func (m *Manager) Register(name, requestedBy string) (Request, error) {
	if name == "" {
		return Request{}, dErrors.New(dErrors.CodeBadRequest, "visitor name is required")
	}
	req := Request{
		ID:          uuid.New(),
		Name:        name,
		RequestedBy: requestedBy,
		RequestedAt: m.clock().UTC(),
	}
	m.mu.Lock()
	m.requests[req.ID] = req
	m.mu.Unlock()
	return req, nil
}

// Requests lists pending requests ordered by arrival.
func (m *Manager) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, 0, len(m.requests))
	for _, req := range m.requests {
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.Before(out[j].RequestedAt) })
	return out
}

// Approve consumes a pending request and opens a grant valid for the fixed
// policy window. Approving a grant for a subject that already holds one
// supersedes the old window.
func (m *Manager) Approve(ctx context.Context, requestID uuid.UUID) (Grant, Request, error) {
	m.mu.Lock()
	req, ok := m.requests[requestID]
	if ok {
		delete(m.requests, requestID)
	}
	m.mu.Unlock()
	if !ok {
		return Grant{}, Request{}, dErrors.Newf(dErrors.CodeNotFound, "visitor request %s no longer exists", requestID)
	}

	grant := Grant{
		SubjectID: uuid.New(),
		Name:      req.Name,
		Expiry:    m.clock().UTC().Add(m.grantTTL),
	}
	if err := m.grants.Put(ctx, grant); err != nil {
		return Grant{}, Request{}, dErrors.Wrap(err, dErrors.CodeInternal, "store visitor grant")
	}
	m.logger.InfoContext(ctx, "visitor approved",
		"request_id", requestID,
		"subject_id", grant.SubjectID,
		"expiry", grant.Expiry,
	)
	return grant, req, nil
}

// Reject drops a pending request without creating a grant.
func (m *Manager) Reject(_ context.Context, requestID uuid.UUID) (Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[requestID]
	if !ok {
		return Request{}, dErrors.Newf(dErrors.CodeNotFound, "visitor request %s no longer exists", requestID)
	}
	delete(m.requests, requestID)
	return req, nil
}

// Grants lists the active grants.
func (m *Manager) Grants(ctx context.Context) ([]Grant, error) {
	grants, err := m.grants.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list visitor grants")
	}
	return grants, nil
}

// GrantFor returns the active grant for a subject, or ok=false when none
// exists. Store failures degrade to "no grant" so classification stays total.
func (m *Manager) GrantFor(ctx context.Context, subjectID uuid.UUID) (Grant, bool) {
	grant, err := m.grants.Get(ctx, subjectID)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			m.logger.WarnContext(ctx, "grant lookup failed", "subject_id", subjectID, "error", err)
		}
		return Grant{}, false
	}
	return grant, true
}

// Sweep removes every grant with expiry at or before now. The comparison uses
// a monotonic floor: once a point in time has been swept, a later call with an
// earlier clock reading sweeps against the floor, so expired grants never
// un-expire. Sweeping twice at the same instant is a no-op the second time.
func (m *Manager) Sweep(ctx context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	floor := now.UTC()
	if m.lastSwept.After(floor) {
		floor = m.lastSwept
	}
	m.lastSwept = floor
	m.mu.Unlock()

	removed, err := m.grants.DeleteExpired(ctx, floor)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "sweep visitor grants")
	}
	if removed > 0 {
		m.logger.InfoContext(ctx, "visitor grants expired", "removed", removed, "cutoff", floor)
	}
	return removed, nil
}
