package engine

import (
	"context"

	"github.com/google/uuid"

	"gatewatch/internal/accesslog"
	"gatewatch/internal/alert"
	"gatewatch/internal/roster"
	"gatewatch/internal/visitor"
)

// Roster admin passes through to the roster service under the engine mutex,
// then refreshes matcher enrollment so the next tick sees the change.

// AddIdentity creates a roster identity.
func (e *Engine) AddIdentity(ctx context.Context, identity *roster.Identity) (*roster.Identity, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	created, err := e.roster.Add(ctx, identity)
	if err != nil {
		return nil, err
	}
	e.refreshEnrollment(ctx)
	return created, nil
}

// UpdateIdentity replaces a roster identity's mutable fields.
func (e *Engine) UpdateIdentity(ctx context.Context, identity *roster.Identity) (*roster.Identity, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	updated, err := e.roster.Update(ctx, identity)
	if err != nil {
		return nil, err
	}
	e.refreshEnrollment(ctx)
	return updated, nil
}

// RemoveIdentity deletes a roster identity.
func (e *Engine) RemoveIdentity(ctx context.Context, id uuid.UUID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.roster.Remove(ctx, id); err != nil {
		return err
	}
	e.refreshEnrollment(ctx)
	return nil
}

// Identity fetches one roster identity.
func (e *Engine) Identity(ctx context.Context, id uuid.UUID) (*roster.Identity, error) {
	return e.roster.Get(ctx, id)
}

// Roster lists every identity.
func (e *Engine) Roster(ctx context.Context) ([]*roster.Identity, error) {
	return e.roster.List(ctx)
}

// RegisterVisitor queues a visitor request for operator review. No roster
// identity and no grant exist until the request is approved.
func (e *Engine) RegisterVisitor(ctx context.Context, name, requestedBy string) (visitor.Request, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.visitors.Register(name, requestedBy)
}

// VisitorRequests lists pending visitor requests.
func (e *Engine) VisitorRequests(context.Context) []visitor.Request {
	return e.visitors.Requests()
}

// ApproveVisitor opens a grant for a pending request and enrolls the visitor
// on the roster with the grant's validity window. The roster add raises the
// visitor-registered notification.
func (e *Engine) ApproveVisitor(ctx context.Context, requestID uuid.UUID) (visitor.Grant, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	grant, req, err := e.visitors.Approve(ctx, requestID)
	if err != nil {
		return visitor.Grant{}, err
	}

	expiry := grant.Expiry
	identity := &roster.Identity{
		ID:            grant.SubjectID,
		Name:          req.Name,
		Role:          roster.RoleVisitor,
		VisitorExpiry: &expiry,
		RegisteredBy:  req.RequestedBy,
	}
	if _, err := e.roster.Add(ctx, identity); err != nil {
		// The grant stands; classification falls back to its window.
		e.logger.ErrorContext(ctx, "approved visitor roster enrollment failed",
			"subject_id", grant.SubjectID, "error", err)
	}
	return grant, nil
}

// RejectVisitor drops a pending request.
func (e *Engine) RejectVisitor(ctx context.Context, requestID uuid.UUID) (visitor.Request, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.visitors.Reject(ctx, requestID)
}

// Grants lists the active visitor grants.
func (e *Engine) Grants(ctx context.Context) ([]visitor.Grant, error) {
	return e.visitors.Grants(ctx)
}

// Alerts lists every alert.
func (e *Engine) Alerts(ctx context.Context) ([]alert.Alert, error) {
	return e.alerts.List(ctx)
}

// MarkAlertRead flags an alert as seen.
func (e *Engine) MarkAlertRead(ctx context.Context, id uuid.UUID) error {
	return e.alerts.MarkRead(ctx, id)
}

// Logs lists access log entries matching the filter.
func (e *Engine) Logs(ctx context.Context, f accesslog.Filter) ([]accesslog.Entry, error) {
	return e.recorder.List(ctx, f)
}
