package alert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"gatewatch/internal/roster"
	dErrors "gatewatch/pkg/domain-errors"
	"gatewatch/pkg/platform/sentinel"
)

// Service owns the alert collection: raising, listing, and the explicit
// mark-read mutation. Alerts are never auto-deleted.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService constructs an alert service around a store.
func NewService(store Store, logger *slog.Logger) (*Service, error) {
	if store == nil {
		return nil, errors.New("alert store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}, nil
}

// message renders the operator-facing text for a detection alert.
func message(kind Kind, subjectName, location string) string {
	switch kind {
	case KindIntrusion:
		return fmt.Sprintf("Unauthorized person detected at %s", location)
	case KindBlacklist:
		return fmt.Sprintf("Blacklisted individual %s attempted entry at %s", subjectName, location)
	case KindWatchlist:
		return fmt.Sprintf("Watchlisted individual %s entered at %s", subjectName, location)
	case KindOverstay:
		return fmt.Sprintf("Visitor %s overstayed their access window at %s", subjectName, location)
	default:
		return fmt.Sprintf("Security alert at %s", location)
	}
}

// Raise opens a new detection alert and returns it. Store failure is reported
// to the caller; the engine decides how to degrade.
func (s *Service) Raise(ctx context.Context, kind Kind, subject *roster.Identity, location string, now time.Time) (Alert, error) {
	a := Alert{
		ID:        uuid.New(),
		Kind:      kind,
		Timestamp: now.UTC(),
	}
	if subject != nil {
		id := subject.ID
		a.SubjectID = &id
		a.SubjectName = subject.Name
		a.SubjectRole = subject.Role
		a.Message = message(kind, subject.Name, location)
	} else {
		a.SubjectRole = roster.RoleAlien
		a.Message = message(kind, "", location)
	}
	if err := s.store.Append(ctx, a); err != nil {
		return Alert{}, dErrors.Wrap(err, dErrors.CodeInternal, "store alert")
	}
	s.logger.WarnContext(ctx, "alert raised",
		"alert_id", a.ID,
		"kind", kind,
		"subject", a.SubjectName,
		"location", location,
	)
	return a, nil
}

// MarkRead flags an alert as seen by the operator.
func (s *Service) MarkRead(ctx context.Context, id uuid.UUID) error {
	if err := s.store.MarkRead(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeNotFound, "alert does not exist")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "mark alert read")
	}
	return nil
}

// List returns every alert ordered by timestamp.
func (s *Service) List(ctx context.Context) ([]Alert, error) {
	alerts, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list alerts")
	}
	return alerts, nil
}

// VisitorRegistered implements roster.Notifier: a new visitor registration is
// surfaced to the operator as a read-later notification, not a security alarm.
func (s *Service) VisitorRegistered(ctx context.Context, identity *roster.Identity) {
	id := identity.ID
	a := Alert{
		ID:          uuid.New(),
		Kind:        KindVisitorRegistered,
		SubjectID:   &id,
		SubjectName: identity.Name,
		SubjectRole: identity.Role,
		Timestamp:   time.Now().UTC(),
		Message:     fmt.Sprintf("New visitor %s registered by %s", identity.Name, identity.RegisteredBy),
	}
	if err := s.store.Append(ctx, a); err != nil {
		s.logger.ErrorContext(ctx, "store visitor registration alert failed", "error", err)
	}
}
