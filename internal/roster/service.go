package roster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	dErrors "gatewatch/pkg/domain-errors"
	"gatewatch/pkg/platform/sentinel"
)

// Notifier receives roster lifecycle notifications. The alert service
// implements it; the roster module only knows the seam.
type Notifier interface {
	VisitorRegistered(ctx context.Context, identity *Identity)
}

// Service applies roster admin actions. Mutations validate invariants before
// touching the store; invalid actions come back as coded domain errors, never
// panics.
type Service struct {
	store    Store
	notifier Notifier
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier sets the lifecycle notifier.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// NewService constructs a roster service around a store.
func NewService(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("roster store is required")
	}
	svc := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

func translateStoreError(err error, action string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "identity does not exist")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "identity already exists")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("%s identity", action))
	}
}

// Add creates a new identity. The ID is assigned here when unset.
func (s *Service) Add(ctx context.Context, identity *Identity) (*Identity, error) {
	if identity.ID == uuid.Nil {
		identity.ID = uuid.New()
	}
	if identity.CreatedAt.IsZero() {
		identity.CreatedAt = time.Now().UTC()
	}
	if err := identity.Validate(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, err.Error())
	}
	if err := s.store.Create(ctx, identity); err != nil {
		return nil, translateStoreError(err, "create")
	}
	// A visitor joining the roster is surfaced to the operator.
	if identity.Role == RoleVisitor && s.notifier != nil {
		s.notifier.VisitorRegistered(ctx, identity)
	}
	return identity, nil
}

// Update replaces an existing identity's mutable fields.
func (s *Service) Update(ctx context.Context, identity *Identity) (*Identity, error) {
	current, err := s.store.Get(ctx, identity.ID)
	if err != nil {
		return nil, translateStoreError(err, "update")
	}
	identity.CreatedAt = current.CreatedAt
	if err := identity.Validate(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, err.Error())
	}
	if err := s.store.Update(ctx, identity); err != nil {
		return nil, translateStoreError(err, "update")
	}
	return identity, nil
}

// Remove deletes an identity. Removing an already-deleted identity is a
// descriptive no-op, not a crash.
func (s *Service) Remove(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return translateStoreError(err, "delete")
	}
	return nil
}

// Get fetches a single identity.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Identity, error) {
	identity, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, translateStoreError(err, "get")
	}
	return identity, nil
}

// List returns every identity ordered by creation time.
func (s *Service) List(ctx context.Context) ([]*Identity, error) {
	identities, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list identities")
	}
	return identities, nil
}

// RegisterVisitor creates a visitor identity with the given validity window
// and notifies the alerting side so the operator sees the registration.
func (s *Service) RegisterVisitor(ctx context.Context, name, registeredBy string, validUntil time.Time) (*Identity, error) {
	expiry := validUntil.UTC()
	identity := &Identity{
		ID:            uuid.New(),
		Name:          name,
		Role:          RoleVisitor,
		VisitorExpiry: &expiry,
		RegisteredBy:  registeredBy,
		CreatedAt:     time.Now().UTC(),
	}
	if _, err := s.Add(ctx, identity); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "visitor registered",
		"visitor_id", identity.ID,
		"registered_by", registeredBy,
		"valid_until", expiry,
	)
	return identity, nil
}
