package roster

import (
	"context"

	"github.com/google/uuid"
)

// Store persists roster identities.
//
// Error Contract:
// All store methods follow this pattern:
// - Return sentinel.ErrNotFound (wrapped) when the requested identity does not exist
// - Return sentinel.ErrConflict (wrapped) when a create collides with an existing ID
// - Return nil for successful operations
// - Return wrapped errors with context for infrastructure failures
type Store interface {
	Create(ctx context.Context, identity *Identity) error
	Update(ctx context.Context, identity *Identity) error
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*Identity, error)
	GetByName(ctx context.Context, name string) (*Identity, error)
	List(ctx context.Context) ([]*Identity, error)
}
