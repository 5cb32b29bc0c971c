package visitor

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// GrantStore persists active visitor grants.
//
// Error Contract:
// - Get returns sentinel.ErrNotFound (wrapped) when no grant exists for the subject
// - Put overwrites any existing grant for the subject (approval supersedes)
// - DeleteExpired removes every grant with expiry <= cutoff and returns how many;
//   stores with native TTL support (Redis) may return 0 and rely on the backend
type GrantStore interface {
	Put(ctx context.Context, grant Grant) error
	Get(ctx context.Context, subjectID uuid.UUID) (Grant, error)
	Delete(ctx context.Context, subjectID uuid.UUID) error
	List(ctx context.Context) ([]Grant, error)
	DeleteExpired(ctx context.Context, cutoff time.Time) (int, error)
}
