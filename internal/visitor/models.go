package visitor

import (
	"time"

	"github.com/google/uuid"
)

// Request is a pending visitor approval queued by the registration flow.
type Request struct {
	ID          uuid.UUID
	Name        string
	RequestedBy string
	RequestedAt time.Time
}

// Grant is a time-bounded authorization window for an approved visitor.
// The window is valid while expiry > now; at exactly the expiry instant the
// grant is expired, and the sweep removes grants with expiry <= now.
type Grant struct {
	SubjectID uuid.UUID
	Name      string
	Expiry    time.Time
}

// ExpiredAt reports whether the grant is expired at the given instant.
func (g Grant) ExpiredAt(now time.Time) bool {
	return !g.Expiry.After(now)
}
