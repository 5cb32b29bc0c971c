package roster

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role classifies a known subject. RoleAlien is the unknown category used for
// unresolved detections; it is never assigned by admin actions.
type Role string

const (
	RoleStudent  Role = "student"
	RoleLecturer Role = "lecturer"
	RoleWorker   Role = "worker"
	RoleSecurity Role = "security"
	RoleVisitor  Role = "visitor"
	RoleAlien    Role = "alien"
)

var validRoles = map[Role]struct{}{
	RoleStudent:  {},
	RoleLecturer: {},
	RoleWorker:   {},
	RoleSecurity: {},
	RoleVisitor:  {},
	RoleAlien:    {},
}

// Valid reports whether the role is one of the known categories.
func (r Role) Valid() bool {
	_, ok := validRoles[r]
	return ok
}

// Identity is one known subject in the roster.
//
// Invariant: VisitorExpiry is set if and only if Role == RoleVisitor. Blacklist
// dominates every other flag for classification purposes; the flags themselves
// are free to coexist.
type Identity struct {
	ID           uuid.UUID
	Name         string
	Role         Role
	Blacklisted  bool
	Watchlisted  bool
	VisitorExpiry *time.Time
	RegisteredBy string
	Notes        string

	// Descriptor is the enrolled face embedding, when one has been captured.
	// Opaque to everything except the matcher.
	Descriptor []float32

	CreatedAt time.Time
}

// Validate checks the structural invariants of an identity record.
func (i *Identity) Validate() error {
	if i.Name == "" {
		return fmt.Errorf("identity name is required")
	}
	if !i.Role.Valid() {
		return fmt.Errorf("unknown role %q", i.Role)
	}
	if i.Role == RoleVisitor && i.VisitorExpiry == nil {
		return fmt.Errorf("visitor identity requires an expiry")
	}
	if i.Role != RoleVisitor && i.VisitorExpiry != nil {
		return fmt.Errorf("expiry is only valid for visitors")
	}
	return nil
}

// Clone returns a deep copy so store snapshots cannot be mutated by callers.
func (i *Identity) Clone() *Identity {
	out := *i
	if i.VisitorExpiry != nil {
		t := *i.VisitorExpiry
		out.VisitorExpiry = &t
	}
	if i.Descriptor != nil {
		out.Descriptor = append([]float32(nil), i.Descriptor...)
	}
	return &out
}
