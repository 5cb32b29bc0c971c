package accesslog

import (
	"time"

	"github.com/google/uuid"

	"gatewatch/internal/roster"
)

// Action is the direction of an access event. Only entries exist in this
// core; no exit-detection signal is wired.
type Action string

const ActionEntry Action = "entry"

// Entry is one immutable access record; exactly one is written per classified
// detection. Entries are never mutated or deleted here — retention and export
// are external concerns.
type Entry struct {
	ID          uuid.UUID
	SubjectID   *uuid.UUID
	SubjectName string
	SubjectRole roster.Role
	Timestamp   time.Time
	Action      Action
	Location    string
	Authorized  bool
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Role       roster.Role
	Authorized *bool
	Action     Action
}

// Matches reports whether the entry passes the filter.
func (f Filter) Matches(e Entry) bool {
	if f.Role != "" && e.SubjectRole != f.Role {
		return false
	}
	if f.Authorized != nil && e.Authorized != *f.Authorized {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	return true
}
