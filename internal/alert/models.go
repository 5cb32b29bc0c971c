package alert

import (
	"time"

	"github.com/google/uuid"

	"gatewatch/internal/classify"
	"gatewatch/internal/roster"
)

// Kind is the operator-facing alert category.
type Kind string

const (
	KindIntrusion         Kind = "intrusion"
	KindBlacklist         Kind = "blacklist"
	KindWatchlist         Kind = "watchlist"
	KindOverstay          Kind = "overstay"
	KindVisitorRegistered Kind = "visitor_registered"
)

// KindFor maps an alertable classification to its alert kind. Returns ok=false
// for verdicts that never alert.
func KindFor(c classify.Classification) (Kind, bool) {
	switch c {
	case classify.UnauthorizedUnknown:
		return KindIntrusion, true
	case classify.UnauthorizedBlacklisted:
		return KindBlacklist, true
	case classify.Watchlisted:
		return KindWatchlist, true
	case classify.VisitorExpired:
		return KindOverstay, true
	default:
		return "", false
	}
}

// severity orders alert kinds for tick aggregation: when one tick carries
// several alertable detections on a channel, the raised alert takes the most
// severe kind.
var severity = map[Kind]int{
	KindBlacklist: 4,
	KindIntrusion: 3,
	KindOverstay:  2,
	KindWatchlist: 1,
}

// MoreSevere reports whether a outranks b.
func MoreSevere(a, b Kind) bool { return severity[a] > severity[b] }

// Alert is one operator-facing notification. Alerts are append-only; the only
// mutation is the explicit mark-read action.
type Alert struct {
	ID          uuid.UUID
	Kind        Kind
	SubjectID   *uuid.UUID
	SubjectName string
	SubjectRole roster.Role
	Timestamp   time.Time
	Message     string
	Read        bool
}
