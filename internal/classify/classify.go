// Package classify holds the authorization policy for classified detections.
// Classify is a pure function of (matcher result, roster snapshot, grant
// snapshot, now); keeping the rules centralized and side-effect free makes
// every flag combination exhaustively testable.
package classify

import (
	"time"

	"gatewatch/internal/matcher"
	"gatewatch/internal/roster"
	"gatewatch/internal/visitor"
)

// Classification is the engine's authorization verdict for one detection.
type Classification string

const (
	Authorized              Classification = "authorized"
	UnauthorizedUnknown     Classification = "unauthorized_unknown"
	UnauthorizedBlacklisted Classification = "unauthorized_blacklisted"
	Watchlisted             Classification = "watchlisted"
	VisitorValid            Classification = "visitor_valid"
	VisitorExpired          Classification = "visitor_expired"
)

// Authorized reports whether the verdict grants entry. Watchlisted subjects
// enter (and are logged as authorized) but still raise a watch alert.
func (c Classification) Authorized() bool {
	switch c {
	case Authorized, Watchlisted, VisitorValid:
		return true
	default:
		return false
	}
}

// Alertable reports whether the verdict drives the alert debouncer.
func (c Classification) Alertable() bool {
	switch c {
	case UnauthorizedUnknown, UnauthorizedBlacklisted, Watchlisted, VisitorExpired:
		return true
	default:
		return false
	}
}

// Classify applies the decision policy in strict priority order; the first
// matching rule wins and the ordering is a hard invariant:
//
//  1. Unresolved label -> unauthorized_unknown
//  2. Blacklisted      -> unauthorized_blacklisted (dominates everything else)
//  3. Visitor          -> visitor_valid / visitor_expired by validity window
//  4. Watchlisted      -> watchlisted (enters, but alerts)
//  5. Otherwise        -> authorized
//
// A grant, when present, supersedes the roster's own expiry: a swept grant
// means the visitor's window is closed even if the roster record lags.
func Classify(now time.Time, result matcher.Result, identity *roster.Identity, grant *visitor.Grant) Classification {
	if result.Unknown() || identity == nil {
		return UnauthorizedUnknown
	}
	if identity.Blacklisted {
		return UnauthorizedBlacklisted
	}
	if identity.Role == roster.RoleVisitor {
		expiry := identity.VisitorExpiry
		if grant != nil {
			expiry = &grant.Expiry
		}
		if expiry != nil && expiry.After(now) {
			return VisitorValid
		}
		return VisitorExpired
	}
	if identity.Watchlisted {
		return Watchlisted
	}
	return Authorized
}
