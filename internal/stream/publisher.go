// Package stream ships access events and alerts to the external persistence
// pipeline. The engine's in-memory state stays the source of truth; whatever
// happens here is a shadow copy and must never block a detection tick.
package stream

import (
	"context"
	"time"
)

// EventType distinguishes stream payloads.
type EventType string

const (
	EventAccessEntry EventType = "access_entry"
	EventAlert       EventType = "alert"
	EventGrantSwept  EventType = "grant_swept"
)

// Event is one published record. Payload is the JSON-serializable domain
// object; the publisher owns encoding.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Payload   any
}

// Publisher delivers events to the external pipeline, fire-and-forget.
type Publisher interface {
	Publish(ctx context.Context, event Event)
	Close()
}

// Noop discards all events; the default when no brokers are configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) {}
func (Noop) Close()                         {}
