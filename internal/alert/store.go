package alert

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"gatewatch/pkg/platform/sentinel"
)

// Store persists alerts.
//
// Error Contract:
// - MarkRead returns sentinel.ErrNotFound (wrapped) for unknown alert IDs
// - Append never rejects an alert; alerts are facts by the time they exist
type Store interface {
	Append(ctx context.Context, a Alert) error
	MarkRead(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]Alert, error)
}

// InMemoryStore keeps the session's alerts in memory. It is the source of
// truth for the live monitoring view; durable copies go through the stream
// publisher.
type InMemoryStore struct {
	mu     sync.RWMutex
	alerts map[uuid.UUID]Alert
}

// NewInMemoryStore constructs an empty in-memory alert store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{alerts: make(map[uuid.UUID]Alert)}
}

func (s *InMemoryStore) Append(_ context.Context, a Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts[a.ID] = a
	return nil
}

func (s *InMemoryStore) MarkRead(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.alerts[id]
	if !ok {
		return fmt.Errorf("alert %s: %w", id, sentinel.ErrNotFound)
	}
	a.Read = true
	s.alerts[id] = a
	return nil
}

func (s *InMemoryStore) List(_ context.Context) ([]Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Alert, 0, len(s.alerts))
	for _, a := range s.alerts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

var _ Store = (*InMemoryStore)(nil)
