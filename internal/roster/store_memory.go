package roster

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"gatewatch/pkg/platform/sentinel"
)

// InMemoryStore stores identities in memory for tests/dev and for the live
// monitoring session when no database is configured.
type InMemoryStore struct {
	mu         sync.RWMutex
	identities map[uuid.UUID]*Identity
}

// NewInMemoryStore constructs an empty in-memory roster store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{identities: make(map[uuid.UUID]*Identity)}
}

func (s *InMemoryStore) Create(_ context.Context, identity *Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.identities[identity.ID]; ok {
		return fmt.Errorf("identity %s: %w", identity.ID, sentinel.ErrConflict)
	}
	s.identities[identity.ID] = identity.Clone()
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, identity *Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.identities[identity.ID]; !ok {
		return fmt.Errorf("identity %s: %w", identity.ID, sentinel.ErrNotFound)
	}
	s.identities[identity.ID] = identity.Clone()
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.identities[id]; !ok {
		return fmt.Errorf("identity %s: %w", id, sentinel.ErrNotFound)
	}
	delete(s.identities, id)
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id uuid.UUID) (*Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if identity, ok := s.identities[id]; ok {
		return identity.Clone(), nil
	}
	return nil, fmt.Errorf("identity %s: %w", id, sentinel.ErrNotFound)
}

func (s *InMemoryStore) GetByName(_ context.Context, name string) (*Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, identity := range s.identities {
		if identity.Name == name {
			return identity.Clone(), nil
		}
	}
	return nil, fmt.Errorf("identity named %q: %w", name, sentinel.ErrNotFound)
}

func (s *InMemoryStore) List(_ context.Context) ([]*Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Identity, 0, len(s.identities))
	for _, identity := range s.identities {
		out = append(out, identity.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
