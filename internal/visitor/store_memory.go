package visitor

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"gatewatch/pkg/platform/sentinel"
)

// InMemoryGrantStore stores grants in memory for tests/dev and for the live
// monitoring session when no Redis is configured.
type InMemoryGrantStore struct {
	mu     sync.RWMutex
	grants map[uuid.UUID]Grant
}

// NewInMemoryGrantStore constructs an empty in-memory grant store.
func NewInMemoryGrantStore() *InMemoryGrantStore {
	return &InMemoryGrantStore{grants: make(map[uuid.UUID]Grant)}
}

func (s *InMemoryGrantStore) Put(_ context.Context, grant Grant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grants[grant.SubjectID] = grant
	return nil
}

func (s *InMemoryGrantStore) Get(_ context.Context, subjectID uuid.UUID) (Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if grant, ok := s.grants[subjectID]; ok {
		return grant, nil
	}
	return Grant{}, fmt.Errorf("grant for %s: %w", subjectID, sentinel.ErrNotFound)
}

func (s *InMemoryGrantStore) Delete(_ context.Context, subjectID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.grants[subjectID]; !ok {
		return fmt.Errorf("grant for %s: %w", subjectID, sentinel.ErrNotFound)
	}
	delete(s.grants, subjectID)
	return nil
}

func (s *InMemoryGrantStore) List(_ context.Context) ([]Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Grant, 0, len(s.grants))
	for _, grant := range s.grants {
		out = append(out, grant)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Expiry.Before(out[j].Expiry) })
	return out, nil
}

func (s *InMemoryGrantStore) DeleteExpired(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for subjectID, grant := range s.grants {
		if !grant.Expiry.After(cutoff) {
			delete(s.grants, subjectID)
			removed++
		}
	}
	return removed, nil
}

var _ GrantStore = (*InMemoryGrantStore)(nil)
