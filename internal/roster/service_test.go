package roster

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	dErrors "gatewatch/pkg/domain-errors"
)

type capturingNotifier struct {
	registered []*Identity
}

func (n *capturingNotifier) VisitorRegistered(_ context.Context, identity *Identity) {
	n.registered = append(n.registered, identity)
}

type RosterServiceSuite struct {
	suite.Suite
	store    *InMemoryStore
	notifier *capturingNotifier
	service  *Service
}

func TestRosterServiceSuite(t *testing.T) {
	suite.Run(t, new(RosterServiceSuite))
}

func (s *RosterServiceSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.notifier = &capturingNotifier{}
	svc, err := NewService(s.store, WithNotifier(s.notifier))
	s.Require().NoError(err)
	s.service = svc
}

func (s *RosterServiceSuite) TestAdd() {
	s.Run("assigns id and created time", func() {
		created, err := s.service.Add(context.Background(), &Identity{Name: "James Wilson", Role: RoleStudent})
		s.Require().NoError(err)
		s.NotEqual(uuid.Nil, created.ID)
		s.False(created.CreatedAt.IsZero())
	})

	s.Run("rejects missing name", func() {
		_, err := s.service.Add(context.Background(), &Identity{Role: RoleStudent})
		s.Equal(dErrors.CodeBadRequest, dErrors.CodeOf(err))
	})

	s.Run("rejects unknown role", func() {
		_, err := s.service.Add(context.Background(), &Identity{Name: "X", Role: Role("wizard")})
		s.Equal(dErrors.CodeBadRequest, dErrors.CodeOf(err))
	})

	s.Run("rejects visitor without expiry", func() {
		_, err := s.service.Add(context.Background(), &Identity{Name: "Emily Davis", Role: RoleVisitor})
		s.Equal(dErrors.CodeBadRequest, dErrors.CodeOf(err))
	})

	s.Run("rejects expiry on a non-visitor", func() {
		expiry := time.Now().Add(time.Hour)
		_, err := s.service.Add(context.Background(), &Identity{Name: "X", Role: RoleWorker, VisitorExpiry: &expiry})
		s.Equal(dErrors.CodeBadRequest, dErrors.CodeOf(err))
	})

	s.Run("duplicate id conflicts", func() {
		id := uuid.New()
		_, err := s.service.Add(context.Background(), &Identity{ID: id, Name: "A", Role: RoleStudent})
		s.Require().NoError(err)
		_, err = s.service.Add(context.Background(), &Identity{ID: id, Name: "B", Role: RoleStudent})
		s.Equal(dErrors.CodeConflict, dErrors.CodeOf(err))
	})
}

func (s *RosterServiceSuite) TestVisitorAddNotifies() {
	expiry := time.Now().Add(10 * time.Minute)
	visitor := &Identity{Name: "Emily Davis", Role: RoleVisitor, VisitorExpiry: &expiry, RegisteredBy: "Sarah Johnson"}

	_, err := s.service.Add(context.Background(), visitor)
	s.Require().NoError(err)
	s.Require().Len(s.notifier.registered, 1)
	s.Equal("Emily Davis", s.notifier.registered[0].Name)

	// Non-visitors stay silent.
	_, err = s.service.Add(context.Background(), &Identity{Name: "James Wilson", Role: RoleStudent})
	s.Require().NoError(err)
	s.Len(s.notifier.registered, 1)
}

func (s *RosterServiceSuite) TestUpdate() {
	created, err := s.service.Add(context.Background(), &Identity{Name: "James Wilson", Role: RoleStudent})
	s.Require().NoError(err)

	updated, err := s.service.Update(context.Background(), &Identity{
		ID:          created.ID,
		Name:        "James Wilson",
		Role:        RoleStudent,
		Blacklisted: true,
	})
	s.Require().NoError(err)
	s.True(updated.Blacklisted)
	s.Equal(created.CreatedAt, updated.CreatedAt)

	_, err = s.service.Update(context.Background(), &Identity{ID: uuid.New(), Name: "Ghost", Role: RoleStudent})
	s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
}

func (s *RosterServiceSuite) TestRemove() {
	created, err := s.service.Add(context.Background(), &Identity{Name: "James Wilson", Role: RoleStudent})
	s.Require().NoError(err)

	s.Require().NoError(s.service.Remove(context.Background(), created.ID))

	err = s.service.Remove(context.Background(), created.ID)
	s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
}

func (s *RosterServiceSuite) TestListOrderedByCreation() {
	first, err := s.service.Add(context.Background(), &Identity{
		Name: "First", Role: RoleStudent, CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	s.Require().NoError(err)
	second, err := s.service.Add(context.Background(), &Identity{
		Name: "Second", Role: RoleStudent, CreatedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
	})
	s.Require().NoError(err)

	identities, err := s.service.List(context.Background())
	s.Require().NoError(err)
	s.Require().Len(identities, 2)
	s.Equal(first.ID, identities[0].ID)
	s.Equal(second.ID, identities[1].ID)
}

func (s *RosterServiceSuite) TestStoreReturnsClones() {
	created, err := s.service.Add(context.Background(), &Identity{Name: "James Wilson", Role: RoleStudent})
	s.Require().NoError(err)

	got, err := s.service.Get(context.Background(), created.ID)
	s.Require().NoError(err)
	got.Name = "Mutated"

	again, err := s.service.Get(context.Background(), created.ID)
	s.Require().NoError(err)
	s.Equal("James Wilson", again.Name)
}
