package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"gatewatch/internal/accesslog"
	"gatewatch/internal/alert"
	"gatewatch/internal/classify"
	"gatewatch/internal/matcher"
	"gatewatch/internal/roster"
	"gatewatch/internal/visitor"
)

type countingSounder struct {
	mu    sync.Mutex
	plays int
}

func (s *countingSounder) Play(context.Context) {
	s.mu.Lock()
	s.plays++
	s.mu.Unlock()
}

func (s *countingSounder) Plays() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plays
}

type EngineSuite struct {
	suite.Suite
	engine     *Engine
	rosterSvc  *roster.Service
	visitors   *visitor.Manager
	alertStore *alert.InMemoryStore
	logStore   *accesslog.InMemoryStore
	sounder    *countingSounder
	euclid     *matcher.Euclidean
	now        time.Time
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.now = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	s.alertStore = alert.NewInMemoryStore()
	s.logStore = accesslog.NewInMemoryStore()
	s.sounder = &countingSounder{}
	s.euclid = matcher.NewEuclidean(matcher.DefaultThreshold)

	alerts, err := alert.NewService(s.alertStore, nil)
	s.Require().NoError(err)
	s.rosterSvc, err = roster.NewService(roster.NewInMemoryStore(), roster.WithNotifier(alerts))
	s.Require().NoError(err)
	s.visitors, err = visitor.NewManager(visitor.NewInMemoryGrantStore(), 10*time.Minute,
		visitor.WithClock(func() time.Time { return s.now }))
	s.Require().NoError(err)

	s.engine, err = New(Deps{
		Roster:   s.rosterSvc,
		Matcher:  matcher.NewAdapter(s.euclid, nil),
		Visitors: s.visitors,
		Alerts:   alerts,
		Recorder: accesslog.NewRecorder(s.logStore, nil),
	},
		WithEnroller(s.euclid),
		WithSounder(s.sounder),
		WithClock(func() time.Time { return s.now }),
		WithLocation("Main Gate"),
	)
	s.Require().NoError(err)
}

func (s *EngineSuite) tick(detections ...Detection) TickResult {
	result, err := s.engine.ProcessTick(context.Background(), "", detections)
	s.Require().NoError(err)
	return result
}

func (s *EngineSuite) alerts() []alert.Alert {
	alerts, err := s.alertStore.List(context.Background())
	s.Require().NoError(err)
	return alerts
}

func (s *EngineSuite) logs() []accesslog.Entry {
	entries, err := s.logStore.List(context.Background(), accesslog.Filter{})
	s.Require().NoError(err)
	return entries
}

// A blacklisted roster member at the gate yields a blacklist classification,
// an unauthorized log entry, and one blacklist alert naming them.
func (s *EngineSuite) TestBlacklistedMemberDetected() {
	james, err := s.engine.AddIdentity(context.Background(), &roster.Identity{
		Name:        "James Wilson",
		Role:        roster.RoleStudent,
		Blacklisted: true,
	})
	s.Require().NoError(err)

	result := s.tick(Detection{Label: james.ID.String()})

	s.Require().Len(result.Detections, 1)
	s.Equal(classify.UnauthorizedBlacklisted, result.Detections[0].Classification)

	logs := s.logs()
	s.Require().Len(logs, 1)
	s.False(logs[0].Authorized)
	s.Equal("James Wilson", logs[0].SubjectName)

	alerts := s.alerts()
	s.Require().Len(alerts, 1)
	s.Equal(alert.KindBlacklist, alerts[0].Kind)
	s.Equal("Blacklisted individual James Wilson attempted entry at Main Gate", alerts[0].Message)
	s.Equal(1, s.sounder.Plays())
}

// An unresolved face against an empty roster is an intrusion: unauthorized
// log entry, intrusion alert, exactly one sound.
func (s *EngineSuite) TestUnknownFaceEmptyRoster() {
	result := s.tick(Detection{Embedding: []float32{1, 2, 3}})

	s.Require().Len(result.Detections, 1)
	s.Equal(classify.UnauthorizedUnknown, result.Detections[0].Classification)

	logs := s.logs()
	s.Require().Len(logs, 1)
	s.False(logs[0].Authorized)
	s.Equal("Unknown", logs[0].SubjectName)

	alerts := s.alerts()
	s.Require().Len(alerts, 1)
	s.Equal(alert.KindIntrusion, alerts[0].Kind)
	s.Equal(1, s.sounder.Plays())
}

func (s *EngineSuite) TestApprovedVisitorWindow() {
	req, err := s.engine.RegisterVisitor(context.Background(), "Emily Davis", "Sarah Johnson")
	s.Require().NoError(err)

	grant, err := s.engine.ApproveVisitor(context.Background(), req.ID)
	s.Require().NoError(err)

	s.Run("valid nine minutes in", func() {
		s.now = s.now.Add(9 * time.Minute)
		result := s.tick(Detection{Label: grant.SubjectID.String()})
		s.Require().Len(result.Detections, 1)
		s.Equal(classify.VisitorValid, result.Detections[0].Classification)
		s.Nil(result.Alert)
	})

	s.Run("expired eleven minutes in", func() {
		s.now = s.now.Add(2 * time.Minute)
		_, err := s.visitors.Sweep(context.Background(), s.now)
		s.Require().NoError(err)

		result := s.tick(Detection{Label: grant.SubjectID.String()})
		s.Require().Len(result.Detections, 1)
		s.Equal(classify.VisitorExpired, result.Detections[0].Classification)
		s.Require().NotNil(result.Alert)
		s.Equal(alert.KindOverstay, result.Alert.Kind)
	})
}

func (s *EngineSuite) TestApprovalEnrollsRosterAndNotifies() {
	req, err := s.engine.RegisterVisitor(context.Background(), "Emily Davis", "Sarah Johnson")
	s.Require().NoError(err)

	// Registration only queues; nothing on the roster yet.
	identities, err := s.engine.Roster(context.Background())
	s.Require().NoError(err)
	s.Empty(identities)
	s.Empty(s.alerts())

	grant, err := s.engine.ApproveVisitor(context.Background(), req.ID)
	s.Require().NoError(err)

	identity, err := s.engine.Identity(context.Background(), grant.SubjectID)
	s.Require().NoError(err)
	s.Equal(roster.RoleVisitor, identity.Role)
	s.Require().NotNil(identity.VisitorExpiry)
	s.Equal(grant.Expiry, *identity.VisitorExpiry)
	s.Equal("Sarah Johnson", identity.RegisteredBy)

	alerts := s.alerts()
	s.Require().Len(alerts, 1)
	s.Equal(alert.KindVisitorRegistered, alerts[0].Kind)
	s.Equal("New visitor Emily Davis registered by Sarah Johnson", alerts[0].Message)
}

func (s *EngineSuite) TestDebounceAcrossTicks() {
	s.tick(Detection{Embedding: []float32{1}})
	s.tick(Detection{Embedding: []float32{1}})
	s.tick(Detection{Embedding: []float32{1}})
	s.Len(s.alerts(), 1)
	s.Equal(1, s.sounder.Plays())

	// A clean tick re-arms the channel.
	s.tick()
	s.tick(Detection{Embedding: []float32{1}})

	alerts := s.alerts()
	s.Len(alerts, 2)
	s.NotEqual(alerts[0].ID, alerts[1].ID)
	s.Equal(2, s.sounder.Plays())
}

func (s *EngineSuite) TestTickTakesMostSevereKind() {
	james, err := s.engine.AddIdentity(context.Background(), &roster.Identity{
		Name:        "James Wilson",
		Role:        roster.RoleStudent,
		Blacklisted: true,
	})
	s.Require().NoError(err)
	watched, err := s.engine.AddIdentity(context.Background(), &roster.Identity{
		Name:        "Watched Lecturer",
		Role:        roster.RoleLecturer,
		Watchlisted: true,
	})
	s.Require().NoError(err)

	result := s.tick(
		Detection{Label: watched.ID.String()},
		Detection{Embedding: []float32{1, 2, 3}},
		Detection{Label: james.ID.String()},
	)

	s.Len(result.Detections, 3)
	s.Len(s.logs(), 3)

	alerts := s.alerts()
	s.Require().Len(alerts, 1)
	s.Equal(alert.KindBlacklist, alerts[0].Kind)
}

func (s *EngineSuite) TestChannelsDebounceIndependently() {
	_, err := s.engine.ProcessTick(context.Background(), "North Gate", []Detection{{Embedding: []float32{1}}})
	s.Require().NoError(err)
	_, err = s.engine.ProcessTick(context.Background(), "South Gate", []Detection{{Embedding: []float32{1}}})
	s.Require().NoError(err)

	s.Len(s.alerts(), 2)
}

func (s *EngineSuite) TestWatchlistedEntersButAlerts() {
	watched, err := s.engine.AddIdentity(context.Background(), &roster.Identity{
		Name:        "Watched Lecturer",
		Role:        roster.RoleLecturer,
		Watchlisted: true,
	})
	s.Require().NoError(err)

	result := s.tick(Detection{Label: watched.ID.String()})

	s.Equal(classify.Watchlisted, result.Detections[0].Classification)
	logs := s.logs()
	s.Require().Len(logs, 1)
	s.True(logs[0].Authorized)

	alerts := s.alerts()
	s.Require().Len(alerts, 1)
	s.Equal(alert.KindWatchlist, alerts[0].Kind)
}

func (s *EngineSuite) TestEmbeddingMatchesEnrolledDescriptor() {
	member, err := s.engine.AddIdentity(context.Background(), &roster.Identity{
		Name:       "James Wilson",
		Role:       roster.RoleStudent,
		Descriptor: []float32{0.1, 0.2, 0.3},
	})
	s.Require().NoError(err)

	result := s.tick(Detection{Embedding: []float32{0.1, 0.2, 0.3}})

	s.Require().Len(result.Detections, 1)
	s.Equal(classify.Authorized, result.Detections[0].Classification)
	s.Equal(member.ID.String(), result.Detections[0].Label)
	s.Empty(s.alerts())
}

func (s *EngineSuite) TestRemovedIdentityUnenrolled() {
	member, err := s.engine.AddIdentity(context.Background(), &roster.Identity{
		Name:       "James Wilson",
		Role:       roster.RoleStudent,
		Descriptor: []float32{0.1, 0.2, 0.3},
	})
	s.Require().NoError(err)
	s.Require().NoError(s.engine.RemoveIdentity(context.Background(), member.ID))

	result := s.tick(Detection{Embedding: []float32{0.1, 0.2, 0.3}})
	s.Equal(classify.UnauthorizedUnknown, result.Detections[0].Classification)
}

func (s *EngineSuite) TestEmptyTickIsClean() {
	result := s.tick()
	s.Empty(result.Detections)
	s.Nil(result.Alert)
	s.Empty(s.logs())
	s.Empty(s.alerts())
}

func (s *EngineSuite) TestMarkAlertRead() {
	s.tick(Detection{Embedding: []float32{1}})
	alerts := s.alerts()
	s.Require().Len(alerts, 1)

	s.Require().NoError(s.engine.MarkAlertRead(context.Background(), alerts[0].ID))
	alerts = s.alerts()
	s.True(alerts[0].Read)
}

func (s *EngineSuite) TestActiveAlertTracksDebouncer() {
	result := s.tick(Detection{Embedding: []float32{1}})
	s.Require().NotNil(result.Alert)

	id, ok := s.engine.ActiveAlert("")
	s.True(ok)
	s.Equal(result.Alert.ID, id)

	s.tick()
	_, ok = s.engine.ActiveAlert("")
	s.False(ok)
}

func (s *EngineSuite) TestLogsFilter() {
	james, err := s.engine.AddIdentity(context.Background(), &roster.Identity{
		Name: "James Wilson",
		Role: roster.RoleStudent,
	})
	s.Require().NoError(err)

	s.tick(Detection{Label: james.ID.String()})
	s.tick(Detection{Embedding: []float32{1}})

	authorized := true
	entries, err := s.engine.Logs(context.Background(), accesslog.Filter{Authorized: &authorized})
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal("James Wilson", entries[0].SubjectName)
}

func TestSchedulerLifecycle(t *testing.T) {
	var mu sync.Mutex
	runs := 0
	sched := NewScheduler(5*time.Millisecond, func(context.Context) {
		mu.Lock()
		runs++
		mu.Unlock()
	}, nil)

	sched.Start(context.Background())
	if !sched.Running() {
		t.Fatal("scheduler should be running after Start")
	}
	sched.Start(context.Background()) // idempotent

	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		n := runs
		mu.Unlock()
		if n >= 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("scheduler never ran")
		case <-time.After(5 * time.Millisecond):
		}
	}

	sched.Stop()
	if sched.Running() {
		t.Fatal("scheduler should be stopped after Stop")
	}
	sched.Stop() // idempotent

	mu.Lock()
	after := runs
	mu.Unlock()
	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if runs != after {
		t.Fatal("scheduler kept running after Stop")
	}
}
