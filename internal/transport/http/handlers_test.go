package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"gatewatch/internal/accesslog"
	"gatewatch/internal/alert"
	"gatewatch/internal/auth"
	"gatewatch/internal/engine"
	"gatewatch/internal/matcher"
	"gatewatch/internal/platform/logger"
	"gatewatch/internal/roster"
	"gatewatch/internal/visitor"
	authmw "gatewatch/pkg/platform/middleware/auth"
)

// TransportSuite drives the full router against a real engine with in-memory
// stores, the way the process wires it.
type TransportSuite struct {
	suite.Suite
	server *httptest.Server
	token  string
	engine *engine.Engine
}

func TestTransportSuite(t *testing.T) {
	suite.Run(t, new(TransportSuite))
}

func (s *TransportSuite) SetupTest() {
	log := logger.New()

	alerts, err := alert.NewService(alert.NewInMemoryStore(), log)
	s.Require().NoError(err)
	rosterSvc, err := roster.NewService(roster.NewInMemoryStore(), roster.WithNotifier(alerts))
	s.Require().NoError(err)
	visitors, err := visitor.NewManager(visitor.NewInMemoryGrantStore(), 10*time.Minute)
	s.Require().NoError(err)

	euclid := matcher.NewEuclidean(matcher.DefaultThreshold)
	s.engine, err = engine.New(engine.Deps{
		Roster:   rosterSvc,
		Matcher:  matcher.NewAdapter(euclid, log),
		Visitors: visitors,
		Alerts:   alerts,
		Recorder: accesslog.NewRecorder(accesslog.NewInMemoryStore(), log),
	}, engine.WithEnroller(euclid), engine.WithLogger(log))
	s.Require().NoError(err)

	authSvc := auth.NewService(auth.NewTokenService("test-signing-key", "gatewatch"), log)
	s.Require().NoError(authSvc.AddOperator("sarah", "hunter2"))
	guard := authmw.RequireOperator(authSvc, log)

	router := NewRouter(log, nil,
		NewMonitorHandler(s.engine, context.Background(), time.Second, guard, log),
		NewRosterHandler(s.engine, guard, log),
		NewVisitorHandler(s.engine, guard, log),
		NewAlertHandler(s.engine, guard, log),
		NewLogHandler(s.engine),
		NewAuthHandler(authSvc, log),
	)
	s.server = httptest.NewServer(router)
	s.T().Cleanup(s.server.Close)

	s.token, err = authSvc.Login(context.Background(), "sarah", "hunter2")
	s.Require().NoError(err)
}

func (s *TransportSuite) request(method, path string, body any, authenticated bool) *http.Response {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, s.server.URL+path, &buf)
	s.Require().NoError(err)
	if authenticated {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := s.server.Client().Do(req)
	s.Require().NoError(err)
	return resp
}

func (s *TransportSuite) decode(resp *http.Response, v any) {
	defer resp.Body.Close()
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(v))
}

func (s *TransportSuite) TestLogin() {
	s.Run("valid credentials issue a token", func() {
		resp := s.request(http.MethodPost, "/auth/login", loginRequest{Operator: "sarah", Password: "hunter2"}, false)
		s.Equal(http.StatusOK, resp.StatusCode)
		var out loginResponse
		s.decode(resp, &out)
		s.NotEmpty(out.Token)
	})

	s.Run("wrong password is unauthorized", func() {
		resp := s.request(http.MethodPost, "/auth/login", loginRequest{Operator: "sarah", Password: "wrong"}, false)
		resp.Body.Close()
		s.Equal(http.StatusUnauthorized, resp.StatusCode)
	})
}

func (s *TransportSuite) TestMutationsRequireToken() {
	paths := []struct {
		method, path string
	}{
		{http.MethodPost, "/roster"},
		{http.MethodPost, "/monitor/detections"},
		{http.MethodPost, "/monitor/start"},
		{http.MethodPost, "/monitor/stop"},
		{http.MethodPost, "/alerts/" + uuid.NewString() + "/read"},
	}
	for _, p := range paths {
		resp := s.request(p.method, p.path, map[string]any{}, false)
		resp.Body.Close()
		s.Equal(http.StatusUnauthorized, resp.StatusCode, "%s %s", p.method, p.path)
	}
}

func (s *TransportSuite) TestRosterCRUD() {
	var created identityResponse
	resp := s.request(http.MethodPost, "/roster", identityPayload{Name: "James Wilson", Role: "student"}, true)
	s.Equal(http.StatusCreated, resp.StatusCode)
	s.decode(resp, &created)
	s.Equal("James Wilson", created.Name)

	resp = s.request(http.MethodGet, "/roster", nil, false)
	s.Equal(http.StatusOK, resp.StatusCode)
	var list []identityResponse
	s.decode(resp, &list)
	s.Require().Len(list, 1)

	resp = s.request(http.MethodPut, "/roster/"+created.ID.String(),
		identityPayload{Name: "James Wilson", Role: "student", Blacklisted: true}, true)
	s.Equal(http.StatusOK, resp.StatusCode)
	var updated identityResponse
	s.decode(resp, &updated)
	s.True(updated.Blacklisted)

	resp = s.request(http.MethodDelete, "/roster/"+created.ID.String(), nil, true)
	resp.Body.Close()
	s.Equal(http.StatusNoContent, resp.StatusCode)

	resp = s.request(http.MethodDelete, "/roster/"+created.ID.String(), nil, true)
	resp.Body.Close()
	s.Equal(http.StatusNotFound, resp.StatusCode)

	resp = s.request(http.MethodPut, "/roster/not-a-uuid", identityPayload{Name: "X", Role: "student"}, true)
	resp.Body.Close()
	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *TransportSuite) TestDetectionTick() {
	var created identityResponse
	resp := s.request(http.MethodPost, "/roster",
		identityPayload{Name: "James Wilson", Role: "student", Blacklisted: true}, true)
	s.decode(resp, &created)

	resp = s.request(http.MethodPost, "/monitor/detections", tickRequest{
		Detections: []detectionPayload{{Label: created.ID.String()}},
	}, true)
	s.Equal(http.StatusOK, resp.StatusCode)

	var tick tickResponse
	s.decode(resp, &tick)
	s.Require().Len(tick.Detections, 1)
	s.Equal("unauthorized_blacklisted", tick.Detections[0].Classification)
	s.False(tick.Detections[0].Authorized)
	s.Require().NotNil(tick.Alert)
	s.Equal("blacklist", tick.Alert.Kind)

	// The alert and the log entry are visible on their feeds.
	resp = s.request(http.MethodGet, "/alerts", nil, false)
	var alerts []alertResponse
	s.decode(resp, &alerts)
	s.Require().Len(alerts, 1)

	resp = s.request(http.MethodGet, "/logs?authorized=false", nil, false)
	var entries []entryResponse
	s.decode(resp, &entries)
	s.Require().Len(entries, 1)
	s.Equal("James Wilson", entries[0].SubjectName)
}

func (s *TransportSuite) TestVisitorFlow() {
	resp := s.request(http.MethodPost, "/visitors/register",
		registerVisitorRequest{Name: "Emily Davis", RequestedBy: "Sarah Johnson"}, false)
	s.Equal(http.StatusAccepted, resp.StatusCode)
	var req visitorRequestResponse
	s.decode(resp, &req)

	resp = s.request(http.MethodGet, "/visitors/requests", nil, true)
	var requests []visitorRequestResponse
	s.decode(resp, &requests)
	s.Require().Len(requests, 1)

	resp = s.request(http.MethodPost, fmt.Sprintf("/visitors/requests/%s/approve", req.ID), nil, true)
	s.Equal(http.StatusOK, resp.StatusCode)
	var grant grantResponse
	s.decode(resp, &grant)
	s.Equal("Emily Davis", grant.Name)

	resp = s.request(http.MethodGet, "/visitors/grants", nil, false)
	var grants []grantResponse
	s.decode(resp, &grants)
	s.Require().Len(grants, 1)
	s.Equal(grant.SubjectID, grants[0].SubjectID)

	// Approving the same request again is a not-found.
	resp = s.request(http.MethodPost, fmt.Sprintf("/visitors/requests/%s/approve", req.ID), nil, true)
	resp.Body.Close()
	s.Equal(http.StatusNotFound, resp.StatusCode)
}

func (s *TransportSuite) TestMonitorLifecycle() {
	resp := s.request(http.MethodGet, "/monitor/status", nil, false)
	var status map[string]bool
	s.decode(resp, &status)
	s.False(status["monitoring"])

	resp = s.request(http.MethodPost, "/monitor/start", nil, true)
	resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	resp = s.request(http.MethodGet, "/monitor/status", nil, false)
	s.decode(resp, &status)
	s.True(status["monitoring"])

	resp = s.request(http.MethodPost, "/monitor/stop", nil, true)
	resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	resp = s.request(http.MethodGet, "/monitor/status", nil, false)
	s.decode(resp, &status)
	s.False(status["monitoring"])

	// Stopping did not wipe state.
	resp = s.request(http.MethodGet, "/roster", nil, false)
	s.Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func (s *TransportSuite) TestHealthz() {
	resp := s.request(http.MethodGet, "/healthz", nil, false)
	resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)
}
