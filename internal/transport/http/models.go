package httptransport

import (
	"time"

	"github.com/google/uuid"

	"gatewatch/internal/accesslog"
	"gatewatch/internal/alert"
	"gatewatch/internal/engine"
	"gatewatch/internal/roster"
	"gatewatch/internal/visitor"
)

// Transport DTOs. Domain types stay JSON-free; the mapping lives here.

type identityPayload struct {
	Name          string     `json:"name"`
	Role          string     `json:"role"`
	Blacklisted   bool       `json:"blacklisted"`
	Watchlisted   bool       `json:"watchlisted"`
	VisitorExpiry *time.Time `json:"visitor_expiry,omitempty"`
	RegisteredBy  string     `json:"registered_by,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	Descriptor    []float32  `json:"descriptor,omitempty"`
}

func (p identityPayload) toIdentity() *roster.Identity {
	return &roster.Identity{
		Name:          p.Name,
		Role:          roster.Role(p.Role),
		Blacklisted:   p.Blacklisted,
		Watchlisted:   p.Watchlisted,
		VisitorExpiry: p.VisitorExpiry,
		RegisteredBy:  p.RegisteredBy,
		Notes:         p.Notes,
		Descriptor:    p.Descriptor,
	}
}

// identityResponse deliberately omits the descriptor; embeddings never leave
// the service.
type identityResponse struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	Role          string     `json:"role"`
	Blacklisted   bool       `json:"blacklisted"`
	Watchlisted   bool       `json:"watchlisted"`
	VisitorExpiry *time.Time `json:"visitor_expiry,omitempty"`
	RegisteredBy  string     `json:"registered_by,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func fromIdentity(i *roster.Identity) *identityResponse {
	if i == nil {
		return nil
	}
	return &identityResponse{
		ID:            i.ID,
		Name:          i.Name,
		Role:          string(i.Role),
		Blacklisted:   i.Blacklisted,
		Watchlisted:   i.Watchlisted,
		VisitorExpiry: i.VisitorExpiry,
		RegisteredBy:  i.RegisteredBy,
		Notes:         i.Notes,
		CreatedAt:     i.CreatedAt,
	}
}

func fromIdentities(identities []*roster.Identity) []*identityResponse {
	out := make([]*identityResponse, 0, len(identities))
	for _, i := range identities {
		out = append(out, fromIdentity(i))
	}
	return out
}

type boxPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

type detectionPayload struct {
	FrameTime *time.Time  `json:"frame_time,omitempty"`
	Box       *boxPayload `json:"box,omitempty"`
	Embedding []float32   `json:"embedding,omitempty"`
	Label     string      `json:"label,omitempty"`
	Distance  float64     `json:"distance,omitempty"`
}

type tickRequest struct {
	Location   string             `json:"location,omitempty"`
	Detections []detectionPayload `json:"detections"`
}

func (t tickRequest) toDetections() []engine.Detection {
	out := make([]engine.Detection, 0, len(t.Detections))
	for _, d := range t.Detections {
		det := engine.Detection{
			Embedding: d.Embedding,
			Label:     d.Label,
			Distance:  d.Distance,
		}
		if d.FrameTime != nil {
			det.FrameTime = *d.FrameTime
		}
		if d.Box != nil {
			det.Box = engine.Box{X: d.Box.X, Y: d.Box.Y, W: d.Box.W, H: d.Box.H}
		}
		out = append(out, det)
	}
	return out
}

type entryResponse struct {
	ID          uuid.UUID  `json:"id"`
	SubjectID   *uuid.UUID `json:"subject_id,omitempty"`
	SubjectName string     `json:"subject_name"`
	SubjectRole string     `json:"subject_role"`
	Timestamp   time.Time  `json:"timestamp"`
	Action      string     `json:"action"`
	Location    string     `json:"location"`
	Authorized  bool       `json:"authorized"`
}

func fromEntry(e accesslog.Entry) entryResponse {
	return entryResponse{
		ID:          e.ID,
		SubjectID:   e.SubjectID,
		SubjectName: e.SubjectName,
		SubjectRole: string(e.SubjectRole),
		Timestamp:   e.Timestamp,
		Action:      string(e.Action),
		Location:    e.Location,
		Authorized:  e.Authorized,
	}
}

type alertResponse struct {
	ID          uuid.UUID  `json:"id"`
	Kind        string     `json:"kind"`
	SubjectID   *uuid.UUID `json:"subject_id,omitempty"`
	SubjectName string     `json:"subject_name,omitempty"`
	SubjectRole string     `json:"subject_role,omitempty"`
	Timestamp   time.Time  `json:"timestamp"`
	Message     string     `json:"message"`
	Read        bool       `json:"read"`
}

func fromAlert(a alert.Alert) alertResponse {
	return alertResponse{
		ID:          a.ID,
		Kind:        string(a.Kind),
		SubjectID:   a.SubjectID,
		SubjectName: a.SubjectName,
		SubjectRole: string(a.SubjectRole),
		Timestamp:   a.Timestamp,
		Message:     a.Message,
		Read:        a.Read,
	}
}

type detectionResult struct {
	Classification string            `json:"classification"`
	Authorized     bool              `json:"authorized"`
	Label          string            `json:"label"`
	Distance       float64           `json:"distance,omitempty"`
	Subject        *identityResponse `json:"subject,omitempty"`
	Entry          entryResponse     `json:"entry"`
}

type tickResponse struct {
	Detections []detectionResult `json:"detections"`
	Alert      *alertResponse    `json:"alert,omitempty"`
}

func fromTickResult(t engine.TickResult) tickResponse {
	out := tickResponse{Detections: make([]detectionResult, 0, len(t.Detections))}
	for _, d := range t.Detections {
		out.Detections = append(out.Detections, detectionResult{
			Classification: string(d.Classification),
			Authorized:     d.Classification.Authorized(),
			Label:          d.Label,
			Distance:       d.Distance,
			Subject:        fromIdentity(d.Subject),
			Entry:          fromEntry(d.Entry),
		})
	}
	if t.Alert != nil {
		a := fromAlert(*t.Alert)
		out.Alert = &a
	}
	return out
}

type registerVisitorRequest struct {
	Name        string `json:"name"`
	RequestedBy string `json:"requested_by,omitempty"`
}

type visitorRequestResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	RequestedBy string    `json:"requested_by,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

func fromVisitorRequest(r visitor.Request) visitorRequestResponse {
	return visitorRequestResponse{
		ID:          r.ID,
		Name:        r.Name,
		RequestedBy: r.RequestedBy,
		RequestedAt: r.RequestedAt,
	}
}

type grantResponse struct {
	SubjectID uuid.UUID `json:"subject_id"`
	Name      string    `json:"name"`
	Expiry    time.Time `json:"expiry"`
}

func fromGrant(g visitor.Grant) grantResponse {
	return grantResponse{SubjectID: g.SubjectID, Name: g.Name, Expiry: g.Expiry}
}

type loginRequest struct {
	Operator string `json:"operator"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}
