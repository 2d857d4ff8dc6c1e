package core

import (
	"errors"
	"slices"
	"strings"
	"time"
)

var (
	ErrJobNotFound        = errors.New("core: job not found")
	ErrJobIDRequired      = errors.New("core: job id is required")
	ErrSessionIDRequired  = errors.New("core: session id is required")
	ErrUserMessageMissing = errors.New("core: user_message is required")
)

type JobStatus string

const (
	JobStatusPending JobStatus = "pending"
	JobStatusDone    JobStatus = "done"
)

func (s JobStatus) Terminal() bool {
	return s == JobStatusDone
}

type SessionStatus string

const (
	SessionStatusUnknown  SessionStatus = "unknown"
	SessionStatusPending  SessionStatus = "pending"
	SessionStatusComplete SessionStatus = "complete"
)

func (s SessionStatus) Terminal() bool {
	return s == SessionStatusComplete
}

type Actor string

const (
	ActorUser  Actor = "user"
	ActorAgent Actor = "agent"
)

// Load is a row of the load board. Nil pointers are NULL columns.
type Load struct {
	LoadID        string     `json:"load_id"`
	Origin        string     `json:"origin"`
	Destination   string     `json:"destination"`
	PickupAt      *time.Time `json:"pickup_datetime"`
	DeliveryAt    *time.Time `json:"delivery_datetime"`
	EquipmentType string     `json:"equipment_type"`
	Rate          *float64   `json:"loadboard_rate"`
	Weight        *float64   `json:"weight"`
	CommodityType string     `json:"commodity_type"`
	Pieces        *int       `json:"num_of_pieces"`
	Miles         *float64   `json:"miles"`
	Dimensions    string     `json:"dimensions"`
	Notes         string     `json:"notes,omitempty"`
}

// LoadQuery carries the structured search constraints. Nil fields impose no
// constraint; zero weight or miles are treated as absent.
type LoadQuery struct {
	Origin      string
	Destination string
	Weight      *float64
	Miles       *float64
	RateMin     *float64
	RateMax     *float64
	Limit       int
}

func (q LoadQuery) Normalized() LoadQuery {
	out := q
	out.Origin = strings.TrimSpace(q.Origin)
	out.Destination = strings.TrimSpace(q.Destination)
	if out.Weight != nil && *out.Weight == 0 {
		out.Weight = nil
	}
	if out.Miles != nil && *out.Miles == 0 {
		out.Miles = nil
	}
	if out.Limit <= 0 {
		out.Limit = DefaultSearchLimit
	}
	return out
}

type Job struct {
	ID          string
	Status      JobStatus
	CreatedAt   time.Time
	CompletedAt time.Time
	Input       map[string]any
	Echo        any
	Result      []Load
}

type TranscriptEntry struct {
	Actor   Actor
	At      time.Time
	Message string
	Offer   *float64
}

type NegotiationResult struct {
	Price  *float64 `json:"ai_negotiated_price"`
	Reason string   `json:"ai_negotiation_reason"`
}

type NegotiationSession struct {
	ID         string
	Status     SessionStatus
	StartedAt  time.Time
	LastUpdate time.Time
	Request    map[string]any
	Transcript []TranscriptEntry
	Result     *NegotiationResult
}

// NegotiationRound is one durable row of the negotiation ledger.
type NegotiationRound struct {
	ID                 string
	SessionID          string
	LoadID             string
	Miles              *float64
	LoadboardRate      *float64
	Price              *float64
	UserMessage        string
	UserRequestedPrice *float64
	CurRound           *int
	MaxRounds          *int
	AgentPrice         *float64
	AgentReason        string
	History            string
	Sentiment          string
	CreatedAt          time.Time
}

type Event struct {
	ID         string
	Source     string
	Name       string
	Status     string
	DurationMS int64
	Route      string
	Payload    map[string]any
	CreatedAt  time.Time
}

// CarrierEligibility mirrors the registry record. Name and location fields
// are nil when the registry does not report them.
type CarrierEligibility struct {
	MC        string  `json:"mc"`
	LegalName *string `json:"legal_name"`
	DBAName   *string `json:"dba_name"`
	Status    string  `json:"status"`
	Eligible  bool    `json:"eligible"`
	City      *string `json:"city"`
	State     *string `json:"state"`
}

func cloneJob(job Job) Job {
	cloned := job
	cloned.Input = copyAnyMap(job.Input)
	if job.Result != nil {
		cloned.Result = slices.Clone(job.Result)
	}
	return cloned
}

func cloneSession(session NegotiationSession) NegotiationSession {
	cloned := session
	cloned.Request = copyAnyMap(session.Request)
	cloned.Transcript = append([]TranscriptEntry(nil), session.Transcript...)
	if session.Result != nil {
		result := *session.Result
		cloned.Result = &result
	}
	return cloned
}

func copyAnyMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

var errRelayNotConfigured = errors.New("core: outbound relay is not configured")
