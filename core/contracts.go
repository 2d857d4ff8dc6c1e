package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// LoadRepository is the read-only query capability over the load board.
type LoadRepository interface {
	Search(ctx context.Context, query LoadQuery) ([]Load, error)
	ClosestByWeight(ctx context.Context, target float64, limit int) ([]Load, error)
	Recent(ctx context.Context, limit int) ([]Load, error)
}

type JobStore interface {
	Create(ctx context.Context, job Job) (Job, error)
	Complete(ctx context.Context, id string, echo any, result []Load) (Job, error)
	Get(ctx context.Context, id string) (Job, error)
	PurgeExpired(ctx context.Context, policy RetentionPolicy) (int, error)
}

// UserTurn is the client side of a negotiation round.
type UserTurn struct {
	Message        string
	RequestedPrice *float64
	Request        map[string]any
	Reopen         bool
}

type SessionStore interface {
	GetOrCreate(ctx context.Context, id string) (NegotiationSession, bool, error)
	AppendUserTurn(ctx context.Context, id string, turn UserTurn) (NegotiationSession, error)
	RecordResult(ctx context.Context, id string, result NegotiationResult) (NegotiationSession, error)
	Get(ctx context.Context, id string) (NegotiationSession, bool, error)
	PurgeExpired(ctx context.Context, policy RetentionPolicy) (int, error)
}

// NegotiationLedger persists one immutable row per negotiation round.
type NegotiationLedger interface {
	AppendRound(ctx context.Context, round NegotiationRound) (NegotiationRound, error)
	ListRounds(ctx context.Context, sessionID string) ([]NegotiationRound, error)
}

type EventRecorder interface {
	Record(ctx context.Context, event Event) error
}

type DeliveryRequest struct {
	URL     string
	Method  string
	Headers map[string]string
	Payload any
	Timeout time.Duration
}

// DeliveryResult reports a single delivery attempt. Delivered is true only
// for a 2xx response; Err carries the cause otherwise.
type DeliveryResult struct {
	Delivered  bool
	StatusCode int
	Body       []byte
	Err        error
}

type Relay interface {
	Deliver(ctx context.Context, req DeliveryRequest) DeliveryResult
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type HandleGenerator func() string

type Clock func() time.Time

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger
