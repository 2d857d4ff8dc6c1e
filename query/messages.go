package query

import (
	"strings"

	"github.com/goliatone/go-loadrelay/core"
)

const (
	TypePollJob            = "loadrelay.query.job.poll"
	TypeRecentLoads        = "loadrelay.query.loads.recent"
	TypeSearchLoads        = "loadrelay.query.loads.search"
	TypeCheckCarrier       = "loadrelay.query.carrier.check"
	TypePollNegotiation    = "loadrelay.query.negotiation.poll"
	TypeNegotiationHistory = "loadrelay.query.negotiation.history"
)

type PollJobMessage struct {
	JobID string
}

func (PollJobMessage) Type() string { return TypePollJob }

func (m PollJobMessage) Validate() error {
	if strings.TrimSpace(m.JobID) == "" {
		return queryValidationError("job_id", "is required")
	}
	return nil
}

// RecentLoadsMessage with a zero limit uses the service default.
type RecentLoadsMessage struct {
	Limit int
}

func (RecentLoadsMessage) Type() string { return TypeRecentLoads }

func (m RecentLoadsMessage) Validate() error {
	if m.Limit < 0 {
		return queryValidationError("limit", "must be >= 0")
	}
	return nil
}

type SearchLoadsMessage struct {
	Query core.LoadQuery
}

func (SearchLoadsMessage) Type() string { return TypeSearchLoads }

func (m SearchLoadsMessage) Validate() error {
	if m.Query.Limit < 0 {
		return queryValidationError("limit", "must be >= 0")
	}
	return nil
}

type CheckCarrierMessage struct {
	MC string
}

func (CheckCarrierMessage) Type() string { return TypeCheckCarrier }

func (m CheckCarrierMessage) Validate() error {
	if strings.TrimSpace(m.MC) == "" {
		return queryValidationError("mc", "is required")
	}
	return nil
}

type PollNegotiationMessage struct {
	SessionID string
}

func (PollNegotiationMessage) Type() string { return TypePollNegotiation }

// Validate accepts blank ids; the poll reports them as unknown.
func (m PollNegotiationMessage) Validate() error {
	return nil
}

type NegotiationHistoryMessage struct {
	SessionID string
}

func (NegotiationHistoryMessage) Type() string { return TypeNegotiationHistory }

func (m NegotiationHistoryMessage) Validate() error {
	if strings.TrimSpace(m.SessionID) == "" {
		return queryValidationError("session_id", "is required")
	}
	return nil
}
