package query

import (
	"context"

	"github.com/goliatone/go-loadrelay/core"
)

type JobReader interface {
	PollJob(ctx context.Context, id string) (core.Job, error)
}

// LoadReader is fail-soft: both operations return an empty slice on
// repository failure.
type LoadReader interface {
	RecentLoads(ctx context.Context, limit int) []core.Load
	SearchLoads(ctx context.Context, query core.LoadQuery) []core.Load
}

type CarrierChecker interface {
	CheckCarrier(ctx context.Context, mc string) (core.CarrierEligibility, error)
}

type NegotiationReader interface {
	PollNegotiation(ctx context.Context, id string) (core.NegotiationPoll, error)
	NegotiationHistory(ctx context.Context, id string) ([]core.NegotiationRound, error)
}

type ReadService interface {
	JobReader
	LoadReader
	CarrierChecker
	NegotiationReader
}

type PollJobQuery struct {
	reader JobReader
}

func NewPollJobQuery(reader JobReader) *PollJobQuery {
	return &PollJobQuery{reader: reader}
}

func (q *PollJobQuery) Query(ctx context.Context, msg PollJobMessage) (core.Job, error) {
	if q == nil || q.reader == nil {
		return core.Job{}, queryDependencyError("query: job reader is required")
	}
	return q.reader.PollJob(ctx, msg.JobID)
}

type RecentLoadsQuery struct {
	reader LoadReader
}

func NewRecentLoadsQuery(reader LoadReader) *RecentLoadsQuery {
	return &RecentLoadsQuery{reader: reader}
}

func (q *RecentLoadsQuery) Query(ctx context.Context, msg RecentLoadsMessage) ([]core.Load, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: load reader is required")
	}
	return q.reader.RecentLoads(ctx, msg.Limit), nil
}

type SearchLoadsQuery struct {
	reader LoadReader
}

func NewSearchLoadsQuery(reader LoadReader) *SearchLoadsQuery {
	return &SearchLoadsQuery{reader: reader}
}

func (q *SearchLoadsQuery) Query(ctx context.Context, msg SearchLoadsMessage) ([]core.Load, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: load reader is required")
	}
	return q.reader.SearchLoads(ctx, msg.Query), nil
}

type CheckCarrierQuery struct {
	checker CarrierChecker
}

func NewCheckCarrierQuery(checker CarrierChecker) *CheckCarrierQuery {
	return &CheckCarrierQuery{checker: checker}
}

func (q *CheckCarrierQuery) Query(ctx context.Context, msg CheckCarrierMessage) (core.CarrierEligibility, error) {
	if q == nil || q.checker == nil {
		return core.CarrierEligibility{}, queryDependencyError("query: carrier checker is required")
	}
	return q.checker.CheckCarrier(ctx, msg.MC)
}

type PollNegotiationQuery struct {
	reader NegotiationReader
}

func NewPollNegotiationQuery(reader NegotiationReader) *PollNegotiationQuery {
	return &PollNegotiationQuery{reader: reader}
}

func (q *PollNegotiationQuery) Query(ctx context.Context, msg PollNegotiationMessage) (core.NegotiationPoll, error) {
	if q == nil || q.reader == nil {
		return core.NegotiationPoll{}, queryDependencyError("query: negotiation reader is required")
	}
	return q.reader.PollNegotiation(ctx, msg.SessionID)
}

type NegotiationHistoryQuery struct {
	reader NegotiationReader
}

func NewNegotiationHistoryQuery(reader NegotiationReader) *NegotiationHistoryQuery {
	return &NegotiationHistoryQuery{reader: reader}
}

func (q *NegotiationHistoryQuery) Query(
	ctx context.Context,
	msg NegotiationHistoryMessage,
) ([]core.NegotiationRound, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: negotiation reader is required")
	}
	return q.reader.NegotiationHistory(ctx, msg.SessionID)
}
