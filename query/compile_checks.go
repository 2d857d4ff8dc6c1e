package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-loadrelay/core"
)

var (
	_ gocmd.Querier[PollJobMessage, core.Job]                           = (*PollJobQuery)(nil)
	_ gocmd.Querier[RecentLoadsMessage, []core.Load]                    = (*RecentLoadsQuery)(nil)
	_ gocmd.Querier[SearchLoadsMessage, []core.Load]                    = (*SearchLoadsQuery)(nil)
	_ gocmd.Querier[CheckCarrierMessage, core.CarrierEligibility]       = (*CheckCarrierQuery)(nil)
	_ gocmd.Querier[PollNegotiationMessage, core.NegotiationPoll]       = (*PollNegotiationQuery)(nil)
	_ gocmd.Querier[NegotiationHistoryMessage, []core.NegotiationRound] = (*NegotiationHistoryQuery)(nil)
)
