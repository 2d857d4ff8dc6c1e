package loadrelay

import (
	"fmt"

	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-loadrelay/adapters/gocommand"
	relaycommand "github.com/goliatone/go-loadrelay/command"
	"github.com/goliatone/go-loadrelay/core"
	relayquery "github.com/goliatone/go-loadrelay/query"
)

type CommandQueryService interface {
	relaycommand.MutatingService
	relayquery.ReadService
}

type Commands struct {
	SubmitJob               *relaycommand.SubmitJobCommand
	IngestCallback          *relaycommand.IngestCallbackCommand
	StartNegotiation        *relaycommand.StartNegotiationCommand
	RecordNegotiationResult *relaycommand.RecordNegotiationResultCommand
	RecordNegotiationRound  *relaycommand.RecordNegotiationRoundCommand
}

type Queries struct {
	PollJob            *relayquery.PollJobQuery
	RecentLoads        *relayquery.RecentLoadsQuery
	SearchLoads        *relayquery.SearchLoadsQuery
	CheckCarrier       *relayquery.CheckCarrierQuery
	PollNegotiation    *relayquery.PollNegotiationQuery
	NegotiationHistory *relayquery.NegotiationHistoryQuery
}

type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

func NewFacade(service CommandQueryService) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("loadrelay: command/query service is required")
	}

	facade := &Facade{service: service}
	facade.commands = Commands{
		SubmitJob:               relaycommand.NewSubmitJobCommand(service),
		IngestCallback:          relaycommand.NewIngestCallbackCommand(service),
		StartNegotiation:        relaycommand.NewStartNegotiationCommand(service),
		RecordNegotiationResult: relaycommand.NewRecordNegotiationResultCommand(service),
		RecordNegotiationRound:  relaycommand.NewRecordNegotiationRoundCommand(service),
	}
	facade.queries = Queries{
		PollJob:            relayquery.NewPollJobQuery(service),
		RecentLoads:        relayquery.NewRecentLoadsQuery(service),
		SearchLoads:        relayquery.NewSearchLoadsQuery(service),
		CheckCarrier:       relayquery.NewCheckCarrierQuery(service),
		PollNegotiation:    relayquery.NewPollNegotiationQuery(service),
		NegotiationHistory: relayquery.NewNegotiationHistoryQuery(service),
	}

	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}

// Bind registers every command and query with the adapter's registry and
// subscribes them on the process dispatcher. Callers release the returned
// subscriptions on shutdown.
func (f *Facade) Bind(adapter *gocommand.RegistryAdapter) (gocommand.Subscriptions, error) {
	if f == nil {
		return nil, fmt.Errorf("loadrelay: facade is required")
	}
	if adapter == nil {
		return nil, fmt.Errorf("loadrelay: command registry adapter is required")
	}

	cmds := f.commands
	qrys := f.queries
	var subs gocommand.Subscriptions
	err := gocommand.Collect(&subs,
		func() (commanddispatcher.Subscription, error) {
			return gocommand.RegisterAndSubscribe(adapter, cmds.SubmitJob)
		},
		func() (commanddispatcher.Subscription, error) {
			return gocommand.RegisterAndSubscribe(adapter, cmds.IngestCallback)
		},
		func() (commanddispatcher.Subscription, error) {
			return gocommand.RegisterAndSubscribe(adapter, cmds.StartNegotiation)
		},
		func() (commanddispatcher.Subscription, error) {
			return gocommand.RegisterAndSubscribe(adapter, cmds.RecordNegotiationResult)
		},
		func() (commanddispatcher.Subscription, error) {
			return gocommand.RegisterAndSubscribe(adapter, cmds.RecordNegotiationRound)
		},
		func() (commanddispatcher.Subscription, error) {
			return gocommand.RegisterAndSubscribeQuery(adapter, qrys.PollJob)
		},
		func() (commanddispatcher.Subscription, error) {
			return gocommand.RegisterAndSubscribeQuery(adapter, qrys.RecentLoads)
		},
		func() (commanddispatcher.Subscription, error) {
			return gocommand.RegisterAndSubscribeQuery(adapter, qrys.SearchLoads)
		},
		func() (commanddispatcher.Subscription, error) {
			return gocommand.RegisterAndSubscribeQuery(adapter, qrys.CheckCarrier)
		},
		func() (commanddispatcher.Subscription, error) {
			return gocommand.RegisterAndSubscribeQuery(adapter, qrys.PollNegotiation)
		},
		func() (commanddispatcher.Subscription, error) {
			return gocommand.RegisterAndSubscribeQuery(adapter, qrys.NegotiationHistory)
		},
	)
	if err != nil {
		return nil, err
	}
	return subs, nil
}

var _ CommandQueryService = (*core.Service)(nil)
