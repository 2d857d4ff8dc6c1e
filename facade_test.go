package loadrelay

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-command"
	"github.com/goliatone/go-loadrelay/adapters/gocommand"
	relaycommand "github.com/goliatone/go-loadrelay/command"
	"github.com/goliatone/go-loadrelay/core"
	relayquery "github.com/goliatone/go-loadrelay/query"
)

func TestNewFacade_WiresCommandsAndQueries(t *testing.T) {
	facade, err := NewFacade(newFacadeTestService(t, &recordingRelay{}))
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}

	commands := facade.Commands()
	if commands.SubmitJob == nil || commands.IngestCallback == nil || commands.StartNegotiation == nil ||
		commands.RecordNegotiationResult == nil || commands.RecordNegotiationRound == nil {
		t.Fatalf("expected command handlers to be wired")
	}
	queries := facade.Queries()
	if queries.PollJob == nil || queries.RecentLoads == nil || queries.SearchLoads == nil ||
		queries.CheckCarrier == nil || queries.PollNegotiation == nil || queries.NegotiationHistory == nil {
		t.Fatalf("expected query handlers to be wired")
	}
	if facade.Service() == nil {
		t.Fatalf("expected service accessor")
	}
}

func TestFacade_JobLifecycleThroughCommandsAndQueries(t *testing.T) {
	relay := &recordingRelay{}
	facade, err := NewFacade(newFacadeTestService(t, relay))
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}
	ctx := context.Background()

	submitted := command.NewResult[core.SubmitJobResult]()
	if err := facade.Commands().SubmitJob.Execute(command.ContextWithResult(ctx, submitted), relaycommand.SubmitJobMessage{
		Request: core.SubmitJobRequest{UserMessage: "looking for 5000 kg dry van"},
	}); err != nil {
		t.Fatalf("submit job: %v", err)
	}
	out, ok := submitted.Load()
	if !ok || out.JobID == "" {
		t.Fatalf("expected job id, got %#v", out)
	}
	if relay.calls() != 1 {
		t.Fatalf("expected one relay delivery, got %d", relay.calls())
	}

	job, err := facade.Queries().PollJob.Query(ctx, relayquery.PollJobMessage{JobID: out.JobID})
	if err != nil {
		t.Fatalf("poll job: %v", err)
	}
	if job.Status != core.JobStatusPending {
		t.Fatalf("expected pending job, got %q", job.Status)
	}

	if err := facade.Commands().IngestCallback.Execute(ctx, relaycommand.IngestCallbackMessage{
		Request: core.CallbackRequest{JobID: out.JobID, Body: []byte(`{"job_id":"` + out.JobID + `","weight_kg":5000}`)},
	}); err != nil {
		t.Fatalf("ingest callback: %v", err)
	}

	job, err = facade.Queries().PollJob.Query(ctx, relayquery.PollJobMessage{JobID: out.JobID})
	if err != nil {
		t.Fatalf("poll job after callback: %v", err)
	}
	if job.Status != core.JobStatusDone {
		t.Fatalf("expected done job, got %q", job.Status)
	}
	if len(job.Result) != 1 || job.Result[0].LoadID != "L-5000" {
		t.Fatalf("unexpected suggested loads: %#v", job.Result)
	}
}

func TestFacade_BindDispatchesThroughGoCommand(t *testing.T) {
	relay := &recordingRelay{}
	facade, err := NewFacade(newFacadeTestService(t, relay))
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}

	subs, err := facade.Bind(gocommand.NewRegistryAdapter(nil))
	if err != nil {
		t.Fatalf("bind facade: %v", err)
	}
	defer subs.Unsubscribe()
	if len(subs) != 11 {
		t.Fatalf("expected 11 subscriptions, got %d", len(subs))
	}

	ctx := context.Background()
	if err := gocommand.Dispatch(ctx, relaycommand.RecordNegotiationResultMessage{
		Request: core.NegotiationResultRequest{SessionID: "sess_bind", Reason: "accepted"},
	}); err != nil {
		t.Fatalf("dispatch negotiation result: %v", err)
	}

	poll, err := gocommand.Query[relayquery.PollNegotiationMessage, core.NegotiationPoll](ctx, relayquery.PollNegotiationMessage{
		SessionID: "sess_bind",
	})
	if err != nil {
		t.Fatalf("query negotiation poll: %v", err)
	}
	if !poll.OK || poll.Result == nil || poll.Result.Reason != "accepted" {
		t.Fatalf("unexpected poll result: %#v", poll)
	}

	loads, err := gocommand.Query[relayquery.RecentLoadsMessage, []core.Load](ctx, relayquery.RecentLoadsMessage{Limit: 1})
	if err != nil {
		t.Fatalf("query recent loads: %v", err)
	}
	if len(loads) != 1 {
		t.Fatalf("expected one recent load, got %d", len(loads))
	}
}

func TestNewFacade_RequiresService(t *testing.T) {
	facade, err := NewFacade(nil)
	if err == nil {
		t.Fatalf("expected nil service error")
	}
	if facade != nil {
		t.Fatalf("expected nil facade on error")
	}
}

func TestFacade_BindRequiresAdapter(t *testing.T) {
	facade, err := NewFacade(newFacadeTestService(t, &recordingRelay{}))
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}
	if _, err := facade.Bind(nil); err == nil {
		t.Fatalf("expected missing adapter error")
	}
	var empty *Facade
	if _, err := empty.Bind(gocommand.NewRegistryAdapter(nil)); err == nil {
		t.Fatalf("expected nil facade error")
	}
}

func newFacadeTestService(t *testing.T, relay core.Relay) *Service {
	t.Helper()

	weight := func(v float64) *float64 { return &v }
	pickup := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	repo := core.NewMemoryLoadRepository(
		core.Load{LoadID: "L-5000", Origin: "Dallas, TX", Destination: "Atlanta, GA", Weight: weight(5000), PickupAt: &pickup},
		core.Load{LoadID: "L-9000", Origin: "Denver, CO", Destination: "Omaha, NE", Weight: weight(9000), PickupAt: &pickup},
	)

	cfg := DefaultConfig()
	cfg.Workflow.URL = "https://workflow.test/hooks/loads"
	cfg.Negotiation.WebhookURL = "https://workflow.test/hooks/negotiate"

	svc, err := NewService(cfg, WithLoadRepository(repo), WithRelay(relay))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

type recordingRelay struct {
	mu       sync.Mutex
	requests []core.DeliveryRequest
}

func (r *recordingRelay) Deliver(_ context.Context, req core.DeliveryRequest) core.DeliveryResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
	return core.DeliveryResult{Delivered: true, StatusCode: 200}
}

func (r *recordingRelay) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.requests)
}
