package core

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func fixedHandles(ids ...string) HandleGenerator {
	next := 0
	return func() string {
		if next >= len(ids) {
			return NewHandle()
		}
		id := ids[next]
		next++
		return id
	}
}

func assertTextCode(t *testing.T, err error, textCode string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", textCode)
	}
	mapped := MapError(err)
	if mapped.TextCode != textCode {
		t.Fatalf("expected text code %s, got %s (%v)", textCode, mapped.TextCode, err)
	}
}

func newJobService(t *testing.T, relay Relay, opts ...Option) (*Service, *MemoryJobStore) {
	t.Helper()
	jobs := NewMemoryJobStore()
	base := []Option{
		WithRelay(relay),
		WithJobStore(jobs),
		WithLoadRepository(NewMemoryLoadRepository(fixtureLoads()...)),
		WithHandleGenerator(fixedHandles("job_1", "job_2")),
		WithLogger(newCaptureLogger()),
	}
	return newTestService(t, testConfig(), append(base, opts...)...), jobs
}

func TestSubmitJob_ForwardsWithHandle(t *testing.T) {
	relay := &recordingRelay{result: DeliveryResult{Delivered: true, StatusCode: http.StatusOK}}
	svc, jobs := newJobService(t, relay)

	result, err := svc.SubmitJob(context.Background(), SubmitJobRequest{UserMessage: "  loads from Dallas  "})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.JobID != "job_1" {
		t.Fatalf("expected job_1 handle, got %q", result.JobID)
	}
	calls := relay.calls()
	if len(calls) != 1 {
		t.Fatalf("expected exactly one delivery, got %d", len(calls))
	}
	call := calls[0]
	if call.URL != "https://workflow.example/hook" || call.Method != http.MethodPost {
		t.Fatalf("unexpected delivery target %s %s", call.Method, call.URL)
	}
	if call.Headers["Authorization"] != "Bearer incoming-token" || call.Headers["X-API-Key"] != "workflow-key" {
		t.Fatalf("unexpected delivery headers %#v", call.Headers)
	}
	payload, ok := call.Payload.(map[string]any)
	if !ok || payload["text"] != "loads from Dallas" || payload["job_id"] != "job_1" {
		t.Fatalf("unexpected payload %#v", call.Payload)
	}
	job, err := jobs.Get(context.Background(), "job_1")
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if job.Status != JobStatusPending {
		t.Fatalf("expected pending job, got %q", job.Status)
	}
}

func TestSubmitJob_BlankMessageLeavesNoState(t *testing.T) {
	relay := &recordingRelay{}
	svc, jobs := newJobService(t, relay)

	_, err := svc.SubmitJob(context.Background(), SubmitJobRequest{UserMessage: "   "})
	assertTextCode(t, err, ErrorBadInput)
	if jobs.Len() != 0 || len(relay.calls()) != 0 {
		t.Fatalf("expected no job and no delivery on bad input")
	}
}

func TestSubmitJob_UnconfiguredWorkflow(t *testing.T) {
	relay := &recordingRelay{}
	jobs := NewMemoryJobStore()
	cfg := testConfig()
	cfg.Workflow.URL = ""
	svc := newTestService(t, cfg, WithRelay(relay), WithJobStore(jobs))

	_, err := svc.SubmitJob(context.Background(), SubmitJobRequest{UserMessage: "hello"})
	assertTextCode(t, err, ErrorNotConfigured)
	if MapError(err).Category != goerrors.CategoryInternal {
		t.Fatalf("expected internal category, got %s", MapError(err).Category)
	}
	if jobs.Len() != 0 {
		t.Fatalf("expected no job when workflow is not configured")
	}
}

func TestSubmitJob_ForwardFailureLeavesJobPending(t *testing.T) {
	relay := &recordingRelay{result: DeliveryResult{StatusCode: http.StatusBadGateway, Err: errors.New("upstream 502")}}
	svc, _ := newJobService(t, relay)

	result, err := svc.SubmitJob(context.Background(), SubmitJobRequest{UserMessage: "hello"})
	assertTextCode(t, err, ErrorExternalFailure)
	if result.JobID != "job_1" {
		t.Fatalf("expected job handle alongside forward failure, got %q", result.JobID)
	}
	job, err := svc.PollJob(context.Background(), "job_1")
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if job.Status != JobStatusPending {
		t.Fatalf("expected stuck pending job, got %q", job.Status)
	}
}

func TestIngestCallback_StructuredSearch(t *testing.T) {
	events := &memoryEvents{}
	svc, _ := newJobService(t, &recordingRelay{result: DeliveryResult{Delivered: true}}, WithEventRecorder(events))
	ctx := context.Background()
	if _, err := svc.SubmitJob(ctx, SubmitJobRequest{UserMessage: "dallas to atlanta"}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	body := []byte(`{"job_id":"job_1","origin":"dallas","destination":"atlanta","weight_kg":1000,"echo":{"ref":"abc"}}`)
	result, err := svc.IngestCallback(ctx, CallbackRequest{JobID: "job_1", Body: body, Route: "/callback/job_1"})
	if err != nil {
		t.Fatalf("callback: %v", err)
	}
	if result.Strategy != StrategyStructured {
		t.Fatalf("expected structured strategy, got %s", result.Strategy)
	}
	if ids := loadIDs(result.SuggestedLoads); !slices.Equal(ids, []string{"L3", "L2", "L1"}) {
		t.Fatalf("unexpected suggested loads %v", ids)
	}
	echo, ok := result.Echo.(map[string]any)
	if !ok || echo["origin"] != "dallas" {
		t.Fatalf("expected full body echo, got %#v", result.Echo)
	}

	job, err := svc.PollJob(ctx, "job_1")
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if job.Status != JobStatusDone || len(job.Result) != 3 {
		t.Fatalf("expected done job with 3 loads, got %q %d", job.Status, len(job.Result))
	}
	if stored, ok := job.Echo.(map[string]any); !ok || stored["ref"] != "abc" {
		t.Fatalf("expected echo field stored on job, got %#v", job.Echo)
	}
	if len(events.events) != 1 || events.events[0].Name != StrategyStructured {
		t.Fatalf("expected structured query event, got %#v", events.events)
	}
}

func TestIngestCallback_WeightFallback(t *testing.T) {
	svc, _ := newJobService(t, &recordingRelay{result: DeliveryResult{Delivered: true}})
	ctx := context.Background()
	if _, err := svc.SubmitJob(ctx, SubmitJobRequest{UserMessage: "heavy"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	result, err := svc.IngestCallback(ctx, CallbackRequest{JobID: "job_1", Body: []byte(`{"text":"about 5000 KG of rice"}`)})
	if err != nil {
		t.Fatalf("callback: %v", err)
	}
	if result.Strategy != StrategyClosestWeight {
		t.Fatalf("expected closest weight strategy, got %s", result.Strategy)
	}
	if len(result.SuggestedLoads) == 0 || result.SuggestedLoads[0].LoadID != "L4" {
		t.Fatalf("expected L4 closest to 5000kg, got %v", loadIDs(result.SuggestedLoads))
	}
}

func TestIngestCallback_FreeTextBody(t *testing.T) {
	svc, _ := newJobService(t, &recordingRelay{result: DeliveryResult{Delivered: true}})
	ctx := context.Background()
	if _, err := svc.SubmitJob(ctx, SubmitJobRequest{UserMessage: "text"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	result, err := svc.IngestCallback(ctx, CallbackRequest{JobID: "job_1", Body: []byte(`need 1000kg moved`)})
	if err != nil {
		t.Fatalf("callback: %v", err)
	}
	if result.Echo != "need 1000kg moved" {
		t.Fatalf("expected raw text echo, got %#v", result.Echo)
	}
	if ids := loadIDs(result.SuggestedLoads); !slices.Equal(ids, []string{"L1", "L3", "L2", "L4"}) {
		t.Fatalf("unexpected closest loads %v", ids)
	}
}

func TestIngestCallback_RecentFallback(t *testing.T) {
	svc, _ := newJobService(t, &recordingRelay{result: DeliveryResult{Delivered: true}})
	ctx := context.Background()
	if _, err := svc.SubmitJob(ctx, SubmitJobRequest{UserMessage: "anything"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	result, err := svc.IngestCallback(ctx, CallbackRequest{JobID: "job_1", Body: []byte(`{"text":"whatever is available"}`)})
	if err != nil {
		t.Fatalf("callback: %v", err)
	}
	if result.Strategy != StrategyRecent || len(result.SuggestedLoads) != FallbackRecentLimit {
		t.Fatalf("expected %d recent loads, got %s %d", FallbackRecentLimit, result.Strategy, len(result.SuggestedLoads))
	}
	if result.SuggestedLoads[0].LoadID != "L5" {
		t.Fatalf("expected newest pickup first, got %v", loadIDs(result.SuggestedLoads))
	}
}

func TestIngestCallback_RepeatedCallbackOverwrites(t *testing.T) {
	svc, _ := newJobService(t, &recordingRelay{result: DeliveryResult{Delivered: true}})
	ctx := context.Background()
	if _, err := svc.SubmitJob(ctx, SubmitJobRequest{UserMessage: "again"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := svc.IngestCallback(ctx, CallbackRequest{JobID: "job_1", Body: []byte(`{"origin":"houston","echo":"one"}`)}); err != nil {
		t.Fatalf("first callback: %v", err)
	}
	if _, err := svc.IngestCallback(ctx, CallbackRequest{JobID: "job_1", Body: []byte(`{"origin":"dallas","echo":"two"}`)}); err != nil {
		t.Fatalf("second callback: %v", err)
	}
	job, _ := svc.PollJob(ctx, "job_1")
	if job.Status != JobStatusDone || job.Echo != "two" {
		t.Fatalf("expected last callback to win, got %q %#v", job.Status, job.Echo)
	}
	if len(job.Result) != 4 {
		t.Fatalf("expected the four dallas loads, got %v", loadIDs(job.Result))
	}
}

func TestIngestCallback_UnknownAndBlankJob(t *testing.T) {
	svc, jobs := newJobService(t, &recordingRelay{})
	_, err := svc.IngestCallback(context.Background(), CallbackRequest{JobID: "missing", Body: []byte(`{}`)})
	assertTextCode(t, err, ErrorNotFound)
	_, err = svc.IngestCallback(context.Background(), CallbackRequest{JobID: " ", Body: []byte(`{}`)})
	assertTextCode(t, err, ErrorBadInput)
	if jobs.Len() != 0 {
		t.Fatalf("expected callbacks not to create jobs")
	}
}

func TestIngestCallback_EventFailureDoesNotFailRequest(t *testing.T) {
	events := &memoryEvents{err: errors.New("events table missing")}
	svc, _ := newJobService(t, &recordingRelay{result: DeliveryResult{Delivered: true}}, WithEventRecorder(events))
	ctx := context.Background()
	if _, err := svc.SubmitJob(ctx, SubmitJobRequest{UserMessage: "x"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := svc.IngestCallback(ctx, CallbackRequest{JobID: "job_1", Body: []byte(`{"miles":800}`)}); err != nil {
		t.Fatalf("expected event failure to be swallowed, got %v", err)
	}
}

func TestIngestCallback_RepositoryFailureYieldsEmptyResult(t *testing.T) {
	repo := NewMemoryLoadRepository(fixtureLoads()...)
	repo.Err = errors.New("database unreachable")
	svc, _ := newJobService(t, &recordingRelay{result: DeliveryResult{Delivered: true}}, WithLoadRepository(repo))
	ctx := context.Background()
	if _, err := svc.SubmitJob(ctx, SubmitJobRequest{UserMessage: "x"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	result, err := svc.IngestCallback(ctx, CallbackRequest{JobID: "job_1", Body: []byte(`{"origin":"dallas"}`)})
	if err != nil {
		t.Fatalf("callback: %v", err)
	}
	if result.SuggestedLoads == nil || len(result.SuggestedLoads) != 0 {
		t.Fatalf("expected empty suggested loads, got %#v", result.SuggestedLoads)
	}
	job, _ := svc.PollJob(ctx, "job_1")
	if job.Status != JobStatusDone {
		t.Fatalf("expected job completed with empty result, got %q", job.Status)
	}
}

func TestPollJob_UnknownIsNotPending(t *testing.T) {
	svc, _ := newJobService(t, &recordingRelay{})
	_, err := svc.PollJob(context.Background(), "never-issued")
	assertTextCode(t, err, ErrorNotFound)
	if MapError(err).Code != http.StatusNotFound {
		t.Fatalf("expected 404 status code, got %d", MapError(err).Code)
	}
}

func TestServiceObservability_SubmitJob(t *testing.T) {
	metrics := &captureMetricsRecorder{}
	logger := newCaptureLogger()
	svc := newTestService(t, testConfig(),
		WithRelay(&recordingRelay{result: DeliveryResult{Delivered: true}}),
		WithMetricsRecorder(metrics),
		WithLoggerProvider(stubLoggerProvider{logger: logger}),
		WithLogger(logger),
	)
	if _, err := svc.SubmitJob(context.Background(), SubmitJobRequest{UserMessage: "hi"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	_, _ = svc.SubmitJob(context.Background(), SubmitJobRequest{})

	if !metrics.hasCounter("loadrelay.submit_job.total", "success") {
		t.Fatalf("expected success counter")
	}
	if !metrics.hasCounter("loadrelay.submit_job.total", "failure") {
		t.Fatalf("expected failure counter")
	}
	if !logger.hasLog("info", "submit_job succeeded") || !logger.hasLog("error", "submit_job failed") {
		t.Fatalf("expected structured operation logs")
	}
}
