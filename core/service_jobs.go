package core

import (
	"context"
	"net/http"
	"strings"
	"time"
)

const (
	StrategyStructured    = "structured_query"
	StrategyClosestWeight = "fallback_text_query"
	StrategyRecent        = "recent_loads"
)

type SubmitJobRequest struct {
	UserMessage string
	Payload     map[string]any
}

type SubmitJobResult struct {
	JobID string
}

type CallbackRequest struct {
	JobID string
	Body  []byte
	Route string
}

type CallbackResult struct {
	JobID          string
	Echo           any
	SuggestedLoads []Load
	Strategy       string
}

// SubmitJob registers a pending job and forwards it to the workflow. A failed
// forward is reported while the job stays pending.
func (s *Service) SubmitJob(ctx context.Context, req SubmitJobRequest) (result SubmitJobResult, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{}
	defer func() {
		fields["job_id"] = result.JobID
		s.observeOperation(ctx, startedAt, "submit_job", err, fields)
	}()

	message := strings.TrimSpace(req.UserMessage)
	if message == "" {
		return SubmitJobResult{}, badInputError(ErrUserMessageMissing.Error(), map[string]any{"field": "user_message"})
	}
	workflowURL := strings.TrimSpace(s.config.Workflow.URL)
	if workflowURL == "" {
		return SubmitJobResult{}, notConfiguredError("core: workflow url is not configured", nil)
	}

	input := copyAnyMap(req.Payload)
	input["user_message"] = message
	job, err := s.jobStore.Create(ctx, Job{
		ID:        s.newHandle(),
		CreatedAt: s.now(),
		Input:     input,
	})
	if err != nil {
		return SubmitJobResult{}, internalError(err, "core: job create failed", nil)
	}
	result.JobID = job.ID

	headers := map[string]string{}
	if token := strings.TrimSpace(s.config.Auth.Token); token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	if apiKey := strings.TrimSpace(s.config.Workflow.APIKey); apiKey != "" {
		headers["X-API-Key"] = apiKey
	}
	delivery := s.relay.Deliver(ctx, DeliveryRequest{
		URL:     workflowURL,
		Method:  http.MethodPost,
		Headers: headers,
		Payload: map[string]any{"text": message, "job_id": job.ID},
		Timeout: s.config.Workflow.Timeout,
	})
	fields["status_code"] = delivery.StatusCode
	if !delivery.Delivered {
		return result, externalError(delivery.Err, "core: workflow forward failed", map[string]any{
			"job_id":      job.ID,
			"status_code": delivery.StatusCode,
		})
	}
	return result, nil
}

// IngestCallback matches loads for the callback body and completes the job.
// Repeated callbacks overwrite the stored result.
func (s *Service) IngestCallback(ctx context.Context, req CallbackRequest) (result CallbackResult, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"route": req.Route}
	defer func() {
		fields["strategy"] = result.Strategy
		fields["loads"] = len(result.SuggestedLoads)
		s.observeOperation(ctx, startedAt, "ingest_callback", err, fields)
	}()

	jobID := strings.TrimSpace(req.JobID)
	if jobID == "" {
		return CallbackResult{}, badInputError(ErrJobIDRequired.Error(), map[string]any{"field": "job_id"})
	}
	fields["job_id"] = jobID
	if _, err := s.jobStore.Get(ctx, jobID); err != nil {
		return CallbackResult{}, jobLookupError(err, jobID)
	}

	body := DecodeObject(req.Body)
	var echo any
	if body != nil {
		echo = body["echo"]
	}

	var loads []Load
	strategy := StrategyRecent
	eventPayload := map[string]any{}
	switch {
	case HasStructuredSearch(body):
		strategy = StrategyStructured
		loads = s.matcher.Search(ctx, QueryFromFields(body))
		for _, key := range append(StructuredSearchFields, "limit") {
			eventPayload[key] = body[key]
		}
	default:
		if weight, ok := ExtractWeight(string(req.Body)); ok {
			strategy = StrategyClosestWeight
			loads = s.matcher.ClosestByWeight(ctx, weight, DefaultClosestLimit)
			eventPayload["raw_text"] = string(req.Body)
			eventPayload["weight_guess"] = weight
			eventPayload["strategy"] = "closest_by_weight"
		} else {
			loads = s.matcher.Recent(ctx, FallbackRecentLimit)
			eventPayload["strategy"] = StrategyRecent
		}
	}

	if _, err := s.jobStore.Complete(ctx, jobID, echo, loads); err != nil {
		return CallbackResult{}, jobLookupError(err, jobID)
	}

	s.recordEvent(ctx, Event{
		Source:     "callback",
		Name:       strategy,
		Status:     "ok",
		DurationMS: time.Since(startedAt).Milliseconds(),
		Route:      req.Route,
		Payload:    eventPayload,
	})

	var fullEcho any = body
	if body == nil {
		fullEcho = string(req.Body)
	}
	return CallbackResult{
		JobID:          jobID,
		Echo:           fullEcho,
		SuggestedLoads: loads,
		Strategy:       strategy,
	}, nil
}

// PollJob reads a job. An unknown handle is not found, never pending.
func (s *Service) PollJob(ctx context.Context, id string) (job Job, err error) {
	startedAt := time.Now().UTC()
	id = strings.TrimSpace(id)
	defer func() {
		s.observeOperation(ctx, startedAt, "poll_job", err, map[string]any{
			"job_id":     id,
			"job_status": string(job.Status),
		})
	}()
	if id == "" {
		return Job{}, badInputError(ErrJobIDRequired.Error(), map[string]any{"field": "job_id"})
	}
	job, err = s.jobStore.Get(ctx, id)
	if err != nil {
		return Job{}, jobLookupError(err, id)
	}
	return job, nil
}

func jobLookupError(err error, jobID string) error {
	if isJobNotFound(err) {
		return notFoundError("core: unknown job_id", map[string]any{"job_id": jobID})
	}
	return internalError(err, "core: job store failed", map[string]any{"job_id": jobID})
}
