package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-loadrelay/core"
)

type JobService interface {
	SubmitJob(ctx context.Context, req core.SubmitJobRequest) (core.SubmitJobResult, error)
	IngestCallback(ctx context.Context, req core.CallbackRequest) (core.CallbackResult, error)
}

type NegotiationService interface {
	StartNegotiation(ctx context.Context, req core.StartNegotiationRequest) (core.StartNegotiationResult, error)
	RecordNegotiationResult(ctx context.Context, req core.NegotiationResultRequest) (core.NegotiationSession, error)
	RecordNegotiationRound(ctx context.Context, round core.NegotiationRound) (core.NegotiationRound, error)
}

type MutatingService interface {
	JobService
	NegotiationService
}

type SubmitJobCommand struct {
	service JobService
}

func NewSubmitJobCommand(service JobService) *SubmitJobCommand {
	return &SubmitJobCommand{service: service}
}

// Execute stores the result even when delivery failed, so callers can still
// report the job id of the pending job.
func (c *SubmitJobCommand) Execute(ctx context.Context, msg SubmitJobMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: job service is required")
	}
	out, err := c.service.SubmitJob(ctx, msg.Request)
	if out.JobID != "" {
		storeResult(ctx, out)
	}
	return err
}

type IngestCallbackCommand struct {
	service JobService
}

func NewIngestCallbackCommand(service JobService) *IngestCallbackCommand {
	return &IngestCallbackCommand{service: service}
}

func (c *IngestCallbackCommand) Execute(ctx context.Context, msg IngestCallbackMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: callback service is required")
	}
	out, err := c.service.IngestCallback(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type StartNegotiationCommand struct {
	service NegotiationService
}

func NewStartNegotiationCommand(service NegotiationService) *StartNegotiationCommand {
	return &StartNegotiationCommand{service: service}
}

func (c *StartNegotiationCommand) Execute(ctx context.Context, msg StartNegotiationMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: negotiation service is required")
	}
	out, err := c.service.StartNegotiation(ctx, msg.Request)
	if out.SessionID != "" {
		storeResult(ctx, out)
	}
	return err
}

type RecordNegotiationResultCommand struct {
	service NegotiationService
}

func NewRecordNegotiationResultCommand(service NegotiationService) *RecordNegotiationResultCommand {
	return &RecordNegotiationResultCommand{service: service}
}

func (c *RecordNegotiationResultCommand) Execute(ctx context.Context, msg RecordNegotiationResultMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: negotiation service is required")
	}
	out, err := c.service.RecordNegotiationResult(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type RecordNegotiationRoundCommand struct {
	service NegotiationService
}

func NewRecordNegotiationRoundCommand(service NegotiationService) *RecordNegotiationRoundCommand {
	return &RecordNegotiationRoundCommand{service: service}
}

func (c *RecordNegotiationRoundCommand) Execute(ctx context.Context, msg RecordNegotiationRoundMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: negotiation service is required")
	}
	out, err := c.service.RecordNegotiationRound(ctx, msg.Round)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
