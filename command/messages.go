package command

import (
	"strings"

	"github.com/goliatone/go-loadrelay/core"
)

const (
	TypeSubmitJob               = "loadrelay.command.job.submit"
	TypeIngestCallback          = "loadrelay.command.job.callback"
	TypeStartNegotiation        = "loadrelay.command.negotiation.start"
	TypeRecordNegotiationResult = "loadrelay.command.negotiation.result"
	TypeRecordNegotiationRound  = "loadrelay.command.negotiation.round"
)

type SubmitJobMessage struct {
	Request core.SubmitJobRequest
}

func (SubmitJobMessage) Type() string { return TypeSubmitJob }

func (m SubmitJobMessage) Validate() error {
	if strings.TrimSpace(m.Request.UserMessage) == "" {
		return commandValidationError("user_message", "is required")
	}
	return nil
}

type IngestCallbackMessage struct {
	Request core.CallbackRequest
}

func (IngestCallbackMessage) Type() string { return TypeIngestCallback }

func (m IngestCallbackMessage) Validate() error {
	if strings.TrimSpace(m.Request.JobID) == "" {
		return commandValidationError("job_id", "is required")
	}
	return nil
}

// StartNegotiationMessage may omit the session id; the service allocates one.
type StartNegotiationMessage struct {
	Request core.StartNegotiationRequest
}

func (StartNegotiationMessage) Type() string { return TypeStartNegotiation }

func (m StartNegotiationMessage) Validate() error {
	if m.Request.MaxRounds != nil && *m.Request.MaxRounds < 0 {
		return commandValidationError("max_rounds", "must be >= 0")
	}
	if m.Request.CurRound != nil && *m.Request.CurRound < 0 {
		return commandValidationError("cur_round", "must be >= 0")
	}
	return nil
}

type RecordNegotiationResultMessage struct {
	Request core.NegotiationResultRequest
}

func (RecordNegotiationResultMessage) Type() string { return TypeRecordNegotiationResult }

func (m RecordNegotiationResultMessage) Validate() error {
	if strings.TrimSpace(m.Request.SessionID) == "" {
		return commandValidationError("session_id", "is required")
	}
	return nil
}

type RecordNegotiationRoundMessage struct {
	Round core.NegotiationRound
}

func (RecordNegotiationRoundMessage) Type() string { return TypeRecordNegotiationRound }

func (m RecordNegotiationRoundMessage) Validate() error {
	if m.Round.MaxRounds != nil && *m.Round.MaxRounds < 0 {
		return commandValidationError("max_rounds", "must be >= 0")
	}
	return nil
}
