package core

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const NegotiationStartedStatus = "negotiation started"

type StartNegotiationRequest struct {
	SessionID      string
	Load           map[string]any
	UserMessage    string
	RequestedPrice *float64
	CurRound       *int
	MaxRounds      *int
	Raw            map[string]any
}

type StartNegotiationResult struct {
	SessionID     string
	Status        string
	SessionStatus SessionStatus
	Dispatched    bool
}

type NegotiationResultRequest struct {
	SessionID string
	Price     *float64
	Reason    string
}

// NegotiationPoll is the poll view of a session. Unknown and pending handles
// are reported the same way.
type NegotiationPoll struct {
	OK      bool
	Status  SessionStatus
	Pending bool
	Result  *NegotiationResult
}

func (s *Service) StartNegotiation(ctx context.Context, req StartNegotiationRequest) (result StartNegotiationResult, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{}
	defer func() {
		fields["session_id"] = result.SessionID
		fields["dispatched"] = result.Dispatched
		s.observeOperation(ctx, startedAt, "start_negotiation", err, fields)
	}()

	webhookURL := strings.TrimSpace(s.config.Negotiation.WebhookURL)
	if webhookURL == "" {
		return StartNegotiationResult{}, notConfiguredError("core: negotiation webhook url is not configured", nil)
	}

	sessionID := s.handle(req.SessionID)
	request := copyAnyMap(req.Raw)
	request["session_id"] = sessionID
	session, err := s.sessionStore.AppendUserTurn(ctx, sessionID, UserTurn{
		Message:        req.UserMessage,
		RequestedPrice: req.RequestedPrice,
		Request:        request,
		Reopen:         s.config.Negotiation.ReopenOnStart,
	})
	if err != nil {
		return StartNegotiationResult{}, internalError(err, "core: session update failed", map[string]any{"session_id": sessionID})
	}
	result = StartNegotiationResult{
		SessionID:     sessionID,
		Status:        NegotiationStartedStatus,
		SessionStatus: session.Status,
	}

	load := req.Load
	if load == nil {
		load = map[string]any{}
	}
	headers := map[string]string{}
	if apiKey := strings.TrimSpace(s.config.Negotiation.APIKey); apiKey != "" {
		headers["X-API-Key"] = apiKey
	}
	delivery := s.relay.Deliver(ctx, DeliveryRequest{
		URL:     webhookURL,
		Method:  http.MethodPost,
		Headers: headers,
		Payload: map[string]any{
			"event":      "negotiate",
			"session_id": sessionID,
			"cur_round":  req.CurRound,
			"load":       load,
			"user": map[string]any{
				"message":         req.UserMessage,
				"requested_price": req.RequestedPrice,
			},
			"constraints": map[string]any{"max_rounds": s.effectiveMaxRounds(req.MaxRounds)},
			"history":     RenderTranscript(session.Transcript),
		},
		Timeout: s.config.Workflow.Timeout,
	})
	result.Dispatched = delivery.Delivered
	if !delivery.Delivered {
		dispatchErr := externalError(delivery.Err, "core: negotiation forward failed", map[string]any{
			"session_id":  sessionID,
			"status_code": delivery.StatusCode,
		})
		if s.config.Negotiation.PropagateDispatchErrors {
			return result, dispatchErr
		}
		s.logWarn(ctx, "negotiation forward failed", map[string]any{
			"session_id":  sessionID,
			"status_code": delivery.StatusCode,
			"error":       dispatchErr.Error(),
		})
	}
	return result, nil
}

// effectiveMaxRounds caps the requested round count at the configured
// maximum. Absent or non-positive requests use the maximum.
func (s *Service) effectiveMaxRounds(requested *int) int {
	limit := s.config.Negotiation.MaxRounds
	if limit <= 0 {
		limit = DefaultMaxNegotiationRounds
	}
	if requested == nil || *requested <= 0 {
		return limit
	}
	return min(limit, *requested)
}

// RecordNegotiationResult stores the workflow answer, creating the session on
// first sight.
func (s *Service) RecordNegotiationResult(ctx context.Context, req NegotiationResultRequest) (session NegotiationSession, err error) {
	startedAt := time.Now().UTC()
	sessionID := strings.TrimSpace(req.SessionID)
	defer func() {
		s.observeOperation(ctx, startedAt, "record_negotiation_result", err, map[string]any{
			"session_id": sessionID,
		})
	}()
	if sessionID == "" {
		return NegotiationSession{}, badInputError("core: session_id required", map[string]any{"field": "session_id"})
	}
	session, err = s.sessionStore.RecordResult(ctx, sessionID, NegotiationResult{
		Price:  req.Price,
		Reason: req.Reason,
	})
	if err != nil {
		return NegotiationSession{}, internalError(err, "core: session update failed", map[string]any{"session_id": sessionID})
	}
	return session, nil
}

func (s *Service) PollNegotiation(ctx context.Context, id string) (poll NegotiationPoll, err error) {
	startedAt := time.Now().UTC()
	id = strings.TrimSpace(id)
	defer func() {
		s.observeOperation(ctx, startedAt, "poll_negotiation", err, map[string]any{
			"session_id": id,
			"status":     string(poll.Status),
		})
	}()
	if id == "" {
		return NegotiationPoll{Status: SessionStatusUnknown, Pending: true}, nil
	}
	session, found, err := s.sessionStore.Get(ctx, id)
	if err != nil {
		return NegotiationPoll{}, internalError(err, "core: session lookup failed", map[string]any{"session_id": id})
	}
	if !found {
		return NegotiationPoll{Status: SessionStatusUnknown, Pending: true}, nil
	}
	if !session.Status.Terminal() {
		return NegotiationPoll{Status: session.Status, Pending: true}, nil
	}
	return NegotiationPoll{OK: true, Status: session.Status, Result: session.Result}, nil
}

// RecordNegotiationRound appends a durable round row. The session handle is
// generated when absent.
func (s *Service) RecordNegotiationRound(ctx context.Context, round NegotiationRound) (stored NegotiationRound, err error) {
	startedAt := time.Now().UTC()
	defer func() {
		s.observeOperation(ctx, startedAt, "record_negotiation_round", err, map[string]any{
			"session_id": stored.SessionID,
			"round_id":   stored.ID,
		})
	}()
	if s.ledger == nil {
		return NegotiationRound{}, notConfiguredError("core: negotiation ledger is not configured", nil)
	}
	round.SessionID = s.handle(round.SessionID)
	round.ID = s.handle(round.ID)
	if round.CreatedAt.IsZero() {
		round.CreatedAt = s.now()
	}
	stored, err = s.ledger.AppendRound(ctx, round)
	if err != nil {
		return NegotiationRound{}, internalError(err, "core: negotiation round insert failed", map[string]any{
			"session_id": round.SessionID,
		})
	}
	return stored, nil
}

func (s *Service) NegotiationHistory(ctx context.Context, id string) (rounds []NegotiationRound, err error) {
	startedAt := time.Now().UTC()
	id = strings.TrimSpace(id)
	defer func() {
		s.observeOperation(ctx, startedAt, "negotiation_history", err, map[string]any{
			"session_id": id,
			"rounds":     len(rounds),
		})
	}()
	if id == "" {
		return nil, badInputError(ErrSessionIDRequired.Error(), map[string]any{"field": "session_id"})
	}
	if s.ledger == nil {
		return nil, notConfiguredError("core: negotiation ledger is not configured", nil)
	}
	rounds, err = s.ledger.ListRounds(ctx, id)
	if err != nil {
		return nil, internalError(err, "core: negotiation history fetch failed", map[string]any{"session_id": id})
	}
	if rounds == nil {
		rounds = []NegotiationRound{}
	}
	return rounds, nil
}

// RenderTranscript renders the transcript in the line format the negotiation
// workflow reads as its history field.
func RenderTranscript(entries []TranscriptEntry) string {
	var b strings.Builder
	for _, entry := range entries {
		at := entry.At.UTC().Format(time.RFC3339Nano)
		switch entry.Actor {
		case ActorAgent:
			fmt.Fprintf(&b, "\n[AI @ %s] %s (offer=$%s)", at, entry.Message, formatOffer(entry.Offer))
		default:
			fmt.Fprintf(&b, "\n[User @ %s] %s (requested_price=%s)", at, entry.Message, formatOffer(entry.Offer))
		}
	}
	return b.String()
}

func formatOffer(offer *float64) string {
	if offer == nil {
		return "none"
	}
	return strconv.FormatFloat(*offer, 'f', -1, 64)
}
