package inbound

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	gocmd "github.com/goliatone/go-command"
	goerrors "github.com/goliatone/go-errors"
	loadrelay "github.com/goliatone/go-loadrelay"
	"github.com/goliatone/go-loadrelay/adapters/gocommand"
	relaycommand "github.com/goliatone/go-loadrelay/command"
	"github.com/goliatone/go-loadrelay/core"
	relayquery "github.com/goliatone/go-loadrelay/query"
	glog "github.com/goliatone/go-logger/glog"
)

// Handler serves the relay routes over a method-aware ServeMux.
type Handler struct {
	commands     loadrelay.Commands
	queries      loadrelay.Queries
	verifier     Verifier
	logger       glog.Logger
	maxBodyBytes int64
	mux          *http.ServeMux
}

type Option func(*Handler)

func WithVerifier(verifier Verifier) Option {
	return func(h *Handler) {
		h.verifier = verifier
	}
}

func WithLogger(logger glog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

func WithMaxBodyBytes(limit int64) Option {
	return func(h *Handler) {
		if limit > 0 {
			h.maxBodyBytes = limit
		}
	}
}

func NewHandler(facade *loadrelay.Facade, opts ...Option) (*Handler, error) {
	if facade == nil {
		return nil, inboundError(
			"inbound: facade is required",
			goerrors.CategoryInternal,
			http.StatusInternalServerError,
			core.ErrorInternal,
			nil,
		)
	}
	h := &Handler{
		commands:     facade.Commands(),
		queries:      facade.Queries(),
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(h)
	}
	if h.verifier == nil {
		h.verifier = allowAll{}
	}
	h.logger = glog.Ensure(h.logger)
	h.routes()
	return h, nil
}

func (h *Handler) routes() {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.health)
	mux.HandleFunc("GET /loads", h.listLoads)
	mux.HandleFunc("GET /negotiate/result/{session_id}", h.pollNegotiation)

	mux.HandleFunc("POST /submit", h.secured(h.submitJob))
	mux.HandleFunc("POST /start_clean", h.secured(h.submitJob))
	mux.HandleFunc("POST /callback/{job_id}", h.secured(h.callback))
	mux.HandleFunc("POST /webhook", h.secured(h.webhook))
	mux.HandleFunc("GET /result/{job_id}", h.secured(h.jobResult))
	mux.HandleFunc("POST /negotiate/start", h.secured(h.startNegotiation))
	mux.HandleFunc("POST /negotiate/start/v2", h.secured(h.storeNegotiationRound))
	mux.HandleFunc("POST /negotiate/result", h.secured(h.negotiationResult))
	mux.HandleFunc("GET /negotiate/history/{session_id}", h.secured(h.negotiationHistory))
	mux.HandleFunc("POST /mc_key/{mc_key}", h.secured(h.checkCarrier))
	h.mux = mux
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	startedAt := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	h.mux.ServeHTTP(rec, r)

	args := []any{
		"method", r.Method,
		"path", r.URL.Path,
		"status", rec.status,
		"duration_ms", time.Since(startedAt).Milliseconds(),
	}
	logger := h.logger.WithContext(r.Context())
	switch {
	case rec.status >= 500:
		logger.Error("inbound request failed", args...)
	case rec.status >= 400:
		logger.Warn("inbound request rejected", args...)
	default:
		logger.Info("inbound request", args...)
	}
}

func (h *Handler) secured(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.verifier.Verify(r); err != nil {
			h.writeError(w, err, nil)
			return
		}
		next(w, r)
	}
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{OK: "true"})
}

func (h *Handler) submitJob(w http.ResponseWriter, r *http.Request) {
	body, ok := h.objectBody(w, r)
	if !ok {
		return
	}
	msg := relaycommand.SubmitJobMessage{Request: core.SubmitJobRequest{
		UserMessage: core.StringValue(body["user_message"]),
		Payload:     body,
	}}
	out, err := runCommand[core.SubmitJobResult](r.Context(), msg, h.commands.SubmitJob)
	if err != nil {
		var details map[string]any
		if out.JobID != "" {
			details = map[string]any{"job_id": out.JobID}
		}
		h.writeError(w, err, details)
		return
	}
	writeJSON(w, http.StatusOK, submitResponse{OK: true, JobID: out.JobID})
}

func (h *Handler) callback(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(w, r, h.maxBodyBytes)
	if err != nil {
		h.writeError(w, err, nil)
		return
	}
	h.ingest(w, r, core.CallbackRequest{
		JobID: strings.TrimSpace(r.PathValue("job_id")),
		Body:  raw,
		Route: "/callback",
	})
}

func (h *Handler) webhook(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(w, r, h.maxBodyBytes)
	if err != nil {
		h.writeError(w, err, nil)
		return
	}
	body, err := decodeObject(raw)
	if err != nil {
		h.writeError(w, err, nil)
		return
	}
	h.ingest(w, r, core.CallbackRequest{
		JobID: core.StringValue(body["job_id"]),
		Body:  raw,
		Route: "/webhook",
	})
}

func (h *Handler) ingest(w http.ResponseWriter, r *http.Request, req core.CallbackRequest) {
	msg := relaycommand.IngestCallbackMessage{Request: req}
	out, err := runCommand[core.CallbackResult](r.Context(), msg, h.commands.IngestCallback)
	if err != nil {
		h.writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, callbackResponse{
		OK:             true,
		Echo:           out.Echo,
		SuggestedLoads: nonNilLoads(out.SuggestedLoads),
	})
}

func (h *Handler) jobResult(w http.ResponseWriter, r *http.Request) {
	msg := relayquery.PollJobMessage{JobID: r.PathValue("job_id")}
	if err := gocommand.ValidateMessageContract(msg); err != nil {
		h.writeError(w, err, nil)
		return
	}
	job, err := h.queries.PollJob.Query(r.Context(), msg)
	if err != nil {
		h.writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, jobResultResponse{
		OK:             true,
		Status:         string(job.Status),
		Echo:           job.Echo,
		SuggestedLoads: nonNilLoads(job.Result),
	})
}

func (h *Handler) listLoads(w http.ResponseWriter, r *http.Request) {
	msg := relayquery.RecentLoadsMessage{Limit: core.DefaultRecentLimit}
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, inboundBadInput("inbound: limit must be an integer", map[string]any{"limit": raw}), nil)
			return
		}
		msg.Limit = limit
	}
	if err := gocommand.ValidateMessageContract(msg); err != nil {
		h.writeError(w, err, nil)
		return
	}
	loads, err := h.queries.RecentLoads.Query(r.Context(), msg)
	if err != nil {
		h.writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, loadsResponse{Loads: nonNilLoads(loads)})
}

func (h *Handler) startNegotiation(w http.ResponseWriter, r *http.Request) {
	body, ok := h.objectBody(w, r)
	if !ok {
		return
	}
	msg := relaycommand.StartNegotiationMessage{Request: startRequestFromBody(body)}
	out, err := runCommand[core.StartNegotiationResult](r.Context(), msg, h.commands.StartNegotiation)
	if err != nil {
		h.writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, negotiationStartResponse{OK: true, SessionID: out.SessionID, Status: out.Status})
}

func (h *Handler) storeNegotiationRound(w http.ResponseWriter, r *http.Request) {
	body, ok := h.objectBody(w, r)
	if !ok {
		return
	}
	msg := relaycommand.RecordNegotiationRoundMessage{Round: roundFromBody(body)}
	stored, err := runCommand[core.NegotiationRound](r.Context(), msg, h.commands.RecordNegotiationRound)
	if err != nil {
		h.writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, negotiationStoredResponse{
		OK:        true,
		SessionID: stored.SessionID,
		DBID:      stored.ID,
		CurRound:  stored.CurRound,
		MaxRounds: stored.MaxRounds,
		Status:    "stored",
	})
}

func (h *Handler) negotiationResult(w http.ResponseWriter, r *http.Request) {
	body, ok := h.objectBody(w, r)
	if !ok {
		return
	}
	msg := relaycommand.RecordNegotiationResultMessage{Request: core.NegotiationResultRequest{
		SessionID: core.StringValue(body["session_id"]),
		Price:     core.FloatValue(body["ai_negotiated_price"]),
		Reason:    core.StringValue(body["ai_negotiation_reason"]),
	}}
	if _, err := runCommand[core.NegotiationSession](r.Context(), msg, h.commands.RecordNegotiationResult); err != nil {
		h.writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (h *Handler) pollNegotiation(w http.ResponseWriter, r *http.Request) {
	poll, err := h.queries.PollNegotiation.Query(r.Context(), relayquery.PollNegotiationMessage{
		SessionID: r.PathValue("session_id"),
	})
	if err != nil {
		h.writeError(w, err, nil)
		return
	}
	resp := negotiationPollResponse{OK: poll.OK, Status: string(poll.Status), Pending: poll.Pending}
	if poll.OK {
		resp.Result = poll.Result
		if resp.Result == nil {
			resp.Result = &core.NegotiationResult{}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) negotiationHistory(w http.ResponseWriter, r *http.Request) {
	msg := relayquery.NegotiationHistoryMessage{SessionID: r.PathValue("session_id")}
	if err := gocommand.ValidateMessageContract(msg); err != nil {
		h.writeError(w, err, nil)
		return
	}
	rounds, err := h.queries.NegotiationHistory.Query(r.Context(), msg)
	if err != nil {
		h.writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, negotiationHistoryResponse{
		OK:        true,
		SessionID: strings.TrimSpace(msg.SessionID),
		History:   toRoundViews(rounds),
	})
}

func (h *Handler) checkCarrier(w http.ResponseWriter, r *http.Request) {
	msg := relayquery.CheckCarrierMessage{MC: r.PathValue("mc_key")}
	if err := gocommand.ValidateMessageContract(msg); err != nil {
		h.writeError(w, err, nil)
		return
	}
	out, err := h.queries.CheckCarrier.Query(r.Context(), msg)
	if err != nil {
		h.writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// runCommand validates msg, executes cmd and returns whatever result the
// command stored, even alongside an error.
func runCommand[T any, M any](ctx context.Context, msg M, cmd gocmd.Commander[M]) (T, error) {
	var zero T
	if err := gocommand.ValidateMessageContract(msg); err != nil {
		return zero, err
	}
	collector := gocmd.NewResult[T]()
	err := cmd.Execute(gocmd.ContextWithResult(ctx, collector), msg)
	out, ok := collector.Load()
	if !ok {
		return zero, err
	}
	return out, err
}

func (h *Handler) objectBody(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	raw, err := readBody(w, r, h.maxBodyBytes)
	if err != nil {
		h.writeError(w, err, nil)
		return nil, false
	}
	body, err := decodeObject(raw)
	if err != nil {
		h.writeError(w, err, nil)
		return nil, false
	}
	return body, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error, details map[string]any) {
	status, mapped := statusFor(err)
	envelope := errorEnvelope{OK: false, Error: http.StatusText(status), TextCode: core.ErrorInternal}
	if mapped != nil {
		envelope.Error = mapped.Message
		envelope.TextCode = mapped.TextCode
	}
	envelope.Details = details
	writeJSON(w, status, envelope)
}

func nonNilLoads(loads []core.Load) []core.Load {
	if loads == nil {
		return []core.Load{}
	}
	return loads
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
